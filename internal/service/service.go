package service

import (
	"errors"
	"io"

	"github.com/bitfantasy/nimo-cmms/internal/config"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 业务错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidTechnician  = errors.New("invalid technician")
	ErrAlreadyCompleted   = errors.New("maintenance already completed")
	ErrAlreadySubmitted   = errors.New("report already submitted")
	ErrForbidden          = errors.New("access denied")
	ErrValidation         = errors.New("validation failed")
)

// Actor 已认证的操作者，由HTTP层从token中提取后传入
type Actor struct {
	ID        string
	Role      string
	IP        string
	UserAgent string
}

// FileUpload 上传文件输入
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	ContentType string
}

// Services 服务集合
type Services struct {
	Auth        *AuthService
	User        *UserService
	Machine     *MachineService
	Maintenance *MaintenanceService
	Report      *ReportService
	Audit       *AuditService
	Storage     *StorageService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, file storage disabled", zap.Error(err))
			minioClient = nil
		}
	}

	audit := NewAuditService(repos.AuditLog, logger)
	storage := NewStorageService(minioClient, cfg.MinIO.Bucket, logger)

	return &Services{
		Auth:        NewAuthService(repos.User, rdb, cfg, audit),
		User:        NewUserService(repos.User, repos.Attachment, storage, audit),
		Machine:     NewMachineService(repos.Machine, repos.Attachment, storage, audit),
		Maintenance: NewMaintenanceService(repos.Maintenance, repos.Machine, repos.User, repos.Attachment, storage, audit),
		Report:      NewReportService(repos.Report, repos.Machine, repos.Attachment, storage, audit),
		Audit:       audit,
		Storage:     storage,
	}
}
