package entity

import (
	"time"
)

// 用户角色
const (
	RoleAdmin          = "admin"
	RoleTechnician     = "technician"
	RoleAdministration = "administration"
)

// User 用户实体
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	FirstName string     `json:"first_name" gorm:"size:50;not null"`
	LastName  string     `json:"last_name" gorm:"size:50;not null"`
	Email     string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password  string     `json:"-" gorm:"size:100;not null"`
	Role      string     `json:"role" gorm:"size:20;not null"`
	Phone     string     `json:"phone" gorm:"size:15"`
	IsActive  bool       `json:"is_active" gorm:"not null;default:true"`
	LastLogin *time.Time `json:"last_login"`
	LoginIP   string     `json:"login_ip" gorm:"size:45"`
	Avatar    string     `json:"avatar" gorm:"size:255"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsTechnicianRole 是否具备执行维护的角色
func (u *User) IsTechnicianRole() bool {
	return u.Role == RoleTechnician || u.Role == RoleAdmin
}
