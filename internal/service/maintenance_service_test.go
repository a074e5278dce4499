package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextScheduledDate(t *testing.T) {
	tests := []struct {
		name      string
		from      time.Time
		frequency string
		want      *time.Time
	}{
		{"daily", date(2024, 1, 1), entity.FrequencyDaily, ptr(date(2024, 1, 2))},
		{"weekly", date(2024, 1, 1), entity.FrequencyWeekly, ptr(date(2024, 1, 8))},
		{"monthly", date(2024, 1, 1), entity.FrequencyMonthly, ptr(date(2024, 2, 1))},
		{"quarterly", date(2024, 1, 1), entity.FrequencyQuarterly, ptr(date(2024, 4, 1))},
		{"yearly", date(2024, 1, 1), entity.FrequencyYearly, ptr(date(2025, 1, 1))},
		{"once", date(2024, 1, 1), entity.FrequencyOnce, nil},
		{"unknown", date(2024, 1, 1), "biweekly", nil},
		{"empty", date(2024, 1, 1), "", nil},
		// 2024年2月有29天，1月31日加一个月顺延到3月2日
		{"monthly overflow", date(2024, 1, 31), entity.FrequencyMonthly, ptr(date(2024, 3, 2))},
		{"monthly overflow non-leap", date(2023, 1, 31), entity.FrequencyMonthly, ptr(date(2023, 3, 3))},
		{"yearly from leap day", date(2024, 2, 29), entity.FrequencyYearly, ptr(date(2025, 3, 1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextScheduledDate(tt.from, tt.frequency)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Expected %v, got nil", tt.want)
			}
			if !got.Equal(*tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidateMaintenanceCountsRunes(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		duration int
		wantErr  bool
	}{
		{"ascii min length", "Vidan", 60, false},
		{"ascii too short", "Huil", 60, true},
		// 多字节标题按字符数计，不按字节数
		{"multibyte min length", strings.Repeat("润", 5), 60, false},
		{"multibyte too short", "维修", 60, true},
		{"multibyte max length", strings.Repeat("润", 200), 60, false},
		{"multibyte too long", strings.Repeat("润", 201), 60, true},
		{"duration too short", "Vidange moteur", 10, true},
		{"duration too long", "Vidange moteur", 1441, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMaintenance(tt.title, tt.duration)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestNextScheduledDateMonotonic(t *testing.T) {
	frequencies := []string{
		entity.FrequencyDaily,
		entity.FrequencyWeekly,
		entity.FrequencyMonthly,
		entity.FrequencyQuarterly,
		entity.FrequencyYearly,
	}

	for _, freq := range frequencies {
		current := date(2024, 1, 15)
		for i := 0; i < 12; i++ {
			next := NextScheduledDate(current, freq)
			if next == nil {
				t.Fatalf("frequency %s: unexpected nil at step %d", freq, i)
			}
			if !next.After(current) {
				t.Errorf("frequency %s: %v is not after %v", freq, next, current)
			}
			current = *next
		}
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
