package service

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateReportCountsRunes(t *testing.T) {
	desc := strings.Repeat("泵", 10)
	tests := []struct {
		name               string
		title              string
		problemDescription string
		actionsTaken       string
		wantErr            bool
	}{
		{"ascii valid", "Fuite hydraulique", "Fuite au niveau du verin", "Remplacement du joint", false},
		// 多字节字段按字符数计，不按字节数
		{"multibyte valid", strings.Repeat("润", 5), desc, desc, false},
		{"multibyte title too short", "维修", desc, desc, true},
		{"multibyte title too long", strings.Repeat("润", 201), desc, desc, true},
		{"multibyte description too short", strings.Repeat("润", 5), "漏油了", desc, true},
		{"multibyte actions too short", strings.Repeat("润", 5), desc, "换零件", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReport(tt.title, tt.problemDescription, tt.actionsTaken)
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

func TestComputeDuration(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    int
		wantErr bool
	}{
		{"morning shift", "08:00", "10:30", 150, false},
		{"one minute", "08:00", "08:01", 1, false},
		{"full day", "00:00", "23:59", 1439, false},
		{"equal times", "08:00", "08:00", 0, true},
		{"end before start", "10:30", "08:00", 0, true},
		{"bad start format", "8h00", "10:30", 0, true},
		{"bad end format", "08:00", "25:00", 0, true},
		{"empty", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDuration(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got duration %d", got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %d minutes, got %d", tt.want, got)
			}
		})
	}
}
