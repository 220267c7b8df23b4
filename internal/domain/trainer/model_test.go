package trainer_test

import (
	"strings"
	"testing"

	"gymhub/internal/domain/trainer"
)

// TestTrainer_Validate tests validation of Trainer.
func TestTrainer_Validate(t *testing.T) {
	base := trainer.Trainer{ID: "t1", BranchID: "b1", Name: "Kai", Status: trainer.StatusActive}

	tests := []struct {
		name    string
		mutate  func(tr *trainer.Trainer)
		wantErr error
	}{
		{"valid", func(tr *trainer.Trainer) {}, nil},
		{"on leave is valid", func(tr *trainer.Trainer) { tr.Status = trainer.StatusOnLeave }, nil},
		{"hire date", func(tr *trainer.Trainer) { tr.HireDate = "2024-05-01" }, nil},
		{"empty name", func(tr *trainer.Trainer) { tr.Name = " " }, trainer.ErrEmptyName},
		{"bad email", func(tr *trainer.Trainer) { tr.Email = "kai" }, trainer.ErrInvalidEmail},
		{"no branch", func(tr *trainer.Trainer) { tr.BranchID = "" }, trainer.ErrMissingBranch},
		{"bad status", func(tr *trainer.Trainer) { tr.Status = "retired" }, trainer.ErrInvalidStatus},
		{"bad hire date", func(tr *trainer.Trainer) { tr.HireDate = "May 2024" }, trainer.ErrInvalidHire},
		{"bio too long", func(tr *trainer.Trainer) { tr.Bio = strings.Repeat("x", trainer.MaxBioLength+1) }, trainer.ErrBioTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base
			tt.mutate(&tr)
			if err := tr.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTrainer_CanTakeSessions tests that only active trainers are schedulable.
func TestTrainer_CanTakeSessions(t *testing.T) {
	for _, status := range trainer.ValidStatuses {
		tr := trainer.Trainer{Status: status}
		want := status == trainer.StatusActive
		if got := tr.CanTakeSessions(); got != want {
			t.Errorf("CanTakeSessions(%s) = %v, want %v", status, got, want)
		}
	}
}
