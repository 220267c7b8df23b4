package orchestrators

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/trainer"
)

// TrainerStoreForOrchestrator defines the store interface needed by the trainer orchestrators.
type TrainerStoreForOrchestrator interface {
	GetByID(ctx context.Context, branchID, id string) (trainer.Trainer, error)
	Create(ctx context.Context, t trainer.Trainer) error
	Update(ctx context.Context, t trainer.Trainer) error
	Delete(ctx context.Context, branchID, id string) error
}

// PhotoStore saves and removes trainer photos.
type PhotoStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Remove(rel string) error
}

// TrainerInput carries the editable trainer fields. Photo, when non-nil,
// replaces the current photo; RemovePhoto clears it.
type TrainerInput struct {
	ID             string
	BranchID       string
	Name           string
	Email          string
	Phone          string
	Specialization string
	Bio            string
	Status         string
	HireDate       string
	Photo          io.Reader
	RemovePhoto    bool
	Actor          Actor
}

// TrainerDeps holds dependencies for the trainer orchestrators.
type TrainerDeps struct {
	TrainerStore TrainerStoreForOrchestrator
	Photos       PhotoStore
	Audit        AuditSaver
	GenerateID   func() string
	Now          func() time.Time
}

func (in TrainerInput) apply(t *trainer.Trainer) {
	t.Name = strings.TrimSpace(in.Name)
	t.Email = strings.TrimSpace(in.Email)
	t.Phone = strings.TrimSpace(in.Phone)
	t.Specialization = strings.TrimSpace(in.Specialization)
	t.Bio = in.Bio
	t.HireDate = in.HireDate
	if in.Status != "" {
		t.Status = in.Status
	}
}

// ExecuteCreateTrainer creates a trainer in the actor's branch, storing the
// uploaded photo first.
// POST: A failed photo save aborts the create; nothing is written
func ExecuteCreateTrainer(ctx context.Context, input TrainerInput, deps TrainerDeps) (trainer.Trainer, error) {
	now := nowFrom(deps.Now)
	t := trainer.Trainer{
		ID:        idFrom(deps.GenerateID),
		BranchID:  input.BranchID,
		Status:    trainer.StatusActive,
		CreatedAt: now,
	}
	input.apply(&t)
	if err := t.Validate(); err != nil {
		return trainer.Trainer{}, err
	}

	if input.Photo != nil && deps.Photos != nil {
		rel, err := deps.Photos.Save(ctx, input.Photo)
		if err != nil {
			return trainer.Trainer{}, err
		}
		t.PhotoPath = rel
	}

	if err := deps.TrainerStore.Create(ctx, t); err != nil {
		removePhoto(deps.Photos, t.PhotoPath)
		return trainer.Trainer{}, err
	}

	slog.Info("trainer_event", "event", "trainer_created", "trainer_id", t.ID, "branch_id", t.BranchID, "has_photo", t.PhotoPath != "")
	recordAudit(ctx, deps.Audit, input.Actor.event(now, audit.CategoryTrainer, audit.ActionCreate).
		WithBranch(t.BranchID).
		WithResource("trainer", t.ID).
		WithDescription("Created trainer " + t.Name))
	return t, nil
}

// ExecuteUpdateTrainer rewrites a trainer of the actor's branch. A new photo
// replaces the old file, which is removed after the update commits.
// POST: trainer.ErrNotFound for trainers of other branches
func ExecuteUpdateTrainer(ctx context.Context, input TrainerInput, deps TrainerDeps) (trainer.Trainer, error) {
	t, err := deps.TrainerStore.GetByID(ctx, input.BranchID, input.ID)
	if err != nil {
		return trainer.Trainer{}, err
	}
	input.apply(&t)
	if err := t.Validate(); err != nil {
		return trainer.Trainer{}, err
	}

	previous := t.PhotoPath
	if input.RemovePhoto {
		t.PhotoPath = ""
	}
	if input.Photo != nil && deps.Photos != nil {
		rel, err := deps.Photos.Save(ctx, input.Photo)
		if err != nil {
			return trainer.Trainer{}, err
		}
		t.PhotoPath = rel
	}

	if err := deps.TrainerStore.Update(ctx, t); err != nil {
		if t.PhotoPath != previous {
			removePhoto(deps.Photos, t.PhotoPath)
		}
		return trainer.Trainer{}, err
	}
	if previous != "" && previous != t.PhotoPath {
		removePhoto(deps.Photos, previous)
	}

	slog.Info("trainer_event", "event", "trainer_updated", "trainer_id", t.ID, "branch_id", t.BranchID, "status", t.Status)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryTrainer, audit.ActionUpdate).
		WithBranch(t.BranchID).
		WithResource("trainer", t.ID))
	return t, nil
}

// ExecuteDeleteTrainer removes a trainer of the actor's branch and its photo.
// Schedules, sessions and assignments cascade.
func ExecuteDeleteTrainer(ctx context.Context, input TrainerInput, deps TrainerDeps) error {
	t, err := deps.TrainerStore.GetByID(ctx, input.BranchID, input.ID)
	if err != nil {
		return err
	}
	if err := deps.TrainerStore.Delete(ctx, input.BranchID, input.ID); err != nil {
		return err
	}
	removePhoto(deps.Photos, t.PhotoPath)

	slog.Info("trainer_event", "event", "trainer_deleted", "trainer_id", t.ID, "branch_id", t.BranchID)
	recordAudit(ctx, deps.Audit, input.Actor.event(nowFrom(deps.Now), audit.CategoryTrainer, audit.ActionDelete).
		WithSeverity(audit.SeverityWarning).
		WithBranch(t.BranchID).
		WithResource("trainer", t.ID).
		WithDescription("Deleted trainer " + t.Name))
	return nil
}

// removePhoto deletes a stored photo, logging failures.
func removePhoto(photos PhotoStore, rel string) {
	if photos == nil || rel == "" {
		return
	}
	if err := photos.Remove(rel); err != nil {
		slog.Warn("trainer_event", "event", "photo_remove_failed", "path", rel, "error", err)
	}
}
