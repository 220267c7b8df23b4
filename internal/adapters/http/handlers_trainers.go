package web

import (
	"errors"
	"io"
	"net/http"

	"gymhub/internal/adapters/http/middleware"
	"gymhub/internal/adapters/photos"
	trainerStore "gymhub/internal/adapters/storage/trainer"
	"gymhub/internal/application/orchestrators"
	"gymhub/internal/domain/trainer"
)

func trainerDeps() orchestrators.TrainerDeps {
	deps := orchestrators.TrainerDeps{
		TrainerStore: stores.TrainerStore,
		Audit:        stores.AuditStore,
		Now:          timeNow,
	}
	if photoStore != nil {
		deps.Photos = photoStore
	}
	return deps
}

// handleTrainers lists the branch's trainers (GET /trainers)
func handleTrainers(w http.ResponseWriter, r *http.Request) {
	filter := trainerStore.ListFilter{
		BranchID: branchID(r),
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("q"),
	}
	list, err := stores.TrainerStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "trainers.html", map[string]any{
		"Trainers": list,
		"Filter":   filter,
	})
}

// handleTrainerProfile renders one trainer with the markdown bio (GET /trainers/{id})
func handleTrainerProfile(w http.ResponseWriter, r *http.Request) {
	t, err := stores.TrainerStore.GetByID(r.Context(), branchID(r), r.PathValue("id"))
	if err != nil {
		failRedirect(w, r, "/trainers", err)
		return
	}
	renderTemplate(w, r, "trainer.html", map[string]any{"Trainer": t})
}

// handleNewTrainerForm handles GET /trainers/new
func handleNewTrainerForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "trainer_form.html", map[string]any{
		"Trainer": trainer.Trainer{Status: trainer.StatusActive},
	})
}

// handleEditTrainerForm handles GET /trainers/{id}/edit
func handleEditTrainerForm(w http.ResponseWriter, r *http.Request) {
	t, err := stores.TrainerStore.GetByID(r.Context(), branchID(r), r.PathValue("id"))
	if err != nil {
		failRedirect(w, r, "/trainers", err)
		return
	}
	renderTemplate(w, r, "trainer_form.html", map[string]any{"Trainer": t})
}

// handleCreateTrainer handles POST /trainers (multipart, optional photo)
func handleCreateTrainer(w http.ResponseWriter, r *http.Request) {
	input, closePhoto, err := trainerInput(w, r, "")
	if err != nil {
		failRedirect(w, r, "/trainers/new", err)
		return
	}
	defer closePhoto()
	t, err := orchestrators.ExecuteCreateTrainer(r.Context(), input, trainerDeps())
	if err != nil {
		failRedirect(w, r, "/trainers/new", err)
		return
	}
	redirectNotice(w, r, "/trainers", middleware.NoticeSuccess, t.Name+" added.")
}

// handleUpdateTrainer handles POST /trainers/{id} (multipart, optional photo)
// POST: a new photo replaces the old file; remove_photo clears it
func handleUpdateTrainer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	input, closePhoto, err := trainerInput(w, r, id)
	if err != nil {
		failRedirect(w, r, "/trainers/"+id+"/edit", err)
		return
	}
	defer closePhoto()
	t, err := orchestrators.ExecuteUpdateTrainer(r.Context(), input, trainerDeps())
	if err != nil {
		failRedirect(w, r, "/trainers/"+id+"/edit", err)
		return
	}
	redirectNotice(w, r, "/trainers/"+t.ID, middleware.NoticeSuccess, t.Name+" updated.")
}

// handleDeleteTrainer handles POST /trainers/{id}/delete
func handleDeleteTrainer(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteTrainer(r.Context(), orchestrators.TrainerInput{
		ID:       r.PathValue("id"),
		BranchID: branchID(r),
		Actor:    actorFrom(r),
	}, trainerDeps())
	if err != nil {
		failRedirect(w, r, "/trainers", err)
		return
	}
	redirectNotice(w, r, "/trainers", middleware.NoticeSuccess, "Trainer deleted.")
}

// trainerInput reads the multipart trainer form. The returned func closes
// the uploaded file, if any.
func trainerInput(w http.ResponseWriter, r *http.Request, id string) (orchestrators.TrainerInput, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, photos.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return orchestrators.TrainerInput{}, noop, photos.ErrTooLarge
		}
		return orchestrators.TrainerInput{}, noop, &formError{Problems: []string{"the form could not be read"}}
	}

	var form trainerForm
	if err := decodeForm(r, &form); err != nil {
		return orchestrators.TrainerInput{}, noop, err
	}
	input := orchestrators.TrainerInput{
		ID:             id,
		BranchID:       branchID(r),
		Name:           form.Name,
		Email:          form.Email,
		Phone:          form.Phone,
		Specialization: form.Specialization,
		Bio:            form.Bio,
		Status:         form.Status,
		HireDate:       form.HireDate,
		RemovePhoto:    form.RemovePhoto,
		Actor:          actorFrom(r),
	}

	file, header, err := r.FormFile("photo")
	if err != nil || header.Size == 0 {
		if file != nil {
			file.Close()
		}
		return input, noop, nil
	}
	if header.Size > photos.MaxUploadBytes {
		file.Close()
		return orchestrators.TrainerInput{}, noop, photos.ErrTooLarge
	}
	input.Photo = io.Reader(file)
	return input, func() { file.Close() }, nil
}
