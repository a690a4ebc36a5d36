package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/katsudaichi/ant-app/pkg/snapshot"
	"github.com/katsudaichi/ant-app/pkg/store"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		h.writeStoreError(w, "list projects", err)
		return
	}
	h.writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var p store.Project
	if err := decodeBody(r, &p); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if p.Name == "" {
		h.badRequest(w, "name is required")
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if err := h.store.CreateProject(r.Context(), &p); err != nil {
		h.writeStoreError(w, "create project", err)
		return
	}
	h.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	h.writeJSON(w, http.StatusCreated, &p)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "get project", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var p store.Project
	if err := decodeBody(r, &p); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	p.ID = chi.URLParam(r, "projectID")

	if err := h.store.UpdateProject(r.Context(), &p); err != nil {
		h.writeStoreError(w, "update project", err)
		return
	}
	h.writeJSON(w, http.StatusOK, &p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := h.store.DeleteProject(r.Context(), projectID); err != nil {
		h.writeStoreError(w, "delete project", err)
		return
	}
	h.logger.Info("project deleted", "project_id", projectID)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// exportProject streams a full-project snapshot: the project record plus
// every entity, self-contained for backup or import elsewhere.
func (h *Handler) exportProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	snap, err := snapshot.Build(r.Context(), h.store, projectID)
	if err != nil {
		h.writeStoreError(w, "export project", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+projectID+`.json"`)
	h.writeJSON(w, http.StatusOK, snap)
}
