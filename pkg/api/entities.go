package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/katsudaichi/ant-app/pkg/store"
)

// Actors

func (h *Handler) listActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.store.ListActors(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "list actors", err)
		return
	}
	h.writeJSON(w, http.StatusOK, actors)
}

func (h *Handler) createActor(w http.ResponseWriter, r *http.Request) {
	var a store.Actor
	if err := decodeBody(r, &a); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if a.Name == "" {
		h.badRequest(w, "name is required")
		return
	}
	a.ProjectID = chi.URLParam(r, "projectID")
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Size == "" {
		a.Size = "3"
	}

	if err := h.store.CreateActor(r.Context(), &a); err != nil {
		h.writeStoreError(w, "create actor", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &a)
}

func (h *Handler) getActor(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetActor(r.Context(), chi.URLParam(r, "actorID"))
	if err != nil {
		h.writeStoreError(w, "get actor", err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) updateActor(w http.ResponseWriter, r *http.Request) {
	var a store.Actor
	if err := decodeBody(r, &a); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	a.ID = chi.URLParam(r, "actorID")

	if err := h.store.UpdateActor(r.Context(), &a); err != nil {
		h.writeStoreError(w, "update actor", err)
		return
	}
	h.writeJSON(w, http.StatusOK, &a)
}

func (h *Handler) deleteActor(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteActor(r.Context(), chi.URLParam(r, "actorID")); err != nil {
		h.writeStoreError(w, "delete actor", err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// Relations

func (h *Handler) listRelations(w http.ResponseWriter, r *http.Request) {
	relations, err := h.store.ListRelations(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "list relations", err)
		return
	}
	h.writeJSON(w, http.StatusOK, relations)
}

func (h *Handler) createRelation(w http.ResponseWriter, r *http.Request) {
	var rel store.Relation
	if err := decodeBody(r, &rel); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if rel.SourceID == "" || rel.TargetID == "" {
		h.badRequest(w, "sourceId and targetId are required")
		return
	}
	rel.ProjectID = chi.URLParam(r, "projectID")
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}

	if err := h.store.CreateRelation(r.Context(), &rel); err != nil {
		h.writeStoreError(w, "create relation", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &rel)
}

func (h *Handler) updateRelation(w http.ResponseWriter, r *http.Request) {
	var rel store.Relation
	if err := decodeBody(r, &rel); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	rel.ID = chi.URLParam(r, "relationID")

	if err := h.store.UpdateRelation(r.Context(), &rel); err != nil {
		h.writeStoreError(w, "update relation", err)
		return
	}
	h.writeJSON(w, http.StatusOK, &rel)
}

func (h *Handler) deleteRelation(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRelation(r.Context(), chi.URLParam(r, "relationID")); err != nil {
		h.writeStoreError(w, "delete relation", err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// Groups

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "list groups", err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var g store.Group
	if err := decodeBody(r, &g); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if g.Name == "" {
		h.badRequest(w, "name is required")
		return
	}
	g.ProjectID = chi.URLParam(r, "projectID")
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	if err := h.store.CreateGroup(r.Context(), &g); err != nil {
		h.writeStoreError(w, "create group", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &g)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	var g store.Group
	if err := decodeBody(r, &g); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	g.ID = chi.URLParam(r, "groupID")

	if err := h.store.UpdateGroup(r.Context(), &g); err != nil {
		h.writeStoreError(w, "update group", err)
		return
	}
	h.writeJSON(w, http.StatusOK, &g)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		h.writeStoreError(w, "delete group", err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// Comments

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListComments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "list comments", err)
		return
	}
	h.writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var c store.Comment
	if err := decodeBody(r, &c); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if c.Text == "" {
		h.badRequest(w, "text is required")
		return
	}
	c.ProjectID = chi.URLParam(r, "projectID")
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	if err := h.store.CreateComment(r.Context(), &c); err != nil {
		h.writeStoreError(w, "create comment", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &c)
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	var c store.Comment
	if err := decodeBody(r, &c); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	c.ID = chi.URLParam(r, "commentID")

	if err := h.store.UpdateComment(r.Context(), &c); err != nil {
		h.writeStoreError(w, "update comment", err)
		return
	}
	h.writeJSON(w, http.StatusOK, &c)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteComment(r.Context(), chi.URLParam(r, "commentID")); err != nil {
		h.writeStoreError(w, "delete comment", err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// Stars

func (h *Handler) listStars(w http.ResponseWriter, r *http.Request) {
	stars, err := h.store.ListStars(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeStoreError(w, "list stars", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stars)
}

func (h *Handler) createStar(w http.ResponseWriter, r *http.Request) {
	var s store.Star
	if err := decodeBody(r, &s); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	s.ProjectID = chi.URLParam(r, "projectID")
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	if err := h.store.CreateStar(r.Context(), &s); err != nil {
		h.writeStoreError(w, "create star", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &s)
}

func (h *Handler) deleteStar(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStar(r.Context(), chi.URLParam(r, "starID")); err != nil {
		h.writeStoreError(w, "delete star", err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
