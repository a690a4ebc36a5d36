// Package api is the REST surface over the entity store: CRUD for
// projects and their canvas entities, plus full-project JSON export.
// The relay and this package write through the same store, so a REST
// update and a WebSocket mutation are the same underlying operation.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/katsudaichi/ant-app/pkg/store"
)

// Handler serves the REST API.
type Handler struct {
	store  store.EntityStore
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates an API handler backed by st.
func New(st store.EntityStore, opts ...Option) *Handler {
	h := &Handler{store: st}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With("component", "api")
	return h
}

// Routes returns the API router, intended to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Post("/", h.createProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.getProject)
			r.Put("/", h.updateProject)
			r.Delete("/", h.deleteProject)
			r.Get("/export", h.exportProject)

			r.Get("/actors", h.listActors)
			r.Post("/actors", h.createActor)
			r.Get("/relations", h.listRelations)
			r.Post("/relations", h.createRelation)
			r.Get("/groups", h.listGroups)
			r.Post("/groups", h.createGroup)
			r.Get("/comments", h.listComments)
			r.Post("/comments", h.createComment)
			r.Get("/stars", h.listStars)
			r.Post("/stars", h.createStar)
		})
	})

	r.Route("/actors/{actorID}", func(r chi.Router) {
		r.Get("/", h.getActor)
		r.Put("/", h.updateActor)
		r.Delete("/", h.deleteActor)
	})
	r.Route("/relations/{relationID}", func(r chi.Router) {
		r.Put("/", h.updateRelation)
		r.Delete("/", h.deleteRelation)
	})
	r.Route("/groups/{groupID}", func(r chi.Router) {
		r.Put("/", h.updateGroup)
		r.Delete("/", h.deleteGroup)
	})
	r.Route("/comments/{commentID}", func(r chi.Router) {
		r.Put("/", h.updateComment)
		r.Delete("/", h.deleteComment)
	})
	r.Delete("/stars/{starID}", h.deleteStar)

	return r
}
