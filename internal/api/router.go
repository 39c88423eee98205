package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lyricist/internal/document"
	"github.com/starford/lyricist/internal/rhymes"
)

// Deps are the collaborators mounted by NewRouter.
type Deps struct {
	Documents *document.Service
	Rhymes    rhymes.Lookup
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// Session, if non-nil, is mounted at GET /session.
	Session http.Handler
	// Root is the documents directory; audio takes live under it.
	Root string
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(deps Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(deps.Documents, deps.Rhymes)
	ah := NewAudioHandler(deps.Root)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Post("/documents/new", h.NewDocument)
	r.Get("/documents/*", h.OpenDocument)
	r.Put("/documents/*", h.SaveDocument)
	r.Get("/recent", h.Recent)

	// Search.
	r.Get("/search", h.Search)

	// Rhymes.
	r.Get("/rhymes", h.Rhymes)

	// Audio takes.
	r.Post("/audio", ah.Upload)
	r.Get("/audio/{filename}", ah.ServeFile)

	// Push channels (protected by same auth middleware).
	if deps.Events != nil {
		r.Get("/events", deps.Events.ServeHTTP)
	}
	if deps.Session != nil {
		r.Get("/session", deps.Session.ServeHTTP)
	}

	return r
}
