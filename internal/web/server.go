// Package web exposes the catalog as a small JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/flashdeck/internal/catalog"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/view"
)

// maxBodyBytes bounds request bodies. Image data URIs make cards large.
const maxBodyBytes = 8 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	router  chi.Router
}

// NewServer creates and configures a new server. A nil logger means
// slog.Default().
func NewServer(c *catalog.Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{catalog: c, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cards", s.handleListCards)
		r.Post("/cards", s.handleSaveCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)

		r.Get("/sets", s.handleListSets)
		r.Post("/sets", s.handleAddSet)
		r.Post("/sets/{id}/toggle", s.handleToggleSet)

		r.Post("/visibility/all", s.handleShowAll)
		r.Post("/visibility/none", s.handleHideAll)

		r.Get("/notice", s.handleGetNotice)
		r.Delete("/notice", s.handleDismissNotice)
	})
	return r
}

// logRequests logs one line per request once the response is written.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Loaded   bool   `json:"loaded"`
	Degraded bool   `json:"degraded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Loaded:   s.catalog.Loaded(),
		Degraded: s.catalog.Degraded(),
	})
}

type cardsResponse struct {
	Sort  string        `json:"sort"`
	Cards []domain.Card `json:"cards"`
}

// handleListCards returns the visible cards. A sort query parameter
// switches the catalog's sort mode first.
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	if raw, ok := r.URL.Query()["sort"]; ok {
		mode, err := view.ParseSortMode(raw[0])
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.catalog.SetSortMode(mode)
	}
	s.writeJSON(w, http.StatusOK, cardsResponse{
		Sort:  s.catalog.SortMode().String(),
		Cards: s.catalog.FilteredCards(),
	})
}

type cardRequest struct {
	ID              domain.CardID  `json:"id"`
	Name            string         `json:"name"`
	ImageURL        string         `json:"imageUrl"`
	AudioURL        string         `json:"audioUrl"`
	SetIDs          []domain.SetID `json:"setIds"`
	BackgroundColor string         `json:"backgroundColor"`
}

type validationResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func (s *Server) handleSaveCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if !s.decode(w, r, &req) {
		return
	}

	card, err := s.catalog.SaveCard(r.Context(), catalog.CardInput{
		ID:              req.ID,
		Name:            req.Name,
		ImageURL:        req.ImageURL,
		AudioURL:        req.AudioURL,
		SetIDs:          req.SetIDs,
		BackgroundColor: req.BackgroundColor,
	})
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Message, Field: verr.Field})
		return
	case errors.Is(err, catalog.ErrCardNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.writeStoreError(w, err, catalog.NoticeSaveFailed)
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	s.writeJSON(w, status, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := domain.CardID(chi.URLParam(r, "id"))
	if err := s.catalog.DeleteCard(r.Context(), id); err != nil {
		s.writeStoreError(w, err, catalog.NoticeDelFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setsResponse struct {
	Sets    []domain.Set   `json:"sets"`
	Visible []domain.SetID `json:"visible"`
}

func (s *Server) setsResponse() setsResponse {
	return setsResponse{
		Sets:    s.catalog.AvailableSets(),
		Visible: s.catalog.Visible(),
	}
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.setsResponse())
}

type setRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !s.decode(w, r, &req) {
		return
	}
	set, ok, err := s.catalog.AddSet(r.Context(), req.Name)
	if err != nil {
		s.writeStoreError(w, err, catalog.NoticeSetFailed)
		return
	}
	if !ok {
		s.writeError(w, http.StatusBadRequest, "set name is required")
		return
	}
	s.writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	s.catalog.ToggleVisible(domain.SetID(chi.URLParam(r, "id")))
	s.writeJSON(w, http.StatusOK, s.setsResponse())
}

func (s *Server) handleShowAll(w http.ResponseWriter, r *http.Request) {
	s.catalog.ShowAll()
	s.writeJSON(w, http.StatusOK, s.setsResponse())
}

func (s *Server) handleHideAll(w http.ResponseWriter, r *http.Request) {
	s.catalog.HideAll()
	s.writeJSON(w, http.StatusOK, s.setsResponse())
}

type noticeResponse struct {
	Notice string `json:"notice"`
}

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, noticeResponse{Notice: s.catalog.Notice()})
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	s.catalog.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v, writing a 400 and returning false when
// it cannot.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeStoreError maps a failed catalog mutation to a status code and
// reports the user-facing notice rather than the internal error.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, notice string) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
	}
	s.writeError(w, status, notice)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}
