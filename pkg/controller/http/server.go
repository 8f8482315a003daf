package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/interfaces"
	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/usecase"
	"github.com/clinrec-lab/longview/pkg/utils/async"
	"github.com/clinrec-lab/longview/pkg/utils/errutil"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// Server exposes the knowledge base as a read-only JSON API
type Server struct {
	router   *chi.Mux
	store    interfaces.KBStore
	usecases *usecase.UseCases
	dataDir  string
}

type Options func(*Server)

// WithRebuild enables POST /api/rebuild, which runs a build over dataDir
// in the background
func WithRebuild(uc *usecase.UseCases, dataDir string) Options {
	return func(s *Server) {
		s.usecases = uc
		s.dataDir = dataDir
	}
}

func New(store interfaces.KBStore, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		store:  store,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/kb", s.getKnowledgeBase)
		r.Get("/kb/profile", s.getProfile)
		r.Get("/kb/timeline", s.getTimeline)
		r.Get("/kb/symptoms", s.getSymptoms)
		r.Get("/kb/actions", s.getActions)
		r.Get("/kb/questions", s.getQuestions)

		if s.usecases != nil {
			r.Post("/rebuild", s.postRebuild)
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// load fetches the knowledge base and writes the error response itself
// when nothing is available
func (s *Server) load(w http.ResponseWriter, r *http.Request) *model.KnowledgeBase {
	kb, err := s.store.Load(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return nil
	}
	if kb == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("no knowledge base found"), http.StatusNotFound)
		return nil
	}
	return kb
}

func (s *Server) getKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	if kb := s.load(w, r); kb != nil {
		respondJSON(w, kb)
	}
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	if kb := s.load(w, r); kb != nil {
		respondJSON(w, kb.PatientProfile)
	}
}

// getTimeline returns timeline events, optionally filtered by event type
// and capped to the most recent N with ?limit=
func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	kb := s.load(w, r)
	if kb == nil {
		return
	}

	events := kb.Timeline
	if q := r.URL.Query().Get("type"); q != "" {
		eventType, err := types.ParseEventType(q)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
		var filtered []model.TimelineEvent
		for _, e := range events {
			if e.EventType == eventType {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if q := r.URL.Query().Get("limit"); q != "" {
		limit, err := strconv.Atoi(q)
		if err != nil || limit < 0 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("invalid limit", goerr.V("limit", q)), http.StatusBadRequest)
			return
		}
		if len(events) > limit {
			events = events[len(events)-limit:]
		}
	}

	respondJSON(w, events)
}

func (s *Server) getSymptoms(w http.ResponseWriter, r *http.Request) {
	kb := s.load(w, r)
	if kb == nil {
		return
	}
	if r.URL.Query().Get("active") == "true" {
		respondJSON(w, kb.ActiveSymptoms())
		return
	}
	respondJSON(w, kb.SymptomRegistry)
}

func (s *Server) getActions(w http.ResponseWriter, r *http.Request) {
	kb := s.load(w, r)
	if kb == nil {
		return
	}
	if r.URL.Query().Get("pending") == "true" {
		respondJSON(w, kb.PendingActions())
		return
	}
	respondJSON(w, kb.ActionItems)
}

func (s *Server) getQuestions(w http.ResponseWriter, r *http.Request) {
	if kb := s.load(w, r); kb != nil {
		respondJSON(w, kb.UnresolvedQuestions)
	}
}

// postRebuild kicks off a background build over the configured data
// directory and returns immediately
func (s *Server) postRebuild(w http.ResponseWriter, r *http.Request) {
	dataDir := s.dataDir
	async.Dispatch(r.Context(), func(ctx context.Context) error {
		_, err := s.usecases.Build(ctx, dataDir)
		return err
	})

	w.WriteHeader(http.StatusAccepted)
	respondJSON(w, map[string]string{"status": "accepted"})
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Default().Error("Failed to encode response", "error", err)
	}
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
