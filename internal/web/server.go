// Package web serves decks, cards and reviews as a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/importer"
	"github.com/conorfennell/iquiz/internal/review"
	"github.com/conorfennell/iquiz/internal/storage"
)

var errNoCardsAvailable = errors.New("no cards available")

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	reviewer *review.Reviewer
	importer *importer.Importer
	router   chi.Router
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used to count due cards.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, reviewer *review.Reviewer, imp *importer.Importer, opts ...Option) *Server {
	s := &Server{
		db:       db,
		reviewer: reviewer,
		importer: imp,
		router:   chi.NewRouter(),
		validate: newValidator(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.routes()
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag name or nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/decks", func(r chi.Router) {
		r.Get("/", s.handleListDecks())
		r.Post("/", s.handleCreateDeck())
		r.Route("/{deckID}", func(r chi.Router) {
			r.Get("/", s.handleGetDeck())
			r.Delete("/", s.handleDeleteDeck())
			r.Get("/cards", s.handleListCards())
			r.Post("/cards", s.handleCreateCard())
			r.Get("/next", s.handleNextCard())
			r.Get("/random", s.handleRandomCard())
			r.Post("/import", s.handleImport())
		})
	})

	s.router.Route("/cards/{cardID}", func(r chi.Router) {
		r.Get("/", s.handleGetCard())
		r.Put("/", s.handleUpdateCard())
		r.Delete("/", s.handleDeleteCard())
		r.Post("/review", s.handleReviewCard())
		r.Get("/tags", s.handleGetCardTags())
		r.Put("/tags", s.handleSetCardTags())
		r.Delete("/tags/{tag}", s.handleRemoveCardTag())
	})

	s.router.Get("/tags", s.handleListTags())
	s.router.Delete("/tags/{tag}", s.handleDeleteTag())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &badRequestError{msg: "invalid request body: " + err.Error()}
	}
	return s.validate.Struct(dst)
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

// pathParam returns the decoded value of a route parameter. chi routes on
// URL.RawPath when it is set, so "a%2Fb" arrives still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		return "", &badRequestError{msg: "invalid " + name}
	}
	return v, nil
}

func deckIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "deckID"), 10, 64)
	if err != nil {
		return 0, &badRequestError{msg: "invalid deck id"}
	}
	return id, nil
}

// requireDeck resolves the deck in the path or reports ErrDeckNotFound.
func (s *Server) requireDeck(r *http.Request) (*domain.Deck, error) {
	id, err := deckIDParam(r)
	if err != nil {
		return nil, err
	}
	deck, err := s.db.GetDeckInfo(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, domain.ErrDeckNotFound
	}
	return deck, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// writeError maps err to a status code. Store failures are logged where
// they happen and reach the client only as a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq   *badRequestError
		invalids validator.ValidationErrors
	)
	switch {
	case errors.As(err, &badReq):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: badReq.msg})
	case errors.As(err, &invalids):
		fields := make([]string, 0, len(invalids))
		for _, fe := range invalids {
			fields = append(fields, fe.Field()+": "+fe.Tag())
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	case errors.Is(err, errNoCardsAvailable):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: errNoCardsAvailable.Error()})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPrecondition):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, review.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		if !storage.IsPersistence(err) {
			s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
