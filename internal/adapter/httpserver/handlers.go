package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/PrRahil/shl-assessment-recommender/internal/config"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// Recommender is the pipeline surface the HTTP layer depends on.
type Recommender interface {
	Recommend(ctx context.Context, query string) (domain.RecommendationSet, error)
	Ready() bool
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Recommender Recommender
	QdrantCheck func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, rec Recommender, qdrantCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Recommender: rec, QdrantCheck: qdrantCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// RecommendHandler serves POST /v1/recommend.
func (s *Server) RecommendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Accept negotiation: only JSON responses supported
		if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
			writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a},
			}})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Query string `json:"query" validate:"required,max=5000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}

		set, err := s.Recommender.Recommend(r.Context(), req.Query)
		if err != nil {
			LoggerFrom(r).Error("recommend failed", "error", err)
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
}

// HealthHandler returns liveness status.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ready": s.Recommender.Ready()})
	}
}

// ReadyzHandler returns readiness, checking the index and downstream deps.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		healthy := true

		if s.Recommender.Ready() {
			checks["index"] = "ok"
		} else {
			checks["index"] = "not built"
			healthy = false
		}
		if s.QdrantCheck != nil {
			if err := s.QdrantCheck(r.Context()); err != nil {
				checks["qdrant"] = err.Error()
				healthy = false
			} else {
				checks["qdrant"] = "ok"
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": healthy, "checks": checks})
	}
}
