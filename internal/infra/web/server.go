package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
)

// Server exposes health, metrics and a small read-only admin API over the
// payment and job tables. Admin routes sit behind a JWT session cookie
// obtained by logging in with the configured API key.
type Server struct {
	payments repository.PaymentRepository
	jobs     repository.JobRepository
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	payments repository.PaymentRepository,
	jobs repository.JobRepository,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{payments: payments, jobs: jobs, auth: auth, apiKey: apiKey, log: &webLog}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Get("/api/v1/payments", s.handleListPayments)
		r.Get("/api/v1/jobs", s.handleListJobs)
	})
	return r
}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Verify(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin api key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentView struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	PlanKey    string     `json:"plan_key"`
	Amount     int64      `json:"amount"`
	PeriodDays int        `json:"period_days"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	status := model.PaymentStatus(r.URL.Query().Get("status"))
	payments, err := s.payments.List(r.Context(), repository.NoTX, status, 200)
	if err != nil {
		s.log.Error().Err(err).Msg("payments listing failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentView{
			ID:         p.ID,
			UserID:     p.UserID,
			PlanKey:    p.PlanKey,
			Amount:     p.Amount,
			PeriodDays: p.PeriodDays,
			Status:     string(p.Status),
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
			CreatedAt:  p.CreatedAt,
		})
	}
	writeJSON(w, out)
}

type jobView struct {
	UserID  int64     `json:"user_id"`
	Kind    string    `json:"kind"`
	FireAt  time.Time `json:"fire_at"`
	Display string    `json:"display_name,omitempty"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.ListAll(r.Context(), repository.NoTX)
	if err != nil {
		s.log.Error().Err(err).Msg("jobs listing failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobView{
			UserID:  j.UserID,
			Kind:    string(j.Kind),
			FireAt:  j.FireAt,
			Display: j.Payload.DisplayName,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
