package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imagegenie/whatsapp-bot/internal/bot"
	"github.com/imagegenie/whatsapp-bot/internal/metrics"
	"github.com/imagegenie/whatsapp-bot/internal/service"
	"github.com/imagegenie/whatsapp-bot/internal/whatsapp"
)

const serviceVersion = "1.1"

// Server exposes the WhatsApp webhook, a status page, prometheus metrics and
// the basic-auth protected admin surface.
type Server struct {
	addr        string
	verifyToken string
	username    string
	password    string
	log         *slog.Logger
	bot         *bot.Bot
	accounts    *service.AccountService
	generation  *service.GenerationService
	sender      bot.Sender
	router      *chi.Mux
}

func New(addr, verifyToken, username, password string, log *slog.Logger, b *bot.Bot, accounts *service.AccountService, generation *service.GenerationService, sender bot.Sender) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:        addr,
		verifyToken: verifyToken,
		username:    username,
		password:    password,
		log:         log,
		bot:         b,
		accounts:    accounts,
		generation:  generation,
		sender:      sender,
		router:      r,
	}

	r.Get("/", s.handleStatus)
	r.Get("/webhook", s.handleVerification)
	r.Post("/webhook", s.handleWebhook)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Post("/broadcast", s.handleBroadcast)
		protected.Post("/test-message", s.handleTestMessage)
		protected.Get("/accounts/{phone}", s.handleGetAccount)
		protected.Get("/accounts/{phone}/generations", s.handleListGenerations)
		protected.Post("/accounts/{phone}/credit", s.handleCreditAccount)
	})

	return s
}

// Handler returns the routed http handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "err", err)
		}
	}()

	s.log.Info("webhook server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "ImageGenie WhatsApp Bot",
		"version": serviceVersion,
		"ready":   true,
	})
}

// handleVerification answers the Graph webhook subscription handshake: echo
// the challenge when the caller knows the verify token, reject otherwise.
func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		s.log.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	http.Error(w, "Invalid", http.StatusForbidden)
}

// handleWebhook receives inbound events. It always acknowledges with 200 so
// the provider never retries: a processing failure is logged, not surfaced.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event whatsapp.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("malformed").Inc()
		s.log.Error("decode webhook payload", "err", err)
		s.ack(w)
		return
	}

	from, body, err := event.TextMessage()
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		s.log.Debug("webhook event without text message")
		s.ack(w)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	// Handled synchronously end-to-end before the acknowledgment, so the
	// debit has committed by the time the provider sees the 200.
	s.bot.HandleMessage(r.Context(), from, body)
	s.ack(w)
}

func (s *Server) ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	phones, err := s.accounts.ListPhones(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}

	count := 0
	for _, phone := range phones {
		if !s.sender.SendText(ctx, phone, req.Message) {
			s.log.Error("send broadcast", "phone", phone)
			continue
		}
		count++
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"sent":  count,
		"total": len(phones),
	})
}

type testMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *Server) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	var req testMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		http.Error(w, "phone required", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		req.Message = "Test depuis API"
	}

	ok := s.sender.SendText(r.Context(), req.Phone, req.Message)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": ok,
		"phone":   req.Phone,
		"message": req.Message,
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	account, err := s.accounts.Get(r.Context(), phone)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if account == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"phone":           account.Phone,
		"tokens":          account.Tokens,
		"total_generated": account.TotalGenerated,
		"created_at":      account.CreatedAt,
	})
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.generation.History(r.Context(), phone, limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(records))
	for _, g := range records {
		out = append(out, map[string]any{
			"id":              g.ID,
			"prompt":          g.Prompt,
			"enhanced_prompt": g.EnhancedPrompt,
			"image_url":       g.ImageURL,
			"created_at":      g.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type creditRequest struct {
	Tokens int `json:"tokens"`
}

// handleCreditAccount is the manual recharge entry point: payments happen
// out-of-band, an operator credits the tokens here.
func (s *Server) handleCreditAccount(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Tokens <= 0 {
		http.Error(w, "tokens must be positive", http.StatusBadRequest)
		return
	}

	account, err := s.accounts.Credit(r.Context(), phone, req.Tokens)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"phone":  account.Phone,
		"tokens": account.Tokens,
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="imagegenie"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
