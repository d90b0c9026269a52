package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ebrown/guildhall/internal/archive"
	"github.com/ebrown/guildhall/internal/auth"
	"github.com/ebrown/guildhall/internal/handler"
	"github.com/ebrown/guildhall/internal/middleware"
	guildsync "github.com/ebrown/guildhall/internal/sync"
	ws "github.com/ebrown/guildhall/internal/websocket"
)

type Server struct {
	hub         *ws.Hub
	guildH      *handler.GuildHandler
	ledgerH     *handler.LedgerHandler
	authH       *handler.AuthHandler
	sessions    *auth.Sessions
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(engine *guildsync.Engine, hub *ws.Hub, archiveMgr *archive.Manager, sessions *auth.Sessions, logger *slog.Logger) *Server {
	return &Server{
		hub:         hub,
		guildH:      handler.NewGuildHandler(engine, logger.With("component", "guild")),
		ledgerH:     handler.NewLedgerHandler(engine, archiveMgr, logger.With("component", "ledger")),
		authH:       handler.NewAuthHandler(sessions),
		sessions:    sessions,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Sessions returns the session table for cleanup tasks.
func (s *Server) Sessions() *auth.Sessions {
	return s.sessions
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))

	// Everything else sits behind the household passcode gate (a no-op when
	// no passcode is configured).
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	gate := middleware.RequireSession(s.sessions)
	outerMux.Handle("/", gate(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Document + derived views
	mux.HandleFunc("GET /api/state", s.guildH.State)
	mux.HandleFunc("GET /api/views", s.guildH.Views)

	// Quests
	mux.HandleFunc("POST /api/quests", s.guildH.CreateQuest)
	mux.HandleFunc("POST /api/quests/cleaning", s.guildH.CreateCleaningTask)
	mux.HandleFunc("POST /api/quests/{id}/complete", s.guildH.CompleteQuest)
	mux.HandleFunc("POST /api/quests/{id}/progress", s.guildH.UpdateProgress)
	mux.HandleFunc("DELETE /api/quests/{id}", s.guildH.DeleteQuest)

	// Bonuses + monthly reset
	mux.HandleFunc("POST /api/bonuses/room", s.guildH.ClaimRoomBonus)
	mux.HandleFunc("POST /api/bonuses/sanctuary", s.guildH.ClaimSanctuaryBonus)
	mux.HandleFunc("POST /api/reset", s.guildH.MonthlyReset)

	// Rewards
	mux.HandleFunc("POST /api/rewards", s.guildH.CreateReward)
	mux.HandleFunc("DELETE /api/rewards", s.guildH.DeleteReward)

	// Bounties
	mux.HandleFunc("POST /api/reminders", s.guildH.CreateReminder)
	mux.HandleFunc("POST /api/reminders/{id}/complete", s.guildH.CompleteReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.guildH.DeleteReminder)

	// Menu
	mux.HandleFunc("PUT /api/menu/{index}", s.guildH.UpdateMeal)

	// Ledger tools
	mux.HandleFunc("GET /api/ledger", s.ledgerH.Export)
	mux.HandleFunc("POST /api/ledger", s.ledgerH.Import)
	mux.HandleFunc("GET /api/ledger/archive", s.ledgerH.ArchiveStatus)
	mux.HandleFunc("POST /api/ledger/archive", s.ledgerH.ArchiveNow)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
