package routes

import (
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-dashboard/handlers"
	"github.com/Dosada05/tournament-dashboard/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Bracket   *handlers.BracketHandler
	Match     *handlers.MatchHandler
	Standings *handlers.StandingsHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Сокет живёт дольше любого таймаута запроса.
	router.Get("/ws/fixtures/{fixtureID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/fixtures/{fixtureID}", func(r chi.Router) {
			r.Post("/bracket", h.Bracket.BuildBracket)
			r.Get("/bracket", h.Bracket.GetBracket)
			r.Get("/bracket/layout", h.Bracket.GetLayout)
			r.Get("/matches/editable", h.Bracket.ListEditableMatches)
			r.Get("/standings", h.Standings.GetStandings)
			r.Get("/partners", h.Bracket.GetEligiblePartners)
			r.Post("/swap", h.Bracket.SwapParticipants)
			r.Put("/winners", h.Standings.RecordWinners)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Post("/result", h.Match.ApplyResult)
			r.Post("/reopen", h.Match.ReopenMatch)
			r.Put("/partner", h.Match.AssignPartner)
			r.Delete("/", h.Match.DeleteMatch)
		})

		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/scorecard", h.Standings.GetScorecard)
			r.Post("/scorecard/publish", h.Standings.PublishScorecard)
			r.Delete("/scorecard/publish", h.Standings.UnpublishScorecard)
		})
	})
}
