package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	logger logrus.FieldLogger,
	saveHandler *handlers.SaveHandler,
	gameHandler *handlers.GameHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(handlers.WithLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/saves", func(r chi.Router) {
		r.Post("/", saveHandler.CreateHandler)
		r.Post("/load", saveHandler.LoadHandler)
	})

	router.Get("/clock", gameHandler.ClockHandler)
	router.Post("/advance", gameHandler.AdvanceHandler)
	router.Post("/season-end", gameHandler.SeasonEndHandler)

	router.Route("/seasons/{seasonID}", func(r chi.Router) {
		r.Post("/fixtures", gameHandler.GenerateFixturesHandler)
		r.Get("/awards", gameHandler.SeasonAwardsHandler)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", gameHandler.GetMatchHandler)
		r.Post("/simulate", gameHandler.SimulateMatchHandler)
	})

	router.Get("/competitions/{competitionID}/seasons/{seasonID}/standings", gameHandler.StandingsHandler)

	router.Route("/clubs/{clubID}", func(r chi.Router) {
		r.Get("/balance", gameHandler.ClubBalanceHandler)
		r.Get("/transactions", gameHandler.ClubTransactionsHandler)
	})

	router.Get("/ws", webSocketHandler.ServeWs)
}
