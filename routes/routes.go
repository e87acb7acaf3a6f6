package routes

import (
	"github.com/Dosada05/raffle-system/handlers"
	"github.com/Dosada05/raffle-system/middleware"
	"github.com/Dosada05/raffle-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// SetupRoutes регистрирует все маршруты приложения.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	competitionHandler *handlers.CompetitionHandler,
	prizeHandler *handlers.PrizeHandler,
	winningTicketHandler *handlers.WinningTicketHandler,
	purchaseHandler *handlers.PurchaseHandler,
	productHandler *handlers.ProductHandler,
	walletHandler *handlers.WalletHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Аутентификация
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/competitions", func(r chi.Router) {
		// Публичные маршруты для просмотра конкурсов
		r.Get("/", competitionHandler.ListHandler)
		r.Get("/{competitionID}", competitionHandler.GetByIDHandler)
		r.Get("/{competitionID}/prizes", prizeHandler.ListByCompetitionHandler)
		r.Get("/{competitionID}/prizes/by-product", winningTicketHandler.PrizesByProductHandler)
		r.Get("/{competitionID}/winning-tickets/stats", winningTicketHandler.StatsHandler)

		// Покупка билетов — только для аутентифицированных пользователей
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{competitionID}/purchase", purchaseHandler.PurchaseHandler)
			r.Get("/{competitionID}/winning-tickets/{ticketNumber}", winningTicketHandler.LookupHandler)
		})

		// Управление конкурсами — только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", competitionHandler.CreateHandler)
			r.Put("/{competitionID}", competitionHandler.UpdateHandler)
			r.Delete("/{competitionID}", competitionHandler.DeleteHandler)
			r.Post("/{competitionID}/image", competitionHandler.UploadImageHandler)

			r.Post("/{competitionID}/prizes", prizeHandler.CreateHandler)

			r.Post("/{competitionID}/winning-tickets/compute", winningTicketHandler.ComputeHandler)
			r.Delete("/{competitionID}/winning-tickets", winningTicketHandler.ClearHandler)
		})
	})

	router.Route("/prizes", func(r chi.Router) {
		r.Get("/{prizeID}", prizeHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Put("/{prizeID}", prizeHandler.UpdateHandler)
			r.Delete("/{prizeID}", prizeHandler.DeleteHandler)
		})
	})

	router.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.ListHandler)
		r.Get("/{productID}", productHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", productHandler.CreateHandler)
			r.Put("/{productID}", productHandler.UpdateHandler)
			r.Delete("/{productID}", productHandler.DeleteHandler)
			r.Post("/{productID}/image", productHandler.UploadImageHandler)
		})
	})

	// Личный кабинет
	router.Route("/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/entries", purchaseHandler.MyEntriesHandler)
		r.Get("/wins", winningTicketHandler.MyWinsHandler)
		r.Get("/wallet", walletHandler.BalanceHandler)
		r.Get("/wallet/transactions", walletHandler.TransactionsHandler)
	})

	router.Route("/entries", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/{entryID}", purchaseHandler.GetEntryHandler)
	})

	// Административные операции с кошельками
	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Post("/users/{userID}/wallet/credit", walletHandler.CreditHandler)
	})

	// WebSocket для живых обновлений конкурса
	router.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)
}
