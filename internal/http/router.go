package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/http/handlers"
	"github.com/lingobuddy/server/internal/middleware"
	"github.com/lingobuddy/server/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	oauthHandler *handlers.OAuthHandler,
	socialHandler *handlers.SocialHandler,
	jwtService *auth.JWTService,
	userRepo repo.UserRepo,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)

		r.Post("/forgot-password", passwordHandler.HandleForgotPassword)
		r.Post("/verify-reset-code", passwordHandler.HandleVerifyResetCode)
		r.Post("/reset-password", passwordHandler.HandleResetPassword)

		r.Get("/google", oauthHandler.HandleStart)
		r.Get("/google/callback", oauthHandler.HandleCallback)

		// Protected routes (require a valid session)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService, userRepo))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/onboarding", authHandler.HandleOnboarding)
			r.Post("/logout", authHandler.HandleLogout)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService, userRepo))
		r.Get("/", socialHandler.HandleRecommendations)
		r.Get("/friends", socialHandler.HandleFriends)
		r.Post("/friend-request/{id}", socialHandler.HandleSendRequest)
		r.Put("/friend-request/{id}/accept", socialHandler.HandleAcceptRequest)
		r.Get("/friend-requests", socialHandler.HandleIncomingRequests)
		r.Get("/outgoing-friend-requests", socialHandler.HandleOutgoingRequests)
	})

	return r
}
