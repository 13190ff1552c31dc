package routes

import (
	"github.com/go-chi/chi/v5"

	"loginguard/internal/handlers"
	"loginguard/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	registrationHandler *handlers.RegistrationHandler,
	passwordHandler *handlers.PasswordHandler,
	verifyHandler *handlers.VerifyHandler,
	formTokenHandler *handlers.FormTokenHandler,
) {
	// Per-IP request cap in front of everything that takes credentials or
	// sends email
	rateLimitConfig := middleware.DefaultFormRateLimit()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/login", authHandler.Login)
		r.Post("/register", registrationHandler.Register)
		r.Post("/forgot-password", passwordHandler.ForgotPassword)
		r.Post("/reset-password", passwordHandler.ResetPassword)
		r.Post("/set-password", passwordHandler.SetPassword)
		r.Post("/verify-email", verifyHandler.VerifyEmail)
	})

	router.Post("/logout", authHandler.Logout)
	router.Get("/session", authHandler.Session)
	router.Get("/confirm", registrationHandler.Confirm)
	router.Get("/form-token", formTokenHandler.FormToken)
}
