package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"smartvote/internal/delivery/http/controllers"
	"smartvote/internal/delivery/http/helpers"
	"smartvote/internal/delivery/http/middleware"
	"smartvote/internal/domain"
)

// RouterDeps are the collaborators the router wires into its routes.
type RouterDeps struct {
	Logger        *slog.Logger
	Registrations *controllers.RegistrationController
	Events        *controllers.EventController
	Tokens        domain.TokenVerifier
	AdminKeys     domain.AdminKeyVerifier
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(deps.Tokens, deps.Logger)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Logger)
	admin := middleware.RequireAdminKey(deps.AdminKeys, deps.Logger)

	// Events
	mux.HandleFunc("GET /events", deps.Events.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", deps.Events.GetEvent)
	mux.HandleFunc("POST /admin/events", admin(deps.Events.CreateEvent))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", auth(deps.Registrations.Join))
	mux.HandleFunc("POST /events/{eventID}/guests", auth(deps.Registrations.AddGuest))
	mux.HandleFunc("DELETE /events/{eventID}/registrations/{recordID}", auth(deps.Registrations.Cancel))
	mux.HandleFunc("GET /events/{eventID}/roster", optionalAuth(deps.Registrations.Roster))
	mux.HandleFunc("GET /events/{eventID}/roster/stream", optionalAuth(deps.Registrations.Stream))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
