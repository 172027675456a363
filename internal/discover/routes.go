package discover

import (
	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/discover", handler.GetDiscover).Methods("GET")
}
