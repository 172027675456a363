package preferences

import (
	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/preferences", handler.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", handler.UpdatePreferences).Methods("PUT")
}
