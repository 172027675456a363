package matches

import (
	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/matches", handler.ListMatches).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}/unmatch", handler.Unmatch).Methods("POST")
	api.HandleFunc("/matches/celebrations", handler.PendingCelebrations).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}/celebration-seen", handler.MarkCelebrationSeen).Methods("POST")
}
