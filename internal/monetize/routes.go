package monetize

import (
	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/boosts", handler.ActivateBoost).Methods("POST")
	api.HandleFunc("/boosts/status", handler.BoostStatus).Methods("GET")
	api.HandleFunc("/superlikes", handler.SendSuperLike).Methods("POST")
	api.HandleFunc("/superlikes/quota", handler.SuperLikeStatus).Methods("GET")
	api.HandleFunc("/superlikers", handler.SuperLikers).Methods("GET")
	api.HandleFunc("/subscription", handler.UpgradeTier).Methods("POST")
}
