package swipes

import (
	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/swipes", handler.RecordSwipe).Methods("POST")
	api.HandleFunc("/swipes", handler.SwipeHistory).Methods("GET")
	api.HandleFunc("/likers", handler.Likers).Methods("GET")
	api.HandleFunc("/rejections/{targetId:[0-9]+}/undo", handler.UndoRejection).Methods("POST")
}
