package users

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes takes the auth middleware as a plain mux.MiddlewareFunc so
// this package stays import-free of auth, which depends on users.
func RegisterRoutes(router *mux.Router, handler *Handler, authenticate mux.MiddlewareFunc) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authenticate)

	api.HandleFunc("/me", handler.GetMe).Methods("GET")
	api.HandleFunc("/me", handler.DeleteMe).Methods("DELETE")
	api.HandleFunc("/me/location", handler.UpdateLocation).Methods("PUT")
}
