package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public auth endpoints
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/signup", h.Signup).Methods("POST")
	api.HandleFunc("/signin", h.Signin).Methods("POST")
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Signup(r.Context(), &dto)
	if err != nil {
		if err == ErrEmailTaken {
			utils.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var dto SigninDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Signin(r.Context(), &dto)
	if err != nil {
		if err == ErrInvalidCredentials {
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}
