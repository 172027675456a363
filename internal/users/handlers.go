package users

import (
	"encoding/json"
	"net/http"

	"github.com/emberly-app/emberly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if err == ErrUserNotFound {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto UpdateLocationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateLocation(r.Context(), userID, &dto); err != nil {
		if err == ErrUserNotFound {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update location")
		return
	}

	utils.MessageResponse(w, "Location updated", http.StatusOK)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	if err := h.service.Delete(r.Context(), userID); err != nil {
		if err == ErrUserNotFound {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	utils.MessageResponse(w, "Account deleted", http.StatusOK)
}
