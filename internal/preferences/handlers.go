package preferences

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

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	pref, err := h.service.Get(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pref)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto UpdatePreferenceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	pref, err := h.service.Update(r.Context(), userID, &dto)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pref)
}
