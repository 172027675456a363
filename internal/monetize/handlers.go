package monetize

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

func (h *Handler) ActivateBoost(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	boost, err := h.service.ActivateBoost(r.Context(), userID)
	switch err {
	case nil:
		utils.RespondWithJSON(w, http.StatusCreated, boost)
	case ErrBoostNotAllowed:
		utils.RespondWithError(w, http.StatusForbidden, "Boost requires gold or premium tier")
	case ErrBoostActive:
		utils.RespondWithError(w, http.StatusConflict, "A boost is already active")
	case ErrBoostCooldown:
		utils.RespondWithError(w, http.StatusConflict, "Boost is still on cooldown")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to activate boost")
	}
}

func (h *Handler) BoostStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	status, err := h.service.BoostStatus(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load boost status")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}

func (h *Handler) SendSuperLike(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto SendSuperLikeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sl, err := h.service.SendSuperLike(r.Context(), userID, &dto)
	switch err {
	case nil:
		utils.RespondWithJSON(w, http.StatusCreated, sl)
	case ErrSelfSuperLike:
		utils.RespondWithError(w, http.StatusBadRequest, "Cannot super like yourself")
	case ErrRecipientNotFound:
		utils.RespondWithError(w, http.StatusNotFound, "Recipient not found")
	case ErrSuperLikeQuota:
		utils.RespondWithError(w, http.StatusForbidden, "Super like quota exhausted")
	default:
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) SuperLikeStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	status, err := h.service.SuperLikeStatus(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load super like status")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}

func (h *Handler) SuperLikers(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	senders, err := h.service.SuperLikers(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load super likers")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, senders)
}

func (h *Handler) UpgradeTier(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto UpgradeTierDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.service.UpgradeTier(r.Context(), userID, &dto)
	switch err {
	case nil:
		utils.RespondWithJSON(w, http.StatusOK, user)
	case ErrTierNotUpgrade:
		utils.RespondWithError(w, http.StatusBadRequest, "Requested tier is not an upgrade")
	default:
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	}
}
