package handlers

import (
	"net/http"

	"github.com/SainiAdi-04/Task-Manager/middleware"
	"github.com/SainiAdi-04/Task-Manager/services"
	"github.com/SainiAdi-04/Task-Manager/utils"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserFromContext(r.Context())
	user, err := h.service.Profile(r.Context(), caller.ID)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileUpdate
	if !decodeBody(w, r, &req) {
		return
	}

	caller := middleware.UserFromContext(r.Context())
	res, err := h.service.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
