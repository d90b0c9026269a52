package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ebrown/guildhall/internal/auth"
	"github.com/ebrown/guildhall/internal/middleware"
)

type AuthHandler struct {
	sessions *auth.Sessions
}

func NewAuthHandler(sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Enabled() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "open"})
		return
	}

	var req struct {
		Passcode string `json:"passcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	token, ok := h.sessions.Login(req.Passcode)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect passcode"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
