package httpapi

import (
	"net/http"
	"time"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/audit"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/obs"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userPayload struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Organization string   `json:"organization,omitempty"`
	Roles        []string `json:"roles"`
	Permissions  []string `json:"permissions"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         userPayload `json:"user"`
}

func principalPayload(p auth.Principal) userPayload {
	out := userPayload{
		Roles:       p.RoleNames(),
		Permissions: p.PermissionKeys(),
	}
	if p.User != nil {
		out.ID = p.User.ID
		out.Email = p.User.Email
		out.Name = p.User.Name
		out.Organization = p.User.Organization
	}
	return out
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Organization: req.Organization,
	})
	if err != nil {
		obs.AuthAttempt("register", "error")
		handleAuthError(w, r, err)
		return
	}

	obs.AuthAttempt("register", "ok")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": user.ID})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, principal, err := a.auth.Login(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		obs.AuthAttempt("login", "denied")
		handleAuthError(w, r, err)
		return
	}

	obs.AuthAttempt("login", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":     principal.User.ID,
		"remember_me": req.RememberMe,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn(time.Now()),
		User:         principalPayload(principal),
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, principal, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		obs.AuthAttempt("refresh", "denied")
		handleAuthError(w, r, err)
		return
	}

	obs.AuthAttempt("refresh", "ok")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": principal.User.ID,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn(time.Now()),
		User:         principalPayload(principal),
	})
}
