package httpapi

import (
	"net/http"
	"strings"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/audit"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/content"
)

type profileResponse struct {
	userPayload
	Statistics content.Statistics `json:"statistics"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePolicy(w, r, auth.Policy{RequireAuth: true}) {
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())

	resp := profileResponse{userPayload: principalPayload(principal)}
	if a.content != nil {
		stats, err := a.content.StatsForUser(r.Context(), principal.User.ID)
		if err != nil {
			handleContentError(w, r, err)
			return
		}
		resp.Statistics = stats
	}
	writeJSON(w, http.StatusOK, resp)
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// handleUserScoped routes /v1/users/{id}/roles.
func (a *API) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "roles" || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	userID := parts[0]

	if !a.ensurePolicy(w, r, auth.Policy{RequireAuth: true, Permissions: []string{auth.PermUsersManage}}) {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req assignRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.auth.AssignRole(r.Context(), userID, req.Role); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.assign", map[string]any{
			"target_user_id": userID,
			"role":           req.Role,
		})
		writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "role": req.Role})
	case http.MethodDelete:
		var req assignRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.auth.RemoveRole(r.Context(), userID, req.Role); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.remove", map[string]any{
			"target_user_id": userID,
			"role":           req.Role,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
	}
}
