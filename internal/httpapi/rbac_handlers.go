package httpapi

import (
	"net/http"
	"strings"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/audit"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
)

var manageRolesPolicy = auth.Policy{
	RequireAuth: true,
	Permissions: []string{auth.PermRolesManage},
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePolicy(w, r, manageRolesPolicy) {
		return
	}
	roles, err := a.auth.ListRoles(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": roles})
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePolicy(w, r, manageRolesPolicy) {
		return
	}
	perms, err := a.auth.ListPermissions(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": perms})
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// handleRoleScoped routes /v1/roles/{id}/permissions.
func (a *API) handleRoleScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/roles/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "permissions" || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	roleID := parts[0]

	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.ensurePolicy(w, r, manageRolesPolicy) {
		return
	}

	var req setRolePermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.SetRolePermissions(r.Context(), roleID, req.Permissions); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.role.permissions.set", map[string]any{
		"role_id":     roleID,
		"permissions": req.Permissions,
	})
	writeJSON(w, http.StatusOK, map[string]any{"role_id": roleID, "permissions": req.Permissions})
}
