package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"signhub.io/internal/audit"
	"signhub.io/internal/auth"
)

type inviteMemberRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type memberRoleRequest struct {
	Role string `json:"role"`
}

type memberPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type memberResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Active      bool     `json:"active"`
}

func (a *API) handleMembersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listMembers(w, r)
	case http.MethodPost:
		a.inviteMember(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleMemberResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/members/")
	userID, action, _ := strings.Cut(rest, "/")
	if userID == "" {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		a.deactivateMember(w, r, userID)
	case action == "role" && r.Method == http.MethodPatch:
		a.setMemberRole(w, r, userID)
	case action == "permissions" && r.Method == http.MethodPatch:
		a.setMemberPermissions(w, r, userID)
	case action == "":
		methodNotAllowed(w, r, http.MethodDelete)
	default:
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	}
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermMembersView) {
		return
	}
	members, err := a.memberships.ListMemberships(r.Context(), sc.TenantID())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	items := make([]memberResponse, 0, len(members))
	for _, m := range members {
		item := memberResponse{
			UserID:      m.UserID,
			Role:        string(m.Role),
			Permissions: auth.EffectivePermissions(m.Role, m.CustomPermissions),
			Active:      m.Active,
		}
		if u, err := a.users.FindUser(r.Context(), m.UserID); err == nil {
			item.Email = u.Email
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// inviteMember creates the user record when the email is new, then attaches
// a membership in the scope's tenant. Existing users are joined, not
// recreated.
func (a *API) inviteMember(w http.ResponseWriter, r *http.Request) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermMembersManage) {
		return
	}

	var req inviteMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	role, roleOK := auth.ParseRole(req.Role)
	if email == "" || !roleOK {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "email and a valid role are required")
		return
	}

	user, err := a.users.FindUserByEmail(r.Context(), email)
	if errors.Is(err, auth.ErrNotFound) {
		if req.Password == "" {
			writeError(w, r, http.StatusBadRequest, codeInvalidInput, "password is required for a new user")
			return
		}
		hash, hashErr := auth.HashPassword(req.Password)
		if hashErr != nil {
			handleDomainError(w, r, hashErr)
			return
		}
		user = auth.User{Email: email, PasswordHash: hash}
		if err := a.users.CreateUser(r.Context(), &user); err != nil {
			handleDomainError(w, r, err)
			return
		}
	} else if err != nil {
		handleDomainError(w, r, err)
		return
	}

	m := auth.Membership{
		TenantID: sc.TenantID(),
		UserID:   user.ID,
		Role:     role,
		Active:   true,
	}
	if err := a.memberships.UpsertMembership(r.Context(), m); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "member.invited", map[string]any{
		"member_id": user.ID,
		"role":      string(role),
	})
	writeJSON(w, http.StatusCreated, memberResponse{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        string(role),
		Permissions: auth.EffectivePermissions(role, nil),
		Active:      true,
	})
}

func (a *API) setMemberRole(w http.ResponseWriter, r *http.Request, userID string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermMembersManage) {
		return
	}

	var req memberRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	role, roleOK := auth.ParseRole(req.Role)
	if !roleOK {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "a valid role is required")
		return
	}

	if err := a.memberships.SetMembershipRole(r.Context(), sc.TenantID(), userID, role); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "member.role_changed", map[string]any{
		"member_id": userID,
		"role":      string(role),
	})
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "role": string(role)})
}

func (a *API) setMemberPermissions(w http.ResponseWriter, r *http.Request, userID string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermMembersManage) {
		return
	}

	var req memberPermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	perms := make([]string, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		p = strings.TrimSpace(p)
		if p != "" {
			perms = append(perms, p)
		}
	}

	if err := a.memberships.SetMembershipPermissions(r.Context(), sc.TenantID(), userID, perms); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "member.permissions_changed", map[string]any{
		"member_id":   userID,
		"permissions": perms,
	})
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": perms})
}

func (a *API) deactivateMember(w http.ResponseWriter, r *http.Request, userID string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermMembersManage) {
		return
	}
	if userID == sc.Subject() {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "cannot deactivate your own membership")
		return
	}

	if err := a.memberships.DeactivateMembership(r.Context(), sc.TenantID(), userID); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "member.deactivated", map[string]any{"member_id": userID})
	w.WriteHeader(http.StatusNoContent)
}
