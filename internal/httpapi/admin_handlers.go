package httpapi

import (
	"net/http"
	"strings"

	"signhub.io/internal/audit"
	"signhub.io/internal/tenant"
)

type createTenantRequest struct {
	Name         string         `json:"name"`
	Subdomain    string         `json:"subdomain"`
	CustomDomain string         `json:"custom_domain"`
	Plan         string         `json:"plan"`
	Settings     map[string]any `json:"settings"`
}

type updateTenantRequest struct {
	Name         *string        `json:"name"`
	CustomDomain *string        `json:"custom_domain"`
	Plan         *string        `json:"plan"`
	Settings     map[string]any `json:"settings"`
}

func (a *API) handleTenantsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTenants(w, r)
	case http.MethodPost:
		a.createTenant(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/tenants/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPatch:
		a.updateTenant(w, r, id)
	case action == "suspend" && r.Method == http.MethodPost:
		a.suspendTenant(w, r, id)
	case action == "reactivate" && r.Method == http.MethodPost:
		a.reactivateTenant(w, r, id)
	case action == "":
		methodNotAllowed(w, r, http.MethodPatch)
	default:
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	}
}

// adminScope authenticates the caller as a platform operator. Provisioning
// endpoints work across tenants, so the role bundle is not enough.
func (a *API) adminScope(w http.ResponseWriter, r *http.Request) bool {
	sc, ok := requireScope(w, r)
	if !ok {
		return false
	}
	if err := a.requirePlatformAdmin(r.Context(), sc); err != nil {
		handleDomainError(w, r, err)
		return false
	}
	return true
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	if !a.adminScope(w, r) {
		return
	}
	tenants, err := a.registry.List(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tenants})
}

func (a *API) createTenant(w http.ResponseWriter, r *http.Request) {
	if !a.adminScope(w, r) {
		return
	}

	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	created, err := a.registry.Create(r.Context(), tenant.Tenant{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		CustomDomain: req.CustomDomain,
		Plan:         tenant.Plan(strings.ToLower(strings.TrimSpace(req.Plan))),
		Settings:     req.Settings,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tenant.created", map[string]any{
		"created_tenant_id": created.ID,
		"subdomain":         created.Subdomain,
	})
	w.Header().Set("Location", "/v1/admin/tenants/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateTenant(w http.ResponseWriter, r *http.Request, id string) {
	if !a.adminScope(w, r) {
		return
	}

	var req updateTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	upd := tenant.Update{
		Name:         req.Name,
		CustomDomain: req.CustomDomain,
		Settings:     req.Settings,
	}
	if req.Plan != nil {
		plan := tenant.Plan(strings.ToLower(strings.TrimSpace(*req.Plan)))
		upd.Plan = &plan
	}

	updated, err := a.registry.UpdateTenant(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tenant.updated", map[string]any{"updated_tenant_id": id})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) suspendTenant(w http.ResponseWriter, r *http.Request, id string) {
	if !a.adminScope(w, r) {
		return
	}
	if err := a.registry.Suspend(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tenant.suspended", map[string]any{"suspended_tenant_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": string(tenant.StatusSuspended)})
}

func (a *API) reactivateTenant(w http.ResponseWriter, r *http.Request, id string) {
	if !a.adminScope(w, r) {
		return
	}
	if err := a.registry.Reactivate(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tenant.reactivated", map[string]any{"reactivated_tenant_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": string(tenant.StatusActive)})
}
