package httpapi

import (
	"net/http"
	"strings"

	"signhub.io/internal/asset"
	"signhub.io/internal/audit"
	"signhub.io/internal/auth"
)

type createAssetRequest struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
}

type updateAssetRequest struct {
	Name      *string `json:"name"`
	MediaType *string `json:"media_type"`
}

func (a *API) handleAssetsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAssets(w, r)
	case http.MethodPost:
		a.createAsset(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAssetResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/assets/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAsset(w, r, id)
	case http.MethodPatch:
		a.updateAsset(w, r, id)
	case http.MethodDelete:
		a.deleteAsset(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listAssets(w http.ResponseWriter, r *http.Request) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermAssetsView) {
		return
	}
	items, err := a.assets.List(r.Context(), sc)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []asset.Asset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createAsset(w http.ResponseWriter, r *http.Request) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermAssetsUpload) {
		return
	}

	var req createAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	record := asset.Asset{
		Name:      strings.TrimSpace(req.Name),
		MediaType: strings.TrimSpace(req.MediaType),
		SizeBytes: req.SizeBytes,
	}
	if err := record.Validate(); err != nil {
		handleDomainError(w, r, err)
		return
	}

	created, err := a.assets.Create(r.Context(), sc, record)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "asset.created", map[string]any{
		"asset_id": created.ID,
		"name":     created.Name,
	})
	w.Header().Set("Location", "/v1/assets/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) getAsset(w http.ResponseWriter, r *http.Request, id string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermAssetsView) {
		return
	}
	found, err := a.assets.Find(r.Context(), sc, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (a *API) updateAsset(w http.ResponseWriter, r *http.Request, id string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermAssetsEdit) {
		return
	}

	var req updateAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	updated, err := a.assets.Update(r.Context(), sc, id, asset.Update{
		Name:      req.Name,
		MediaType: req.MediaType,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "asset.updated", map[string]any{"asset_id": id})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteAsset(w http.ResponseWriter, r *http.Request, id string) {
	sc, ok := requireScope(w, r)
	if !ok || !requirePermission(w, r, sc, auth.PermAssetsDelete) {
		return
	}
	if err := a.assets.Delete(r.Context(), sc, id); err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "asset.deleted", map[string]any{"asset_id": id})
	w.WriteHeader(http.StatusNoContent)
}
