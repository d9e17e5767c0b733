package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// AuthorityService is the slice of the role authority this handler needs.
type AuthorityService interface {
	SetRoot(ctx context.Context, addr id.Address) error
	AddMember(ctx context.Context, candidate, requestedBy id.Address) error
	RemoveMember(ctx context.Context, candidate, requestedBy id.Address) error
	Members(ctx context.Context) ([]id.Address, error)
	Root(ctx context.Context) (id.Address, error)
	HasAuthority(ctx context.Context, addr id.Address) (bool, error)
}

// AuthorityHandler serves the authority-tier management endpoints.
type AuthorityHandler struct {
	service AuthorityService
	logger  *slog.Logger
}

func NewAuthorityHandler(service AuthorityService, logger *slog.Logger) *AuthorityHandler {
	return &AuthorityHandler{service: service, logger: logger}
}

func (h *AuthorityHandler) Register(r chi.Router) {
	r.Get("/authority", h.handleGet)
	r.Get("/authority/check/{address}", h.handleCheck)
	r.Post("/admin/authority/root", h.handleSetRoot)
	r.Post("/admin/authority/members", h.handleAddMember)
	r.Delete("/admin/authority/members/{address}", h.handleRemoveMember)
}

type authorityResponse struct {
	Root    id.Address   `json:"root"`
	Members []id.Address `json:"members"`
}

func (h *AuthorityHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	root, err := h.service.Root(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := h.service.Members(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authorityResponse{Root: root, Members: members})
}

func (h *AuthorityHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	hasAuth, err := h.service.HasAuthority(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_authority": hasAuth})
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *AuthorityHandler) handleSetRoot(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := id.ParseAddress(req.Address)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	if err := h.service.SetRoot(r.Context(), addr); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]id.Address{"root": addr})
}

func (h *AuthorityHandler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := id.ParseAddress(req.Address)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	if err := h.service.AddMember(r.Context(), addr, requestcontext.CallerAddress(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]id.Address{"member": addr})
}

func (h *AuthorityHandler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	if err := h.service.RemoveMember(r.Context(), addr, requestcontext.CallerAddress(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
