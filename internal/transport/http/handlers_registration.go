package httptransport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dasigov/internal/registration"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// RegistrationService is the slice of the registration pipeline this handler
// needs.
type RegistrationService interface {
	Submit(ctx context.Context, req registration.SubmitRequest) (registration.PublicView, error)
	Approve(ctx context.Context, addr, decidedBy id.Address) (registration.AdminView, error)
	Reject(ctx context.Context, addr, decidedBy id.Address, reason string) (registration.AdminView, error)
	UpdateTokens(ctx context.Context, addr id.Address, amount *big.Int, decidedBy id.Address) (registration.AdminView, error)
	QueryPublic(ctx context.Context, addr id.Address) (registration.PublicView, error)
	QueryAdmin(ctx context.Context, caller id.Address) ([]registration.AdminView, error)
	QueryPending(ctx context.Context, caller id.Address) ([]registration.AdminView, error)
}

// RegistrationHandler serves the intake and decision endpoints.
type RegistrationHandler struct {
	service RegistrationService
	logger  *slog.Logger
}

func NewRegistrationHandler(service RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: service, logger: logger}
}

func (h *RegistrationHandler) Register(r chi.Router) {
	r.Post("/registrations", h.handleSubmit)
	r.Get("/registrations/{address}", h.handleQueryPublic)
	r.Get("/admin/registrations", h.handleQueryAdmin)
	r.Post("/admin/registrations/{address}/approve", h.handleApprove)
	r.Post("/admin/registrations/{address}/reject", h.handleReject)
	r.Post("/admin/registrations/{address}/tokens", h.handleUpdateTokens)
}

type submitRequest struct {
	ExternalKey string `json:"external_key"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Signature   string `json:"signature"`
}

func (h *RegistrationHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := id.ParseAddress(req.Address)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "signature must be hex encoded"))
		return
	}

	view, err := h.service.Submit(r.Context(), registration.SubmitRequest{
		ExternalKey: req.ExternalKey,
		Personal:    registration.PersonalData{Name: req.Name, Email: req.Email},
		Address:     addr,
		Signature:   sig,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *RegistrationHandler) handleQueryPublic(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	view, err := h.service.QueryPublic(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RegistrationHandler) handleQueryAdmin(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.CallerAddress(r.Context())
	var (
		views []registration.AdminView
		err   error
	)
	if r.URL.Query().Get("status") == string(registration.StatusPending) {
		views, err = h.service.QueryPending(r.Context(), caller)
	} else {
		views, err = h.service.QueryAdmin(r.Context(), caller)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RegistrationHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	view, err := h.service.Approve(r.Context(), addr, requestcontext.CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *RegistrationHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	var req rejectRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	view, err := h.service.Reject(r.Context(), addr, requestcontext.CallerAddress(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateTokensRequest struct {
	Amount string `json:"amount"`
}

func (h *RegistrationHandler) handleUpdateTokens(w http.ResponseWriter, r *http.Request) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	var req updateTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := id.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed token amount"))
		return
	}
	view, err := h.service.UpdateTokens(r.Context(), addr, amount, requestcontext.CallerAddress(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
