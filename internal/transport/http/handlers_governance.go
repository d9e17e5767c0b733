package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dasigov/internal/governance"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// GovernanceService is the slice of the proposal lifecycle this handler needs.
type GovernanceService interface {
	CreateProposal(ctx context.Context, proposer id.Address, description string, kind governance.Kind, options []string) (governance.View, error)
	VoteOnApproval(ctx context.Context, proposalID uint64, voter id.Address, approve bool, approvedUsers []id.Address) (governance.View, error)
	Vote(ctx context.Context, proposalID uint64, voter id.Address, choice governance.Choice) (governance.View, error)
	VoteMultiOption(ctx context.Context, proposalID uint64, voter id.Address, optionIndex int) (governance.View, error)
	ExecuteProposal(ctx context.Context, proposalID uint64, caller id.Address) (governance.View, error)
	GetStatus(ctx context.Context, proposalID uint64) (governance.State, error)
	GetProposal(ctx context.Context, proposalID uint64) (governance.View, error)
	ListProposals(ctx context.Context) ([]governance.View, error)
	SetAuthorizedProposer(ctx context.Context, addr id.Address, allowed bool, requestedBy id.Address) error
}

// Snapshotter supplies the default release distribution list.
type Snapshotter interface {
	ApprovedSnapshot(ctx context.Context) ([]id.Address, error)
}

// GovernanceHandler serves the proposal endpoints.
type GovernanceHandler struct {
	service  GovernanceService
	snapshot Snapshotter
	logger   *slog.Logger
}

func NewGovernanceHandler(service GovernanceService, snapshot Snapshotter, logger *slog.Logger) *GovernanceHandler {
	return &GovernanceHandler{service: service, snapshot: snapshot, logger: logger}
}

func (h *GovernanceHandler) Register(r chi.Router) {
	r.Post("/proposals", h.handleCreate)
	r.Get("/proposals", h.handleList)
	r.Get("/proposals/{id}", h.handleGet)
	r.Get("/proposals/{id}/status", h.handleStatus)
	r.Post("/proposals/{id}/approval-votes", h.handleApprovalVote)
	r.Post("/proposals/{id}/votes", h.handleVote)
	r.Post("/proposals/{id}/execute", h.handleExecute)
	r.Put("/admin/proposers/{address}", h.handleSetProposer)
}

func proposalID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "malformed proposal id")
	}
	return n, nil
}

func requireCaller(r *http.Request) (id.Address, error) {
	caller := requestcontext.CallerAddress(r.Context())
	if caller == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller address required")
	}
	return caller, nil
}

type createProposalRequest struct {
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Options     []string `json:"options,omitempty"`
}

func (h *GovernanceHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	kind := governance.Kind(req.Kind)
	if kind == "" {
		kind = governance.KindBinary
	}
	view, err := h.service.CreateProposal(r.Context(), caller, req.Description, kind, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *GovernanceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListProposals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *GovernanceHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.service.GetProposal(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GovernanceHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	pid, err := proposalID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := h.service.GetStatus(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]governance.State{"state": state})
}

type approvalVoteRequest struct {
	Approve bool `json:"approve"`
	// ApprovedUsers overrides the default distribution list when the gate
	// releases the proposal. When empty the approved registrant snapshot
	// is used.
	ApprovedUsers []string `json:"approved_users,omitempty"`
}

func (h *GovernanceHandler) handleApprovalVote(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pid, err := proposalID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approvalVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	var approved []id.Address
	for _, raw := range req.ApprovedUsers {
		addr, err := id.ParseAddress(raw)
		if err != nil {
			writeError(w, dErrors.Newf(dErrors.CodeInvalidInput, "malformed wallet address %q", raw))
			return
		}
		approved = append(approved, addr)
	}
	// No explicit list means "everyone currently approved".
	if len(approved) == 0 {
		approved, err = h.snapshot.ApprovedSnapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
	}
	view, err := h.service.VoteOnApproval(r.Context(), pid, caller, req.Approve, approved)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type voteRequest struct {
	Choice      string `json:"choice,omitempty"`
	OptionIndex *int   `json:"option_index,omitempty"`
}

func (h *GovernanceHandler) handleVote(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pid, err := proposalID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var view governance.View
	switch {
	case req.OptionIndex != nil:
		view, err = h.service.VoteMultiOption(r.Context(), pid, caller, *req.OptionIndex)
	case req.Choice != "":
		var choice governance.Choice
		choice, err = governance.ParseChoice(req.Choice)
		if err != nil {
			writeError(w, err)
			return
		}
		view, err = h.service.Vote(r.Context(), pid, caller, choice)
	default:
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "either choice or option_index is required"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GovernanceHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pid, err := proposalID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.service.ExecuteProposal(r.Context(), pid, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type setProposerRequest struct {
	Allowed bool `json:"allowed"`
}

func (h *GovernanceHandler) handleSetProposer(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed wallet address"))
		return
	}
	var req setProposerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.SetAuthorizedProposer(r.Context(), addr, req.Allowed, caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": addr, "allowed": req.Allowed})
}
