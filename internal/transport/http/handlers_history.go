package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dasigov/internal/history"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

// HistoryService is the slice of the distribution history this handler needs.
type HistoryService interface {
	List(ctx context.Context, kind history.Kind) ([]history.Record, error)
}

// HistoryHandler serves the distribution history endpoint.
type HistoryHandler struct {
	service HistoryService
	logger  *slog.Logger
}

func NewHistoryHandler(service HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, logger: logger}
}

func (h *HistoryHandler) Register(r chi.Router) {
	r.Get("/history", h.handleList)
}

type historyEntry struct {
	ID              id.RegistrantID `json:"id"`
	Address         id.Address      `json:"address"`
	Amount          string          `json:"amount"`
	Kind            history.Kind    `json:"kind"`
	Timestamp       time.Time       `json:"timestamp"`
	ActingAuthority id.Address      `json:"acting_authority"`
}

func (h *HistoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	kind := history.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown history kind %q", kind))
		return
	}
	records, err := h.service.List(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			ID:              rec.ID,
			Address:         rec.Address,
			Amount:          id.FormatAmount(rec.Amount),
			Kind:            rec.Kind,
			Timestamp:       rec.Timestamp,
			ActingAuthority: rec.ActingAuthority,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
