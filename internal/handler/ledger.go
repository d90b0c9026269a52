package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ebrown/guildhall/internal/archive"
	guildsync "github.com/ebrown/guildhall/internal/sync"
)

const maxLedgerBytes = 1 << 20

type LedgerHandler struct {
	engine  *guildsync.Engine
	archive *archive.Manager
	logger  *slog.Logger
}

func NewLedgerHandler(engine *guildsync.Engine, archiveMgr *archive.Manager, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{engine: engine, archive: archiveMgr, logger: logger}
}

// Export serves the full guild ledger as downloadable JSON.
func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.ExportLedger()
	if err != nil {
		h.logger.Error("export ledger", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export ledger"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="guild-ledger.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import restores the remote document from a pasted ledger. Bad JSON is the
// one user-facing error: it is reported and nothing changes.
func (h *LedgerHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLedgerBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	if err := h.engine.ImportLedger(r.Context(), body); err != nil {
		if errors.Is(err, guildsync.ErrBadLedger) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ledger data"})
			return
		}
		h.logger.Error("import ledger", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to restore ledger"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ArchiveStatus reports the off-site archive state.
func (h *LedgerHandler) ArchiveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.archive.Status())
}

// ArchiveNow triggers an immediate off-site upload.
func (h *LedgerHandler) ArchiveNow(w http.ResponseWriter, r *http.Request) {
	if !h.archive.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "archive is not configured"})
		return
	}
	if err := h.archive.ArchiveNow(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive failed"})
		return
	}
	writeJSON(w, http.StatusOK, h.archive.Status())
}
