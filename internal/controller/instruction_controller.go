// internal/controller/instruction_controller.go
package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-program/internal/errors"
	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

// Processor runs one invocation against the ledger.
type Processor interface {
	Process(ctx context.Context, accounts []model.AccountMeta, data []byte) error
}

// MaxBodyBytes caps a submitted instruction body.
const MaxBodyBytes = 64 << 10

type InstructionController struct {
	Processor Processor
	Logger    *zap.Logger
}

// SubmitRequest is the JSON body of POST /instructions.
type SubmitRequest struct {
	Accounts []model.AccountMeta `json:"accounts"`
	Data     string              `json:"data"` // base64
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (c *InstructionController) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}
	data, err := base64.StdEncoding.DecodeString(body.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "data is not base64: " + err.Error()})
		return
	}

	if err := c.Processor.Process(r.Context(), body.Accounts, data); err != nil {
		kind := appErrors.KindOf(err)
		status := StatusForError(err)
		if status == http.StatusInternalServerError && c.Logger != nil {
			c.Logger.Error("instruction failed", zap.Error(err))
		}
		resp := errorResponse{Error: err.Error()}
		if kind != appErrors.KindUnknown {
			resp.Kind = kind.String()
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusForError maps a processing error to an HTTP status. Allocation
// failures caused by the ledger being unavailable are 503, not 409.
func StatusForError(err error) int {
	kind := appErrors.KindOf(err)
	if kind != appErrors.KindUnknown && service.Retryable(err) {
		return http.StatusServiceUnavailable
	}
	return StatusFor(kind)
}

// StatusFor maps a program error kind to an HTTP status.
func StatusFor(kind appErrors.Kind) int {
	switch kind {
	case appErrors.MalformedInstruction, appErrors.UnsupportedOpcode, appErrors.NameTooLong:
		return http.StatusBadRequest
	case appErrors.MissingAuthorization:
		return http.StatusUnauthorized
	case appErrors.AddressMismatch:
		return http.StatusUnprocessableEntity
	case appErrors.AllocationFailed, appErrors.AlreadyInitialized:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
