// README: Dialog validator webhook; the raw per-turn contract for NLU engines.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"concierge/internal/modules/dialog"
)

// Validator handles one dialog turn.
type Validator interface {
	HandleTurn(ctx context.Context, ev dialog.Event) dialog.Response
}

type DialogHandler struct {
	dialog   Validator
	validate *validator.Validate
}

func NewDialogHandler(v Validator) *DialogHandler {
	return &DialogHandler{dialog: v, validate: validator.New()}
}

// dialogEnvelope is the structural gate on inbound webhook payloads; the
// full event is decoded separately so unknown engine fields pass through.
type dialogEnvelope struct {
	SessionState struct {
		Intent struct {
			Name string `json:"name" validate:"required"`
		} `json:"intent"`
	} `json:"sessionState"`
	InvocationSource string `json:"invocationSource" validate:"required,oneof=DialogCodeHook FulfillmentCodeHook"`
}

func (h *DialogHandler) Post(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		writeError(c, http.StatusBadRequest, "unreadable body")
		return
	}

	var envelope dialogEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(envelope); err != nil {
		writeError(c, http.StatusBadRequest, "missing intent name or invocation source")
		return
	}

	var ev dialog.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	c.JSON(http.StatusOK, h.dialog.HandleTurn(c.Request.Context(), ev))
}
