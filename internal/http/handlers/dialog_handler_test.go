// README: Dialog webhook tests (envelope validation, passthrough of turn results).
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"concierge/internal/http/handlers"
	"concierge/internal/modules/dialog"
)

type stubDialog struct {
	gotEvent dialog.Event
	resp     dialog.Response
}

func (s *stubDialog) HandleTurn(_ context.Context, ev dialog.Event) dialog.Response {
	s.gotEvent = ev
	return s.resp
}

func dialogRouter(d *stubDialog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/dialog", handlers.NewDialogHandler(d).Post)
	return r
}

func postDialog(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/dialog", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDialogRejectsMalformedBodies(t *testing.T) {
	r := dialogRouter(&stubDialog{})
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"missing intent name", `{"invocationSource":"DialogCodeHook","sessionState":{"intent":{}}}`},
		{"missing invocation source", `{"sessionState":{"intent":{"name":"GreetingIntent"}}}`},
		{"unknown invocation source", `{"invocationSource":"OtherHook","sessionState":{"intent":{"name":"GreetingIntent"}}}`},
	}
	for _, tc := range cases {
		if w := postDialog(r, tc.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestDialogPassesEventThrough(t *testing.T) {
	d := &stubDialog{resp: dialog.Response{
		SessionState: dialog.SessionState{
			DialogAction: &dialog.DialogAction{Type: dialog.ActionElicitSlot, SlotToElicit: "Cuisine"},
			Intent:       dialog.Intent{Name: dialog.IntentDiningSuggestions, State: dialog.StateInProgress},
		},
		Messages: []dialog.Message{{ContentType: "PlainText", Content: "What cuisine?"}},
	}}
	r := dialogRouter(d)

	body := `{
		"invocationSource": "DialogCodeHook",
		"sessionState": {
			"intent": {
				"name": "DiningSuggestionsIntent",
				"slots": {"Cuisine": {"value": {"interpretedValue": "sushi"}}}
			},
			"sessionAttributes": {"userId": "u-1"}
		}
	}`
	w := postDialog(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if d.gotEvent.InvocationSource != dialog.PhaseValidating {
		t.Fatalf("invocation source = %q", d.gotEvent.InvocationSource)
	}
	slot := d.gotEvent.SessionState.Intent.Slots["Cuisine"]
	if slot == nil || slot.Value.InterpretedValue != "sushi" {
		t.Fatalf("slots = %+v", d.gotEvent.SessionState.Intent.Slots)
	}
	if d.gotEvent.SessionState.SessionAttributes["userId"] != "u-1" {
		t.Fatalf("attrs = %+v", d.gotEvent.SessionState.SessionAttributes)
	}

	var resp dialog.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionState.DialogAction.Type != dialog.ActionElicitSlot ||
		resp.SessionState.DialogAction.SlotToElicit != "Cuisine" {
		t.Fatalf("response = %+v", resp.SessionState)
	}
}
