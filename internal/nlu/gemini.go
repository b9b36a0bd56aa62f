// README: Gemini-backed NLU engine; extracts intent and slots, drives the dialog validator.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"concierge/internal/modules/dialog"
)

// Validator is the dialog code hook invoked once per turn.
type Validator interface {
	HandleTurn(ctx context.Context, ev dialog.Event) dialog.Response
}

// sessionTTL bounds how long an abandoned conversation keeps its slots.
const sessionTTL = 30 * time.Minute

const fallbackReply = "Sorry, I didn't get that."

// GeminiEngine is a thin stand-in for a managed bot service: Gemini does the
// utterance understanding, Redis holds per-session slot memory, and all
// decisions stay with the dialog validator.
type GeminiEngine struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	redis     *redis.Client
	validator Validator
}

func NewGeminiEngine(ctx context.Context, apiKey string, rdb *redis.Client, validator Validator) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	return &GeminiEngine{client: client, model: model, redis: rdb, validator: validator}, nil
}

func (e *GeminiEngine) Close() {
	e.client.Close()
}

// extraction is the structured output requested from the model.
type extraction struct {
	Intent string            `json:"intent"`
	Slots  map[string]string `json:"slots"`
}

// sessionData is the per-conversation memory carried between turns.
type sessionData struct {
	Slots map[string]string `json:"slots"`
	Attrs map[string]string `json:"attrs"`
}

// Canonical slot names presented to the validator, with the prompt used when
// the validator delegates elicitation back to the engine.
var slotPrompts = []struct {
	Name   string
	Prompt string
}{
	{"Location", "What city or area would you like to dine in?"},
	{"Cuisine", "What cuisine would you like to try?"},
	{"DiningDate", "What date would you like to dine?"},
	{"DiningTime", "What time would you like to dine?"},
	{"NumberOfPeople", "How many people are in your party?"},
	{"Email", "What email address should I send my suggestions to?"},
}

// RecognizeText runs one conversation turn: recall the session, extract
// intent and slots from the utterance, let the validator decide, render the
// directive as a reply, and persist (or clear) the session.
func (e *GeminiEngine) RecognizeText(ctx context.Context, sessionID, userID, text string) (string, error) {
	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	ext, err := e.extract(ctx, text, sess.Slots)
	if err != nil {
		return "", fmt.Errorf("nlu extract: %w", err)
	}
	for name, value := range ext.Slots {
		if value != "" {
			sess.Slots[name] = value
		}
	}

	ev := e.buildEvent(ext.Intent, sess, userID)
	resp := e.validator.HandleTurn(ctx, ev)

	sess.Attrs = resp.SessionState.SessionAttributes
	action := resp.SessionState.DialogAction

	if action != nil && action.Type == dialog.ActionClose {
		// Conversation finished one way or another; next turn starts fresh.
		if err := e.clearSession(ctx, sessionID); err != nil {
			return "", err
		}
	} else if err := e.saveSession(ctx, sessionID, sess); err != nil {
		return "", err
	}

	if len(resp.Messages) > 0 {
		return resp.Messages[0].Content, nil
	}
	if action != nil && action.Type == dialog.ActionDelegate {
		return e.nextPrompt(sess.Slots), nil
	}
	return fallbackReply, nil
}

func (e *GeminiEngine) extract(ctx context.Context, text string, known map[string]string) (*extraction, error) {
	prompt := buildExtractionPrompt(text, known)

	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in model response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	var ext extraction
	if err := json.Unmarshal([]byte(cleanJSONString(sb.String())), &ext); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if ext.Slots == nil {
		ext.Slots = map[string]string{}
	}
	return &ext, nil
}

func buildExtractionPrompt(text string, known map[string]string) string {
	knownJSON, _ := json.Marshal(known)
	return fmt.Sprintf(`Role: You are the language-understanding front of a dining reservation assistant.

Classify the user message into exactly one intent:
- "greeting": hellos and smalltalk openers
- "thankyou": thanks and goodbyes
- "dining": anything about finding a restaurant or providing reservation details
- "unknown": everything else

Then extract any slot values the message provides. Use only these slot names:
Location, Cuisine, DiningDate, DiningTime, NumberOfPeople, Email.
Slots already collected in this conversation: %s
Only include slots this message adds or changes. Copy values verbatim from the
message; do not guess or invent values.

Respond with JSON only: {"intent": "...", "slots": {"SlotName": "value"}}

User Message: %s`, string(knownJSON), text)
}

func (e *GeminiEngine) buildEvent(intent string, sess sessionData, userID string) dialog.Event {
	slots := make(map[string]*dialog.Slot, len(sess.Slots))
	for name, value := range sess.Slots {
		slots[name] = &dialog.Slot{Value: dialog.SlotValue{InterpretedValue: value}}
	}

	attrs := make(map[string]string, len(sess.Attrs)+1)
	for k, v := range sess.Attrs {
		attrs[k] = v
	}
	if userID != "" {
		attrs["userId"] = userID
	}

	return dialog.Event{
		SessionState: dialog.SessionState{
			Intent:            dialog.Intent{Name: intentName(intent), Slots: slots},
			SessionAttributes: attrs,
		},
		InvocationSource: dialog.PhaseValidating,
	}
}

func intentName(extracted string) string {
	switch extracted {
	case "greeting":
		return dialog.IntentGreeting
	case "thankyou":
		return dialog.IntentThankYou
	case "dining":
		return dialog.IntentDiningSuggestions
	default:
		return "FallbackIntent"
	}
}

// nextPrompt asks for the first slot the conversation is still missing.
func (e *GeminiEngine) nextPrompt(slots map[string]string) string {
	for _, sp := range slotPrompts {
		if strings.TrimSpace(slots[sp.Name]) == "" {
			return sp.Prompt
		}
	}
	return fallbackReply
}

func sessionKey(sessionID string) string {
	return "nlu:session:" + sessionID
}

func (e *GeminiEngine) loadSession(ctx context.Context, sessionID string) (sessionData, error) {
	sess := sessionData{Slots: map[string]string{}, Attrs: map[string]string{}}
	raw, err := e.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return sess, nil
	}
	if err != nil {
		return sess, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt session data: start over rather than wedge the conversation.
		return sessionData{Slots: map[string]string{}, Attrs: map[string]string{}}, nil
	}
	if sess.Slots == nil {
		sess.Slots = map[string]string{}
	}
	if sess.Attrs == nil {
		sess.Attrs = map[string]string{}
	}
	return sess, nil
}

func (e *GeminiEngine) saveSession(ctx context.Context, sessionID string, sess sessionData) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return e.redis.Set(ctx, sessionKey(sessionID), raw, sessionTTL).Err()
}

func (e *GeminiEngine) clearSession(ctx context.Context, sessionID string) error {
	return e.redis.Del(ctx, sessionKey(sessionID)).Err()
}

// cleanJSONString strips markdown fences the model occasionally emits even in
// JSON mode.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
