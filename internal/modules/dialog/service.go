// README: Dialog validator; per-turn slot validation, completion transition, and enqueue guard.
package dialog

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"concierge/internal/modules/userstate"
	"concierge/internal/types"
)

// Canned user-facing messages. Raw internal errors never cross this boundary.
const (
	msgGreeting     = "Hi there, how can I help?"
	msgThankYou     = "You're welcome."
	msgConfirmation = "You're all set. Expect my suggestions shortly! I will notify you by email."
	msgCuisineHint  = "Sorry, I currently support cuisines like chinese, japanese, italian, mexican, american. What cuisine would you like?"
	msgBadEmail     = "That email address looks invalid. Please provide a valid email address."
	msgMissing      = "I am missing some details for your dining request. Please try again."
	msgFallback     = "Sorry, I couldn't understand that."
	msgInternal     = "Sorry, something went wrong on our side. Please try again in a moment."
)

// Enqueuer hands a completed request body to the request queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, body []byte) (string, error)
}

// Snapshotter persists the per-user last-search record.
type Snapshotter interface {
	Save(ctx context.Context, rec userstate.Record) error
}

type Service struct {
	queue  Enqueuer
	states Snapshotter
}

func NewService(queue Enqueuer, states Snapshotter) *Service {
	return &Service{queue: queue, states: states}
}

// outcome is the tagged result of the validation chain; a single dispatch
// point below turns it into a wire response.
type outcomeKind int

const (
	outcomeElicit outcomeKind = iota
	outcomeDelegate
	outcomeComplete
)

type outcome struct {
	kind         outcomeKind
	slotToElicit string
	message      string
}

// HandleTurn validates one dialog turn and returns the updated session plus
// a directive. It never panics out to the caller: unexpected failures close
// the turn with a generic apology.
func (s *Service) HandleTurn(ctx context.Context, ev Event) (resp Response) {
	intent := ev.SessionState.Intent
	slots := intent.Slots
	if slots == nil {
		slots = map[string]*Slot{}
	}
	attrs := cloneAttrs(ev.SessionState.SessionAttributes)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("dialog: recovered from panic in turn for intent %q: %v", intent.Name, r)
			resp = closeResponse(intent.Name, StateFailed, msgInternal, slots, attrs)
		}
	}()

	switch intent.Name {
	case IntentGreeting:
		return closeResponse(intent.Name, StateFulfilled, msgGreeting, slots, attrs)
	case IntentThankYou:
		return closeResponse(intent.Name, StateFulfilled, msgThankYou, slots, attrs)
	case IntentDiningSuggestions:
		return s.handleDining(ctx, ev, slots, attrs)
	default:
		return closeResponse(intent.Name, StateFailed, msgFallback, slots, attrs)
	}
}

func (s *Service) handleDining(ctx context.Context, ev Event, slots map[string]*Slot, attrs map[string]string) Response {
	intentName := ev.SessionState.Intent.Name
	req := Request{
		Location: resolveSlot(slots, locationAliases),
		Cuisine:  resolveSlot(slots, cuisineAliases),
		Date:     resolveSlot(slots, dateAliases),
		Time:     resolveSlot(slots, timeAliases),
		People:   resolveSlot(slots, peopleAliases),
		Email:    resolveSlot(slots, emailAliases),
		UserID:   userIDFromAttributes(attrs),
	}

	if ev.InvocationSource == PhaseValidating {
		out := validateRequest(req, slots)
		switch out.kind {
		case outcomeElicit:
			return elicitResponse(intentName, out.slotToElicit, out.message, slots, attrs)
		case outcomeDelegate:
			return delegateResponse(intentName, slots, attrs)
		default:
			return s.complete(ctx, intentName, req, slots, attrs)
		}
	}

	// Fulfillment phase: the engine may call here directly, with or without a
	// prior validation turn, so re-check completeness before the safety-net
	// enqueue.
	if !req.isComplete() {
		return closeResponse(intentName, StateFailed, msgMissing, slots, attrs)
	}
	return s.complete(ctx, intentName, req, slots, attrs)
}

// validateRequest runs the whitelist and structure checks in priority order.
func validateRequest(req Request, slots map[string]*Slot) outcome {
	if req.Location != "" && !locationAllowed(req.Location) {
		return outcome{
			kind:         outcomeElicit,
			slotToElicit: preferSlotKey(slots, "Location", "DiningLocation"),
			message:      "Sorry, I can't fulfill requests for " + req.Location + ". Please enter a valid location in Manhattan.",
		}
	}
	if req.Cuisine != "" && !cuisineAllowed(req.Cuisine) {
		return outcome{
			kind:         outcomeElicit,
			slotToElicit: preferSlotKey(slots, "Cuisine", "DiningCuisine"),
			message:      msgCuisineHint,
		}
	}
	if req.Email != "" && !isValidEmail(req.Email) {
		return outcome{
			kind:         outcomeElicit,
			slotToElicit: preferSlotKey(slots, "Email", "email"),
			message:      msgBadEmail,
		}
	}
	if !req.isComplete() {
		return outcome{kind: outcomeDelegate}
	}
	return outcome{kind: outcomeComplete}
}

// complete is the completion transition: enqueue exactly once per session,
// snapshot the user's last search, confirm. The requestEnqueued attribute is
// a best-effort idempotency guard, not a distributed lock; a rare duplicate
// under concurrent invocations is tolerated downstream.
func (s *Service) complete(ctx context.Context, intentName string, req Request, slots map[string]*Slot, attrs map[string]string) Response {
	if attrs[attrRequestEnqueued] != attrEnqueuedMarker {
		wire := req
		wire.Cuisine = strings.ToLower(strings.TrimSpace(req.Cuisine))
		body, err := json.Marshal(wire)
		if err != nil {
			log.Printf("dialog: marshal request: %v", err)
			return closeResponse(intentName, StateFailed, msgInternal, slots, attrs)
		}
		msgID, err := s.queue.Enqueue(ctx, body)
		if err != nil {
			// Guard stays unset so a later invocation can retry the enqueue.
			log.Printf("dialog: enqueue request: %v", err)
			return closeResponse(intentName, StateFailed, msgInternal, slots, attrs)
		}
		attrs[attrRequestEnqueued] = attrEnqueuedMarker
		log.Printf("dialog: request enqueued, message id %s", msgID)

		s.snapshot(ctx, req)
	}
	return closeResponse(intentName, StateFulfilled, msgConfirmation, slots, attrs)
}

// snapshot records the last completed search for the returning-user shortcut.
// Failures are logged and suppressed: the snapshot is a courtesy, the queue
// write is the contract.
func (s *Service) snapshot(ctx context.Context, req Request) {
	if req.UserID == "" || req.Cuisine == "" {
		return
	}
	location := strings.ToLower(strings.TrimSpace(req.Location))
	if location == "" {
		location = "manhattan"
	}
	rec := userstate.Record{
		UserID:       types.ID(req.UserID),
		LastLocation: location,
		LastCuisine:  strings.ToLower(strings.TrimSpace(req.Cuisine)),
		UpdatedAt:    time.Now().UTC(),
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		rec.LastEmail = &email
	}
	if err := s.states.Save(ctx, rec); err != nil {
		log.Printf("dialog: save user state for %s: %v", req.UserID, err)
	}
}

func (r Request) isComplete() bool {
	return r.Location != "" && r.Cuisine != "" && r.Date != "" &&
		r.Time != "" && r.People != "" && r.Email != ""
}

func cloneAttrs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func closeResponse(intentName, state, message string, slots map[string]*Slot, attrs map[string]string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: ActionClose},
			Intent:            Intent{Name: intentName, State: state, Slots: slots},
			SessionAttributes: attrs,
		},
		Messages: []Message{{ContentType: "PlainText", Content: message}},
	}
}

func delegateResponse(intentName string, slots map[string]*Slot, attrs map[string]string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: ActionDelegate},
			Intent:            Intent{Name: intentName, State: StateInProgress, Slots: slots},
			SessionAttributes: attrs,
		},
	}
}

func elicitResponse(intentName, slotToElicit, message string, slots map[string]*Slot, attrs map[string]string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: ActionElicitSlot, SlotToElicit: slotToElicit},
			Intent:            Intent{Name: intentName, State: StateInProgress, Slots: slots},
			SessionAttributes: attrs,
		},
		Messages: []Message{{ContentType: "PlainText", Content: message}},
	}
}
