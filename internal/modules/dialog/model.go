// README: Dialog wire types, intents, slot alias tables, and domain whitelists.
package dialog

import (
	"regexp"
	"strings"
)

// Intent names owned by the bot definition.
const (
	IntentGreeting          = "GreetingIntent"
	IntentThankYou          = "ThankYouIntent"
	IntentDiningSuggestions = "DiningSuggestionsIntent"
)

// Invocation phases as sent by the NLU engine.
const (
	PhaseValidating = "DialogCodeHook"
	PhaseFulfilling = "FulfillmentCodeHook"
)

// Dialog action types returned to the NLU engine.
const (
	ActionClose      = "Close"
	ActionDelegate   = "Delegate"
	ActionElicitSlot = "ElicitSlot"
)

// Intent states.
const (
	StateFulfilled  = "Fulfilled"
	StateInProgress = "InProgress"
	StateFailed     = "Failed"
)

// attrRequestEnqueued is the one-shot session attribute guarding duplicate
// queue writes after the completion transition.
const (
	attrRequestEnqueued = "requestEnqueued"
	attrEnqueuedMarker  = "1"
)

// SlotValue carries the NLU engine's resolved value for one slot.
type SlotValue struct {
	InterpretedValue string `json:"interpretedValue"`
}

type Slot struct {
	Value SlotValue `json:"value"`
}

type Intent struct {
	Name  string           `json:"name"`
	State string           `json:"state,omitempty"`
	Slots map[string]*Slot `json:"slots"`
}

type DialogAction struct {
	Type         string `json:"type"`
	SlotToElicit string `json:"slotToElicit,omitempty"`
}

type SessionState struct {
	DialogAction      *DialogAction     `json:"dialogAction,omitempty"`
	Intent            Intent            `json:"intent"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
}

// Event is one validator invocation, one per dialog turn.
type Event struct {
	SessionState     SessionState `json:"sessionState"`
	InvocationSource string       `json:"invocationSource"`
}

type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Response is the updated session plus the dialog directive.
type Response struct {
	SessionState SessionState `json:"sessionState"`
	Messages     []Message    `json:"messages,omitempty"`
}

// Request is the completed unit of work handed to the fulfillment pipeline.
// Field names are the queue message wire contract.
type Request struct {
	Cuisine  string `json:"cuisine"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	People   string `json:"people"`
	Email    string `json:"email"`
	UserID   string `json:"userId,omitempty"`
}

// Closed whitelists. Comparison is via normKey, so entries are stored in
// normalised form (lowercase, alphanumeric only).
var allowedCuisines = map[string]struct{}{
	"chinese":  {},
	"japanese": {},
	"italian":  {},
	"mexican":  {},
	"american": {},
}

var allowedLocations = map[string]struct{}{
	"manhattan":   {},
	"newyork":     {},
	"nyc":         {},
	"manhattanny": {},
}

// slotAliases resolves each logical field from whatever slot names the bot
// schema happens to use: exact candidates are tried first, then any slot key
// containing one of the keyword tokens. The upstream schema's slot names are
// not contractually stable, hence the fallback.
type slotAliases struct {
	exact    []string
	keywords []string
}

var (
	locationAliases = slotAliases{
		exact:    []string{"Location", "DiningLocation", "City", "Area"},
		keywords: []string{"location", "city", "area"},
	}
	cuisineAliases = slotAliases{
		exact:    []string{"Cuisine", "DiningCuisine", "FoodType"},
		keywords: []string{"cuisine", "food"},
	}
	dateAliases = slotAliases{
		exact:    []string{"DiningDate", "Date"},
		keywords: []string{"date"},
	}
	timeAliases = slotAliases{
		exact:    []string{"DiningTime", "Time"},
		keywords: []string{"time"},
	}
	peopleAliases = slotAliases{
		exact:    []string{"NumberOfPeople", "PeopleCount", "PartySize"},
		keywords: []string{"people", "party", "count", "number"},
	}
	emailAliases = slotAliases{
		exact:    []string{"Email", "email", "EmailAddress"},
		keywords: []string{"email", "mail"},
	}
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normKey lowercases and strips everything but letters and digits, making
// slot-name and whitelist comparison case- and punctuation-insensitive.
func normKey(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// emailPattern is the structural check: local part, "@", domain with a dot.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func cuisineAllowed(cuisine string) bool {
	_, ok := allowedCuisines[normKey(cuisine)]
	return ok
}

func locationAllowed(location string) bool {
	_, ok := allowedLocations[normKey(location)]
	return ok
}

// slotValue reads one slot's interpreted value, empty when absent.
func slotValue(slots map[string]*Slot, name string) string {
	s := slots[name]
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Value.InterpretedValue)
}

// resolveSlot applies the alias fallback: exact candidates (normalised name
// match) first, then keyword containment, first non-empty value wins.
func resolveSlot(slots map[string]*Slot, aliases slotAliases) string {
	normToKey := make(map[string]string, len(slots))
	for k := range slots {
		normToKey[normKey(k)] = k
	}
	for _, name := range aliases.exact {
		if k, ok := normToKey[normKey(name)]; ok {
			if v := slotValue(slots, k); v != "" {
				return v
			}
		}
	}
	for k := range slots {
		nk := normKey(k)
		for _, tok := range aliases.keywords {
			if strings.Contains(nk, tok) {
				if v := slotValue(slots, k); v != "" {
					return v
				}
				break
			}
		}
	}
	return ""
}

// preferSlotKey picks the elicitation target: the primary canonical name when
// the schema defines it, otherwise the fallback.
func preferSlotKey(slots map[string]*Slot, primary, fallback string) string {
	if _, ok := slots[primary]; ok {
		return primary
	}
	return fallback
}

// userIDFromAttributes accepts the historical attribute spellings.
func userIDFromAttributes(attrs map[string]string) string {
	for _, key := range []string{"userId", "userid", "user_id"} {
		if v := strings.TrimSpace(attrs[key]); v != "" {
			return v
		}
	}
	return ""
}
