// README: Queue message parsing with the historical field-name alias table.
package fulfill

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// request is the parsed queue message. cuisine and email are the two fields
// without which a message can never succeed.
type request struct {
	Cuisine  string
	Location string
	Date     string
	Time     string
	People   string
	Email    string
	UserID   string
}

// bodyAliases maps each logical field to every body key any producer version
// has used; the first non-empty hit wins. New aliases go at the front only if
// they are the current producer's spelling.
var bodyAliases = map[string][]string{
	"cuisine":  {"cuisine", "Cuisine", "DiningCuisine", "food_type"},
	"location": {"location", "Location", "DiningLocation", "city"},
	"date":     {"date", "Date", "DiningDate", "dining_date"},
	"time":     {"time", "Time", "DiningTime", "dining_time"},
	"people":   {"people", "People", "NumberOfPeople", "party_size"},
	"email":    {"email", "Email", "EmailAddress", "contact_email"},
	"userId":   {"userId", "userid", "user_id"},
}

// poisonError marks a message that is structurally invalid: no amount of
// retrying can fix the payload, so the caller removes it from the queue.
type poisonError struct {
	reason string
}

func (e *poisonError) Error() string {
	return "poison message: " + e.reason
}

// parseBody decodes a queue message body, resolving field aliases and
// normalising values. Returns a poisonError for unparseable JSON or a body
// missing cuisine or email after alias resolution.
func parseBody(raw []byte) (request, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return request{}, &poisonError{reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	pick := func(logical string) string {
		for _, alias := range bodyAliases[logical] {
			if v, ok := fields[alias]; ok {
				if s := stringify(v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	req := request{
		Cuisine:  strings.ToLower(pick("cuisine")),
		Location: strings.ToLower(pick("location")),
		Date:     pick("date"),
		Time:     pick("time"),
		People:   pick("people"),
		Email:    pick("email"),
		UserID:   pick("userId"),
	}
	if req.Cuisine == "" {
		return request{}, &poisonError{reason: "missing cuisine"}
	}
	if req.Email == "" {
		return request{}, &poisonError{reason: "missing email"}
	}
	if req.Location == "" {
		req.Location = "manhattan"
	}
	return req, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
