// README: Returning-user recommender; synchronous shortcut from the last completed request.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/modules/userstate"
	"concierge/internal/types"
)

// Reasons returned when no recommendation can be produced.
const (
	ReasonMissingUserID      = "missing_user_id"
	ReasonNoLastSearch       = "no_last_search"
	ReasonMissingLastCuisine = "missing_last_cuisine"
)

// Getter reads the per-user last-search record.
type Getter interface {
	Get(ctx context.Context, userID types.ID) (*userstate.Record, error)
}

// Suggester resolves a cuisine into sampled catalog entries.
type Suggester interface {
	Pick(ctx context.Context, cuisine string) ([]catalog.Restaurant, error)
}

// LastSearch echoes the stored search parameters back to the caller.
type LastSearch struct {
	Location string `json:"location"`
	Cuisine  string `json:"cuisine"`
}

type Result struct {
	HasRecommendation bool        `json:"hasRecommendation"`
	Message           string      `json:"message"`
	Reason            string      `json:"reason,omitempty"`
	LastSearch        *LastSearch `json:"lastSearch,omitempty"`
	RestaurantCount   int         `json:"restaurantCount,omitempty"`
}

type Service struct {
	states  Getter
	suggest Suggester
	timeout time.Duration
}

func NewService(states Getter, suggest Suggester, timeout time.Duration) *Service {
	return &Service{states: states, suggest: suggest, timeout: timeout}
}

// Recommend produces an immediate suggestion from the user's last completed
// request. It sits on the interactive critical path, so it carries its own
// timeout, and every downstream failure degrades to a no-recommendation
// result instead of an error reaching the conversation.
func (s *Service) Recommend(ctx context.Context, userID types.ID) Result {
	if strings.TrimSpace(string(userID)) == "" {
		return Result{Reason: ReasonMissingUserID}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rec, err := s.states.Get(ctx, userID)
	if errors.Is(err, userstate.ErrNotFound) {
		return Result{Reason: ReasonNoLastSearch}
	}
	if err != nil {
		log.Printf("recommend: read user state for %s: %v", userID, err)
		return Result{Reason: ReasonNoLastSearch}
	}

	cuisine := strings.ToLower(strings.TrimSpace(rec.LastCuisine))
	if cuisine == "" {
		return Result{Reason: ReasonMissingLastCuisine}
	}
	location := strings.ToLower(strings.TrimSpace(rec.LastLocation))
	if location == "" {
		location = "manhattan"
	}

	restaurants, err := s.suggest.Pick(ctx, cuisine)
	if err != nil {
		log.Printf("recommend: pick for %s: %v", userID, err)
		return Result{Reason: ReasonNoLastSearch}
	}

	return Result{
		HasRecommendation: true,
		Message:           welcomeBackMessage(location, cuisine, restaurants),
		LastSearch:        &LastSearch{Location: location, Cuisine: cuisine},
		RestaurantCount:   len(restaurants),
	}
}

// welcomeBackMessage is deliberately distinct from the worker's email
// template: it references the stored search and reads as a greeting.
func welcomeBackMessage(location, cuisine string, restaurants []catalog.Restaurant) string {
	if len(restaurants) == 0 {
		return fmt.Sprintf("Welcome back! Last time you searched for %s food in %s. "+
			"I couldn't find matches right now, but tell me a cuisine and I will search again.",
			cuisine, location)
	}
	var lines []string
	for i, r := range restaurants {
		lines = append(lines, fmt.Sprintf("%d. %s, located at %s", i+1, r.Name, r.Address))
	}
	return fmt.Sprintf("Welcome back! Based on your last search for %s food in %s, "+
		"here are some recommendations: %s", cuisine, location, strings.Join(lines, "; "))
}
