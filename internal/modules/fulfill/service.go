// README: Fulfillment worker; drains the request queue, resolves matches, sends notifications.
package fulfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/queue"
)

// Receiver is the queue surface the worker needs.
type Receiver interface {
	Receive(ctx context.Context, max int, lease time.Duration) ([]queue.Message, error)
	Delete(ctx context.Context, receipt string) error
}

// Suggester resolves a cuisine into sampled catalog entries.
type Suggester interface {
	Pick(ctx context.Context, cuisine string) ([]catalog.Restaurant, error)
}

// Sender delivers one notification. A returned error means the message was
// not delivered and the queue entry must stay put.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

type Config struct {
	BatchSize    int
	Lease        time.Duration
	PollInterval time.Duration
}

// BatchResult summarises one poll cycle. Poison messages count as processed:
// they have been fully disposed of.
type BatchResult struct {
	Received  int
	Processed int
	Failed    int
}

type Service struct {
	queue   Receiver
	suggest Suggester
	mail    Sender
	cfg     Config
}

func NewService(q Receiver, suggest Suggester, mail Sender, cfg Config) *Service {
	return &Service{queue: q, suggest: suggest, mail: mail, cfg: cfg}
}

// Run polls the queue until the context is cancelled. One cycle per tick;
// cycles never overlap within a single worker instance.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.ProcessBatch(ctx)
			if err != nil {
				log.Printf("fulfill: receive cycle failed: %v", err)
				continue
			}
			if res.Received > 0 {
				log.Printf("fulfill: batch received=%d processed=%d failed=%d",
					res.Received, res.Processed, res.Failed)
			}
		}
	}
}

// ProcessBatch pulls one bounded batch and handles each message in turn.
// A failure on one message leaves it leased for redelivery and moves on to
// the next; it never aborts the batch.
func (s *Service) ProcessBatch(ctx context.Context) (BatchResult, error) {
	msgs, err := s.queue.Receive(ctx, s.cfg.BatchSize, s.cfg.Lease)
	if err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Received: len(msgs)}
	for _, msg := range msgs {
		if err := s.processOne(ctx, msg); err != nil {
			res.Failed++
			log.Printf("fulfill: message %s failed, will be redelivered: %v", msg.ID, err)
			continue
		}
		res.Processed++
	}
	return res, nil
}

// processOne runs the strictly sequential pipeline for one message:
// parse → match → compose → send → acknowledge. The delete happens only
// after a successful send, except for poison messages, which are removed
// immediately because retrying cannot fix them.
func (s *Service) processOne(ctx context.Context, msg queue.Message) error {
	req, err := parseBody(msg.Body)
	var poison *poisonError
	if errors.As(err, &poison) {
		log.Printf("fulfill: dropping poison message %s: %v", msg.ID, poison)
		return s.queue.Delete(ctx, msg.Receipt)
	}
	if err != nil {
		return err
	}

	restaurants, err := s.suggest.Pick(ctx, req.Cuisine)
	if err != nil {
		return fmt.Errorf("pick for cuisine %q: %w", req.Cuisine, err)
	}

	subject, body := composeNotification(req, restaurants)
	if _, err := s.mail.Send(ctx, req.Email, subject, body); err != nil {
		return fmt.Errorf("send to %s: %w", req.Email, err)
	}

	return s.queue.Delete(ctx, msg.Receipt)
}

const notificationSubject = "Your Dining Concierge Recommendations"

// composeNotification builds the email. Zero matches still produce a
// notification: an apology echoing the request, inviting a retry.
func composeNotification(req request, restaurants []catalog.Restaurant) (subject, body string) {
	if len(restaurants) == 0 {
		body = fmt.Sprintf(`Hello!

Here are your dining request details:
- Cuisine: %s
- Location: %s
- Date: %s
- Time: %s
- Number of people: %s

Sorry, we could not find matching restaurants at the moment.
Please try another cuisine or try again later.

Best,
Dining Concierge Bot
`, req.Cuisine, req.Location, req.Date, req.Time, req.People)
		return notificationSubject, body
	}

	var lines []string
	for i, r := range restaurants {
		lines = append(lines, fmt.Sprintf("%d. %s\n   Address: %s\n   Rating: %.1f (%d reviews)\n",
			i+1, r.Name, r.Address, r.Rating, r.NumberOfReviews))
	}

	body = fmt.Sprintf(`Hello!

Here are my %s restaurant suggestions for %s people, on %s at %s in %s:

%s
Enjoy your meal!

Best,
Dining Concierge Bot
`, req.Cuisine, req.People, req.Date, req.Time, req.Location, strings.Join(lines, "\n"))
	return notificationSubject, body
}
