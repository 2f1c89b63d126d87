// Package discovery collects listing identifiers from a platform's search
// results, requesting more content until a target is met or the feed
// stops yielding new identifiers.
package discovery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/logging"
)

// DefaultStagnationCeiling is the number of consecutive rounds without new
// identifiers after which collection stops.
const DefaultStagnationCeiling = 5

// ErrFeedExhausted is returned by Feed.More when the feed has no further
// content to offer.
var ErrFeedExhausted = errors.New("feed exhausted")

// Feed is a source of listing identifiers that can be asked for more.
type Feed interface {
	// Snapshot returns the listings currently rendered. It never fails; an
	// unreadable feed yields an empty slice.
	Snapshot(ctx context.Context) []Listing
	// More requests additional content.
	More(ctx context.Context) error
}

// Listing is a discovered listing identifier and, when known, the link it
// was found under.
type Listing struct {
	ID   string
	Link string
}

// Session accumulates unique listings for one (platform, title) search.
// Its size never exceeds Target and Stagnation only resets on growth.
type Session struct {
	Target     int
	Ceiling    int
	Stagnation int
	Rounds     int

	listings []Listing
	index    map[string]int
}

// NewSession returns an empty session. A non-positive ceiling selects the
// default.
func NewSession(target, ceiling int) *Session {
	if ceiling <= 0 {
		ceiling = DefaultStagnationCeiling
	}
	if target < 0 {
		target = 0
	}
	return &Session{
		Target:  target,
		Ceiling: ceiling,
		index:   make(map[string]int),
	}
}

// Observe unions one round's snapshot into the session and updates the
// stagnation counter. It reports whether the session grew.
func (s *Session) Observe(batch []Listing) bool {
	s.Rounds++
	before := len(s.listings)
	for _, l := range batch {
		if len(s.listings) >= s.Target {
			break
		}
		if l.ID == "" {
			continue
		}
		if i, ok := s.index[l.ID]; ok {
			if s.listings[i].Link == "" {
				s.listings[i].Link = l.Link
			}
			continue
		}
		s.index[l.ID] = len(s.listings)
		s.listings = append(s.listings, l)
	}
	grew := len(s.listings) > before
	if grew {
		s.Stagnation = 0
	} else {
		s.Stagnation++
	}
	return grew
}

// Full reports whether the target has been reached.
func (s *Session) Full() bool {
	return len(s.listings) >= s.Target
}

// Stagnant reports whether the stagnation ceiling has been reached.
func (s *Session) Stagnant() bool {
	return s.Stagnation >= s.Ceiling
}

// Done reports whether collection should stop.
func (s *Session) Done() bool {
	return s.Full() || s.Stagnant()
}

// Len is the number of unique listings accumulated.
func (s *Session) Len() int {
	return len(s.listings)
}

// Listings returns the accumulated listings in order of first sight.
func (s *Session) Listings() []Listing {
	return append([]Listing(nil), s.listings...)
}

// IDs returns the accumulated identifiers in order of first sight.
func (s *Session) IDs() []string {
	ids := make([]string, len(s.listings))
	for i, l := range s.listings {
		ids[i] = l.ID
	}
	return ids
}

// Collect drives feed until the session is full, stagnant, or the feed is
// exhausted. Early termination is a partial result, not an error; only ctx
// cancellation is returned.
func Collect(ctx context.Context, feed Feed, s *Session, log *zap.SugaredLogger) error {
	log = logging.OrNop(log)
	if s.Target == 0 {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Observe(feed.Snapshot(ctx))
		log.Debugw("Discovery round",
			"round", s.Rounds,
			logging.FieldCount, s.Len(),
			"stagnation", s.Stagnation)

		if s.Full() {
			return nil
		}
		if s.Stagnant() {
			log.Infow("Discovery stopped early, no new listings",
				logging.FieldCount, s.Len(), "target", s.Target)
			return nil
		}

		if err := feed.More(ctx); err != nil {
			if errors.Is(err, ErrFeedExhausted) {
				log.Debugw("Feed exhausted", logging.FieldCount, s.Len())
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warnw("Failed to load more listings", logging.FieldError, err)
		}
	}
}
