package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFeed returns one snapshot per round; the last one repeats.
type scriptedFeed struct {
	rounds  [][]string
	calls   int
	more    int
	moreErr error
}

func (f *scriptedFeed) Snapshot(context.Context) []Listing {
	i := f.calls
	if i >= len(f.rounds) {
		i = len(f.rounds) - 1
	}
	f.calls++
	if i < 0 {
		return nil
	}
	out := make([]Listing, len(f.rounds[i]))
	for j, id := range f.rounds[i] {
		out[j] = Listing{ID: id}
	}
	return out
}

func (f *scriptedFeed) More(context.Context) error {
	f.more++
	return f.moreErr
}

func TestCollect_TwoRoundsReachTarget(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{"A", "B"}, {"B", "C"}}}
	s := NewSession(3, 0)

	require.NoError(t, Collect(context.Background(), feed, s, nil))

	assert.Equal(t, []string{"A", "B", "C"}, s.IDs())
	assert.Equal(t, 2, s.Rounds)
	assert.Equal(t, 0, s.Stagnation)
	assert.Equal(t, 1, feed.more)
}

func TestCollect_ZeroYieldTerminatesAtCeiling(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{}}}
	s := NewSession(10, 5)

	require.NoError(t, Collect(context.Background(), feed, s, nil))

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 5, s.Rounds)
	assert.Equal(t, 5, s.Stagnation)
	assert.Equal(t, 4, feed.more)
}

func TestCollect_PartialResultAfterStagnation(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{"A"}, {"A", "B"}, {"B"}}}
	s := NewSession(25, 3)

	require.NoError(t, Collect(context.Background(), feed, s, nil))

	assert.Equal(t, []string{"A", "B"}, s.IDs())
	assert.Equal(t, 2+3, s.Rounds)
}

func TestCollect_NeverExceedsTarget(t *testing.T) {
	tests := []struct {
		name   string
		target int
		rounds [][]string
	}{
		{"single large round", 2, [][]string{{"A", "B", "C", "D"}}},
		{"overshoot on second round", 3, [][]string{{"A", "B"}, {"C", "D", "E"}}},
		{"exact", 4, [][]string{{"A", "B"}, {"C", "D"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &scriptedFeed{rounds: tt.rounds}
			s := NewSession(tt.target, 0)
			require.NoError(t, Collect(context.Background(), feed, s, nil))
			assert.Equal(t, tt.target, s.Len())
		})
	}
}

func TestCollect_RoundBound(t *testing.T) {
	// One new id per round: target rounds to fill, never more than
	// ceiling + ceil(target/yield).
	rounds := [][]string{}
	var acc []string
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		acc = append(acc, id)
		rounds = append(rounds, append([]string(nil), acc...))
	}
	feed := &scriptedFeed{rounds: rounds}
	s := NewSession(7, 5)

	require.NoError(t, Collect(context.Background(), feed, s, nil))
	assert.Equal(t, 7, s.Len())
	assert.LessOrEqual(t, s.Rounds, 5+7)
}

func TestCollect_SizeNonDecreasing(t *testing.T) {
	s := NewSession(10, 5)
	prev := 0
	for _, batch := range [][]string{{"A"}, {}, {"B", "A"}, {"A"}, {"C", "D"}} {
		ls := make([]Listing, len(batch))
		for i, id := range batch {
			ls[i] = Listing{ID: id}
		}
		s.Observe(ls)
		assert.GreaterOrEqual(t, s.Len(), prev)
		prev = s.Len()
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, s.IDs())
}

func TestCollect_FeedExhaustedStops(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{"A"}}, moreErr: ErrFeedExhausted}
	s := NewSession(5, 5)

	require.NoError(t, Collect(context.Background(), feed, s, nil))
	assert.Equal(t, 1, s.Rounds)
	assert.Equal(t, []string{"A"}, s.IDs())
}

func TestCollect_MoreErrorCountsAsStagnation(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{"A"}}, moreErr: errors.New("scroll failed")}
	s := NewSession(5, 2)

	require.NoError(t, Collect(context.Background(), feed, s, nil))
	assert.Equal(t, 3, s.Rounds)
	assert.True(t, s.Stagnant())
}

func TestCollect_ZeroTarget(t *testing.T) {
	feed := &scriptedFeed{rounds: [][]string{{"A"}}}
	s := NewSession(0, 5)

	require.NoError(t, Collect(context.Background(), feed, s, nil))
	assert.Equal(t, 0, feed.calls)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Collect(ctx, &scriptedFeed{rounds: [][]string{{"A"}}}, NewSession(3, 5), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestObserve_FillsMissingLink(t *testing.T) {
	s := NewSession(5, 5)
	s.Observe([]Listing{{ID: "1"}})
	s.Observe([]Listing{{ID: "1", Link: "https://x/ilan/1"}, {ID: "2", Link: "https://x/ilan/2"}})

	got := s.Listings()
	require.Len(t, got, 2)
	assert.Equal(t, "https://x/ilan/1", got[0].Link)
	assert.Equal(t, "2", got[1].ID)
}
