package eventstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lox/bombpot/internal/pokertable"
)

// SequenceConflictError indicates an attempt to append an event whose
// sequence number is not exactly one past the hand's last. This signals a
// programming bug in the caller, not a recoverable user-facing condition.
type SequenceConflictError struct {
	HandID   pokertable.HandID
	Got      int
	Expected int
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("eventstore: sequence conflict for hand %s: got %d, expected %d", e.HandID, e.Got, e.Expected)
}

// Store is an in-memory, thread-safe, append-only log of events grouped by
// hand. Persistent storage is explicitly out of scope for this engine; a
// durable implementation satisfying the same ordering and atomicity
// contract could be substituted behind the same interface.
type Store struct {
	mu        sync.Mutex
	byHand    map[pokertable.HandID][]Event
	byTable   map[pokertable.TableID][]pokertable.HandID // hand ids in completion order
	summaries map[pokertable.HandID]HandSummary
}

// New creates an empty event store.
func New() *Store {
	return &Store{
		byHand:    make(map[pokertable.HandID][]Event),
		byTable:   make(map[pokertable.TableID][]pokertable.HandID),
		summaries: make(map[pokertable.HandID]HandSummary),
	}
}

// Append adds a single event. The event's Sequence must be exactly one
// past the hand's current last sequence number (1 for the first event).
func (s *Store) Append(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e)
}

// AppendRange adds a batch of events for one hand atomically: either every
// event is appended, or none are (sequence numbers are validated for the
// whole batch before any mutation).
func (s *Store) AppendRange(events []Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := s.nextSequenceLocked(events[0].HandID)
	for _, e := range events {
		if e.Sequence != expected {
			return &SequenceConflictError{HandID: e.HandID, Got: e.Sequence, Expected: expected}
		}
		expected++
	}

	for _, e := range events {
		if err := s.appendLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendLocked(e Event) error {
	expected := s.nextSequenceLocked(e.HandID)
	if e.Sequence != expected {
		return &SequenceConflictError{HandID: e.HandID, Got: e.Sequence, Expected: expected}
	}
	s.byHand[e.HandID] = append(s.byHand[e.HandID], e)

	if e.Kind == HandCompleted {
		data, _ := e.Data.(HandCompletedData)
		s.summaries[e.HandID] = HandSummary{
			HandID:         e.HandID,
			TableID:        e.TableID,
			HandNumber:     data.HandNumber,
			TotalPot:       data.TotalPot,
			DurationMs:     data.DurationMs,
			PlayerCount:    data.PlayerCount,
			WentToShowdown: data.WentToShowdown,
			FinalPhase:     data.FinalPhase,
			WinnerIDs:      data.WinnerIDs,
			PlayerResults:  data.PlayerResults,
			CompletedAt:    e.Timestamp,
		}
		s.byTable[e.TableID] = append(s.byTable[e.TableID], e.HandID)
	}
	return nil
}

func (s *Store) nextSequenceLocked(handID pokertable.HandID) int {
	return len(s.byHand[handID]) + 1
}

// GetLastSequenceNumber returns the last appended sequence number for a
// hand (0 if none).
func (s *Store) GetLastSequenceNumber(handID pokertable.HandID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHand[handID])
}

// GetEvents returns every event for a hand, in sequence order.
func (s *Store) GetEvents(handID pokertable.HandID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.byHand[handID]))
	copy(out, s.byHand[handID])
	return out
}

// GetEventsFrom returns events for a hand with sequence >= fromSequence,
// for incremental replay.
func (s *Store) GetEventsFrom(handID pokertable.HandID, fromSequence int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.byHand[handID]
	idx := sort.Search(len(all), func(i int) bool { return all[i].Sequence >= fromSequence })
	out := make([]Event, len(all)-idx)
	copy(out, all[idx:])
	return out
}

// GetHandSummary returns the hand's summary, or false if the hand has not
// yet produced a HandCompleted event.
func (s *Store) GetHandSummary(handID pokertable.HandID) (HandSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[handID]
	return summary, ok
}

// GetTableHistory returns up to limit completed hands for a table, newest
// first.
func (s *Store) GetTableHistory(tableID pokertable.TableID, limit int) []HandSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byTable[tableID]
	out := make([]HandSummary, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		if summary, ok := s.summaries[ids[i]]; ok {
			out = append(out, summary)
		}
	}
	return out
}
