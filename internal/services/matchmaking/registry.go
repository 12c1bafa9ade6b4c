package matchmaking

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/platform/sequence"
	"github.com/riftvale/crucible.games/internal/services/matchmaking/storage"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// waitEstimateSecs is the flat wait estimate reported on tickets and queue
// stats. There is no live opponent pool to derive a real estimate from.
const waitEstimateSecs uint32 = 30

// Registry owns the queue and every match. One lock guards the queue map,
// the match map, and both id sequences.
type Registry struct {
	mu        sync.Mutex
	queue     map[uint64]Ticket
	matches   map[uint64]*match
	ticketIDs sequence.Sequence
	matchIDs  sequence.Sequence
	archive   storage.Archive
	now       func() time.Time
}

type match struct {
	id        uint64
	mode      GameMode
	state     MatchState
	teamA     []player.Ref
	teamB     []player.Ref
	createdAt int64
	readySet  map[uint64]bool
}

// NewRegistry creates a matchmaking registry that archives completed match
// results to archive.
func NewRegistry(archive storage.Archive) *Registry {
	return &Registry{
		queue:   make(map[uint64]Ticket),
		matches: make(map[uint64]*match),
		archive: archive,
		now:     time.Now,
	}
}

// Enqueue places the player in the mode's queue and returns their ticket.
func (r *Registry) Enqueue(p player.Ref, mode GameMode) Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket := Ticket{
		ID:                r.ticketIDs.Next(),
		Player:            p,
		Mode:              mode,
		EnqueuedAt:        r.now().UnixMilli(),
		EstimatedWaitSecs: waitEstimateSecs,
	}
	r.queue[ticket.ID] = ticket
	return ticket
}

// Dequeue removes the ticket from the queue. Removal is destructive: a
// repeated dequeue of the same id reports not found.
func (r *Registry) Dequeue(ticketID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queue[ticketID]; !ok {
		return ErrTicketNotFound
	}
	delete(r.queue, ticketID)
	return nil
}

// GetQueueStats counts the players queued for the mode.
func (r *Registry) GetQueueStats(mode GameMode) QueueStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, ticket := range r.queue {
		if ticket.Mode == mode {
			count++
		}
	}
	return QueueStats{
		Mode:           mode,
		PlayersInQueue: count,
		AvgWaitSecs:    waitEstimateSecs,
	}
}

// FindMatch synthesizes a match for the player against a stand-in opponent
// and returns its controller. The match starts in the ready state.
func (r *Registry) FindMatch(p player.Ref, mode GameMode) (*MatchController, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := &match{
		id:        r.matchIDs.Next(),
		mode:      mode,
		state:     MatchStateReady,
		teamA:     []player.Ref{p},
		teamB:     []player.Ref{{ID: 999, Name: "Opponent", Level: 10}},
		createdAt: r.now().UnixMilli(),
		readySet:  make(map[uint64]bool),
	}
	r.matches[m.id] = m

	return &MatchController{registry: r, match: m}, m.id
}

// GetMatchResult returns the archived result of a completed match.
func (r *Registry) GetMatchResult(ctx context.Context, matchID uint64) (storage.MatchResult, error) {
	result, err := r.archive.GetResult(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.MatchResult{}, ErrResultNotFound
	}
	if err != nil {
		return storage.MatchResult{}, apperrors.Wrap(apperrors.CodeUnknown, "get match result", err)
	}
	return result, nil
}

// MatchCount returns the number of matches the registry has created.
func (r *Registry) MatchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}
