// Package matchmaking owns the queue and active matches. The registry
// issues MatchController capabilities that drive a match through its
// lifecycle; completed results are archived through the storage layer.
package matchmaking

import (
	"fmt"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// GameMode identifies a matchmaking bracket.
type GameMode int

const (
	// GameModeUnspecified represents an invalid game mode value.
	GameModeUnspecified GameMode = iota
	// GameModeDuel is one versus one.
	GameModeDuel
	// GameModeArena3v3 is three versus three arena.
	GameModeArena3v3
	// GameModeBattleground is large-team objective play.
	GameModeBattleground
)

// String returns the lowercase wire name for the mode.
func (m GameMode) String() string {
	switch m {
	case GameModeDuel:
		return "duel"
	case GameModeArena3v3:
		return "arena3v3"
	case GameModeBattleground:
		return "battleground"
	default:
		return "unspecified"
	}
}

// MatchState tracks a match through its lifecycle. Completed and cancelled
// are terminal.
type MatchState int

const (
	// MatchStateUnspecified represents an invalid match state value.
	MatchStateUnspecified MatchState = iota
	// MatchStateWaiting means the match is assembling players.
	MatchStateWaiting
	// MatchStateReady means all players are assigned and ready checks run.
	MatchStateReady
	// MatchStateInProgress means play has started.
	MatchStateInProgress
	// MatchStateCompleted is the terminal success state.
	MatchStateCompleted
	// MatchStateCancelled is the terminal abort state.
	MatchStateCancelled
)

// String returns the lowercase wire name for the state.
func (s MatchState) String() string {
	switch s {
	case MatchStateWaiting:
		return "waiting"
	case MatchStateReady:
		return "ready"
	case MatchStateInProgress:
		return "inProgress"
	case MatchStateCompleted:
		return "completed"
	case MatchStateCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// MatchOperation describes a category of match operation for policy checks.
type MatchOperation int

const (
	// MatchOpUnspecified represents an invalid operation.
	MatchOpUnspecified MatchOperation = iota
	// MatchOpSignalReady represents a player ready signal.
	MatchOpSignalReady
	// MatchOpReportResult represents reporting the final result.
	MatchOpReportResult
	// MatchOpCancel represents cancelling the match.
	MatchOpCancel
)

// ValidateMatchOperation ensures the match state allows the requested
// operation.
func ValidateMatchOperation(state MatchState, op MatchOperation) error {
	switch state {
	case MatchStateWaiting, MatchStateReady:
		switch op {
		case MatchOpSignalReady, MatchOpCancel:
			return nil
		default:
			return newMatchStateOpError(state, op)
		}
	case MatchStateInProgress:
		switch op {
		case MatchOpReportResult:
			return nil
		default:
			return newMatchStateOpError(state, op)
		}
	case MatchStateCompleted, MatchStateCancelled:
		return newMatchStateOpError(state, op)
	default:
		return newMatchStateOpError(state, op)
	}
}

// newMatchStateOpError creates metadata for disallowed state/operation
// combinations.
func newMatchStateOpError(state MatchState, op MatchOperation) *apperrors.Error {
	opLabel := matchOperationLabel(op)
	return apperrors.WithMetadata(
		apperrors.CodeMatchStateDisallowsOp,
		fmt.Sprintf("match state %s does not allow operation %s", state, opLabel),
		map[string]string{"State": state.String(), "Operation": opLabel},
	)
}

// matchOperationLabel returns a stable label for a match operation.
func matchOperationLabel(op MatchOperation) string {
	switch op {
	case MatchOpSignalReady:
		return "SIGNAL_READY"
	case MatchOpReportResult:
		return "REPORT_RESULT"
	case MatchOpCancel:
		return "CANCEL"
	default:
		return "UNSPECIFIED"
	}
}

// Ticket records one player's place in the queue. EnqueuedAt is
// milliseconds since the Unix epoch.
type Ticket struct {
	ID                uint64
	Player            player.Ref
	Mode              GameMode
	EnqueuedAt        int64
	EstimatedWaitSecs uint32
}

// QueueStats summarizes one mode's queue.
type QueueStats struct {
	Mode           GameMode
	PlayersInQueue int
	AvgWaitSecs    uint32
}

// MatchInfo is a snapshot of one match. CreatedAt is milliseconds since
// the Unix epoch.
type MatchInfo struct {
	ID        uint64
	Mode      GameMode
	State     MatchState
	TeamA     []player.Ref
	TeamB     []player.Ref
	CreatedAt int64
}

var (
	// ErrTicketNotFound indicates a dequeue for a ticket id that is not
	// queued (unknown or already removed).
	ErrTicketNotFound = apperrors.New(apperrors.CodeNotFound, "queue ticket not found")
	// ErrResultNotFound indicates no archived result exists for the match.
	ErrResultNotFound = apperrors.New(apperrors.CodeNotFound, "match result not found")
)
