package matchmaking

import (
	"context"
	"fmt"

	"github.com/riftvale/crucible.games/internal/services/matchmaking/storage"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// MatchController is a capability bound to one match. It shares the
// registry-owned match state; mutations are visible through the registry.
type MatchController struct {
	registry *Registry
	match    *match
}

// ID returns the match identifier.
func (c *MatchController) ID() uint64 {
	return c.match.id
}

// SignalReady records the player's ready signal. Once the ready set covers
// every player on both teams the match moves to in progress and allReady
// is reported true.
func (c *MatchController) SignalReady(playerID uint64) (bool, error) {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	if err := ValidateMatchOperation(c.match.state, MatchOpSignalReady); err != nil {
		return false, err
	}

	c.match.readySet[playerID] = true
	allReady := len(c.match.readySet) >= len(c.match.teamA)+len(c.match.teamB)
	if allReady {
		c.match.state = MatchStateInProgress
	}
	return allReady, nil
}

// ReportResult completes an in-progress match and archives its result.
func (c *MatchController) ReportResult(ctx context.Context, winningTeam uint8, durationSecs uint32) error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	if err := ValidateMatchOperation(c.match.state, MatchOpReportResult); err != nil {
		return err
	}

	result := storage.MatchResult{
		MatchID:      c.match.id,
		WinningTeam:  winningTeam,
		DurationSecs: durationSecs,
	}
	if err := c.registry.archive.RecordResult(ctx, result); err != nil {
		return fmt.Errorf("archive match result: %w", err)
	}
	c.match.state = MatchStateCompleted
	return nil
}

// CancelMatch aborts a match that has not started.
func (c *MatchController) CancelMatch() error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	if err := ValidateMatchOperation(c.match.state, MatchOpCancel); err != nil {
		return err
	}
	c.match.state = MatchStateCancelled
	return nil
}

// GetInfo returns a snapshot of the match.
func (c *MatchController) GetInfo() MatchInfo {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	return c.match.info()
}

func (m *match) info() MatchInfo {
	teamA := make([]player.Ref, len(m.teamA))
	copy(teamA, m.teamA)
	teamB := make([]player.Ref, len(m.teamB))
	copy(teamB, m.teamB)
	return MatchInfo{
		ID:        m.id,
		Mode:      m.mode,
		State:     m.state,
		TeamA:     teamA,
		TeamB:     teamB,
		CreatedAt: m.createdAt,
	}
}
