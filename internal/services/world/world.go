// Package world owns every spawned entity and answers spatial queries about
// them. The registry is the sole owner of entity state; callers receive
// snapshots, never live references.
package world

import (
	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// Kind describes what sort of entity occupies a world slot.
type Kind int

const (
	// KindUnspecified represents an invalid entity kind value.
	KindUnspecified Kind = iota
	// KindPlayer indicates a player-controlled entity.
	KindPlayer
	// KindNPC indicates a friendly non-player entity.
	KindNPC
	// KindMonster indicates a hostile non-player entity.
	KindMonster
)

// String returns the lowercase wire name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	case KindMonster:
		return "monster"
	default:
		return "unspecified"
	}
}

// Position locates an entity in world space.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Entity is a snapshot of one world entity.
type Entity struct {
	ID        uint64
	Kind      Kind
	Name      string
	Position  Position
	Health    int
	MaxHealth int
	Faction   player.Faction
	Alive     bool
}

// Spec describes the entity to create on spawn.
type Spec struct {
	Kind      Kind
	Name      string
	Position  Position
	MaxHealth int
	Faction   player.Faction
}

var (
	// ErrNotFound indicates a lookup for an entity id that does not exist
	// (never spawned or already despawned).
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "entity not found")
	// ErrDamageInvalid indicates a negative damage amount.
	ErrDamageInvalid = apperrors.New(apperrors.CodeWorldDamageInvalid, "damage amount must not be negative")
	// ErrRadiusInvalid indicates a negative query radius.
	ErrRadiusInvalid = apperrors.New(apperrors.CodeWorldRadiusInvalid, "query radius must not be negative")
)
