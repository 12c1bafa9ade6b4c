// Package player defines the player snapshot shared across arena services.
//
// Registries copy these values into their own state instead of holding live
// references, so a snapshot never mutates after it crosses a service
// boundary.
package player

// Faction describes a player's or entity's allegiance.
type Faction int

const (
	// FactionUnspecified represents an invalid faction value.
	FactionUnspecified Faction = iota
	// FactionNeutral indicates no allegiance.
	FactionNeutral
	// FactionAlliance indicates the alliance side.
	FactionAlliance
	// FactionHorde indicates the horde side.
	FactionHorde
)

// String returns the lowercase wire name for the faction.
func (f Faction) String() string {
	switch f {
	case FactionNeutral:
		return "neutral"
	case FactionAlliance:
		return "alliance"
	case FactionHorde:
		return "horde"
	default:
		return "unspecified"
	}
}

// Ref is a point-in-time snapshot of a player's identity.
type Ref struct {
	ID      uint64
	Name    string
	Faction Faction
	Level   uint16
}
