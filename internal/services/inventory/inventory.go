// Package inventory owns per-player item slots and trade sessions. The
// registry issues TradeSession capabilities; each capability is bound to one
// side of a session so offer and acceptance mutations are always attributed
// to the right player.
package inventory

import (
	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
)

// Rarity ranks an item. The order is total: common < uncommon < rare <
// epic < legendary.
type Rarity int

const (
	// RarityUnspecified represents an invalid rarity value.
	RarityUnspecified Rarity = iota
	// RarityCommon is the lowest rarity.
	RarityCommon
	// RarityUncommon ranks above common.
	RarityUncommon
	// RarityRare ranks above uncommon.
	RarityRare
	// RarityEpic ranks above rare.
	RarityEpic
	// RarityLegendary is the highest rarity.
	RarityLegendary
)

// String returns the lowercase wire name for the rarity.
func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return "unspecified"
	}
}

// Attribute is one named stat on an item.
type Attribute struct {
	Name  string
	Value int32
}

// Item describes a stackable game item.
type Item struct {
	ID         uint64
	Name       string
	Rarity     Rarity
	Level      uint16
	StackSize  uint32
	Attributes []Attribute
}

// Slot holds a quantity of one item. Index is unique per player for the
// process lifetime and is never reused after removal.
type Slot struct {
	Index    uint64
	Item     Item
	Quantity int
}

// View is a snapshot of one player's inventory.
type View struct {
	Owner     uint64
	Slots     []Slot
	Capacity  int
	UsedSlots int
}

var (
	// ErrSlotNotFound indicates a lookup for a slot index the player does
	// not hold.
	ErrSlotNotFound = apperrors.New(apperrors.CodeNotFound, "inventory slot not found")
	// ErrQuantityInvalid indicates a zero or negative item quantity.
	ErrQuantityInvalid = apperrors.New(apperrors.CodeInventoryQuantityInvalid, "quantity must be positive")
)
