package inventory

import (
	"strconv"
	"sync"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/platform/sequence"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// DefaultCapacity is the slot limit applied to every inventory unless the
// registry was built with a different one.
const DefaultCapacity = 20

// Registry owns every player inventory and every trade session. One lock
// guards all of them.
type Registry struct {
	mu          sync.Mutex
	inventories map[uint64]*playerInventory
	sessions    map[uint64]*session
	tradeIDs    sequence.Sequence
	capacity    int
}

type playerInventory struct {
	slots   []Slot
	slotIDs sequence.Sequence
}

// NewRegistry creates an inventory registry with the default slot capacity.
func NewRegistry() *Registry {
	return NewRegistryWithCapacity(DefaultCapacity)
}

// NewRegistryWithCapacity creates an inventory registry whose inventories
// hold at most capacity slots.
func NewRegistryWithCapacity(capacity int) *Registry {
	return &Registry{
		inventories: make(map[uint64]*playerInventory),
		sessions:    make(map[uint64]*session),
		capacity:    capacity,
	}
}

// inventoryFor returns the player's inventory, creating an empty one on
// first touch. Callers must hold r.mu.
func (r *Registry) inventoryFor(playerID uint64) *playerInventory {
	inv, ok := r.inventories[playerID]
	if !ok {
		inv = &playerInventory{}
		r.inventories[playerID] = inv
	}
	return inv
}

// GetInventory returns a snapshot of the player's slots. Players that have
// never held an item get an empty inventory.
func (r *Registry) GetInventory(playerID uint64) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inventoryFor(playerID)
	slots := make([]Slot, len(inv.slots))
	copy(slots, inv.slots)
	return View{
		Owner:     playerID,
		Slots:     slots,
		Capacity:  r.capacity,
		UsedSlots: len(slots),
	}
}

// AddItem places the item in a fresh slot and returns it. Quantities must be
// positive and the inventory must have a free slot.
func (r *Registry) AddItem(playerID uint64, item Item, quantity int) (Slot, error) {
	if quantity <= 0 {
		return Slot{}, apperrors.WithMetadata(
			apperrors.CodeInventoryQuantityInvalid,
			"quantity must be positive",
			map[string]string{"quantity": strconv.Itoa(quantity)},
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inventoryFor(playerID)
	if len(inv.slots) >= r.capacity {
		return Slot{}, apperrors.WithMetadata(
			apperrors.CodeInventoryCapacityExhausted,
			"inventory is full",
			map[string]string{"capacity": strconv.Itoa(r.capacity)},
		)
	}

	slot := Slot{
		Index:    inv.slotIDs.Next(),
		Item:     item,
		Quantity: quantity,
	}
	inv.slots = append(inv.slots, slot)
	return slot, nil
}

// RemoveItem takes quantity items out of a slot. Removing at least the
// slot's full quantity deletes the slot; its index is never reused.
func (r *Registry) RemoveItem(playerID uint64, slotIndex uint64, quantity int) error {
	if quantity <= 0 {
		return apperrors.WithMetadata(
			apperrors.CodeInventoryQuantityInvalid,
			"quantity must be positive",
			map[string]string{"quantity": strconv.Itoa(quantity)},
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inventoryFor(playerID)
	for i := range inv.slots {
		if inv.slots[i].Index != slotIndex {
			continue
		}
		if quantity >= inv.slots[i].Quantity {
			inv.slots = append(inv.slots[:i], inv.slots[i+1:]...)
		} else {
			inv.slots[i].Quantity -= quantity
		}
		return nil
	}
	return ErrSlotNotFound
}

// FilterByRarity returns snapshots of the player's slots whose item rarity
// is at least minRarity.
func (r *Registry) FilterByRarity(playerID uint64, minRarity Rarity) []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := r.inventoryFor(playerID)
	var matches []Slot
	for _, slot := range inv.slots {
		if slot.Item.Rarity >= minRarity {
			matches = append(matches, slot)
		}
	}
	return matches
}

// StartTrade opens a session between two players and returns the
// initiator's capability. The target's side is reached via Counterpart.
func (r *Registry) StartTrade(initiator, target player.Ref) *TradeSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &session{
		id:        r.tradeIDs.Next(),
		initiator: initiator,
		target:    target,
		state:     TradeStateProposing,
		offers:    [2]map[uint64]struct{}{{}, {}},
	}
	r.sessions[s.id] = s

	return &TradeSession{
		registry: r,
		session:  s,
		side:     sideInitiator,
	}
}

// TradeCount returns the number of sessions the registry has opened.
func (r *Registry) TradeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
