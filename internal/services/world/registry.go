package world

import (
	"math"
	"strconv"
	"sync"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/platform/sequence"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// Registry owns all spawned entities. One lock guards the entity map and the
// id sequence so every operation is linearizable.
type Registry struct {
	mu       sync.Mutex
	entities map[uint64]*Entity
	ids      sequence.Sequence
}

// NewRegistry creates an empty entity registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[uint64]*Entity),
	}
}

// Spawn creates a new entity from spec. Health starts at MaxHealth and the
// entity is alive whenever its health is above zero.
func (r *Registry) Spawn(spec Spec) Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entity{
		ID:        r.ids.Next(),
		Kind:      spec.Kind,
		Name:      spec.Name,
		Position:  spec.Position,
		Health:    spec.MaxHealth,
		MaxHealth: spec.MaxHealth,
		Faction:   spec.Faction,
		Alive:     spec.MaxHealth > 0,
	}
	r.entities[e.ID] = e
	return *e
}

// Despawn removes an entity. The id stays invalid for all future lookups.
func (r *Registry) Despawn(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[id]; !ok {
		return ErrNotFound
	}
	delete(r.entities, id)
	return nil
}

// Get returns a snapshot of the entity with the given id.
func (r *Registry) Get(id uint64) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return *e, nil
}

// Move relocates an entity and returns its updated snapshot.
func (r *Registry) Move(id uint64, pos Position) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return Entity{}, ErrNotFound
	}
	e.Position = pos
	return *e, nil
}

// Damage subtracts amount from the entity's health, clamping at zero. The
// returned killed flag is true exactly on the call that drives health from
// above zero to zero; damaging an already dead entity reports killed=false.
func (r *Registry) Damage(id uint64, amount int) (Entity, bool, error) {
	if amount < 0 {
		return Entity{}, false, apperrors.WithMetadata(
			apperrors.CodeWorldDamageInvalid,
			"damage amount must not be negative",
			map[string]string{"amount": strconv.Itoa(amount)},
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return Entity{}, false, ErrNotFound
	}

	killed := false
	if e.Health > 0 {
		e.Health -= amount
		if e.Health <= 0 {
			e.Health = 0
			e.Alive = false
			killed = true
		}
	}
	return *e, killed, nil
}

// Filter narrows a spatial query to a subset of entities. The zero value
// matches everything.
type Filter struct {
	kind    filterKind
	byKind  Kind
	faction player.Faction
}

type filterKind int

const (
	filterAll filterKind = iota
	filterByKind
	filterByFaction
)

// FilterAll matches every entity.
func FilterAll() Filter {
	return Filter{}
}

// FilterByKind matches entities of the given kind.
func FilterByKind(k Kind) Filter {
	return Filter{kind: filterByKind, byKind: k}
}

// FilterByFaction matches entities of the given faction.
func FilterByFaction(f player.Faction) Filter {
	return Filter{kind: filterByFaction, faction: f}
}

func (f Filter) matches(e *Entity) bool {
	switch f.kind {
	case filterByKind:
		return e.Kind == f.byKind
	case filterByFaction:
		return e.Faction == f.faction
	default:
		return true
	}
}

// QueryArea returns snapshots of every entity within radius of center that
// also matches the filter. Distance is Euclidean and inclusive of the
// boundary. Result order follows registry iteration order.
func (r *Registry) QueryArea(center Position, radius float64, filter Filter) ([]Entity, error) {
	if radius < 0 {
		return nil, ErrRadiusInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []Entity
	for _, e := range r.entities {
		dx := e.Position.X - center.X
		dy := e.Position.Y - center.Y
		dz := e.Position.Z - center.Z
		if math.Sqrt(dx*dx+dy*dy+dz*dz) > radius {
			continue
		}
		if filter.matches(e) {
			matches = append(matches, *e)
		}
	}
	return matches, nil
}

// ListEntities returns snapshots of every entity matching the AIP-160 filter
// expression. An empty expression matches everything.
func (r *Registry) ListEntities(filterExpr string) ([]Entity, error) {
	pred, err := ParseEntityFilter(filterExpr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeWorldFilterInvalid, "parse entity filter", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []Entity
	for _, e := range r.entities {
		if pred(e) {
			matches = append(matches, *e)
		}
	}
	return matches, nil
}

// Count returns the number of live entity records in the registry.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}
