package inventory

import (
	"fmt"
	"sort"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// TradeState tracks a session through its lifecycle. Confirmed and
// cancelled are terminal.
type TradeState int

const (
	// TradeStateUnspecified represents an invalid trade state value.
	TradeStateUnspecified TradeState = iota
	// TradeStateProposing is the initial state; offers may change.
	TradeStateProposing
	// TradeStateAccepted means both sides accepted the current offers.
	TradeStateAccepted
	// TradeStateConfirmed is the terminal success state.
	TradeStateConfirmed
	// TradeStateCancelled is the terminal abort state.
	TradeStateCancelled
)

// String returns the lowercase wire name for the state.
func (s TradeState) String() string {
	switch s {
	case TradeStateProposing:
		return "proposing"
	case TradeStateAccepted:
		return "accepted"
	case TradeStateConfirmed:
		return "confirmed"
	case TradeStateCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// TradeOperation describes a category of trade operation for policy checks.
type TradeOperation int

const (
	// TradeOpUnspecified represents an invalid operation.
	TradeOpUnspecified TradeOperation = iota
	// TradeOpMutateOffer represents offering or removing items.
	TradeOpMutateOffer
	// TradeOpAccept represents accepting the current offers.
	TradeOpAccept
	// TradeOpConfirm represents confirming an accepted trade.
	TradeOpConfirm
	// TradeOpCancel represents cancelling the session.
	TradeOpCancel
)

// ValidateTradeOperation ensures the session state allows the requested
// operation. Cancel from an already cancelled session is allowed so repeat
// cancels stay idempotent.
func ValidateTradeOperation(state TradeState, op TradeOperation) error {
	switch state {
	case TradeStateProposing:
		switch op {
		case TradeOpMutateOffer, TradeOpAccept, TradeOpCancel:
			return nil
		default:
			return newStateOpError(state, op)
		}
	case TradeStateAccepted:
		switch op {
		case TradeOpConfirm, TradeOpCancel:
			return nil
		default:
			return newStateOpError(state, op)
		}
	case TradeStateConfirmed:
		return newStateOpError(state, op)
	case TradeStateCancelled:
		switch op {
		case TradeOpCancel:
			return nil
		default:
			return newStateOpError(state, op)
		}
	default:
		return newStateOpError(state, op)
	}
}

// newStateOpError creates metadata for disallowed state/operation combinations.
func newStateOpError(state TradeState, op TradeOperation) *apperrors.Error {
	opLabel := tradeOperationLabel(op)
	return apperrors.WithMetadata(
		apperrors.CodeTradeStateDisallowsOp,
		fmt.Sprintf("trade state %s does not allow operation %s", state, opLabel),
		map[string]string{"State": state.String(), "Operation": opLabel},
	)
}

// tradeOperationLabel returns a stable label for a trade operation.
func tradeOperationLabel(op TradeOperation) string {
	switch op {
	case TradeOpMutateOffer:
		return "MUTATE_OFFER"
	case TradeOpAccept:
		return "ACCEPT"
	case TradeOpConfirm:
		return "CONFIRM"
	case TradeOpCancel:
		return "CANCEL"
	default:
		return "UNSPECIFIED"
	}
}

const (
	sideInitiator = 0
	sideTarget    = 1
)

// session is the registry-owned trade state shared by both capabilities.
type session struct {
	id        uint64
	initiator player.Ref
	target    player.Ref
	state     TradeState
	offers    [2]map[uint64]struct{}
	accepted  [2]bool
}

// TradeSession is a capability bound to one side of a trade. Both sides
// share the same session state; mutations through one handle are visible
// through the other.
type TradeSession struct {
	registry *Registry
	session  *session
	side     int
}

// ID returns the session identifier.
func (t *TradeSession) ID() uint64 {
	return t.session.id
}

// Player returns the identity of this capability's side.
func (t *TradeSession) Player() player.Ref {
	if t.side == sideInitiator {
		return t.session.initiator
	}
	return t.session.target
}

// Counterpart returns the capability for the other side of the session.
func (t *TradeSession) Counterpart() *TradeSession {
	return &TradeSession{
		registry: t.registry,
		session:  t.session,
		side:     1 - t.side,
	}
}

// OfferItems adds slot indexes to this side's offer. Any offer change
// resets both sides' acceptance.
func (t *TradeSession) OfferItems(slots []uint64) error {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := ValidateTradeOperation(t.session.state, TradeOpMutateOffer); err != nil {
		return err
	}
	for _, slot := range slots {
		t.session.offers[t.side][slot] = struct{}{}
	}
	t.session.accepted[sideInitiator] = false
	t.session.accepted[sideTarget] = false
	return nil
}

// RemoveItems takes slot indexes out of this side's offer. Any offer change
// resets both sides' acceptance.
func (t *TradeSession) RemoveItems(slots []uint64) error {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := ValidateTradeOperation(t.session.state, TradeOpMutateOffer); err != nil {
		return err
	}
	for _, slot := range slots {
		delete(t.session.offers[t.side], slot)
	}
	t.session.accepted[sideInitiator] = false
	t.session.accepted[sideTarget] = false
	return nil
}

// Accept marks this side as accepting the current offers. Once both sides
// accept, the session moves to accepted.
func (t *TradeSession) Accept() (TradeState, error) {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := ValidateTradeOperation(t.session.state, TradeOpAccept); err != nil {
		return t.session.state, err
	}
	t.session.accepted[t.side] = true
	if t.session.accepted[sideInitiator] && t.session.accepted[sideTarget] {
		t.session.state = TradeStateAccepted
	}
	return t.session.state, nil
}

// Confirm finalizes the trade. It fails unless both sides accepted and the
// session reached the accepted state.
func (t *TradeSession) Confirm() (TradeState, error) {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := ValidateTradeOperation(t.session.state, TradeOpConfirm); err != nil {
		return t.session.state, err
	}
	t.session.state = TradeStateConfirmed
	return t.session.state, nil
}

// Cancel aborts the session. Cancelling an already cancelled session is a
// no-op; a confirmed session cannot be cancelled.
func (t *TradeSession) Cancel() (TradeState, error) {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	if err := ValidateTradeOperation(t.session.state, TradeOpCancel); err != nil {
		return t.session.state, err
	}
	t.session.state = TradeStateCancelled
	return t.session.state, nil
}

// State returns the session's current state.
func (t *TradeSession) State() TradeState {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return t.session.state
}

// ViewOtherOffer returns the counterpart's offered slot indexes in
// ascending order and whether the counterpart has accepted.
func (t *TradeSession) ViewOtherOffer() ([]uint64, bool) {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()

	other := 1 - t.side
	slots := make([]uint64, 0, len(t.session.offers[other]))
	for slot := range t.session.offers[other] {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, t.session.accepted[other]
}
