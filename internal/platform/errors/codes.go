package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// World errors
	CodeWorldDamageInvalid Code = "WORLD_DAMAGE_INVALID"
	CodeWorldRadiusInvalid Code = "WORLD_RADIUS_INVALID"
	CodeWorldFilterInvalid Code = "WORLD_FILTER_INVALID"

	// Chat errors
	CodeChatRoomNameEmpty Code = "CHAT_ROOM_NAME_EMPTY"
	CodeChatRoomExists    Code = "CHAT_ROOM_EXISTS"

	// Inventory/trade errors
	CodeInventoryQuantityInvalid   Code = "INVENTORY_QUANTITY_INVALID"
	CodeInventoryCapacityExhausted Code = "INVENTORY_CAPACITY_EXHAUSTED"
	CodeTradeStateDisallowsOp      Code = "TRADE_STATE_DISALLOWS_OPERATION"

	// Matchmaking errors
	CodeMatchStateDisallowsOp Code = "MATCH_STATE_DISALLOWS_OPERATION"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures and operations forbidden by the
	// current state machine state
	case CodeWorldDamageInvalid,
		CodeWorldRadiusInvalid,
		CodeWorldFilterInvalid,
		CodeChatRoomNameEmpty,
		CodeInventoryQuantityInvalid,
		CodeTradeStateDisallowsOp,
		CodeMatchStateDisallowsOp:
		return codes.InvalidArgument

	// AlreadyExists - unique key collisions
	case CodeChatRoomExists:
		return codes.AlreadyExists

	// ResourceExhausted - capacity limits
	case CodeInventoryCapacityExhausted:
		return codes.ResourceExhausted

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
