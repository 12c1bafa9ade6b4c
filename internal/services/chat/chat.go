package chat

import (
	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// MessageKind categorizes a chat message.
type MessageKind int

const (
	// KindUnspecified represents an invalid message kind value.
	KindUnspecified MessageKind = iota
	// KindNormal is an ordinary room message.
	KindNormal
	// KindEmote is an action message.
	KindEmote
	// KindSystem is a message attributed to the room itself.
	KindSystem
	// KindWhisper is a direct message addressed to one player.
	KindWhisper
)

// String returns the lowercase wire name for the kind.
func (k MessageKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindEmote:
		return "emote"
	case KindSystem:
		return "system"
	case KindWhisper:
		return "whisper"
	default:
		return "unspecified"
	}
}

// Message is an immutable entry in a room's log. Timestamp is milliseconds
// since the Unix epoch. WhisperTarget is set only when Kind is KindWhisper.
type Message struct {
	Sender        player.Ref
	Content       string
	Timestamp     int64
	Kind          MessageKind
	WhisperTarget uint64
}

// RoomInfo is a snapshot of room metadata.
type RoomInfo struct {
	ID          uint64
	Name        string
	Topic       string
	MemberCount int
}

var (
	// ErrRoomNotFound indicates a lookup for a room name that was never
	// created.
	ErrRoomNotFound = apperrors.New(apperrors.CodeNotFound, "room not found")
	// ErrRoomNameEmpty indicates a create request with an empty room name.
	ErrRoomNameEmpty = apperrors.New(apperrors.CodeChatRoomNameEmpty, "room name must not be empty")
)
