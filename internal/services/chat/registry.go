package chat

import (
	"sync"
	"time"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/platform/sequence"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// Registry owns all chat rooms, keyed by name. One lock guards the room map,
// the id sequence, and every room's state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*room
	ids   sequence.Sequence
	now   func() time.Time
}

type room struct {
	id          uint64
	name        string
	topic       string
	memberCount int
	messages    []Message
}

// NewRegistry creates an empty chat registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// CreateRoom creates a room and returns a capability whose messages are
// attributed to the system speaker. Duplicate names are rejected.
func (r *Registry) CreateRoom(name, topic string) (*Room, RoomInfo, error) {
	if name == "" {
		return nil, RoomInfo{}, ErrRoomNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[name]; exists {
		return nil, RoomInfo{}, apperrors.WithMetadata(
			apperrors.CodeChatRoomExists,
			"room already exists",
			map[string]string{"name": name},
		)
	}

	rm := &room{
		id:    r.ids.Next(),
		name:  name,
		topic: topic,
	}
	r.rooms[name] = rm

	cap := &Room{
		registry: r,
		room:     rm,
		speaker:  player.Ref{Name: "system"},
		system:   true,
	}
	return cap, rm.info(), nil
}

// JoinRoom adds the player to the room's member count and returns a
// capability speaking as that player.
func (r *Registry) JoinRoom(name string, p player.Ref) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	rm.memberCount++

	return &Room{
		registry: r,
		room:     rm,
		speaker:  p,
	}, nil
}

// ListRooms returns a snapshot of every room's metadata.
func (r *Registry) ListRooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]RoomInfo, 0, len(r.rooms))
	for _, rm := range r.rooms {
		infos = append(infos, rm.info())
	}
	return infos
}

// Whisper builds a direct message from one player to another. Whispers are
// independent of room membership and are not appended to any room log.
func (r *Registry) Whisper(from player.Ref, to uint64, content string) Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Message{
		Sender:        from,
		Content:       content,
		Timestamp:     r.now().UnixMilli(),
		Kind:          KindWhisper,
		WhisperTarget: to,
	}
}

func (rm *room) info() RoomInfo {
	return RoomInfo{
		ID:          rm.id,
		Name:        rm.name,
		Topic:       rm.topic,
		MemberCount: rm.memberCount,
	}
}
