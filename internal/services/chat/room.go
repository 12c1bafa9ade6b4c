package chat

import (
	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

// Room is a capability bound to one room with a fixed speaker identity. All
// handles to the same room share the registry-owned state; mutations through
// one handle are visible through every other.
type Room struct {
	registry *Registry
	room     *room
	speaker  player.Ref
	system   bool
}

// SendMessage appends a message attributed to this capability's speaker and
// returns it. Capabilities issued by CreateRoom send system messages.
func (c *Room) SendMessage(content string) Message {
	kind := KindNormal
	if c.system {
		kind = KindSystem
	}
	return c.append(content, kind)
}

// SendEmote appends an action message attributed to this capability's
// speaker and returns it.
func (c *Room) SendEmote(content string) Message {
	return c.append(content, KindEmote)
}

func (c *Room) append(content string, kind MessageKind) Message {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	m := Message{
		Sender:    c.speaker,
		Content:   content,
		Timestamp: c.registry.now().UnixMilli(),
		Kind:      kind,
	}
	c.room.messages = append(c.room.messages, m)
	return m
}

// GetHistory returns the most recent limit messages in arrival order. A
// limit of zero or less returns the full history.
func (c *Room) GetHistory(limit int) []Message {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	msgs := c.room.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// GetInfo returns a snapshot of the room's current metadata.
func (c *Room) GetInfo() RoomInfo {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	return c.room.info()
}

// Speaker returns the identity this capability sends as.
func (c *Room) Speaker() player.Ref {
	return c.speaker
}

// Leave decrements the room's member count, floored at zero. The capability
// stays callable afterwards; calling Leave again decrements again.
func (c *Room) Leave() {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	if c.room.memberCount > 0 {
		c.room.memberCount--
	}
}
