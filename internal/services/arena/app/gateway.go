package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/riftvale/crucible.games/internal/platform/errors"
	"github.com/riftvale/crucible.games/internal/services/chat"
	"github.com/riftvale/crucible.games/internal/services/shared/player"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
	maxContentRunes        = 2000
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wirePlayer struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Faction string `json:"faction,omitempty"`
	Level   uint16 `json:"level,omitempty"`
}

type wireRoom struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Topic       string `json:"topic,omitempty"`
	MemberCount int    `json:"member_count"`
}

type wireMessage struct {
	Sender        wirePlayer `json:"sender"`
	Content       string     `json:"content"`
	TimestampMs   int64      `json:"timestamp_ms"`
	Kind          string     `json:"kind"`
	WhisperTarget uint64     `json:"whisper_target,omitempty"`
}

type createPayload struct {
	Name  string `json:"name"`
	Topic string `json:"topic,omitempty"`
}

type joinPayload struct {
	Name   string     `json:"name"`
	Player wirePlayer `json:"player"`
}

type sendPayload struct {
	Content string `json:"content"`
}

type historyPayload struct {
	Limit int `json:"limit,omitempty"`
}

type whisperPayload struct {
	From    wirePlayer `json:"from"`
	To      uint64     `json:"to"`
	Content string     `json:"content"`
}

type roomEnvelope struct {
	Room wireRoom `json:"room"`
}

type roomsEnvelope struct {
	Rooms []wireRoom `json:"rooms"`
}

type messageEnvelope struct {
	Message wireMessage `json:"message"`
}

type historyEnvelope struct {
	Messages []wireMessage `json:"messages"`
}

// wsPeer serializes frame writes to one connection.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// wsSession tracks one connection's current room capability.
type wsSession struct {
	mu   sync.Mutex
	room *chat.Room
	peer *wsPeer
}

func (s *wsSession) setRoom(next *chat.Room) {
	s.mu.Lock()
	s.room = next
	s.mu.Unlock()
}

func (s *wsSession) currentRoom() *chat.Room {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	return room
}

// NewGatewayHandler creates the chat gateway routes: a health probe at /up
// and the JSON-frame WebSocket endpoint at /ws.
func NewGatewayHandler(registry *chat.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, registry)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

func handleWSConn(conn *websocket.Conn, registry *chat.Registry) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	session := &wsSession{peer: newWSPeer(json.NewEncoder(conn))}

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(session.peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(session.peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "chat.create":
			handleCreateFrame(session, registry, frame)
		case "chat.join":
			handleJoinFrame(session, registry, frame)
		case "chat.send":
			handleSendFrame(session, frame, false)
		case "chat.emote":
			handleSendFrame(session, frame, true)
		case "chat.history":
			handleHistoryFrame(session, frame)
		case "chat.info":
			handleInfoFrame(session, frame)
		case "chat.leave":
			handleLeaveFrame(session, frame)
		case "chat.rooms":
			handleRoomsFrame(session, registry, frame)
		case "chat.whisper":
			handleWhisperFrame(session, registry, frame)
		default:
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func handleCreateFrame(session *wsSession, registry *chat.Registry, frame wsFrame) {
	var payload createPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid create payload")
		return
	}

	room, info, err := registry.CreateRoom(payload.Name, payload.Topic)
	if err != nil {
		writeDomainError(session.peer, frame.RequestID, err)
		return
	}
	session.setRoom(room)
	writeEnvelope(session.peer, "chat.created", frame.RequestID, roomEnvelope{Room: toWireRoom(info)})
}

func handleJoinFrame(session *wsSession, registry *chat.Registry, frame wsFrame) {
	var payload joinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid join payload")
		return
	}

	room, err := registry.JoinRoom(payload.Name, toPlayerRef(payload.Player))
	if err != nil {
		writeDomainError(session.peer, frame.RequestID, err)
		return
	}
	session.setRoom(room)
	writeEnvelope(session.peer, "chat.joined", frame.RequestID, roomEnvelope{Room: toWireRoom(room.GetInfo())})
}

func handleSendFrame(session *wsSession, frame wsFrame, emote bool) {
	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "join a room first")
		return
	}

	var payload sendPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid send payload")
		return
	}
	if payload.Content == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "content is required")
		return
	}
	if utf8.RuneCountInString(payload.Content) > maxContentRunes {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "content too long")
		return
	}

	var msg chat.Message
	if emote {
		msg = room.SendEmote(payload.Content)
	} else {
		msg = room.SendMessage(payload.Content)
	}
	writeEnvelope(session.peer, "chat.message", frame.RequestID, messageEnvelope{Message: toWireMessage(msg)})
}

func handleHistoryFrame(session *wsSession, frame wsFrame) {
	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "join a room first")
		return
	}

	var payload historyPayload
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid history payload")
			return
		}
	}

	messages := room.GetHistory(payload.Limit)
	wire := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wire[i] = toWireMessage(msg)
	}
	writeEnvelope(session.peer, "chat.history", frame.RequestID, historyEnvelope{Messages: wire})
}

func handleInfoFrame(session *wsSession, frame wsFrame) {
	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "join a room first")
		return
	}
	writeEnvelope(session.peer, "chat.room", frame.RequestID, roomEnvelope{Room: toWireRoom(room.GetInfo())})
}

func handleLeaveFrame(session *wsSession, frame wsFrame) {
	room := session.currentRoom()
	if room == nil {
		_ = writeWSError(session.peer, frame.RequestID, "FAILED_PRECONDITION", "join a room first")
		return
	}
	room.Leave()
	session.setRoom(nil)
	writeEnvelope(session.peer, "chat.left", frame.RequestID, roomEnvelope{Room: toWireRoom(room.GetInfo())})
}

func handleRoomsFrame(session *wsSession, registry *chat.Registry, frame wsFrame) {
	infos := registry.ListRooms()
	rooms := make([]wireRoom, len(infos))
	for i, info := range infos {
		rooms[i] = toWireRoom(info)
	}
	writeEnvelope(session.peer, "chat.rooms", frame.RequestID, roomsEnvelope{Rooms: rooms})
}

func handleWhisperFrame(session *wsSession, registry *chat.Registry, frame wsFrame) {
	var payload whisperPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "invalid whisper payload")
		return
	}
	if payload.Content == "" {
		_ = writeWSError(session.peer, frame.RequestID, "INVALID_ARGUMENT", "content is required")
		return
	}

	msg := registry.Whisper(toPlayerRef(payload.From), payload.To, payload.Content)
	writeEnvelope(session.peer, "chat.message", frame.RequestID, messageEnvelope{Message: toWireMessage(msg)})
}

func writeEnvelope(peer *wsPeer, frameType, requestID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		_ = writeWSError(peer, requestID, "INTERNAL", "encode response")
		return
	}
	_ = peer.writeFrame(wsFrame{Type: frameType, RequestID: requestID, Payload: raw})
}

func writeDomainError(peer *wsPeer, requestID string, err error) {
	_ = writeWSError(peer, requestID, string(apperrors.GetCode(err)), err.Error())
}

func writeWSError(peer *wsPeer, requestID, code, message string) error {
	raw, err := json.Marshal(wsErrorEnvelope{Error: wsError{Code: code, Message: message}})
	if err != nil {
		return err
	}
	return peer.writeFrame(wsFrame{Type: "error", RequestID: requestID, Payload: raw})
}

func toPlayerRef(p wirePlayer) player.Ref {
	return player.Ref{
		ID:      p.ID,
		Name:    p.Name,
		Faction: factionFromString(p.Faction),
		Level:   p.Level,
	}
}

func factionFromString(s string) player.Faction {
	switch s {
	case "neutral":
		return player.FactionNeutral
	case "alliance":
		return player.FactionAlliance
	case "horde":
		return player.FactionHorde
	default:
		return player.FactionUnspecified
	}
}

func toWireRoom(info chat.RoomInfo) wireRoom {
	return wireRoom{
		ID:          info.ID,
		Name:        info.Name,
		Topic:       info.Topic,
		MemberCount: info.MemberCount,
	}
}

func toWireMessage(msg chat.Message) wireMessage {
	return wireMessage{
		Sender: wirePlayer{
			ID:      msg.Sender.ID,
			Name:    msg.Sender.Name,
			Faction: msg.Sender.Faction.String(),
			Level:   msg.Sender.Level,
		},
		Content:       msg.Content,
		TimestampMs:   msg.Timestamp,
		Kind:          msg.Kind.String(),
		WhisperTarget: msg.WhisperTarget,
	}
}
