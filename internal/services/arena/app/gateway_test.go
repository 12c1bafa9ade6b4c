package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riftvale/crucible.games/internal/services/chat"
	"golang.org/x/net/websocket"
)

func dialWS(t *testing.T, registry *chat.Registry) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(NewGatewayHandler(registry))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frameType, requestID string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame := wsFrame{Type: frameType, RequestID: requestID, Payload: raw}
	if err := json.NewEncoder(conn).Encode(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	var frame wsFrame
	if err := json.NewDecoder(conn).Decode(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func decodePayload[T any](t *testing.T, frame wsFrame) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(frame.Payload, &out); err != nil {
		t.Fatalf("decode %s payload: %v", frame.Type, err)
	}
	return out
}

func TestGateway_UpEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewGatewayHandler(chat.NewRegistry()))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/up")
	if err != nil {
		t.Fatalf("GET /up: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGateway_CreateJoinSendHistory(t *testing.T) {
	t.Parallel()

	registry := chat.NewRegistry()
	if _, _, err := registry.CreateRoom("general", "topic"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	conn := dialWS(t, registry)

	sendFrame(t, conn, "chat.join", "r1", joinPayload{
		Name:   "general",
		Player: wirePlayer{ID: 1, Name: "Ayla", Faction: "alliance", Level: 12},
	})
	joined := readFrame(t, conn)
	if joined.Type != "chat.joined" || joined.RequestID != "r1" {
		t.Fatalf("frame = %+v, want chat.joined r1", joined)
	}
	room := decodePayload[roomEnvelope](t, joined)
	if room.Room.Name != "general" || room.Room.MemberCount != 1 {
		t.Fatalf("room = %+v", room.Room)
	}

	sendFrame(t, conn, "chat.send", "r2", sendPayload{Content: "hi"})
	sent := readFrame(t, conn)
	if sent.Type != "chat.message" {
		t.Fatalf("frame = %+v, want chat.message", sent)
	}
	msg := decodePayload[messageEnvelope](t, sent)
	if msg.Message.Sender.Name != "Ayla" || msg.Message.Kind != "normal" {
		t.Fatalf("message = %+v", msg.Message)
	}

	sendFrame(t, conn, "chat.history", "r3", historyPayload{Limit: 10})
	history := readFrame(t, conn)
	if history.Type != "chat.history" {
		t.Fatalf("frame = %+v, want chat.history", history)
	}
	messages := decodePayload[historyEnvelope](t, history)
	if len(messages.Messages) != 1 || messages.Messages[0].Content != "hi" {
		t.Fatalf("history = %+v", messages.Messages)
	}
}

func TestGateway_CreateRoomFrame(t *testing.T) {
	t.Parallel()

	registry := chat.NewRegistry()
	conn := dialWS(t, registry)

	sendFrame(t, conn, "chat.create", "r1", createPayload{Name: "trade", Topic: "goods"})
	created := readFrame(t, conn)
	if created.Type != "chat.created" {
		t.Fatalf("frame = %+v, want chat.created", created)
	}

	// The creator speaks as the system.
	sendFrame(t, conn, "chat.send", "r2", sendPayload{Content: "welcome"})
	sent := readFrame(t, conn)
	msg := decodePayload[messageEnvelope](t, sent)
	if msg.Message.Kind != "system" || msg.Message.Sender.Name != "system" {
		t.Fatalf("message = %+v", msg.Message)
	}

	// Duplicate create reports the domain code.
	sendFrame(t, conn, "chat.create", "r3", createPayload{Name: "trade"})
	dup := readFrame(t, conn)
	if dup.Type != "error" {
		t.Fatalf("frame = %+v, want error", dup)
	}
	wsErr := decodePayload[wsErrorEnvelope](t, dup)
	if wsErr.Error.Code != "CHAT_ROOM_EXISTS" {
		t.Fatalf("error code = %q, want CHAT_ROOM_EXISTS", wsErr.Error.Code)
	}
}

func TestGateway_JoinUnknownRoom(t *testing.T) {
	t.Parallel()

	conn := dialWS(t, chat.NewRegistry())

	sendFrame(t, conn, "chat.join", "r1", joinPayload{Name: "missing"})
	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("frame = %+v, want error", frame)
	}
	wsErr := decodePayload[wsErrorEnvelope](t, frame)
	if wsErr.Error.Code != "NOT_FOUND" {
		t.Fatalf("error code = %q, want NOT_FOUND", wsErr.Error.Code)
	}
}

func TestGateway_SendWithoutJoin(t *testing.T) {
	t.Parallel()

	conn := dialWS(t, chat.NewRegistry())

	sendFrame(t, conn, "chat.send", "r1", sendPayload{Content: "hi"})
	frame := readFrame(t, conn)
	wsErr := decodePayload[wsErrorEnvelope](t, frame)
	if wsErr.Error.Code != "FAILED_PRECONDITION" {
		t.Fatalf("error code = %q, want FAILED_PRECONDITION", wsErr.Error.Code)
	}
}

func TestGateway_UnsupportedFrameType(t *testing.T) {
	t.Parallel()

	conn := dialWS(t, chat.NewRegistry())

	sendFrame(t, conn, "chat.bogus", "r1", struct{}{})
	frame := readFrame(t, conn)
	wsErr := decodePayload[wsErrorEnvelope](t, frame)
	if wsErr.Error.Code != "INVALID_ARGUMENT" {
		t.Fatalf("error code = %q, want INVALID_ARGUMENT", wsErr.Error.Code)
	}
}

func TestGateway_ListRoomsAndWhisper(t *testing.T) {
	t.Parallel()

	registry := chat.NewRegistry()
	if _, _, err := registry.CreateRoom("general", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if _, _, err := registry.CreateRoom("trade", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	conn := dialWS(t, registry)

	sendFrame(t, conn, "chat.rooms", "r1", struct{}{})
	frame := readFrame(t, conn)
	rooms := decodePayload[roomsEnvelope](t, frame)
	if len(rooms.Rooms) != 2 {
		t.Fatalf("rooms = %+v, want 2", rooms.Rooms)
	}

	sendFrame(t, conn, "chat.whisper", "r2", whisperPayload{
		From:    wirePlayer{ID: 1, Name: "Ayla"},
		To:      7,
		Content: "psst",
	})
	whisper := readFrame(t, conn)
	msg := decodePayload[messageEnvelope](t, whisper)
	if msg.Message.Kind != "whisper" || msg.Message.WhisperTarget != 7 {
		t.Fatalf("message = %+v", msg.Message)
	}
}

func TestGateway_Leave(t *testing.T) {
	t.Parallel()

	registry := chat.NewRegistry()
	if _, _, err := registry.CreateRoom("general", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	conn := dialWS(t, registry)

	sendFrame(t, conn, "chat.join", "r1", joinPayload{Name: "general", Player: wirePlayer{ID: 1, Name: "Ayla"}})
	if frame := readFrame(t, conn); frame.Type != "chat.joined" {
		t.Fatalf("frame = %+v, want chat.joined", frame)
	}

	sendFrame(t, conn, "chat.leave", "r2", struct{}{})
	left := readFrame(t, conn)
	if left.Type != "chat.left" {
		t.Fatalf("frame = %+v, want chat.left", left)
	}
	room := decodePayload[roomEnvelope](t, left)
	if room.Room.MemberCount != 0 {
		t.Fatalf("member count after leave = %d, want 0", room.Room.MemberCount)
	}

	// The session no longer holds a room.
	sendFrame(t, conn, "chat.send", "r3", sendPayload{Content: "hi"})
	frame := readFrame(t, conn)
	wsErr := decodePayload[wsErrorEnvelope](t, frame)
	if wsErr.Error.Code != "FAILED_PRECONDITION" {
		t.Fatalf("error code = %q, want FAILED_PRECONDITION", wsErr.Error.Code)
	}
}

func TestGateway_InvalidJSONFrameClosesAfterLimit(t *testing.T) {
	t.Parallel()

	conn := dialWS(t, chat.NewRegistry())

	for i := 0; i < maxDecodeErrorsPerConn; i++ {
		if _, err := conn.Write([]byte("not json\n")); err != nil {
			t.Fatalf("write garbage: %v", err)
		}
	}
	for i := 0; i < maxDecodeErrorsPerConn; i++ {
		frame := readFrame(t, conn)
		if frame.Type != "error" {
			t.Fatalf("frame = %+v, want error", frame)
		}
	}

	// The server closes the connection after repeated decode failures.
	var frame wsFrame
	if err := json.NewDecoder(conn).Decode(&frame); err == nil {
		t.Fatal("expected closed connection after decode error limit")
	}
}
