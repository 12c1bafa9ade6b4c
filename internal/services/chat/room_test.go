package chat

import (
	"fmt"
	"testing"

	"github.com/riftvale/crucible.games/internal/services/shared/player"
)

func joinedRoom(t *testing.T) (*Registry, *Room) {
	t.Helper()

	r := NewRegistry()
	if _, _, err := r.CreateRoom("general", "topic"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	cap, err := r.JoinRoom("general", player.Ref{ID: 1, Name: "Ayla"})
	if err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	return r, cap
}

func TestRoom_SendEmote(t *testing.T) {
	t.Parallel()

	_, cap := joinedRoom(t)

	msg := cap.SendEmote("waves")
	if msg.Kind != KindEmote {
		t.Fatalf("kind = %v, want emote", msg.Kind)
	}
	if msg.Sender.Name != "Ayla" {
		t.Fatalf("sender = %q, want Ayla", msg.Sender.Name)
	}
}

func TestRoom_GetHistoryLimit(t *testing.T) {
	t.Parallel()

	_, cap := joinedRoom(t)
	for i := 0; i < 5; i++ {
		cap.SendMessage(fmt.Sprintf("msg %d", i))
	}

	tests := []struct {
		limit int
		want  int
		first string
	}{
		{limit: 2, want: 2, first: "msg 3"},
		{limit: 5, want: 5, first: "msg 0"},
		{limit: 10, want: 5, first: "msg 0"},
		{limit: 0, want: 5, first: "msg 0"},
		{limit: -1, want: 5, first: "msg 0"},
	}
	for _, tc := range tests {
		got := cap.GetHistory(tc.limit)
		if len(got) != tc.want {
			t.Fatalf("GetHistory(%d) length = %d, want %d", tc.limit, len(got), tc.want)
		}
		if got[0].Content != tc.first {
			t.Fatalf("GetHistory(%d) first = %q, want %q", tc.limit, got[0].Content, tc.first)
		}
	}
}

func TestRoom_HistoryIsDetached(t *testing.T) {
	t.Parallel()

	_, cap := joinedRoom(t)
	cap.SendMessage("original")

	history := cap.GetHistory(0)
	history[0].Content = "mutated"

	fresh := cap.GetHistory(0)
	if fresh[0].Content != "original" {
		t.Fatalf("room log mutated through history copy: %q", fresh[0].Content)
	}
}

func TestRoom_LeaveFloorsAtZero(t *testing.T) {
	t.Parallel()

	_, cap := joinedRoom(t)

	if got := cap.GetInfo().MemberCount; got != 1 {
		t.Fatalf("MemberCount = %d, want 1", got)
	}

	cap.Leave()
	if got := cap.GetInfo().MemberCount; got != 0 {
		t.Fatalf("MemberCount after leave = %d, want 0", got)
	}

	// Repeat leave is allowed and floors at zero.
	cap.Leave()
	if got := cap.GetInfo().MemberCount; got != 0 {
		t.Fatalf("MemberCount after repeat leave = %d, want 0", got)
	}

	// The capability stays callable after leaving.
	if msg := cap.SendMessage("still here"); msg.Content != "still here" {
		t.Fatalf("SendMessage after leave = %+v", msg)
	}
}

func TestRoom_SharedStateAcrossCapabilities(t *testing.T) {
	t.Parallel()

	r, capA := joinedRoom(t)
	capB, err := r.JoinRoom("general", player.Ref{ID: 2, Name: "Brom"})
	if err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}

	capA.SendMessage("hello")
	if got := capB.GetHistory(0); len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("capB history = %v, want the message sent through capA", got)
	}

	capB.Leave()
	if got := capA.GetInfo().MemberCount; got != 1 {
		t.Fatalf("MemberCount seen through capA = %d, want 1", got)
	}
}

func TestRoom_Speaker(t *testing.T) {
	t.Parallel()

	_, cap := joinedRoom(t)
	if got := cap.Speaker(); got.Name != "Ayla" {
		t.Fatalf("Speaker() = %+v, want Ayla", got)
	}
}
