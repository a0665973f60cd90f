package models

import "testing"

func TestQueueable(t *testing.T) {
	tests := []struct {
		ev   Event
		want bool
	}{
		{NewDirectMessage("alice", "hi"), true},
		{NewGroupMessage("team", "alice", "hi"), true},
		{NewVoiceNote("alice", "bob", false, "ref", nil), false},
		{NewPresenceChange("alice", true), false},
		{NewMemberAdded("team", "bob"), false},
		{NewCallSignal(SignalIncomingCall, "alice", ""), false},
	}
	for _, tt := range tests {
		if got := tt.ev.Queueable(); got != tt.want {
			t.Errorf("%s: Queueable() = %v, want %v", tt.ev.Type, got, tt.want)
		}
	}
}

func TestEventIDsUniqueAndSortable(t *testing.T) {
	a := NewDirectMessage("alice", "one")
	b := NewDirectMessage("alice", "two")
	if a.ID == b.ID {
		t.Fatal("event IDs must be unique")
	}
	if !(a.ID < b.ID) {
		t.Fatal("event IDs must sort by creation order")
	}
}

func TestVoiceNoteTargetsUserOrGroup(t *testing.T) {
	direct := NewVoiceNote("alice", "bob", false, "ref", nil)
	if direct.User != "bob" || direct.Group != "" || direct.IsGroup {
		t.Fatalf("unexpected direct voice note: %+v", direct)
	}

	group := NewVoiceNote("alice", "team", true, "ref", nil)
	if group.Group != "team" || group.User != "" || !group.IsGroup {
		t.Fatalf("unexpected group voice note: %+v", group)
	}
}
