package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

func newTestPresence(t *testing.T) *Presence {
	t.Helper()
	return NewPresence(zerolog.Nop(), 500*time.Millisecond)
}

func TestLoginReplacesChannelInPlace(t *testing.T) {
	p := newTestPresence(t)
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}

	sess1 := p.Login("alice", ch1)
	sess2 := p.Login("alice", ch2)

	if sess1 != sess2 {
		t.Fatal("re-login should reuse the existing session")
	}
	if sess2.Channel() != PushChannel(ch2) {
		t.Fatal("re-login should bind the new channel")
	}
	if !ch1.isClosed() {
		t.Fatal("replaced channel should be closed")
	}
	if ch2.isClosed() {
		t.Fatal("fresh channel must stay open")
	}
}

func TestLogoutReportsExistence(t *testing.T) {
	p := newTestPresence(t)
	ch := &fakeChannel{}

	p.Login("alice", ch)
	if !p.Logout("alice") {
		t.Fatal("logout of a live session should report true")
	}
	if !ch.isClosed() {
		t.Fatal("logout should close the channel")
	}
	if p.Logout("alice") {
		t.Fatal("second logout should report false")
	}
	if p.IsOnline("alice") {
		t.Fatal("alice should be offline after logout")
	}
}

func TestOnlineSorted(t *testing.T) {
	p := newTestPresence(t)
	for _, u := range []string{"carol", "alice", "bob"} {
		p.Login(u, &fakeChannel{})
	}

	got := p.Online()
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("expected %d online users, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("online[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPresenceBroadcastReachesOthers(t *testing.T) {
	p := newTestPresence(t)
	bobCh := &fakeChannel{}
	p.Login("bob", bobCh)

	p.Login("alice", &fakeChannel{})

	waitFor(t, func() bool {
		for _, ev := range bobCh.byType(models.EventPresence) {
			if ev.User == "alice" && ev.Online {
				return true
			}
		}
		return false
	})
}

func TestPresenceBroadcastIsolatesFailures(t *testing.T) {
	p := newTestPresence(t)
	dead := &fakeChannel{fail: true}
	good := &fakeChannel{}
	p.Login("dead", dead)
	p.Login("good", good)

	p.Login("alice", &fakeChannel{})

	// The dead channel must not prevent the healthy one from hearing
	// about alice.
	waitFor(t, func() bool {
		for _, ev := range good.byType(models.EventPresence) {
			if ev.User == "alice" && ev.Online {
				return true
			}
		}
		return false
	})
}

func TestBroadcastExcludesSubject(t *testing.T) {
	p := newTestPresence(t)
	aliceCh := &fakeChannel{}
	bobCh := &fakeChannel{}
	p.Login("alice", aliceCh)
	p.Login("bob", bobCh)

	waitFor(t, func() bool {
		return len(aliceCh.byType(models.EventPresence)) > 0
	})

	for _, ev := range aliceCh.byType(models.EventPresence) {
		if ev.User == "alice" {
			t.Fatal("alice should not receive her own presence broadcast")
		}
	}
}
