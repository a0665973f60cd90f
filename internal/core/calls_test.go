package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

func TestInitiateCallRelaysToOnlinePeer(t *testing.T) {
	chat, _ := newTestChat(t)
	ctx := context.Background()

	bobCh := &fakeChannel{}
	chat.Login(ctx, "bob", bobCh)

	if err := chat.InitiateCall(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}

	signals := bobCh.byType(models.EventCallSignal)
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if signals[0].Signal != models.SignalIncomingCall || signals[0].From != "alice" {
		t.Fatalf("unexpected signal: %+v", signals[0])
	}
}

func TestInitiateCallOfflineFails(t *testing.T) {
	chat, queue := newTestChat(t)

	err := chat.InitiateCall(context.Background(), "alice", "bob")
	if !errors.Is(err, ErrTargetOffline) {
		t.Fatalf("expected ErrTargetOffline, got %v", err)
	}
	if queue.Depth("bob") != 0 {
		t.Fatal("call signals must never be queued")
	}
}

func TestEndCallOfflineSucceeds(t *testing.T) {
	chat, _ := newTestChat(t)

	if err := chat.EndCall(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("ending a call with a gone peer should succeed, got %v", err)
	}
}

func TestAcceptCallNotifiesCaller(t *testing.T) {
	chat, _ := newTestChat(t)
	ctx := context.Background()

	aliceCh := &fakeChannel{}
	chat.Login(ctx, "alice", aliceCh)

	if err := chat.AcceptCall(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}

	signals := aliceCh.byType(models.EventCallSignal)
	if len(signals) != 1 || signals[0].Signal != models.SignalCallAccepted || signals[0].From != "bob" {
		t.Fatalf("unexpected signals: %+v", signals)
	}
}

func TestSendSignalValidatesType(t *testing.T) {
	chat, _ := newTestChat(t)
	ctx := context.Background()
	chat.Login(ctx, "bob", &fakeChannel{})

	if err := chat.SendSignal(ctx, "alice", "bob", "renegotiate", "{}"); err == nil {
		t.Fatal("expected error for unknown signal type")
	}
	if err := chat.SendSignal(ctx, "alice", "bob", models.SignalOffer, "sdp-offer"); err != nil {
		t.Fatal(err)
	}
}

func TestSignalPayloadRelayedVerbatim(t *testing.T) {
	chat, _ := newTestChat(t)
	ctx := context.Background()

	bobCh := &fakeChannel{}
	chat.Login(ctx, "bob", bobCh)

	payload := `{"sdp":"v=0\r\no=- 472 2 IN IP4 127.0.0.1"}`
	if err := chat.SendSignal(ctx, "alice", "bob", models.SignalAnswer, payload); err != nil {
		t.Fatal(err)
	}
	if err := chat.SendICECandidate(ctx, "alice", "bob", "candidate:1 1 UDP 2122252543"); err != nil {
		t.Fatal(err)
	}

	signals := bobCh.byType(models.EventCallSignal)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Payload != payload {
		t.Fatalf("answer payload mangled: %q", signals[0].Payload)
	}
	if signals[1].Signal != models.SignalICECandidate {
		t.Fatalf("unexpected second signal: %+v", signals[1])
	}
}

func TestSendAudioChunkCarriesBytes(t *testing.T) {
	chat, _ := newTestChat(t)
	ctx := context.Background()

	bobCh := &fakeChannel{}
	chat.Login(ctx, "bob", bobCh)

	chunk := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}
	if err := chat.SendAudioChunk(ctx, "alice", "bob", chunk); err != nil {
		t.Fatal(err)
	}

	signals := bobCh.byType(models.EventCallSignal)
	if len(signals) != 1 || signals[0].Signal != models.SignalAudioChunk {
		t.Fatalf("unexpected signals: %+v", signals)
	}
	if !bytes.Equal(signals[0].Data, chunk) {
		t.Fatal("audio chunk bytes should pass through untouched")
	}
}
