package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ZoneSentinel/internal/model"
	"ZoneSentinel/internal/snapshot"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PushesSnapshots(t *testing.T) {
	store := snapshot.NewStore()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := store.Subscribe(8)
	go hub.Run(ctx, updates)

	s := New(store, &stubRefresher{}, hub, nil)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	store.Put(testSnapshot())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg OverlayMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Symbol != "PETR4" || msg.Timeframe != model.TimeframeD1 || len(msg.Overlays) != 1 {
		t.Errorf("unexpected message %+v", msg)
	}
	if !msg.GeneratedAt.Equal(t0) {
		t.Errorf("expected generated_at %v, got %v", t0, msg.GeneratedAt)
	}
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub := NewHub()
	s := New(snapshot.NewStore(), &stubRefresher{}, hub, nil)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_RunClosesClientsOnCancel(t *testing.T) {
	hub := NewHub()
	s := New(snapshot.NewStore(), &stubRefresher{}, hub, nil)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, make(chan *model.Snapshot))
		close(done)
	}()
	cancel()
	<-done

	if n := hub.ClientCount(); n != 0 {
		t.Errorf("expected no clients after shutdown, got %d", n)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
