package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSSessionFeedsSink(t *testing.T) {
	sink := &fakeSink{}
	reg := NewWSRegistry(sink, nil)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		reg.Serve(context.Background(), "c1", conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":60.17,"lng":24.93}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// invalid frames are skipped, not fatal
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":999,"lng":0}`))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":60.18,"lng":24.94}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(time.Second)
	for sink.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 valid frames ingested, got %d", sink.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !reg.Connected("c1") {
		t.Fatal("session should be registered while connected")
	}
	_ = conn.Close()
	deadline = time.After(time.Second)
	for reg.Connected("c1") {
		select {
		case <-deadline:
			t.Fatal("session should deregister on disconnect")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.locs[0].CourierID != "c1" || !sink.locs[0].Online {
		t.Fatalf("unexpected first row: %+v", sink.locs[0])
	}
}
