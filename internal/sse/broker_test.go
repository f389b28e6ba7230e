package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsubscribe")
	}
}

func TestPublish_Framing(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "store.imported", Data: map[string]int{"notes": 2}})

	msg := recv(t, ch)
	if msg != "event: store.imported\ndata: {\"notes\":2}\n\n" {
		t.Errorf("message = %q", msg)
	}
}

func TestPublishChange_StatsThrottle(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("note.created", "n1")
	b.PublishChange("label.updated", "l1")

	want := []string{
		"event: note.created\ndata: {\"id\":\"n1\"}\n\n",
		"event: " + StatsUpdated + "\ndata: {}\n\n",
		"event: label.updated\ndata: {\"id\":\"l1\"}\n\n",
	}
	for i, w := range want {
		if got := recv(t, ch); got != w {
			t.Errorf("message %d = %q, want %q", i, got, w)
		}
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected extra message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServeHTTP(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler did not subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishChange("note.deleted", "n9")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: note.deleted") || !strings.Contains(body, `"id":"n9"`) {
		t.Errorf("handler output missing event: %q", body)
	}

	deadline = time.Now().Add(time.Second)
	for b.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not cleaned up after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublish_DoesNotBlockOnSlowClient(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 100 {
		b.Publish(Event{Type: "test", Data: map[string]string{}})
	}
}

func TestClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "note.updated"})
	b.PublishChange("note.updated", "x")
	b.Close()
}
