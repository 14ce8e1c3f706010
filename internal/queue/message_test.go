package queue

import (
	"context"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		DocumentID: "doc-1",
		UserID:     "user-1",
		RequestID:  "req-1",
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != msg {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, msg)
	}
}

func TestDecodeMessageRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{not-json")); err == nil {
		t.Fatal("expected decode error")
	}
}

type captureClient struct {
	sent []Message
}

func (c *captureClient) Send(ctx context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestDispatcherFillsEnvelope(t *testing.T) {
	client := &captureClient{}
	d := &Dispatcher{Client: client}

	if err := d.Enqueue(context.Background(), "user-1", "doc-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(client.sent))
	}

	msg := client.sent[0]
	if msg.DocumentID != "doc-1" || msg.UserID != "user-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.RequestID == "" || msg.Version != MessageVersion {
		t.Fatalf("incomplete envelope: %+v", msg)
	}
	if _, err := time.Parse(time.RFC3339, msg.EnqueuedAt); err != nil {
		t.Fatalf("enqueuedAt not RFC3339: %q", msg.EnqueuedAt)
	}
}
