package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageVersion is bumped when the payload shape changes.
const MessageVersion = 1

// Dispatcher adapts a queue Client to the upload flow: each accepted
// document becomes one message for the worker fleet.
type Dispatcher struct {
	Client Client
}

// Enqueue publishes a processing job for the document.
func (d *Dispatcher) Enqueue(ctx context.Context, userId, documentID string) error {
	return d.Client.Send(ctx, Message{
		DocumentID: documentID,
		UserID:     userId,
		RequestID:  uuid.NewString(),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	})
}
