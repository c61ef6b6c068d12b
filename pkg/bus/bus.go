// Package bus routes menu posts from the workflow to the chat channels.
// Channels register a handler under their ID; the workflow addresses
// posts by channel ID without knowing the platform behind it. Dispatch
// is synchronous so that publish failures propagate back to whatever
// triggered the post (the scheduler decides retries, a command replies
// with the error).
package bus

import (
	"context"
	"time"
)

// Attachment is a file attached to a message. Attachments are sent in
// slice order.
type Attachment struct {
	// Filename is the name shown by the chat platform.
	Filename string
	// ContentType is the MIME type of the payload.
	ContentType string
	// Data is the file content.
	Data []byte
}

// Message is a post flowing through the bus.
type Message struct {
	// ID is the unique message ID.
	ID string
	// ChannelID is the target channel ("discord", "telegram").
	ChannelID string
	// ChatID is the platform conversation to post into. Empty means the
	// channel's configured default destination.
	ChatID string
	// Content is the text content or caption.
	Content string
	// Attachments are files sent with the message, in order.
	Attachments []Attachment
	// Timestamp is when the message was created.
	Timestamp time.Time
}

// Handler delivers a message for a channel.
type Handler func(ctx context.Context, msg *Message) error

// Bus is the interface for message routing.
type Bus interface {
	// RegisterHandler registers a delivery handler for a channel.
	RegisterHandler(channelID string, handler Handler)

	// UnregisterHandlers removes all handlers for a channel.
	UnregisterHandlers(channelID string)

	// Send delivers a message to the target channel's handlers. It
	// returns the first handler error, if any.
	Send(ctx context.Context, msg *Message) error

	// Metrics returns current bus counters.
	Metrics() map[string]uint64
}
