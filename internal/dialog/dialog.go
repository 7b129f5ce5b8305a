// Package dialog is the message-passing link to the detached review
// surface. The surface runs in another process and shares no memory with
// the engine: everything it displays arrives as a serialized payload, and
// every user decision comes back as a tagged action message.
package dialog

import (
	"encoding/json"
	"errors"
	"log/slog"

	"lexgate/engine/internal/diffview"
	"lexgate/engine/internal/logging"
)

// Actions the review surface sends back to the session.
const (
	ActionReady                = "ready"
	ActionApprove              = "approve"
	ActionNext                 = "next"
	ActionCancel               = "cancel"
	ActionAddComment           = "addComment"
	ActionRequestNewSuggestion = "requestNewSuggestion"
)

// Message types the session pushes to the surface.
const (
	TypeReviewData    = "reviewData"
	TypeNewSuggestion = "newSuggestion"
	TypePromptComment = "promptComment"
)

// Notification methods emitted on the host connection.
const (
	methodOpen  = "DialogOpen"
	methodPush  = "DialogPush"
	methodClose = "DialogClose"
)

var ErrClosed = errors.New("dialog channel closed")

// Message is a decoded action message from the surface.
type Message struct {
	Action       string `json:"action"`
	EditedText   string `json:"editedText,omitempty"`
	CommentText  string `json:"commentText,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
}

// Item is the candidate pair as the surface renders it.
type Item struct {
	Original    string `json:"original"`
	Recommended string `json:"recommended"`
}

// ReviewData is the full current-item state. It is resent in full on
// every advance and every ready handshake; the surface keeps no state
// across messages.
type ReviewData struct {
	MessageType string          `json:"messageType"`
	ItemIndex   int             `json:"itemIndex"`
	TotalItems  int             `json:"totalItems"`
	IsSelection bool            `json:"isSelection"`
	CurrentItem Item            `json:"currentItem"`
	Diff        []diffview.Hunk `json:"diff,omitempty"`
}

// NewSuggestion carries a freshly generated alternate, or the error that
// prevented one.
type NewSuggestion struct {
	MessageType string `json:"messageType"`
	NewText     string `json:"newText,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PromptComment asks the surface to collect an optional comment.
type PromptComment struct {
	MessageType string `json:"messageType"`
}

// Sender delivers a notification on the host connection.
type Sender func(method string, params any)

// Channel owns the open/close lifecycle of one review surface.
type Channel struct {
	send   Sender
	open   bool
	logger *slog.Logger
}

func NewChannel(send Sender, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Channel{send: send, logger: logger}
}

func (c *Channel) IsOpen() bool {
	return c.open
}

// Open presents the surface with its initial state.
func (c *Channel) Open(data ReviewData) error {
	if c.open {
		return errors.New("dialog already open")
	}
	c.open = true
	c.logger.Debug("dialog.open", "item_index", data.ItemIndex, "total_items", data.TotalItems)
	c.send(methodOpen, data)
	return nil
}

// Push sends a payload to an open surface. Sends on a closed channel fail
// fast rather than queueing against a dead surface.
func (c *Channel) Push(payload any) error {
	if !c.open {
		return ErrClosed
	}
	c.send(methodPush, payload)
	return nil
}

// Close tears the surface down. Safe to call when already closed.
func (c *Channel) Close() {
	if !c.open {
		return
	}
	c.open = false
	c.logger.Debug("dialog.close")
	c.send(methodClose, struct{}{})
}

// MarkClosed records that the surface went away on its own (the user
// closed the window). No close notification is sent; there is nothing on
// the other end to receive it.
func (c *Channel) MarkClosed() {
	c.open = false
}

// DecodeMessage parses an inbound action payload.
func DecodeMessage(raw json.RawMessage) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, err
	}
	if msg.Action == "" {
		return Message{}, errors.New("missing action")
	}
	return msg, nil
}
