package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pulse/pkg/logger"
)

// Inbound events.
const (
	EventAnnounceOnline = "announce-online"
	EventSendMessage    = "send-message"
	EventTypingStart    = "typing-start"
	EventTypingStop     = "typing-stop"
	EventMarkRead       = "mark-read"
)

// Outbound events.
const (
	EventMessageNew  = "message-new"
	EventMessageRead = "message-read"
)

// Event is the wire envelope for both directions of the channel.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Emitter delivers outbound events and records presence. The gateway is the
// production implementation; tests substitute a recorder.
type Emitter interface {
	EmitTo(userID uuid.UUID, event string, payload interface{})
	SetOnline(userID uuid.UUID, conn *Conn)
}

// TokenVerifier resolves a bearer token to a user identity. The channel
// requires the same verification as the REST surface: announce carries a
// token and the user ID is taken from its claims, never from the client.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

type typingPayload struct {
	SenderID uuid.UUID `json:"sender_id"`
}

// Router maps inbound events to persistence and emission. Failures on this
// path are logged and swallowed: a bad event never terminates the
// connection, and a store error is never surfaced to the peer.
type Router struct {
	store    Repository
	emitter  Emitter
	verifier TokenVerifier
}

func NewRouter(store Repository, emitter Emitter, verifier TokenVerifier) *Router {
	return &Router{
		store:    store,
		emitter:  emitter,
		verifier: verifier,
	}
}

func (rt *Router) HandleEvent(ctx context.Context, conn *Conn, evt Event) {
	if evt.Event == EventAnnounceOnline {
		rt.handleAnnounce(ctx, conn, evt.Data)
		return
	}

	if !conn.Authorized() {
		logger.Warn("event before announce, dropping",
			zap.String("event", evt.Event),
			zap.String("conn", conn.ID().String()))
		return
	}

	switch evt.Event {
	case EventSendMessage:
		rt.handleSendMessage(ctx, conn, evt.Data)
	case EventTypingStart:
		rt.handleTyping(conn, evt.Data, EventTypingStart)
	case EventTypingStop:
		rt.handleTyping(conn, evt.Data, EventTypingStop)
	case EventMarkRead:
		rt.handleMarkRead(ctx, conn, evt.Data)
	default:
		logger.Warn("unknown event", zap.String("event", evt.Event))
	}
}

func (rt *Router) handleAnnounce(ctx context.Context, conn *Conn, data json.RawMessage) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		logger.Warn("malformed announce payload", zap.String("conn", conn.ID().String()))
		return
	}

	userID, err := rt.verifier.Verify(ctx, payload.Token)
	if err != nil {
		logger.Warn("announce rejected",
			zap.String("conn", conn.ID().String()),
			zap.Error(err))
		return
	}

	conn.bind(userID)
	rt.emitter.SetOnline(userID, conn)
	logger.Info("user online",
		zap.String("user", userID.String()),
		zap.String("conn", conn.ID().String()))
}

func (rt *Router) handleSendMessage(ctx context.Context, conn *Conn, data json.RawMessage) {
	var payload struct {
		ReceiverID uuid.UUID `json:"receiver_id"`
		Content    string    `json:"content"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == uuid.Nil || payload.Content == "" {
		logger.Warn("malformed send-message payload", zap.String("conn", conn.ID().String()))
		return
	}

	msg, err := rt.store.CreateMessage(ctx, &Message{
		SenderID:   conn.UserID(),
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
	})
	if err != nil {
		// Store-and-forward: the sender's optimistic local echo masks
		// this; nothing is surfaced to either party.
		logger.Error("persist message failed",
			zap.String("sender", conn.UserID().String()),
			zap.Error(err))
		return
	}

	rt.emitter.EmitTo(msg.ReceiverID, EventMessageNew, msg)
}

func (rt *Router) handleTyping(conn *Conn, data json.RawMessage, event string) {
	var payload struct {
		ReceiverID uuid.UUID `json:"receiver_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == uuid.Nil {
		logger.Warn("malformed typing payload", zap.String("conn", conn.ID().String()))
		return
	}

	rt.emitter.EmitTo(payload.ReceiverID, event, typingPayload{SenderID: conn.UserID()})
}

func (rt *Router) handleMarkRead(ctx context.Context, conn *Conn, data json.RawMessage) {
	var payload struct {
		MessageID uuid.UUID `json:"message_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == uuid.Nil {
		logger.Warn("malformed mark-read payload", zap.String("conn", conn.ID().String()))
		return
	}

	msg, transitioned, err := rt.store.MarkRead(ctx, payload.MessageID)
	if err != nil {
		// An unknown message ID is not an error to the caller; the
		// receipt is simply never emitted.
		logger.Warn("mark-read failed",
			zap.String("message", payload.MessageID.String()),
			zap.Error(err))
		return
	}
	if !transitioned {
		return
	}

	rt.emitter.EmitTo(msg.SenderID, EventMessageRead, msg)
}
