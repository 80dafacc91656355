package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulse/infrastructure"
)

type fakeStore struct {
	mu         sync.Mutex
	msgs       map[uuid.UUID]*Message
	order      []uuid.UUID
	failCreate bool
	clock      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		msgs:  make(map[uuid.UUID]*Message),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) CreateMessage(_ context.Context, msg *Message) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, infrastructure.ErrInvalidInput
	}

	stored := *msg
	stored.ID = uuid.New()
	s.clock = s.clock.Add(time.Second)
	stored.CreatedAt = s.clock
	s.msgs[stored.ID] = &stored
	s.order = append(s.order, stored.ID)

	out := stored
	return &out, nil
}

func (s *fakeStore) MarkRead(_ context.Context, id uuid.UUID) (*Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok {
		return nil, false, infrastructure.ErrMessageNotFound
	}
	transitioned := !msg.Read
	msg.Read = true

	out := *msg
	return &out, transitioned, nil
}

func (s *fakeStore) Conversation(_ context.Context, a, b uuid.UUID) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Message
	for _, id := range s.order {
		msg := s.msgs[id]
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			copied := *msg
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

type emission struct {
	userID  uuid.UUID
	event   string
	payload interface{}
}

type fakeEmitter struct {
	mu        sync.Mutex
	emissions []emission
	online    map[uuid.UUID]*Conn
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{online: make(map[uuid.UUID]*Conn)}
}

func (e *fakeEmitter) EmitTo(userID uuid.UUID, event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emissions = append(e.emissions, emission{userID: userID, event: event, payload: payload})
}

func (e *fakeEmitter) SetOnline(userID uuid.UUID, conn *Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online[userID] = conn
}

func (e *fakeEmitter) all() []emission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emission(nil), e.emissions...)
}

type fakeVerifier struct {
	tokens map[string]uuid.UUID
}

func (v *fakeVerifier) Verify(_ context.Context, token string) (uuid.UUID, error) {
	if id, ok := v.tokens[token]; ok {
		return id, nil
	}
	return uuid.Nil, infrastructure.ErrInvalidToken
}

func raw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func announcedConn(t *testing.T, rt *Router, userID uuid.UUID, verifier *fakeVerifier) *Conn {
	t.Helper()
	token := "token-" + userID.String()
	verifier.tokens[token] = userID

	conn := newConn(nil)
	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventAnnounceOnline,
		Data:  raw(t, map[string]string{"token": token}),
	})
	if !conn.Authorized() {
		t.Fatal("connection not authorized after announce")
	}
	return conn
}

func newTestRouter() (*Router, *fakeStore, *fakeEmitter, *fakeVerifier) {
	store := newFakeStore()
	emitter := newFakeEmitter()
	verifier := &fakeVerifier{tokens: make(map[string]uuid.UUID)}
	return NewRouter(store, emitter, verifier), store, emitter, verifier
}

func TestAnnounceBindsConnectionToTokenIdentity(t *testing.T) {
	rt, _, emitter, verifier := newTestRouter()
	userID := uuid.New()

	conn := announcedConn(t, rt, userID, verifier)

	if conn.UserID() != userID {
		t.Fatalf("expected conn bound to %s, got %s", userID, conn.UserID())
	}
	if emitter.online[userID] != conn {
		t.Fatal("announce did not register presence")
	}
	if len(emitter.all()) != 0 {
		t.Fatalf("announce should emit nothing, got %d emissions", len(emitter.all()))
	}
}

func TestAnnounceRejectsInvalidToken(t *testing.T) {
	rt, _, emitter, _ := newTestRouter()
	conn := newConn(nil)

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventAnnounceOnline,
		Data:  raw(t, map[string]string{"token": "forged"}),
	})

	if conn.Authorized() {
		t.Fatal("connection authorized with an invalid token")
	}
	if len(emitter.online) != 0 {
		t.Fatal("presence registered for an unverified identity")
	}
}

func TestEventsBeforeAnnounceAreDropped(t *testing.T) {
	rt, store, emitter, _ := newTestRouter()
	conn := newConn(nil)

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventSendMessage,
		Data:  raw(t, map[string]interface{}{"receiver_id": uuid.New(), "content": "hi"}),
	})

	if store.count() != 0 {
		t.Fatal("message persisted for an unannounced connection")
	}
	if len(emitter.all()) != 0 {
		t.Fatal("event emitted for an unannounced connection")
	}
}

func TestSendMessagePersistsAndEmitsExactlyOnce(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventSendMessage,
		Data:  raw(t, map[string]interface{}{"receiver_id": receiver, "content": "hi"}),
	})

	if store.count() != 1 {
		t.Fatalf("expected one persisted message, got %d", store.count())
	}

	emissions := emitter.all()
	if len(emissions) != 1 {
		t.Fatalf("expected exactly one emission, got %d", len(emissions))
	}
	e := emissions[0]
	if e.userID != receiver || e.event != EventMessageNew {
		t.Fatalf("unexpected emission %s to %s", e.event, e.userID)
	}
	msg, ok := e.payload.(*Message)
	if !ok {
		t.Fatalf("expected *Message payload, got %T", e.payload)
	}
	if msg.Content != "hi" || msg.SenderID != sender || msg.Read {
		t.Fatalf("emitted record does not match persisted message: %+v", msg)
	}
}

func TestSenderIdentityComesFromConnectionNotPayload(t *testing.T) {
	rt, store, _, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)

	// A spoofed sender_id field must be ignored.
	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventSendMessage,
		Data: raw(t, map[string]interface{}{
			"sender_id":   uuid.New(),
			"receiver_id": receiver,
			"content":     "hello",
		}),
	})

	msgs, _ := store.Conversation(context.Background(), sender, receiver)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].SenderID != sender {
		t.Fatalf("sender recorded as %s, want %s", msgs[0].SenderID, sender)
	}
}

func TestSendToOfflineReceiverStillPersistsInOrder(t *testing.T) {
	rt, store, _, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)

	for _, content := range []string{"first", "second", "third"} {
		rt.HandleEvent(context.Background(), conn, Event{
			Event: EventSendMessage,
			Data:  raw(t, map[string]interface{}{"receiver_id": receiver, "content": content}),
		})
	}

	msgs, err := store.Conversation(context.Background(), receiver, sender)
	if err != nil {
		t.Fatalf("conversation query failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 persisted messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Fatalf("message %d out of order: got %q want %q", i, msgs[i].Content, want)
		}
	}
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	sender := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)
	store.failCreate = true

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventSendMessage,
		Data:  raw(t, map[string]interface{}{"receiver_id": uuid.New(), "content": "hi"}),
	})

	if len(emitter.all()) != 0 {
		t.Fatal("emission happened despite a persistence failure")
	}
}

func TestMalformedPayloadDoesNotKillConnection(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)

	for _, evt := range []string{EventSendMessage, EventTypingStart, EventTypingStop, EventMarkRead} {
		rt.HandleEvent(context.Background(), conn, Event{Event: evt, Data: json.RawMessage(`{"bogus":`)})
		rt.HandleEvent(context.Background(), conn, Event{Event: evt, Data: json.RawMessage(`{}`)})
	}
	if store.count() != 0 || len(emitter.all()) != 0 {
		t.Fatal("malformed payloads must have no side effects")
	}

	// The connection remains usable afterwards.
	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventSendMessage,
		Data:  raw(t, map[string]interface{}{"receiver_id": receiver, "content": "still alive"}),
	})
	if store.count() != 1 {
		t.Fatal("valid event after malformed ones was not processed")
	}
}

func TestTypingEventsPassThroughWithoutPersistence(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	conn := announcedConn(t, rt, sender, verifier)

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventTypingStart,
		Data:  raw(t, map[string]interface{}{"receiver_id": receiver}),
	})
	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventTypingStop,
		Data:  raw(t, map[string]interface{}{"receiver_id": receiver}),
	})

	if store.count() != 0 {
		t.Fatal("typing state must not be persisted")
	}

	emissions := emitter.all()
	if len(emissions) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(emissions))
	}
	if emissions[0].event != EventTypingStart || emissions[1].event != EventTypingStop {
		t.Fatalf("unexpected event order: %s, %s", emissions[0].event, emissions[1].event)
	}
	for _, e := range emissions {
		if e.userID != receiver {
			t.Fatalf("typing event routed to %s, want %s", e.userID, receiver)
		}
		payload, ok := e.payload.(typingPayload)
		if !ok || payload.SenderID != sender {
			t.Fatalf("typing payload should carry the sender id, got %+v", e.payload)
		}
	}
}

func TestMarkReadEmitsReceiptToSenderOnce(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	sender := uuid.New()
	receiver := uuid.New()
	senderConn := announcedConn(t, rt, sender, verifier)
	receiverConn := announcedConn(t, rt, receiver, verifier)

	rt.HandleEvent(context.Background(), senderConn, Event{
		Event: EventSendMessage,
		Data:  raw(t, map[string]interface{}{"receiver_id": receiver, "content": "read me"}),
	})
	msgs, _ := store.Conversation(context.Background(), sender, receiver)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	msgID := msgs[0].ID

	rt.HandleEvent(context.Background(), receiverConn, Event{
		Event: EventMarkRead,
		Data:  raw(t, map[string]interface{}{"message_id": msgID}),
	})

	emissions := emitter.all()
	last := emissions[len(emissions)-1]
	if last.event != EventMessageRead || last.userID != sender {
		t.Fatalf("expected %s to sender, got %s to %s", EventMessageRead, last.event, last.userID)
	}
	msg := last.payload.(*Message)
	if !msg.Read {
		t.Fatal("receipt payload should carry read=true")
	}

	// The second mark-read is a no-op: read stays true, no duplicate receipt.
	before := len(emitter.all())
	rt.HandleEvent(context.Background(), receiverConn, Event{
		Event: EventMarkRead,
		Data:  raw(t, map[string]interface{}{"message_id": msgID}),
	})
	if len(emitter.all()) != before {
		t.Fatal("duplicate mark-read emitted a second receipt")
	}

	stored, transitioned, err := store.MarkRead(context.Background(), msgID)
	if err != nil || transitioned || !stored.Read {
		t.Fatalf("read flag regressed: read=%v transitioned=%v err=%v", stored.Read, transitioned, err)
	}
}

func TestMarkReadUnknownMessageIsSilent(t *testing.T) {
	rt, _, emitter, verifier := newTestRouter()
	receiver := uuid.New()
	conn := announcedConn(t, rt, receiver, verifier)

	rt.HandleEvent(context.Background(), conn, Event{
		Event: EventMarkRead,
		Data:  raw(t, map[string]interface{}{"message_id": uuid.New()}),
	})

	if len(emitter.all()) != 0 {
		t.Fatal("unknown message id must not produce a receipt")
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	rt, store, emitter, verifier := newTestRouter()
	conn := announcedConn(t, rt, uuid.New(), verifier)

	rt.HandleEvent(context.Background(), conn, Event{Event: "presence-probe", Data: json.RawMessage(`{}`)})

	if store.count() != 0 || len(emitter.all()) != 0 {
		t.Fatal("unknown events must have no side effects")
	}
}
