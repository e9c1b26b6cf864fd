package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"campusride/internal/models"
	"campusride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFindOrCreateIsUnordered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.chatService.FindOrCreate(ctx, "zed", "amy", models.ChatTypeRide, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeRide, nil)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same chat for both orderings, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if first.Participants[0] != "amy" || first.Participants[1] != "zed" {
		t.Fatalf("participants not sorted: %v", first.Participants)
	}

	listing := primitive.NewObjectID()
	market, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeMarketplace, &listing)
	if err != nil {
		t.Fatalf("marketplace chat: %v", err)
	}
	if market.ID == first.ID {
		t.Fatal("a listing chat should be separate from the ride chat")
	}
}

func TestFindOrCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.chatService.FindOrCreate(ctx, "amy", "amy", models.ChatTypeRide, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for a self chat, got %v", err)
	}
	if _, err := env.chatService.FindOrCreate(ctx, "amy", "", models.ChatTypeRide, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for a missing participant, got %v", err)
	}
	if _, err := env.chatService.FindOrCreate(ctx, "amy", "zed", "group", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for an unknown type, got %v", err)
	}
	if _, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeMarketplace, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for a marketplace chat without listing, got %v", err)
	}
}

func TestConcurrentFindOrCreateConverges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ids := make(chan primitive.ObjectID, 10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "amy", "zed"
			if i%2 == 0 {
				a, b = b, a
			}
			chat, err := env.chatService.FindOrCreate(ctx, a, b, models.ChatTypeRide, nil)
			if err != nil {
				t.Errorf("find or create: %v", err)
				return
			}
			ids <- chat.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[primitive.ObjectID]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected a single chat, got %d", len(seen))
	}
}

func TestSendMessageAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chat, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeRide, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, text := range []string{"hi", "  are you still driving?  "} {
		if _, err := env.chatService.SendMessage(ctx, chat.ID, "amy", text); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	got, err := env.chatService.Get(ctx, chat.ID, "zed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Unread["zed"] != 2 || got.Unread["amy"] != 0 {
		t.Fatalf("unexpected unread counters: %v", got.Unread)
	}
	if got.LastMessage != "are you still driving?" || got.LastSenderID != "amy" {
		t.Fatalf("unexpected last message fields: %q from %q", got.LastMessage, got.LastSenderID)
	}
	if env.live.sentTo("zed") != 2 {
		t.Fatalf("expected 2 live deliveries to the recipient, got %d", env.live.sentTo("zed"))
	}
	if len(env.live.rooms) != 2 || env.live.rooms[0].target != websocket.ChatRoom(chat.ID.Hex()) {
		t.Fatalf("expected messages published to the chat room, got %+v", env.live.rooms)
	}

	if err := env.chatService.MarkRead(ctx, chat.ID, "zed"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, _ = env.chatService.Get(ctx, chat.ID, "zed")
	if got.Unread["zed"] != 0 {
		t.Fatalf("expected counter reset, got %d", got.Unread["zed"])
	}
	messages, total, err := env.chatService.ListMessages(ctx, chat.ID, "zed", nil)
	if err != nil || total != 2 {
		t.Fatalf("expected 2 messages, got %d (%v)", total, err)
	}
	for _, m := range messages {
		if !m.Seen {
			t.Fatalf("message %s not marked seen", m.ID.Hex())
		}
	}
}

func TestSendMessageRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chat, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeRide, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.chatService.SendMessage(ctx, chat.ID, "mallory", "hello"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := env.chatService.SendMessage(ctx, chat.ID, "amy", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank text, got %v", err)
	}
	if _, err := env.chatService.SendMessage(ctx, chat.ID, "amy", strings.Repeat("x", models.MaxMessageLength+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long text, got %v", err)
	}
	if _, err := env.chatService.SendMessage(ctx, chat.ID, "amy", strings.Repeat("é", models.MaxMessageLength)); err != nil {
		t.Fatalf("max length in runes should pass: %v", err)
	}
	if _, err := env.chatService.SendMessage(ctx, primitive.NewObjectID(), "amy", "hello"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestCanJoinRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chat, err := env.chatService.FindOrCreate(ctx, "amy", "zed", models.ChatTypeRide, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	room := websocket.ChatRoom(chat.ID.Hex())

	if !env.chatService.CanJoinRoom(ctx, "amy", room) {
		t.Fatal("participant should be allowed into the room")
	}
	if env.chatService.CanJoinRoom(ctx, "mallory", room) {
		t.Fatal("outsider allowed into the room")
	}
	if env.chatService.CanJoinRoom(ctx, "amy", "ride_"+chat.ID.Hex()) {
		t.Fatal("non-chat rooms are not authorized here")
	}
	if env.chatService.CanJoinRoom(ctx, "amy", websocket.ChatRoom("nothex")) {
		t.Fatal("malformed chat id allowed")
	}
}
