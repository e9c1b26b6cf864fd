package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatType string

const (
	ChatTypeRide        ChatType = "ride"
	ChatTypeMarketplace ChatType = "marketplace"
)

func (t ChatType) Valid() bool {
	return t == ChatTypeRide || t == ChatTypeMarketplace
}

// Chat is a two-party thread. Participants are stored sorted so the pair is
// unordered; ParticipantKey plus ListingID identifies the thread.
type Chat struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Participants   []string            `json:"participants" bson:"participants"`
	ParticipantKey string              `json:"-" bson:"participant_key"`
	ChatType       ChatType            `json:"chat_type" bson:"chat_type"`
	ListingID      *primitive.ObjectID `json:"listing_id,omitempty" bson:"listing_id"`
	LastMessage    string              `json:"last_message" bson:"last_message"`
	LastMessageAt  *time.Time          `json:"last_message_at,omitempty" bson:"last_message_at,omitempty"`
	LastSenderID   string              `json:"last_sender_id,omitempty" bson:"last_sender_id,omitempty"`
	Unread         map[string]int      `json:"unread" bson:"unread"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

// ParticipantKey is the order-independent identity of a user pair.
func ParticipantKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

func SortedPair(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID, or "" if userID is not
// in the chat.
func (c *Chat) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
