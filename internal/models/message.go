package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxMessageLength = 1000

type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChatID    primitive.ObjectID `json:"chat_id" bson:"chat_id"`
	SenderID  string             `json:"sender_id" bson:"sender_id"`
	Text      string             `json:"text" bson:"text"`
	Seen      bool               `json:"seen" bson:"seen"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
