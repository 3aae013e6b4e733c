package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is a notification about a task event. IsRead holds the users who
// acknowledged it; the set only grows.
type Notice struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Text      string               `json:"text" bson:"text"`
	Task      primitive.ObjectID   `json:"task" bson:"task,omitempty"`
	IsRead    []primitive.ObjectID `json:"isRead" bson:"isRead"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ReadBy reports whether userID has acknowledged the notice.
func (n *Notice) ReadBy(userID primitive.ObjectID) bool {
	for _, id := range n.IsRead {
		if id == userID {
			return true
		}
	}
	return false
}

// NoticeTask is the slice of a task sent along with a notice.
type NoticeTask struct {
	ID    primitive.ObjectID   `json:"_id"`
	Title string               `json:"title"`
	Team  []primitive.ObjectID `json:"team"`
}

type NoticeView struct {
	ID        primitive.ObjectID   `json:"_id"`
	Text      string               `json:"text"`
	Task      NoticeTask           `json:"task"`
	IsRead    []primitive.ObjectID `json:"isRead"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ReadMode selects which notices a mark-read call acknowledges.
type ReadMode string

const (
	ReadAll ReadMode = "all"
	ReadOne ReadMode = "one"
)
