package database

import (
	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

// MessageQuery selects prayer room messages in id order.
type MessageQuery struct {
	Query[model.PrayerMessage]
}

func NewMessageQuery(db *gorm.DB) *MessageQuery {
	q := new(MessageQuery)
	q.setDefaults(db, "id ASC", 1000)

	return q
}

func (q *MessageQuery) Limit(n int) *MessageQuery {
	q.limit = n
	return q
}

func (q *MessageQuery) Mission(id model.ID) *MessageQuery {
	q.where("mission_id = ?", id)
	return q
}

// After selects messages with id greater than id. Zero means from the start.
func (q *MessageQuery) After(id model.ID) *MessageQuery {
	if id != 0 {
		q.where("id > ?", id)
	}

	return q
}

func (q *MessageQuery) ClientID(id string) *MessageQuery {
	q.where("client_id = ?", id)
	return q
}
