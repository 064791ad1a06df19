package database

import (
	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type MissionQuery struct {
	Query[model.Mission]
}

func NewMissionQuery(db *gorm.DB) *MissionQuery {
	q := new(MissionQuery)
	q.setDefaults(db, "id DESC", 100)

	return q
}

func (q *MissionQuery) Limit(n int) *MissionQuery {
	q.limit = n
	return q
}

func (q *MissionQuery) ID(id model.ID) *MissionQuery {
	q.where("id = ?", id)
	return q
}

func (q *MissionQuery) User(id model.ID) *MissionQuery {
	q.where("user_id = ?", id)
	return q
}

func (q *MissionQuery) Public() *MissionQuery {
	q.where("public = ?", true)
	return q
}

func (q *MissionQuery) Answered() *MissionQuery {
	q.where("answered = ?", true)
	return q
}
