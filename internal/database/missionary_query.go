package database

import (
	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type MissionaryQuery struct {
	Query[model.Missionary]
}

func NewMissionaryQuery(db *gorm.DB) *MissionaryQuery {
	q := new(MissionaryQuery)
	q.setDefaults(db, "name ASC", 1000)

	return q
}

func (q *MissionaryQuery) Email(email string) *MissionaryQuery {
	q.where("email = ?", email)
	return q
}
