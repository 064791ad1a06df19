package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type CircleQuery struct {
	Query[model.Circle]
}

func NewCircleQuery(db *gorm.DB) *CircleQuery {
	q := new(CircleQuery)
	q.setDefaults(db, "circles.id ASC", 100)

	return q
}

func (q *CircleQuery) ID(id model.ID) *CircleQuery {
	q.where("circles.id = ?", id)
	return q
}

// Member selects circles the user belongs to.
func (q *CircleQuery) Member(userID model.ID) *CircleQuery {
	q.where("circles.id IN (?)", q.db.Table("circle_members").Select("circle_id").Where("user_id = ?", userID))
	return q
}

func (q *CircleQuery) Code(code string) *CircleQuery {
	q.where("invite_code = ?", strings.ToUpper(strings.TrimSpace(code)))
	return q
}

// Get returns circles with their member counts filled in.
func (q *CircleQuery) Get() []*model.Circle {
	res := q.Query.Get()

	for _, c := range res {
		c.Members = model.Count(q.members(c.ID))
	}

	return res
}

func (q *CircleQuery) One() *model.Circle {
	c := q.Query.One()

	if c != nil {
		c.Members = model.Count(q.members(c.ID))
	}

	return c
}

func (q *CircleQuery) members(id model.ID) int64 {
	var n int64

	q.db.Table("circle_members").Where("circle_id = ?", id).Count(&n)

	return n
}
