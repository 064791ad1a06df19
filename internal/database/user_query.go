package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type UserQuery struct {
	Query[model.User]
}

func NewUserQuery(db *gorm.DB) *UserQuery {
	q := new(UserQuery)
	q.setDefaults(db, "id ASC", 100)

	return q
}

// Limit sets max number of rows, 0 is unlimited.
func (q *UserQuery) Limit(n int) *UserQuery {
	q.limit = n
	return q
}

func (q *UserQuery) ID(id model.ID) *UserQuery {
	q.where("id = ?", id)
	return q
}

// Email matches case-insensitively.
func (q *UserQuery) Email(email string) *UserQuery {
	q.where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	return q
}
