package database

import (
	"errors"

	"gorm.io/gorm"
)

var errUpdate = errors.New("no record found")

type cond struct {
	query string
	args  []any
}

// Query collects where conditions for model T. Entity queries embed it and
// add typed filter setters; Get, One, Count and Update are shared.
type Query[T any] struct {
	db    *gorm.DB
	conds []cond
	limit int
	order string
}

func (q *Query[T]) setDefaults(db *gorm.DB, order string, limit int) {
	q.db = db
	q.limit = limit
	q.order = order
}

func (q *Query[T]) where(query string, args ...any) {
	q.conds = append(q.conds, cond{query: query, args: args})
}

func (q *Query[T]) tx() *gorm.DB {
	tx := q.db.Model(new(T))

	for _, c := range q.conds {
		tx = tx.Where(c.query, c.args...)
	}

	return tx
}

// Get returns matching records, nil on error.
func (q *Query[T]) Get() []*T {
	var res []*T

	tx := q.tx()

	if q.order != "" {
		tx = tx.Order(q.order)
	}

	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}

	if err := tx.Find(&res).Error; err != nil {
		return nil
	}

	return res
}

func (q *Query[T]) One() *T {
	res := new(T)

	if err := q.tx().Take(res).Error; err != nil {
		return nil
	}

	return res
}

func (q *Query[T]) Count() int64 {
	var c int64

	if err := q.tx().Count(&c).Error; err != nil {
		return 0
	}

	return c
}

// Update applies updates to matching records, errUpdate when nothing matched.
func (q *Query[T]) Update(updates map[string]any) error {
	tx := q.tx().Updates(updates)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return errUpdate
	}

	return nil
}
