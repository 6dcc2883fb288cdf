// Package store holds the record store contract and its implementations.
package store

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore is everything the directory needs from persistence.
type UserStore interface {
	// Insert assigns u.ID and u.CreatedAt. A primary key collision is
	// reported as sequence.ErrIdentityConflict.
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id int64, changes Changes) (*models.User, error)
	Delete(ctx context.Context, id int64) error

	// List returns one page of matches and the total match count, computed
	// by two separate reads over the same filter.
	List(ctx context.Context, q query.ListQuery) ([]models.User, int64, error)

	Ping(ctx context.Context) error

	sequence.Sequencer
	analytics.Source
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	FirstName *string
	LastName  *string
	Email     *string
	Gender    *string
	Phone     *string
}

func (c Changes) IsEmpty() bool {
	return c.FirstName == nil && c.LastName == nil && c.Email == nil && c.Gender == nil && c.Phone == nil
}

// Columns maps the supplied fields to column names.
func (c Changes) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 5)
	if c.FirstName != nil {
		cols[string(query.FieldFirstName)] = *c.FirstName
	}
	if c.LastName != nil {
		cols[string(query.FieldLastName)] = *c.LastName
	}
	if c.Email != nil {
		cols[string(query.FieldEmail)] = *c.Email
	}
	if c.Gender != nil {
		cols[string(query.FieldGender)] = *c.Gender
	}
	if c.Phone != nil {
		cols[string(query.FieldPhone)] = *c.Phone
	}
	return cols
}

func (c Changes) apply(u *models.User) {
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Gender != nil {
		u.Gender = *c.Gender
	}
	if c.Phone != nil {
		u.Phone = *c.Phone
	}
}
