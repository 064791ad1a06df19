package model

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type User struct {
	ID        ID        `gorm:"primaryKey" json:"id" yaml:"id"`
	Name      string    `gorm:"not null;size:255" json:"nombre" yaml:"nombre"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email" yaml:"email"`
	Bio       string    `gorm:"not null;default:''" json:"biografia,omitempty" yaml:"-"`
	Password  string    `gorm:"not null" json:"-" yaml:"-"`
	CreatedAt time.Time `json:"-" yaml:"-"`
}

// UserPostDTO is the signup payload of the usuarios endpoint.
type UserPostDTO struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"biografia"`
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (u *User) GetID() ID {
	if u == nil {
		return 0
	}

	return u.ID
}

func (u *User) GetName() string {
	if u == nil {
		return ""
	}

	return u.Name
}

// Initial is the avatar letter shown next to a user's name.
func (u *User) Initial() string {
	return Initial(u.GetName())
}

func (u *User) SameEmail(email string) bool {
	if u == nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}

func (u *User) CheckPassword(password string) bool {
	if u == nil || u.Password == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	if err != nil {
		slog.Debug("password check failed", slog.Any("error", err))
		return false
	}

	return true
}

func (u *User) SetPassword(password string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	u.Password = string(b)

	return nil
}

func Initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}

	return "?"
}
