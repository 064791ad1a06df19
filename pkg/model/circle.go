package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Circle struct {
	ID          ID        `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"nombre"`
	Description string    `gorm:"not null;default:''" json:"descripcion"`
	Members     Count     `gorm:"-" json:"total_miembros"`
	InviteCode  string    `gorm:"uniqueIndex;not null;size:16" json:"codigo_invitacion"`
	OwnerID     ID        `gorm:"index;not null" json:"-"`
	Users       []*User   `gorm:"many2many:circle_members;" json:"-"`
	CreatedAt   time.Time `json:"-"`
}

type CirclePostDTO struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	UserID      ID     `json:"usuario_id"`
}

type CircleJoinDTO struct {
	InviteCode string `json:"codigo_invitacion"`
	UserID     ID     `json:"usuario_id"`
}

// NewInviteCode returns a short upper-case code for sharing a circle.
func NewInviteCode() string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")

	return strings.ToUpper(s[:8])
}
