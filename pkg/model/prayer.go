package model

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PrayerMessage is one entry of a mission's prayer room. Messages are append
// only and ordered by server id.
type PrayerMessage struct {
	ID        ID       `gorm:"primaryKey" json:"id"`
	MissionID ID       `gorm:"index;not null" json:"mision_id"`
	UserID    ID       `gorm:"not null" json:"usuario_id"`
	UserName  string   `gorm:"not null;default:''" json:"nombre_usuario"`
	Message   string   `gorm:"not null" json:"mensaje"`
	ClientID  string   `gorm:"index;size:64" json:"client_id,omitempty"`
	CreatedAt DateTime `gorm:"column:created_at" json:"fecha_creacion"`
}

type PrayerMessagePostDTO struct {
	MissionID ID     `json:"mision_id"`
	UserID    ID     `json:"usuario_id"`
	Message   string `json:"mensaje"`
	ClientID  string `json:"client_id,omitempty"`
}

// Text returns the message with html entities decoded, the PHP backend
// escapes stored text.
func (m *PrayerMessage) Text() string {
	return html.UnescapeString(m.Message)
}

func (m *PrayerMessage) String() string {
	return fmt.Sprintf("#%d %s: %s", m.ID, m.UserName, m.Text())
}

// Same reports whether two entries are the same message: by server id when
// both have one, then by client id, then by author and text.
func (m *PrayerMessage) Same(o *PrayerMessage) bool {
	if m == nil || o == nil {
		return false
	}

	if m.ID != 0 && o.ID != 0 {
		return m.ID == o.ID
	}

	if m.ClientID != "" && o.ClientID != "" {
		return m.ClientID == o.ClientID
	}

	return m.UserID == o.UserID && strings.TrimSpace(m.Text()) == strings.TrimSpace(o.Text())
}
