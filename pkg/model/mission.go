package model

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryFinancial Category = "apoyo_financiero"
	CategoryVisa      Category = "visa_permiso"
	CategoryHealth    Category = "salud_seguridad"
	CategoryChurch    Category = "plantacion_iglesia"
	CategoryLanguage  Category = "idioma_cultura"
	CategoryChildren  Category = "ninos_educacion"
	CategoryPartners  Category = "socios_oracion"
	CategoryOther     Category = "otro"
	DefaultCategory            = CategoryOther
	DefaultUrgency             = UrgencyMedium
	AllMissionsFilter          = "todas"
	OwnMissionsFilter          = "mis-misiones"
	missionDateFormat          = time.DateOnly
)

type Urgency string

const (
	UrgencyLow      Urgency = "baja"
	UrgencyMedium   Urgency = "media"
	UrgencyHigh     Urgency = "alta"
	UrgencyCritical Urgency = "critica"
)

var Categories = []Category{
	CategoryFinancial,
	CategoryVisa,
	CategoryHealth,
	CategoryChurch,
	CategoryLanguage,
	CategoryChildren,
	CategoryPartners,
	CategoryOther,
}

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

var categoryInfo = map[Category]struct {
	icon  string
	label string
}{
	CategoryFinancial: {"💰", "Apoyo Financiero"},
	CategoryVisa:      {"📋", "Visa/Permiso"},
	CategoryHealth:    {"🏥", "Salud/Seguridad"},
	CategoryChurch:    {"⛪", "Plantación de Iglesia"},
	CategoryLanguage:  {"🗣️", "Idioma/Cultura"},
	CategoryChildren:  {"👨‍👩‍👧‍👦", "Niños/Educación"},
	CategoryPartners:  {"🙏", "Socios de Oración"},
	CategoryOther:     {"✝️", "Otro"},
}

func (c Category) Valid() bool {
	_, ok := categoryInfo[c]

	return ok
}

func (c Category) Icon() string {
	if i, ok := categoryInfo[c]; ok {
		return i.icon
	}

	return categoryInfo[CategoryOther].icon
}

func (c Category) Label() string {
	if i, ok := categoryInfo[c]; ok {
		return i.label
	}

	return string(c)
}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}

	return false
}

type Mission struct {
	ID          ID        `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null;size:255" json:"titulo"`
	Description string    `gorm:"not null" json:"descripcion"`
	Category    Category  `gorm:"index;not null;size:64" json:"categoria"`
	Urgency     Urgency   `gorm:"not null;size:32" json:"nivel_urgencia"`
	UserID      ID        `gorm:"index;not null" json:"usuario_id"`
	UserName    string    `gorm:"not null;default:''" json:"nombre_usuario"`
	Prayers     Count     `gorm:"not null;default:0" json:"total_oraciones"`
	Public      Flag      `gorm:"index;not null" json:"publico"`
	Answered    Flag      `gorm:"not null;default:false" json:"respondida,omitempty"`
	StartDate   string    `gorm:"size:10" json:"fecha_inicio,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// MissionPostDTO is the body of a misiones POST.
type MissionPostDTO struct {
	Title       string   `json:"titulo"`
	Description string   `json:"descripcion"`
	Category    Category `json:"categoria"`
	Urgency     Urgency  `json:"nivel_urgencia"`
	Public      bool     `json:"publico"`
	StartDate   string   `json:"fecha_inicio"`
	UserID      ID       `json:"usuario_id"`
}

// PrayPostDTO is the body of an oraciones POST.
type PrayPostDTO struct {
	MissionID ID     `json:"mision_id"`
	UserID    ID     `json:"usuario_id"`
	Text      string `json:"mensaje"`
}

// NewMissionDraft returns the form defaults: category "otro", urgency "media",
// public, starting today.
func NewMissionDraft() *MissionPostDTO {
	return &MissionPostDTO{
		Category:  DefaultCategory,
		Urgency:   DefaultUrgency,
		Public:    true,
		StartDate: time.Now().Format(missionDateFormat),
	}
}

func (d *MissionPostDTO) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("titulo is required")
	}

	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("descripcion is required")
	}

	if !d.Category.Valid() {
		return fmt.Errorf("invalid category %q", d.Category)
	}

	if !d.Urgency.Valid() {
		return fmt.Errorf("invalid urgency %q", d.Urgency)
	}

	return nil
}

func (m *Mission) PrayerText() string {
	return "Orando por: " + m.Title
}

func (m *Mission) String() string {
	return fmt.Sprintf("%s [%s] %s (%d 🙏)", m.Category.Icon(), m.Urgency, m.Title, m.Prayers)
}

// FilterMissions applies the home view filter: "todas", "mis-misiones" or a
// category name.
func FilterMissions(missions []*Mission, filter string, userID ID) []*Mission {
	res := make([]*Mission, 0, len(missions))

	for _, m := range missions {
		switch filter {
		case "", AllMissionsFilter:
		case OwnMissionsFilter:
			if m.UserID != userID {
				continue
			}
		default:
			if string(m.Category) != filter {
				continue
			}
		}

		res = append(res, m)
	}

	return res
}

// Prayer is one "I prayed for this" record of the oraciones endpoint.
type Prayer struct {
	ID        ID        `gorm:"primaryKey" json:"id"`
	MissionID ID        `gorm:"index;not null" json:"mision_id"`
	UserID    ID        `gorm:"index;not null" json:"usuario_id"`
	Text      string    `gorm:"not null;default:''" json:"mensaje"`
	CreatedAt time.Time `json:"-"`
}
