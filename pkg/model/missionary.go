package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Missionary struct {
	ID          ID        `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"nombre"`
	Family      string    `gorm:"not null;default:''" json:"familia"`
	Description string    `gorm:"not null;default:''" json:"descripcion"`
	Church      string    `gorm:"not null;default:''" json:"iglesia"`
	PhotoURL    string    `gorm:"not null;default:''" json:"foto_url"`
	Phone       string    `gorm:"not null;default:''" json:"telefono"`
	Email       string    `gorm:"not null;default:''" json:"email"`
	Lat         Coord     `gorm:"not null;default:0" json:"lat"`
	Lon         Coord     `gorm:"not null;default:0" json:"lng"`
	Location    string    `gorm:"not null;default:''" json:"ubicacion_nombre"`
	CreatedAt   time.Time `json:"-"`
}

// UnmarshalJSON accepts both lat/lng and latitud/longitud spellings.
func (m *Missionary) UnmarshalJSON(b []byte) error {
	type plain Missionary

	aux := struct {
		*plain
		Latitud  *Coord `json:"latitud"`
		Longitud *Coord `json:"longitud"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	if aux.Latitud != nil && m.Lat == 0 {
		m.Lat = *aux.Latitud
	}

	if aux.Longitud != nil && m.Lon == 0 {
		m.Lon = *aux.Longitud
	}

	return nil
}

func (m *Missionary) HasLocation() bool {
	return m.Lat != 0 || m.Lon != 0
}

func (m *Missionary) DisplayName() string {
	if m.Family == "" {
		return m.Name
	}

	return m.Name + " (" + m.Family + ")"
}

// MissionaryForm is what a missionary fills in to appear on the map.
type MissionaryForm struct {
	Code        string
	Name        string
	Family      string
	Description string
	Church      string
	PhotoURL    string
	Phone       string
	Email       string
	City        string
	State       string
	Country     string
	Lat         float64
	Lon         float64
}

func (f *MissionaryForm) LocationName() string {
	parts := make([]string, 0, 3)

	for _, s := range []string{f.City, f.State, f.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ", ")
}

func (f *MissionaryForm) Validate() error {
	if strings.TrimSpace(f.Code) == "" {
		return fmt.Errorf("registration code is required")
	}

	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("nombre is required")
	}

	if f.LocationName() == "" && f.Lat == 0 && f.Lon == 0 {
		return fmt.Errorf("location is required")
	}

	return nil
}

// MissionaryPostDTO is the misioneros POST body.
type MissionaryPostDTO struct {
	Code        string  `json:"code"`
	Name        string  `json:"nombre"`
	Family      string  `json:"familia"`
	Description string  `json:"descripcion"`
	Church      string  `json:"iglesia"`
	PhotoURL    string  `json:"foto_url"`
	Phone       string  `json:"telefono"`
	Email       string  `json:"email"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lng"`
	Location    string  `json:"ubicacion_nombre"`
}

func (f *MissionaryForm) DTO() *MissionaryPostDTO {
	return &MissionaryPostDTO{
		Code:        strings.TrimSpace(f.Code),
		Name:        strings.TrimSpace(f.Name),
		Family:      strings.TrimSpace(f.Family),
		Description: f.Description,
		Church:      f.Church,
		PhotoURL:    f.PhotoURL,
		Phone:       f.Phone,
		Email:       f.Email,
		Lat:         f.Lat,
		Lon:         f.Lon,
		Location:    f.LocationName(),
	}
}

func (d *MissionaryPostDTO) Missionary() *Missionary {
	return &Missionary{
		Name:        d.Name,
		Family:      d.Family,
		Description: d.Description,
		Church:      d.Church,
		PhotoURL:    d.PhotoURL,
		Phone:       d.Phone,
		Email:       d.Email,
		Lat:         Coord(d.Lat),
		Lon:         Coord(d.Lon),
		Location:    d.Location,
	}
}
