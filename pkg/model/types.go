package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const backendTimeFormat = "2006-01-02 15:04:05"

// ID is a backend identifier. The PHP backend sends ids either as numbers or as
// numeric strings, both are accepted.
type ID int64

func (x *ID) UnmarshalJSON(b []byte) error {
	n, err := parseNumber(b)
	if err != nil {
		return fmt.Errorf("bad id %s: %w", string(b), err)
	}

	*x = ID(n)

	return nil
}

func (x ID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)

	return ID(n), err
}

// Count is a counter that may arrive as "12" or 12.
type Count int

func (x *Count) UnmarshalJSON(b []byte) error {
	n, err := parseNumber(b)
	if err != nil {
		return fmt.Errorf("bad count %s: %w", string(b), err)
	}

	*x = Count(n)

	return nil
}

// Flag is a boolean sent as true/false, 0/1 or "0"/"1".
type Flag bool

func (x *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(string(bytes.Trim(b, `"`)))

	switch s {
	case "true", "1":
		*x = true
	case "false", "0", "", "null":
		*x = false
	default:
		return fmt.Errorf("bad flag %s", string(b))
	}

	return nil
}

// Coord is a coordinate that may arrive as a string.
type Coord float64

func (x *Coord) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))

	if s == "" || s == "null" {
		*x = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("bad coordinate %s: %w", string(b), err)
	}

	*x = Coord(f)

	return nil
}

// DateTime is a MySQL-style "2006-01-02 15:04:05" timestamp.
type DateTime time.Time

func Now() DateTime {
	return DateTime(time.Now().UTC().Truncate(time.Second))
}

func (x DateTime) Time() time.Time {
	return time.Time(x)
}

func (x DateTime) IsZero() bool {
	return time.Time(x).IsZero()
}

func (x DateTime) MarshalText() ([]byte, error) {
	if x.IsZero() {
		return []byte{}, nil
	}

	return []byte(time.Time(x).Format(backendTimeFormat)), nil
}

func (x *DateTime) UnmarshalText(text []byte) error {
	s := string(text)

	if s == "" {
		*x = DateTime{}
		return nil
	}

	for _, layout := range []string{backendTimeFormat, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			*x = DateTime(t)
			return nil
		}
	}

	return fmt.Errorf("bad time %s", s)
}

func (x *DateTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*x = DateTime{}
	case time.Time:
		*x = DateTime(v)
	case string:
		return x.UnmarshalText([]byte(v))
	case []byte:
		return x.UnmarshalText(v)
	default:
		return fmt.Errorf("can't scan %T into DateTime", value)
	}

	return nil
}

func (x DateTime) Value() (driver.Value, error) {
	return time.Time(x), nil
}

func parseNumber(b []byte) (int64, error) {
	s := string(bytes.Trim(b, `"`))

	if s == "" || s == "null" {
		return 0, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	fl, err := json.Number(s).Float64()
	if err != nil {
		return 0, err
	}

	return int64(fl), nil
}
