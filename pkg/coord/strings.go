package coord

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrRange = errors.New("coordinates out of range")

var (
	decimal    = regexp.MustCompile(`^(?P<x>-?\d+(?:\.\d+)?)[;,\s]+(?P<y>-?\d+(?:\.\d+)?)$`)
	hemisphere = regexp.MustCompile(`^(?P<x>\d+(?:\.\d+)?)\s*([nNsS])[;,\s]*(?P<y>\d+(?:\.\d+)?)\s*([eEwWoO])$`)
)

// StringToLatLon parses "lat, lon" in decimal degrees or with hemisphere
// letters like "12.05S 77.04O". ok is false when s holds no coordinates.
func StringToLatLon(s string) (lat, lon float64, ok bool, err error) {
	s = strings.Trim(s, " \t\n\r.,")

	if res := decimal.FindStringSubmatch(s); res != nil {
		if lat, err = strconv.ParseFloat(res[1], 64); err != nil {
			return 0, 0, false, err
		}

		if lon, err = strconv.ParseFloat(res[2], 64); err != nil {
			return 0, 0, false, err
		}

		return check(lat, lon)
	}

	if res := hemisphere.FindStringSubmatch(s); res != nil {
		if lat, err = strconv.ParseFloat(res[1], 64); err != nil {
			return 0, 0, false, err
		}

		if res[2] == "S" || res[2] == "s" {
			lat = -lat
		}

		if lon, err = strconv.ParseFloat(res[3], 64); err != nil {
			return 0, 0, false, err
		}

		// O is oeste
		if strings.ContainsAny(res[4], "wWoO") {
			lon = -lon
		}

		return check(lat, lon)
	}

	return 0, 0, false, nil
}

func check(lat, lon float64) (float64, float64, bool, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false, ErrRange
	}

	return lat, lon, true, nil
}
