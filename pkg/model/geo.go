//nolint:gomnd
package model

import (
	"math"
)

// DistBea returns distance in meters and bearing in degrees between two points.
func DistBea(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	toRadian := math.Pi / 180
	// bearing
	y := math.Sin((lon2-lon1)*toRadian) * math.Cos(lat2*toRadian)
	x := math.Cos(lat1*toRadian)*math.Sin(lat2*toRadian) - math.Sin(lat1*toRadian)*math.Cos(lat2*toRadian)*math.Cos((lon2-lon1)*toRadian)
	bea := math.Atan2(y, x) * 180 / math.Pi

	if bea < 0 {
		bea += 360
	}
	// haversine distance
	R := 6371000. // meters
	deltaF := (lat2 - lat1) * toRadian
	deltaL := (lon2 - lon1) * toRadian
	a := math.Sin(deltaF/2)*math.Sin(deltaF/2) + math.Cos(lat1*toRadian)*math.Cos(lat2*toRadian)*math.Sin(deltaL/2)*math.Sin(deltaL/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	dist := R * c

	return dist, bea
}

type Pos struct {
	Lat float64
	Lon float64
}

func NewPos(lat, lon float64) *Pos {
	return &Pos{Lat: lat, Lon: lon}
}

func (p *Pos) IsZero() bool {
	return p == nil || (p.Lat == 0 && p.Lon == 0)
}

func (p *Pos) GetCoord() (float64, float64) {
	if p == nil {
		return 0, 0
	}

	return p.Lat, p.Lon
}

// Distance returns meters from p to the other point.
func (p *Pos) Distance(lat, lon float64) float64 {
	d, _ := DistBea(p.Lat, p.Lon, lat, lon)

	return d
}

// Compass converts a bearing to one of 8 compass points.
func Compass(bearing float64) string {
	points := []string{"N", "NE", "E", "SE", "S", "SO", "O", "NO"}
	i := int(math.Round(math.Mod(bearing, 360)/45)) % len(points)

	return points[i]
}
