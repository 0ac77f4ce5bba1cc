package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point — координаты в градусах.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox — прямоугольная зона обслуживания.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func (b BoundingBox) Contains(p Point) bool {
	return b.MinLat <= p.Lat && p.Lat <= b.MaxLat &&
		b.MinLon <= p.Lon && p.Lon <= b.MaxLon
}

// String renders the box in the geocoder's bbox query format:
// minLat,minLon~maxLat,maxLon.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g~%g,%g", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// DistanceKm returns the great-circle (haversine) distance between two
// points. Road geometry is deliberately ignored; the bot discloses that
// in the confirmation message.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RouteURL builds a map link for the trip between two points.
func RouteURL(host string, from, to Point) string {
	return fmt.Sprintf("https://%s/maps/?rtext=%g,%g~%g,%g&rtt=auto",
		host, from.Lat, from.Lon, to.Lat, to.Lon)
}
