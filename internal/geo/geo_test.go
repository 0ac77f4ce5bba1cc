package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	// Две точки в центре Воронежа, около 3 км друг от друга.
	a := Point{Lat: 51.6606, Lon: 39.2006}
	b := Point{Lat: 51.6866, Lon: 39.2106}

	got := DistanceKm(a, b)
	if got < 2.5 || got > 3.5 {
		t.Errorf("DistanceKm = %.2f, expected around 3 km", got)
	}

	if d := DistanceKm(a, a); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}

	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 51.53, MaxLat: 51.83, MinLon: 39.05, MaxLon: 39.40}

	if !box.Contains(Point{Lat: 51.66, Lon: 39.20}) {
		t.Error("point inside the box rejected")
	}
	if box.Contains(Point{Lat: 55.75, Lon: 37.62}) {
		t.Error("Moscow accepted as inside Voronezh box")
	}
	// Граница входит в зону.
	if !box.Contains(Point{Lat: 51.53, Lon: 39.05}) {
		t.Error("boundary point rejected")
	}
}

func TestBoundingBoxString(t *testing.T) {
	box := BoundingBox{MinLat: 51.53, MaxLat: 51.83, MinLon: 39.05, MaxLon: 39.40}
	want := "51.53,39.05~51.83,39.4"
	if got := box.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRouteURL(t *testing.T) {
	from := Point{Lat: 51.66, Lon: 39.2}
	to := Point{Lat: 51.7, Lon: 39.25}

	want := "https://yandex.ru/maps/?rtext=51.66,39.2~51.7,39.25&rtt=auto"
	if got := RouteURL("yandex.ru", from, to); got != want {
		t.Errorf("RouteURL = %q, want %q", got, want)
	}
}
