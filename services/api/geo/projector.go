// Package geo converts projected site coordinates to WGS84 longitude and
// latitude for map display.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// TransverseMercator describes a transverse Mercator grid on an ellipsoid.
type TransverseMercator struct {
	Name            string
	SemiMajorAxis   float64
	InverseFlatten  float64
	CentralMeridian float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64
	FalseNorthing   float64
}

// NZTM2000 is New Zealand Transverse Mercator 2000 on GRS80.
var NZTM2000 = TransverseMercator{
	Name:            "NZTM2000",
	SemiMajorAxis:   6378137.0,
	InverseFlatten:  298.257222101,
	CentralMeridian: 173,
	ScaleFactor:     0.9996,
	FalseEasting:    1600000,
	FalseNorthing:   10000000,
}

var errNonFinite = errors.New("non-finite coordinate")

// Projector performs the inverse projection with precomputed series terms.
type Projector struct {
	grid  TransverseMercator
	a     float64 // rectifying radius
	beta  [3]float64
	delta [3]float64
}

// NewProjector precomputes the Krüger series coefficients for grid.
func NewProjector(grid TransverseMercator) (*Projector, error) {
	if grid.SemiMajorAxis <= 0 || grid.InverseFlatten <= 0 || grid.ScaleFactor <= 0 {
		return nil, fmt.Errorf("invalid grid definition %q", grid.Name)
	}
	f := 1 / grid.InverseFlatten
	n := f / (2 - f)
	n2, n3, n4 := n*n, n*n*n, n*n*n*n

	return &Projector{
		grid: grid,
		a:    grid.SemiMajorAxis / (1 + n) * (1 + n2/4 + n4/64),
		beta: [3]float64{
			n/2 - 2*n2/3 + 37*n3/96,
			n2/48 + n3/15,
			17 * n3 / 480,
		},
		delta: [3]float64{
			2*n - 2*n2/3 - 2*n3,
			7*n2/3 - 8*n3/5,
			56 * n3 / 15,
		},
	}, nil
}

// MustNZTM2000 returns the NZTM2000 projector.
func MustNZTM2000() *Projector {
	p, err := NewProjector(NZTM2000)
	if err != nil {
		panic(err)
	}
	return p
}

// Project converts easting/northing metres to longitude/latitude degrees.
// Longitude is normalised to (-180, 180].
func (p *Projector) Project(easting, northing float64) (float64, float64, error) {
	if math.IsNaN(easting) || math.IsNaN(northing) || math.IsInf(easting, 0) || math.IsInf(northing, 0) {
		return 0, 0, errNonFinite
	}
	k := p.grid.ScaleFactor * p.a
	xi := (northing - p.grid.FalseNorthing) / k
	eta := (easting - p.grid.FalseEasting) / k

	xiP, etaP := xi, eta
	for j := 1; j <= 3; j++ {
		b := p.beta[j-1]
		fj := float64(2 * j)
		xiP -= b * math.Sin(fj*xi) * math.Cosh(fj*eta)
		etaP -= b * math.Cos(fj*xi) * math.Sinh(fj*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	lat := chi
	for j := 1; j <= 3; j++ {
		lat += p.delta[j-1] * math.Sin(float64(2*j)*chi)
	}
	lon := p.grid.CentralMeridian*math.Pi/180 + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	lonDeg, latDeg := normaliseLon(lon*180/math.Pi), lat*180/math.Pi
	if math.IsNaN(lonDeg) || math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90 {
		return 0, 0, fmt.Errorf("%w: %.0f,%.0f", errNonFinite, easting, northing)
	}
	return lonDeg, latDeg, nil
}

func normaliseLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon <= -180 {
		lon += 360
	} else if lon > 180 {
		lon -= 360
	}
	return lon
}
