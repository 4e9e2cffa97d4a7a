// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package healpix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlnoga/skygrid/internal/sphere"
)

func TestAng2PixInRange(t *testing.T) {
	nside := 32
	npix := int64(12 * nside * nside)
	for _, c := range []struct{ lon, lat float64 }{
		{0, 0}, {1.5, 0.7}, {6.0, -1.4}, {3.14159, 1.5}, {0, -1.5},
	} {
		p := Ang2Pix(nside, c.lon, c.lat)
		require.GreaterOrEqual(t, p, int64(0))
		require.Less(t, p, npix)
	}
}

func TestPix2AngRoundTrip(t *testing.T) {
	nside := 64
	npix := int64(12 * nside * nside)
	for ipix := int64(0); ipix < npix; ipix += 137 {
		lon, lat := Pix2Ang(nside, ipix)
		back := Ang2Pix(nside, lon, lat)
		require.Equal(t, ipix, back, "pix2ang(%d) -> ang2pix should round-trip", ipix)
	}
}

func TestPix2AngLatitudeRange(t *testing.T) {
	nside := 16
	npix := int64(12 * nside * nside)
	for ipix := int64(0); ipix < npix; ipix++ {
		_, lat := Pix2Ang(nside, ipix)
		require.LessOrEqual(t, lat, math.Pi/2+1e-9)
		require.GreaterOrEqual(t, lat, -math.Pi/2-1e-9)
	}
}

func TestQueryDiscContainsCenterPixel(t *testing.T) {
	nside := 32
	lon, lat := 2.1, 0.3
	center := Ang2Pix(nside, lon, lat)
	ids := QueryDisc(nside, lon, lat, sphere.DegToRad(1.0))
	require.Contains(t, ids, center)
}

func TestQueryDiscGrowsWithRadius(t *testing.T) {
	nside := 32
	lon, lat := 1.0, 0.5
	small := QueryDisc(nside, lon, lat, sphere.DegToRad(0.5))
	large := QueryDisc(nside, lon, lat, sphere.DegToRad(2.0))
	require.Greater(t, len(large), len(small))
}

func TestQueryDiscAllWithinRadiusPlusResolution(t *testing.T) {
	nside := 32
	lon, lat := 0.5, 0.2
	radiusRad := sphere.DegToRad(1.0)
	ids := QueryDisc(nside, lon, lat, radiusRad)
	// every ring here lies in the equatorial belt, where pixels are spaced
	// pi/(2*nside) apart in longitude; the halo adds at most the ceil slack,
	// the one extra pixel per side and the half-pixel offset of the nearest
	// pixel to the centre, i.e. under 2.5 spacings beyond the disc edge.
	tol := radiusRad + 2.5*math.Pi/(2*float64(nside))
	for _, id := range ids {
		plon, plat := Pix2Ang(nside, id)
		d := sphere.TrueAngularDistance(lon, lat, plon, plat)
		require.LessOrEqual(t, d, tol)
	}
}

func TestQueryDiscPoleHandledWithoutPanic(t *testing.T) {
	nside := 16
	require.NotPanics(t, func() {
		QueryDisc(nside, 0, math.Pi/2, sphere.DegToRad(1.0))
		QueryDisc(nside, 0, -math.Pi/2, sphere.DegToRad(1.0))
	})
}

func TestNsideForResolutionMonotonic(t *testing.T) {
	coarse := NsideForResolution(sphere.DegToRad(1.0))
	fine := NsideForResolution(sphere.DegToRad(0.01))
	require.Greater(t, fine, coarse)
}
