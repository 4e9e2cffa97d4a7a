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

package sphere

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrueAngularDistanceSamePoint(t *testing.T) {
	d := TrueAngularDistance(1.0, 0.5, 1.0, 0.5)
	require.InDelta(t, 0.0, d, 1e-12)
}

func TestTrueAngularDistanceQuarterCircle(t *testing.T) {
	d := TrueAngularDistance(0, 0, math.Pi/2, 0)
	require.InDelta(t, math.Pi/2, d, 1e-9)
}

func TestTrueAngularDistancePoleToEquator(t *testing.T) {
	d := TrueAngularDistance(0, math.Pi/2, 0, 0)
	require.InDelta(t, math.Pi/2, d, 1e-9)
}

func TestTrueAngularDistanceSymmetric(t *testing.T) {
	d1 := TrueAngularDistance(0.3, 0.2, 1.1, -0.4)
	d2 := TrueAngularDistance(1.1, -0.4, 0.3, 0.2)
	require.InDelta(t, d1, d2, 1e-12)
}

func TestGreatCircleBearingCardinal(t *testing.T) {
	// due north: bearing 0
	b := GreatCircleBearing(0, 0, 0, 0.1)
	require.InDelta(t, 0.0, b, 1e-9)

	// due east along the equator: bearing pi/2
	b = GreatCircleBearing(0, 0, 0.1, 0)
	require.InDelta(t, math.Pi/2, b, 1e-9)
}

func TestNormalizeRad(t *testing.T) {
	require.InDelta(t, 0.0, NormalizeRad(2*math.Pi), 1e-12)
	require.InDelta(t, math.Pi, NormalizeRad(-math.Pi), 1e-9)
	require.InDelta(t, 0.5, NormalizeRad(0.5), 1e-12)
}

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, -30, 360} {
		require.InDelta(t, deg, RadToDeg(DegToRad(deg)), 1e-9)
	}
}
