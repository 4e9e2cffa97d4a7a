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

package gridder

import (
	"sync"

	"github.com/pbnjay/memory"

	"github.com/mlnoga/skygrid/internal/healpix"
)

// maxY is the packing base for the x*maxY+y output-pixel key: a pragmatic
// hash-key construction that avoids a custom pair hasher, at the cost of
// requiring y < maxY (spec.md's Design Notes, §9).
const maxY = 1 << 30

// packPixel encodes a 2D output-pixel index as a single int64 map key.
func packPixel(x, y int) int64 { return int64(x)*maxY + int64(y) }

// unpackPixel decodes a packed output-pixel index back to (x, y).
func unpackPixel(p int64) (x, y int) { return int(p / maxY), int(p % maxY) }

// outputPixel is one target pixel: its packed index and sky coordinate.
// Pixels with non-finite coordinates are filtered out before this struct
// is ever constructed (spec.md §7's one silent-filtering exception).
type outputPixel struct {
	Packed int64
	X, Y   int
	LonRad float64
	LatRad float64
}

// discCacheBudget bounds the number of entries kept in the disc cache,
// derived from total system memory the way the teacher's ops.Context sizes
// its stacking batches off memory.TotalMemory(). This is a supplement to
// spec.md, which documents the cache but not a bound (SPEC_FULL.md §12).
// SetKernel replaces the whole cache when the geometry changes, so the
// budget bounds one cache, which otherwise grows with the number of
// distinct HEALPix cells the gridded samples fall in.
func discCacheBudget() int {
	const bytesPerEntry = 4096 // heuristic: an average cached neighbor-id slice
	const fractionOfMemory = 20 // use at most 1/20th of system memory for the cache
	n := int(memory.TotalMemory() / fractionOfMemory / bytesPerEntry)
	if n < 4096 {
		n = 4096
	}
	return n
}

// discCache memoizes healpix.QueryDisc results, keyed by the HEALPix cell
// id of the *cell center*, not the exact input coordinate -- which is why
// callers must pad the query radius by one cell's resolution (spec.md §3,
// "Rendezvous maps").
type discCache struct {
	mu      sync.Mutex
	m       map[int64][]int64
	order   []int64 // FIFO insertion order, for budget-driven eviction
	budget  int
	nside   int
	radius  float64
}

func newDiscCache(nside int, radiusRad float64) *discCache {
	return &discCache{
		m:      make(map[int64][]int64),
		budget: discCacheBudget(),
		nside:  nside,
		radius: radiusRad,
	}
}

// lookup returns the cached (or freshly computed and cached) query-disc
// result for HEALPix cell h.
func (c *discCache) lookup(h int64) []int64 {
	c.mu.Lock()
	if ids, ok := c.m[h]; ok {
		c.mu.Unlock()
		return ids
	}
	c.mu.Unlock()

	lonRad, latRad := healpix.Pix2Ang(c.nside, h)
	ids := healpix.QueryDisc(c.nside, lonRad, latRad, c.radius)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[h]; !ok {
		if len(c.order) >= c.budget {
			evict := len(c.order) / 2
			for _, oldKey := range c.order[:evict] {
				delete(c.m, oldKey)
			}
			c.order = c.order[evict:]
		}
		c.m[h] = ids
		c.order = append(c.order, h)
	}
	return c.m[h]
}

// targetIndex is built once per target geometry + nside and is stable
// across grid() calls as long as neither changes (spec.md §3).
type targetIndex struct {
	nside             int
	targetPixelsByHPX map[int64][]int // HEALPix cell -> indices into the outputs slice
}

// buildTargetIndex computes, for every output pixel, the HEALPix cell its
// center falls in, and groups output pixel indices by cell. Built
// single-threaded, matching spec.md §5's "read-only during the
// accumulation phase; constructed single-threaded" requirement.
func buildTargetIndex(nside int, outputs []outputPixel) *targetIndex {
	idx := &targetIndex{nside: nside, targetPixelsByHPX: make(map[int64][]int, len(outputs))}
	for i, o := range outputs {
		h := healpix.Ang2Pix(nside, o.LonRad, o.LatRad)
		idx.targetPixelsByHPX[h] = append(idx.targetPixelsByHPX[h], i)
	}
	return idx
}

// buildOutputToInputs computes, for each sample, the HEALPix cells within
// discSize of it (via the disc cache) and fans that out to every output
// pixel living in those cells, appending the sample's index to that
// pixel's candidate list. Also single-threaded, per spec.md §5.
func buildOutputToInputs(idx *targetIndex, cache *discCache, outputs []outputPixel, lonsRad, latsRad []float64) map[int][]int {
	outputToInputs := make(map[int][]int)
	for i := range lonsRad {
		h := healpix.Ang2Pix(idx.nside, lonsRad[i], latsRad[i])
		for _, hNeighbor := range cache.lookup(h) {
			for _, outIdx := range idx.targetPixelsByHPX[hNeighbor] {
				outputToInputs[outIdx] = append(outputToInputs[outIdx], i)
			}
		}
	}
	return outputToInputs
}
