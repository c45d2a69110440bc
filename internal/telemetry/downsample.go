// Package telemetry holds the pure transformations applied to a flight's
// telemetry series before charting or export: point-count reduction, derived
// quantities (distance to home) and path color classification. All functions
// are single-pass and stateless; the series itself is never mutated.
package telemetry

import (
	"errors"
	"math"

	"github.com/avelari/skylog/internal/flight"
)

// ErrInvalidMaxPoints is returned when a caller asks for a non-positive
// point budget.
var ErrInvalidMaxPoints = errors.New("max points must be positive")

// DefaultMaxPoints is the chart point budget used when the caller does not
// supply one.
const DefaultMaxPoints = 5000

// Downsample reduces the series to at most maxPoints samples. The first and
// last original samples are always kept and all parallel arrays are cut with
// the same index set, so index alignment survives the reduction.
//
// Interior samples are chosen per bucket by largest deviation of the primary
// display channel (height, falling back to speed, then altitude) from the
// bucket mean, so local spikes survive instead of being flattened the way
// uniform striding would.
func Downsample(s *flight.Series, maxPoints int) (*flight.Series, error) {
	if maxPoints <= 0 {
		return nil, ErrInvalidMaxPoints
	}

	n := s.Len()
	if n <= maxPoints {
		return s, nil
	}
	if maxPoints == 1 {
		return s.Select([]int{0}), nil
	}
	if maxPoints == 2 {
		return s.Select([]int{0, n - 1}), nil
	}

	primary := primaryChannel(s)
	interior := maxPoints - 2

	indices := make([]int, 0, maxPoints)
	indices = append(indices, 0)

	// Bucket the interior samples [1, n-2] into `interior` equal spans.
	span := float64(n-2) / float64(interior)
	for b := 0; b < interior; b++ {
		lo := 1 + int(float64(b)*span)
		hi := 1 + int(float64(b+1)*span)
		if hi > n-1 {
			hi = n - 1
		}
		if lo >= hi {
			lo = hi - 1
		}
		indices = append(indices, pickBucketIndex(primary, lo, hi))
	}
	indices = append(indices, n-1)

	return s.Select(indices), nil
}

// primaryChannel picks the channel whose extrema should be preserved.
func primaryChannel(s *flight.Series) []*float64 {
	for _, ch := range [][]*float64{s.Height, s.Speed, s.Altitude} {
		if hasValues(ch) {
			return ch
		}
	}
	return nil
}

func hasValues(ch []*float64) bool {
	for _, v := range ch {
		if v != nil {
			return true
		}
	}
	return false
}

// pickBucketIndex returns the index in [lo, hi) whose primary-channel value
// deviates most from the bucket mean, or the bucket midpoint when the bucket
// carries no values at all.
func pickBucketIndex(primary []*float64, lo, hi int) int {
	if primary == nil {
		return lo + (hi-lo)/2
	}

	var sum float64
	var count int
	for i := lo; i < hi; i++ {
		if primary[i] != nil {
			sum += *primary[i]
			count++
		}
	}
	if count == 0 {
		return lo + (hi-lo)/2
	}
	mean := sum / float64(count)

	best := -1
	bestDev := -1.0
	for i := lo; i < hi; i++ {
		if primary[i] == nil {
			continue
		}
		dev := math.Abs(*primary[i] - mean)
		if dev > bestDev {
			best, bestDev = i, dev
		}
	}
	return best
}
