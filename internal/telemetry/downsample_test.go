package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelari/skylog/internal/flight"
)

func fp(v float64) *float64 { return &v }

// buildSeries builds an n-sample series with positions walking north from
// (47, -122) and a height curve with a spike in the middle.
func buildSeries(n int) *flight.Series {
	s := &flight.Series{
		Time:      make([]float64, n),
		Latitude:  make([]*float64, n),
		Longitude: make([]*float64, n),
		Height:    make([]*float64, n),
		Speed:     make([]*float64, n),
	}
	for i := 0; i < n; i++ {
		s.Time[i] = float64(i) * 0.1
		s.Latitude[i] = fp(47.0 + float64(i)*0.0001)
		s.Longitude[i] = fp(-122.0)
		s.Height[i] = fp(20.0)
		s.Speed[i] = fp(5.0)
	}
	// One spike that uniform striding would be likely to miss.
	s.Height[n/2] = fp(120.0)
	return s
}

func TestDownsampleNoopWhenSmall(t *testing.T) {
	s := buildSeries(100)
	out, err := Downsample(s, 100)
	require.NoError(t, err)
	assert.Same(t, s, out)

	out, err = Downsample(s, 5000)
	require.NoError(t, err)
	assert.Same(t, s, out)
}

func TestDownsampleInvalidMaxPoints(t *testing.T) {
	s := buildSeries(10)
	for _, m := range []int{0, -1, -5000} {
		_, err := Downsample(s, m)
		assert.ErrorIs(t, err, ErrInvalidMaxPoints)
	}
}

func TestDownsampleKeepsEndpointsAndAlignment(t *testing.T) {
	s := buildSeries(10000)
	out, err := Downsample(s, 500)
	require.NoError(t, err)

	assert.Equal(t, 500, out.Len())
	require.NoError(t, out.Validate())

	// First and last original samples always survive.
	assert.Equal(t, s.Time[0], out.Time[0])
	assert.Equal(t, s.Time[len(s.Time)-1], out.Time[out.Len()-1])
	assert.Equal(t, *s.Latitude[0], *out.Latitude[0])
	assert.Equal(t, *s.Latitude[len(s.Latitude)-1], *out.Latitude[out.Len()-1])

	// All parallel arrays were cut with the same indices: time strictly
	// increases and latitude tracks it sample for sample.
	for i := 1; i < out.Len(); i++ {
		assert.Less(t, out.Time[i-1], out.Time[i])
		wantLat := 47.0 + out.Time[i]/0.1*0.0001
		assert.InDelta(t, wantLat, *out.Latitude[i], 1e-9)
	}
}

func TestDownsamplePreservesSpike(t *testing.T) {
	s := buildSeries(10000)
	out, err := Downsample(s, 200)
	require.NoError(t, err)

	maxH := 0.0
	for _, h := range out.Height {
		if h != nil {
			maxH = math.Max(maxH, *h)
		}
	}
	assert.Equal(t, 120.0, maxH, "height spike must survive downsampling")
}

func TestDownsampleTinyBudgets(t *testing.T) {
	s := buildSeries(50)

	out, err := Downsample(s, 2)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, s.Time[0], out.Time[0])
	assert.Equal(t, s.Time[49], out.Time[1])

	out, err = Downsample(s, 1)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, s.Time[0], out.Time[0])
}

func TestDownsampleDeterministic(t *testing.T) {
	s := buildSeries(3000)
	a, err := Downsample(s, 300)
	require.NoError(t, err)
	b, err := Downsample(s, 300)
	require.NoError(t, err)
	assert.Equal(t, a.Time, b.Time)
}
