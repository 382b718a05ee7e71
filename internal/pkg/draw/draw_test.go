package draw

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

func TestDrawWinner_NoTickets(t *testing.T) {
	ticket, err := New().DrawWinner(0)

	require.NoError(t, err)
	assert.Nil(t, ticket)
}

func TestDrawWinner_NegativeTotal(t *testing.T) {
	_, err := New().DrawWinner(-1)

	assert.ErrorIs(t, err, ErrNegativeTotal)
}

func TestDrawWinner_Boundaries(t *testing.T) {
	for _, total := range []int{1, 2, 4, 5, 7, 1000} {
		high, err := NewWithSource(fixedSource(math.MaxUint64)).DrawWinner(total)
		require.NoError(t, err)
		require.NotNil(t, high)
		assert.Equal(t, total, *high, "largest source value must reach ticket %d", total)

		low, err := NewWithSource(fixedSource(1 << 32)).DrawWinner(total)
		require.NoError(t, err)
		require.NotNil(t, low)
		assert.Equal(t, 1, *low, "smallest accepted source value must map to ticket 1")
	}
}

func TestDrawWinner_StaysInRange(t *testing.T) {
	d := New()
	for i := 0; i < 2000; i++ {
		ticket, err := d.DrawWinner(3)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		require.GreaterOrEqual(t, *ticket, 1)
		require.LessOrEqual(t, *ticket, 3)
	}
}

func TestDrawWinner_Uniform(t *testing.T) {
	const (
		total   = 6
		samples = 60000
		// chi-square critical value for 5 degrees of freedom at p = 0.001
		critical = 20.515
	)

	d := NewWithSource(rand.NewPCG(42, 1337))
	counts := make([]int, total+1)
	for i := 0; i < samples; i++ {
		ticket, err := d.DrawWinner(total)
		require.NoError(t, err)
		counts[*ticket]++
	}

	assert.Zero(t, counts[0])
	expected := float64(samples) / total
	chi := 0.0
	for n := 1; n <= total; n++ {
		diff := float64(counts[n]) - expected
		chi += diff * diff / expected
	}
	assert.Less(t, chi, critical, "counts %v", counts[1:])
}
