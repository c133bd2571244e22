package shape

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweep(n int) []float32 {
	xs := make([]float32, n)
	for i := range xs {
		xs[i] = -1 + 2*float32(i)/float32(n-1)
	}
	return xs
}

func TestNoneIsIdentity(t *testing.T) {
	for _, amount := range []float32{1, 2.5, 50, 100} {
		for _, x := range sweep(41) {
			assert.Equal(t, x, None.Shape(x, amount))
		}
	}
}

func TestShapersStayBounded(t *testing.T) {
	for w := None; w < numShapers; w++ {
		t.Run(w.String(), func(t *testing.T) {
			for _, amount := range []float32{1, 3, 17, 100} {
				for _, x := range sweep(101) {
					y := w.Shape(x, amount)
					require.False(t, math.IsNaN(float64(y)), "NaN for x=%v amount=%v", x, amount)
					assert.LessOrEqual(t, float64(y), 1.0+1e-5)
					assert.GreaterOrEqual(t, float64(y), -1.0-1e-5)
				}
			}
		})
	}
}

func TestPowerCurves(t *testing.T) {
	assert.InDelta(t, 0.25, Power.Shape(0.5, 2), 1e-6)
	assert.InDelta(t, -0.25, Power.Shape(-0.5, 2), 1e-6)
	assert.InDelta(t, 0.5, InversePower.Shape(0.25, 2), 1e-6)
	assert.InDelta(t, -1, BiasedPower.Shape(-1, 4), 1e-6)
	assert.InDelta(t, 1, BiasedPower.Shape(1, 4), 1e-6)
	// u=0.5 -> 0.25 -> -0.5
	assert.InDelta(t, -0.5, BiasedPower.Shape(0, 2), 1e-6)
	assert.InDelta(t, math.Sqrt(0.5)*2-1, BiasedInversePower.Shape(0, 2), 1e-6)
}

func TestSyncWrapsIntoBipolarRange(t *testing.T) {
	assert.InDelta(t, 0.5, Sync.Shape(0.5, 1), 1e-6)
	assert.InDelta(t, -0.5, Sync.Shape(0.75, 2), 1e-6)
	assert.InDelta(t, -1, Sync.Shape(1, 1), 1e-6)
}

func TestQuantizeSteps(t *testing.T) {
	// amount 50 -> 2 steps per unit
	assert.InDelta(t, 0.5, Quantize.Shape(0.6, 50), 1e-6)
	assert.InDelta(t, 1, Quantize.Shape(0.8, 100), 1e-6)
	assert.InDelta(t, 0, Quantize.Shape(0.4, 100), 1e-6)
}

func TestQuantizeFractionalStepsStayInRange(t *testing.T) {
	for _, amount := range []float32{3, 7, 17, 33, 99} {
		assert.Equal(t, float32(1), Quantize.Shape(1, amount), "amount %v", amount)
		assert.Equal(t, float32(-1), Quantize.Shape(-1, amount), "amount %v", amount)
		for x := float32(-1); x <= 1; x += 0.01 {
			v := Quantize.Shape(x, amount)
			require.LessOrEqual(t, v, float32(1))
			require.GreaterOrEqual(t, v, float32(-1))
		}
	}
}

func TestShape8MatchesScalar(t *testing.T) {
	shapers := [8]Waveshaper{None, Power, InversePower, BiasedPower, BiasedInversePower, Sync, Sine, Quantize}
	x := [8]float32{-0.9, -0.5, -0.1, 0, 0.2, 0.4, 0.7, 1}
	amount := [8]float32{1, 2, 3, 4, 5, 6, 7, 8}
	var dst [8]float32
	Shape8(&dst, &shapers, &x, &amount)
	for i := range dst {
		assert.Equal(t, shapers[i].Shape(x[i], amount[i]), dst[i])
	}
}

func TestParseWaveshaper(t *testing.T) {
	for w := None; w < numShapers; w++ {
		got, err := ParseWaveshaper(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	_, err := ParseWaveshaper("fold")
	assert.Error(t, err)
	assert.Equal(t, "waveshaper(42)", Waveshaper(42).String())
}
