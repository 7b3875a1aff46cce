package coordscale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGCD(t *testing.T) {
	require.EqualValues(t, 100, gcd(100, 100))
	require.EqualValues(t, 10, gcd(100, 10))
	require.EqualValues(t, 1, gcd(100, 3))
	require.EqualValues(t, 100, gcd(0, 100))
	require.EqualValues(t, 100, gcd(100, 0))
}

func TestRescale(t *testing.T) {
	// Native granularity 100 (1e-7 degree units) reconciles to an archive
	// scale of nativeScale/100; rescaling a native value back through that
	// scale must reproduce the granularity-100 value.
	scale := nativeScale / 100
	require.EqualValues(t, 1234, Rescale(1234*100, scale))
	require.EqualValues(t, 0, Rescale(0, scale))
	require.EqualValues(t, -5, Rescale(-500, scale))
}

func TestRescaleFinerArchiveScale(t *testing.T) {
	// gcd of two blocks with granularities 100 and 1000 is 100, so the
	// archive scale is driven by the finer block; a native value that is not
	// a multiple of 100 loses the digits below it, truncated toward zero.
	scale := nativeScale / 100
	require.EqualValues(t, 12, Rescale(1234, scale))
}
