package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dms(d, m, s int64) []Rational {
	return []Rational{{Num: d, Den: 1}, {Num: m, Den: 1}, {Num: s, Den: 1}}
}

// TestNormalize_NorthEast tests the plain degrees/minutes/seconds conversion.
func TestNormalize_NorthEast(t *testing.T) {
	raw := RawGPSExif{LatDMS: dms(48, 51, 30), LatRef: "N", LonDMS: dms(2, 21, 8), LonRef: "E"}

	p, ok := Normalize(raw)

	require.True(t, ok)
	assert.InDelta(t, 48.858333, p.Latitude, 1e-6)
	assert.InDelta(t, 2.352222, p.Longitude, 1e-6)
}

// TestNormalize_HemisphereSign tests that S and W negate their axis.
func TestNormalize_HemisphereSign(t *testing.T) {
	north, ok := Normalize(RawGPSExif{LatDMS: dms(48, 51, 30), LatRef: "N", LonDMS: dms(2, 21, 8), LonRef: "E"})
	require.True(t, ok)

	south, ok := Normalize(RawGPSExif{LatDMS: dms(48, 51, 30), LatRef: "S", LonDMS: dms(2, 21, 8), LonRef: "W"})
	require.True(t, ok)

	assert.Equal(t, -north.Latitude, south.Latitude)
	assert.Equal(t, -north.Longitude, south.Longitude)
}

// TestNormalize_UnknownReferenceKeepsPositiveSign pins the permissive
// handling of unrecognized hemisphere references.
func TestNormalize_UnknownReferenceKeepsPositiveSign(t *testing.T) {
	for _, ref := range []string{"", "X", "s", "w", "South"} {
		p, ok := Normalize(RawGPSExif{LatDMS: dms(10, 0, 0), LatRef: ref, LonDMS: dms(20, 0, 0), LonRef: ref})

		require.True(t, ok, "ref %q", ref)
		assert.Equal(t, 10.0, p.Latitude, "ref %q", ref)
		assert.Equal(t, 20.0, p.Longitude, "ref %q", ref)
	}
}

// TestNormalize_Idempotent tests that repeated calls return the same point.
func TestNormalize_Idempotent(t *testing.T) {
	raw := RawGPSExif{
		LatDMS: []Rational{{Num: 4051, Den: 100}, {Num: 0, Den: 1}, {Num: 0, Den: 1}},
		LatRef: "N",
		LonDMS: []Rational{{Num: 74, Den: 1}, {Num: 21, Den: 2}, {Num: 0, Den: 1}},
		LonRef: "W",
	}

	first, ok1 := Normalize(raw)
	second, ok2 := Normalize(raw)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
	assert.InDelta(t, 40.51, first.Latitude, 1e-9)
	assert.InDelta(t, -74.175, first.Longitude, 1e-9)
}

// TestNormalize_Malformed tests that bad input yields no point instead of failing.
func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  RawGPSExif
	}{
		{"zero denominator", RawGPSExif{LatDMS: []Rational{{48, 1}, {51, 0}, {30, 1}}, LatRef: "N", LonDMS: dms(2, 0, 0), LonRef: "E"}},
		{"missing latitude", RawGPSExif{LonDMS: dms(2, 0, 0), LonRef: "E"}},
		{"missing longitude", RawGPSExif{LatDMS: dms(48, 0, 0), LatRef: "N"}},
		{"two components", RawGPSExif{LatDMS: []Rational{{48, 1}, {51, 1}}, LatRef: "N", LonDMS: dms(2, 0, 0), LonRef: "E"}},
		{"latitude out of range", RawGPSExif{LatDMS: dms(91, 0, 0), LatRef: "N", LonDMS: dms(2, 0, 0), LonRef: "E"}},
		{"longitude out of range", RawGPSExif{LatDMS: dms(48, 0, 0), LatRef: "N", LonDMS: dms(181, 0, 0), LonRef: "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Normalize(tt.raw)
			assert.False(t, ok)
		})
	}
}

// TestNewGeoPoint tests range and finiteness validation.
func TestNewGeoPoint(t *testing.T) {
	_, ok := NewGeoPoint(90, -180)
	assert.True(t, ok)

	_, ok = NewGeoPoint(90.0001, 0)
	assert.False(t, ok)

	_, ok = NewGeoPoint(0, -180.5)
	assert.False(t, ok)
}
