package location

// Rational is an EXIF RATIONAL value.
type Rational struct {
	Num int64
	Den int64
}

// RawGPSExif carries the GPS tags exactly as the EXIF extractor found them.
type RawGPSExif struct {
	LatDMS []Rational
	LatRef string
	LonDMS []Rational
	LonRef string
}

// Normalize converts degrees/minutes/seconds rationals plus hemisphere
// references into a signed decimal GeoPoint.
//
// A reference other than "S" (latitude) or "W" (longitude) keeps the positive
// sign. Missing components, zero denominators and out-of-range results yield ok=false.
func Normalize(raw RawGPSExif) (GeoPoint, bool) {
	lat, ok := dmsToDecimal(raw.LatDMS)
	if !ok {
		return GeoPoint{}, false
	}
	lon, ok := dmsToDecimal(raw.LonDMS)
	if !ok {
		return GeoPoint{}, false
	}

	if raw.LatRef == "S" {
		lat = -lat
	}
	if raw.LonRef == "W" {
		lon = -lon
	}

	return NewGeoPoint(lat, lon)
}

// dmsToDecimal computes deg + min/60 + sec/3600 from exactly three rationals.
func dmsToDecimal(dms []Rational) (float64, bool) {
	if len(dms) != 3 {
		return 0, false
	}

	var parts [3]float64
	for i, r := range dms {
		if r.Den == 0 {
			return 0, false
		}
		parts[i] = float64(r.Num) / float64(r.Den)
	}

	return parts[0] + parts[1]/60.0 + parts[2]/3600.0, true
}
