package location

import "math"

const (
	// WGS-84 ellipsoid.
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	wgs84B = (1 - wgs84F) * wgs84A

	meanEarthRadiusKm = 6371.0088

	vincentyMaxIterations = 200
	vincentyEpsilon       = 1e-12
)

// DistanceKm returns the geodesic distance between a and b on the WGS-84
// ellipsoid (Vincenty inverse). Nearly antipodal pairs where the iteration
// does not converge fall back to the spherical haversine distance.
func DistanceKm(a, b GeoPoint) float64 {
	if d, ok := vincentyKm(a, b); ok {
		return d
	}
	return HaversineKm(a, b)
}

// HaversineKm is the great-circle distance on a sphere of mean Earth radius.
func HaversineKm(a, b GeoPoint) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))

	return 2 * meanEarthRadiusKm * math.Asin(math.Sqrt(h))
}

func vincentyKm(a, b GeoPoint) (float64, bool) {
	L := toRad(b.Longitude - a.Longitude)
	u1 := math.Atan((1 - wgs84F) * math.Tan(toRad(a.Latitude)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(toRad(b.Latitude)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := L
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64

	converged := false
	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) +
			math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			return 0, true // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		} else {
			cos2SigmaM = 0 // equatorial line
		}
		c := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = L + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-prev) < vincentyEpsilon {
			converged = true
			break
		}
	}
	if !converged {
		return 0, false
	}

	uSq := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	meters := wgs84B * bigA * (sigma - deltaSigma)
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0, false
	}
	return meters / 1000, true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
