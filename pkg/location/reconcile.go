package location

// Reconcile combines the camera location and the host location.
//
// EXIF GPS is camera-reported and always outranks the IP location, which only
// describes the hosting server. The distance is set only when both exist.
func Reconcile(gps *LocationResult, ip *IPLocationResult) CorrelationResult {
	result := CorrelationResult{Authoritative: AuthorityNone}

	if gps != nil {
		g := *gps
		result.GPSLocation = &g
	}
	if ip != nil {
		i := *ip
		result.IPLocation = &i
	}

	switch {
	case result.GPSLocation != nil && result.IPLocation != nil:
		d := DistanceKm(result.GPSLocation.Point, result.IPLocation.Point)
		result.DistanceKm = &d
		result.Authoritative = AuthorityGPS
	case result.GPSLocation != nil:
		result.Authoritative = AuthorityGPS
	case result.IPLocation != nil:
		result.Authoritative = AuthorityIP
	}

	return result
}
