package almanac

import "math"

// Kaaba coordinates, the fixed reference point for the qibla bearing.
const (
	KaabaLatitude  = 21.4225
	KaabaLongitude = 39.8262

	earthRadiusKM = 6371.0
)

// QiblaResult describes the direction and distance to the Kaaba.
type QiblaResult struct {
	// Bearing is the great-circle initial bearing in degrees clockwise
	// from true north, normalized to [0, 360).
	Bearing float64 `json:"bearing"`
	// DistanceKM is the great-circle distance in kilometers.
	DistanceKM float64 `json:"distance_km"`
}

// Qibla computes the initial great-circle bearing and haversine distance
// from the given coordinates to the Kaaba.
func Qibla(lat, lon float64) QiblaResult {
	φ1 := radians(lat)
	φ2 := radians(KaabaLatitude)
	Δλ := radians(KaabaLongitude - lon)

	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	bearing := math.Mod(degrees(math.Atan2(y, x))+360, 360)

	Δφ := φ2 - φ1
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	distance := 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return QiblaResult{Bearing: bearing, DistanceKM: distance}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
