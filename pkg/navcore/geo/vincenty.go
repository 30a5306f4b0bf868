package geo

import (
	"errors"
	"math"
)

// WGS-84 ellipsoid constants.
const (
	wgs84SemiMajorAxis float64 = 6378137
	wgs84Flattening    float64 = 1 / 298.257223563

	// NauticalMile is the length, in meters, of one nautical mile.
	NauticalMile float64 = 1852

	// SphericalEarthRadiusNM is the mean spherical earth radius used by
	// the haversine fallback, in nautical miles.
	SphericalEarthRadiusNM float64 = 3440.065

	vincentyConvergence = 1e-12
	vincentyMaxIter     = 200
)

// ErrVincentyNonConvergence is returned by Inverse when the
// iteration fails to converge, which happens for near-antipodal point
// pairs. Callers should fall back to Haversine in that case.
var ErrVincentyNonConvergence = errors.New("vincenty: iteration did not converge")

// semiMinorAxis is the WGS-84 semi-minor axis, derived from a and f.
func semiMinorAxis() float64 {
	return wgs84SemiMajorAxis * (1 - wgs84Flattening)
}

// Inverse solves the geodesic inverse problem on the WGS-84 ellipsoid:
// given two points, it returns the distance between them in nautical
// miles and the initial true bearing from p1 to p2, in degrees [0,360).
func Inverse(p1, p2 Point) (distanceNM, initialBearing float64, err error) {
	lat1, lon1 := radians(p1.Latitude()), radians(p1.Longitude())
	lat2, lon2 := radians(p2.Latitude()), radians(p2.Longitude())

	if lat1 == lat2 && lon1 == lon2 {
		return 0, 0, nil
	}

	a, f := wgs84SemiMajorAxis, wgs84Flattening
	b := semiMinorAxis()

	L := lon2 - lon1
	U1 := math.Atan((1 - f) * math.Tan(lat1))
	U2 := math.Atan((1 - f) * math.Tan(lat2))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	lambda := L
	var sinSigma, cosSigma, sigma, sinAlpha, cosSqAlpha, cos2SigmaM float64

	converged := false
	for i := 0; i < vincentyMaxIter; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) +
			math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			// Coincident points.
			return 0, 0, nil
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha = cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		} else {
			cos2SigmaM = 0 // equatorial line
		}
		C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		lambdaPrev := lambda
		lambda = L + (1-C)*f*sinAlpha*(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-lambdaPrev) < vincentyConvergence {
			converged = true
			break
		}
	}
	if !converged {
		return 0, 0, ErrVincentyNonConvergence
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	sMeters := b * A * (sigma - deltaSigma)

	sinLambda, cosLambda := math.Sincos(lambda)
	alpha1 := math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)

	return sMeters / NauticalMile, NormalizeHeading(degrees(alpha1)), nil
}

// Direct solves the geodesic direct problem: given a start point, an
// initial true bearing in degrees, and a distance in nautical miles,
// returns the destination point. Used by the terrain analyzer to sample
// points every 5 NM along a great-circle leg.
func Direct(p1 Point, initialBearingDeg, distanceNM float64) Point {
	lat1, lon1 := radians(p1.Latitude()), radians(p1.Longitude())
	alpha1 := radians(initialBearingDeg)
	s := distanceNM * NauticalMile

	a, f := wgs84SemiMajorAxis, wgs84Flattening
	b := semiMinorAxis()

	sinAlpha1, cosAlpha1 := math.Sincos(alpha1)
	tanU1 := (1 - f) * math.Tan(lat1)
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))

	sigma := s / (b * A)
	sigmaP := 2 * math.Pi
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; math.Abs(sigma-sigmaP) > vincentyConvergence && i < vincentyMaxIter; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
		sigmaP = sigma
		sigma = s/(b*A) + deltaSigma
	}

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat2 := math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp))
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
	L := lambda - (1-C)*f*sinAlpha*(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
	lon2 := lon1 + L

	return NewPoint(degrees(lat2), degrees(lon2))
}

// Haversine computes great-circle distance (NM) and initial bearing
// (degrees) on a sphere of radius SphericalEarthRadiusNM. Used as the
// fallback when Inverse fails to converge for near-antipodal pairs.
func Haversine(p1, p2 Point) (distanceNM, initialBearing float64) {
	lat1, lon1 := radians(p1.Latitude()), radians(p1.Longitude())
	lat2, lon2 := radians(p2.Latitude()), radians(p2.Longitude())
	dLat := lat2 - lat1
	dLon := lon2 - lon1

	sinDLat2, sinDLon2 := math.Sin(dLat/2), math.Sin(dLon/2)
	h := sinDLat2*sinDLat2 + math.Cos(lat1)*math.Cos(lat2)*sinDLon2*sinDLon2
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	distanceNM = SphericalEarthRadiusNM * c

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	initialBearing = NormalizeHeading(degrees(math.Atan2(y, x)))
	return distanceNM, initialBearing
}

// DistanceAndBearing computes the distance (NM) and initial true bearing
// (degrees) between p1 and p2, using Vincenty's ellipsoidal inverse and
// falling back to the spherical haversine approximation if Vincenty fails
// to converge (the near-antipodal corner case). usedFallback reports
// whether the fallback path was taken, so callers can flag the
// affected leg.
func DistanceAndBearing(p1, p2 Point) (distanceNM, bearing float64, usedFallback bool) {
	d, b, err := Inverse(p1, p2)
	if err != nil {
		d, b = Haversine(p1, p2)
		return d, b, true
	}
	return d, b, false
}
