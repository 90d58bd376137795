package healpix

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane coordinates are expressed in units of π/4: x ∈ [0, 8), y ∈ [-2, 2].
// Base cells are diamonds of half-diagonal 1 centered on (2k+1, 1) for the
// northern row, (2k, 0) for the equatorial row and (2k+1, -1) for the southern one.

const quarterPi = math.Pi / 4

func baseCenter(b uint8) (float64, float64) {
	switch b >> 2 {
	case 0:
		return float64(2*b + 1), 1
	case 1:
		return float64(2 * (b - 4)), 0
	default:
		return float64(2*(b-8) + 1), -1
	}
}

// baseToLonLat maps local coordinates (u, v) ∈ [0,1]² of base cell b to the sphere.
// u grows from the S corner toward E, v from S toward W.
func baseToLonLat(b uint8, u, v float64) (float64, float64) {
	cx, cy := baseCenter(b)
	return planeToLonLat(cx+u-v, cy-1+u+v)
}

func planeToLonLat(x, y float64) (float64, float64) {
	x = math.Mod(x, 8)
	if x < 0 {
		x += 8
	}
	ay := math.Abs(y)
	if ay <= 1 {
		return normalizeLon(x * quarterPi), math.Asin(y * 2 / 3)
	}
	if ay > 2 {
		ay = 2
	}
	t := 2 - ay
	xc := 2*math.Floor(x/2) + 1
	lon := xc * quarterPi
	if t > 1e-15 {
		lon = (xc + (x-xc)/t) * quarterPi
	}
	lat := math.Asin(1 - t*t/3)
	if y < 0 {
		lat = -lat
	}
	return normalizeLon(lon), lat
}

func lonLatToPlane(lon, lat float64) (float64, float64) {
	xl := normalizeLon(lon) / quarterPi
	if xl >= 8 {
		xl = 0
	}
	z := math.Sin(lat)
	if math.Abs(z) <= 2.0/3.0 {
		return xl, z * 1.5
	}
	t := math.Sqrt(3 * (1 - math.Abs(z)))
	xc := 2*math.Floor(xl/2) + 1
	x := xc + (xl-xc)*t
	if z > 0 {
		return x, 2 - t
	}
	return x, t - 2
}

// planeToBase finds the base cell containing the plane point and the local
// (u, v) coordinates inside it.
func planeToBase(x, y float64) (uint8, float64, float64) {
	const eps = 1e-12
	if y > 0 {
		k := clampRow(math.Floor(x / 2))
		dx := x - float64(2*k+1)
		if math.Abs(dx)+math.Abs(y-1) <= 1+eps {
			return k, clampUnit((dx + y) / 2), clampUnit((y - dx) / 2)
		}
	} else if y < 0 {
		k := clampRow(math.Floor(x / 2))
		dx := x - float64(2*k+1)
		if math.Abs(dx)+math.Abs(y+1) <= 1+eps {
			return 8 + k, clampUnit((dx + y + 2) / 2), clampUnit((y + 2 - dx) / 2)
		}
	}
	k := uint8(int(math.Floor((x+1)/2)) % 4)
	dx := wrapDelta(x - float64(2*k))
	return 4 + k, clampUnit((dx + y + 1) / 2), clampUnit((y + 1 - dx) / 2)
}

func clampRow(f float64) uint8 {
	if f < 0 {
		return 0
	}
	if f > 3 {
		return 3
	}
	return uint8(f)
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// wrapDelta brings a longitude difference in plane units into [-4, 4).
func wrapDelta(dx float64) float64 {
	for dx >= 4 {
		dx -= 8
	}
	for dx < -4 {
		dx += 8
	}
	return dx
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 2*math.Pi)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	return lon
}

// LonLatToVector converts spherical coordinates (radians) to a unit vector.
func LonLatToVector(lon, lat float64) mgl64.Vec3 {
	cl := math.Cos(lat)
	return mgl64.Vec3{cl * math.Cos(lon), cl * math.Sin(lon), math.Sin(lat)}
}

// VectorToLonLat converts a direction to longitude in [0, 2π) and latitude.
func VectorToLonLat(v mgl64.Vec3) (float64, float64) {
	lon := math.Atan2(v.Y(), v.X())
	lat := math.Atan2(v.Z(), math.Hypot(v.X(), v.Y()))
	return normalizeLon(lon), lat
}

// AngularDistance returns the angle in radians between two unit vectors.
func AngularDistance(a, b mgl64.Vec3) float64 {
	return math.Atan2(a.Cross(b).Len(), a.Dot(b))
}
