package math

import "math"

const (
	quat48Scale   = 0x7FFF
	quat48Quarter = math.Pi / 4
	quat48Step    = math.Pi / 2 / quat48Scale
)

// expandQuat48 maps a 15-bit field onto [-pi/4, pi/4].
func expandQuat48(field uint64) float64 {
	return float64(field)*quat48Step - quat48Quarter
}

// compressQuat48 is the inverse of expandQuat48 with round-to-nearest.
func compressQuat48(v float64) uint64 {
	f := math.Round((v + quat48Quarter) / quat48Step)
	return uint64(Clamp(f, 0, quat48Scale))
}

// UnpackQuat48 rebuilds a unit quaternion from three 16-bit words.
//
// The 48-bit value z<<32 | y<<16 | x holds, from the low bit up: a 2-bit
// index of the omitted component, a sign bit, then three 15-bit fields at
// bit offsets 3, 18 and 33. The omitted component is sqrt(1 - sum(v^2)),
// inserted at the index among X, Y, Z, W. A set sign bit negates all four.
func UnpackQuat48(x, y, z uint16) Quat {
	pack := uint64(z)<<32 | uint64(y)<<16 | uint64(x)

	q1 := expandQuat48((pack >> 3) & quat48Scale)
	q2 := expandQuat48((pack >> 18) & quat48Scale)
	q3 := expandQuat48((pack >> 33) & quat48Scale)

	missing := math.Sqrt(math.Max(1-(q1*q1+q2*q2+q3*q3), 0))

	var v [4]float64
	switch pack & 0x3 {
	case 0:
		v = [4]float64{missing, q1, q2, q3}
	case 1:
		v = [4]float64{q1, missing, q2, q3}
	case 2:
		v = [4]float64{q1, q2, missing, q3}
	default:
		v = [4]float64{q1, q2, q3, missing}
	}

	if pack&0x4 != 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}

	return Quat{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2]), W: float32(v[3])}
}

// PackQuat48 encodes a unit quaternion into the three words read by
// UnpackQuat48. The largest-magnitude component is the one omitted.
func PackQuat48(q Quat) (x, y, z uint16) {
	q = q.Normalize()
	c := [4]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)}

	largest := 0
	for i := 1; i < 4; i++ {
		if math.Abs(c[i]) > math.Abs(c[largest]) {
			largest = i
		}
	}

	var pack uint64
	if c[largest] < 0 {
		for i := range c {
			c[i] = -c[i]
		}
		pack |= 0x4
	}
	pack |= uint64(largest)

	shift := uint(3)
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		pack |= compressQuat48(c[i]) << shift
		shift += 15
	}

	return uint16(pack), uint16(pack >> 16), uint16(pack >> 32)
}
