package math

import "math"

// Quadric is a symmetric 4x4 error quadric accumulated from weighted planes.
// Only the upper triangle is stored.
type Quadric struct {
	A00, A11, A22 float64
	A10, A20, A21 float64
	B0, B1, B2    float64
	C             float64
	W             float64
}

// PlaneQuadric builds the quadric of the plane n·p + d = 0 with weight w.
// n must be unit length.
func PlaneQuadric(n Vec3, d, w float64) Quadric {
	return Quadric{
		A00: w * n.X * n.X,
		A11: w * n.Y * n.Y,
		A22: w * n.Z * n.Z,
		A10: w * n.Y * n.X,
		A20: w * n.Z * n.X,
		A21: w * n.Z * n.Y,
		B0:  w * n.X * d,
		B1:  w * n.Y * d,
		B2:  w * n.Z * d,
		C:   w * d * d,
		W:   w,
	}
}

// Add accumulates other into q.
func (q *Quadric) Add(other Quadric) {
	q.A00 += other.A00
	q.A11 += other.A11
	q.A22 += other.A22
	q.A10 += other.A10
	q.A20 += other.A20
	q.A21 += other.A21
	q.B0 += other.B0
	q.B1 += other.B1
	q.B2 += other.B2
	q.C += other.C
	q.W += other.W
}

// Error returns the weighted mean squared distance from p to the planes of q.
func (q Quadric) Error(p Vec3) float64 {
	rx := q.B0
	ry := q.B1
	rz := q.B2

	rx += q.A10 * p.Y
	ry += q.A21 * p.Z
	rz += q.A20 * p.X

	rx *= 2
	ry *= 2
	rz *= 2

	rx += q.A00 * p.X
	ry += q.A11 * p.Y
	rz += q.A22 * p.Z

	r := q.C
	r += rx * p.X
	r += ry * p.Y
	r += rz * p.Z

	if q.W == 0 {
		return math.Abs(r)
	}
	return math.Abs(r) / q.W
}
