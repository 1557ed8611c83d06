package bloom

import "math"

// Matrix is a 2D affine transform stored as [a, b, c, d, tx, ty].
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the multiplicative unit.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// Identity resets m to the identity transform.
func (m *Matrix) Identity() {
	*m = IdentityMatrix
}

// Multiply returns p * c. Applied to a point, c runs first and p second.
func Multiply(p, c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Compose right-multiplies m by other in place (m = m * other), so other is
// applied in m's local space. A world transform is built as
// parentWorld.Compose(local).
func (m *Matrix) Compose(other Matrix) {
	*m = Multiply(*m, other)
}

// Translate composes a translation by (x, y).
func (m *Matrix) Translate(x, y float64) {
	m[4] += m[0]*x + m[2]*y
	m[5] += m[1]*x + m[3]*y
}

// Scale composes a scale by (sx, sy).
func (m *Matrix) Scale(sx, sy float64) {
	m[0] *= sx
	m[1] *= sx
	m[2] *= sy
	m[3] *= sy
}

// Rotate composes a clockwise rotation (Y down) by the given degrees.
func (m *Matrix) Rotate(degrees float64) {
	if degrees == 0 {
		return
	}
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	a, b, c, d := m[0], m[1], m[2], m[3]
	m[0] = a*cos + c*sin
	m[1] = b*cos + d*sin
	m[2] = c*cos - a*sin
	m[3] = d*cos - b*sin
}

// Determinant returns a*d - c*b.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Invert returns the inverse of m. A singular matrix yields Inf/NaN
// components; callers that can produce zero scales must check first.
func (m Matrix) Invert() Matrix {
	invDet := 1.0 / m.Determinant()
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// TransformPoint applies m to (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// InverseTransformPoint maps (x, y) through the inverse of m.
func (m Matrix) InverseTransformPoint(x, y float64) (float64, float64) {
	det := m.Determinant()
	dx := x - m[4]
	dy := y - m[5]
	return (m[3]*dx - m[2]*dy) / det, (m[0]*dy - m[1]*dx) / det
}

// Equal reports whether every component of m and o is within eps.
func (m Matrix) Equal(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
