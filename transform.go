package grove

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// composeTransform builds the affine matrix for a translate · rotate · scale
// sequence. Points are scaled first, then rotated, then translated.
// Rotation is in degrees and converted here, at the matrix boundary.
// Returns [a, b, c, d, tx, ty].
func composeTransform(pos Vec2, rotation, scale float64) [6]float64 {
	sin, cos := math.Sincos(mgl64.DegToRad(rotation))
	return [6]float64{
		cos * scale,
		sin * scale,
		-sin * scale,
		cos * scale,
		pos.X,
		pos.Y,
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// isSingular reports whether m collapses the plane (zero scale).
func isSingular(m [6]float64) bool {
	det := m[0]*m[3] - m[2]*m[1]
	return det > -1e-12 && det < 1e-12
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// matrixPosition returns the translation column.
func matrixPosition(m [6]float64) Vec2 {
	return Vec2{m[4], m[5]}
}

// matrixRotation returns the rotation encoded in the upper block, in
// degrees wrapped to [0, 360).
func matrixRotation(m [6]float64) float64 {
	return wrapDegrees(mgl64.RadToDeg(math.Atan2(m[1], m[0])))
}

// matrixScale returns the uniform scale: the length of the first basis vector.
func matrixScale(m [6]float64) float64 {
	return math.Hypot(m[0], m[1])
}

// wrapDegrees maps any angle onto [0, 360).
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
