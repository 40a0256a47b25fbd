package fitstream

import (
	"math"

	"golang.org/x/image/math/f64"
)

// identityAffine is the identity affine matrix.
var identityAffine = f64.Aff3{1, 0, 0, 0, 1, 0}

// Affine matrices use the f64.Aff3 row-major layout:
//
//	| a  b  c |     x' = a*x + b*y + c
//	| d  e  f |     y' = d*x + e*y + f
//	| 0  0  1 |

// fitTransform returns the forward matrix mapping source pixels to destination
// pixels for one frame.
//
// Composition order, applied to a source point:
//
//	Translate(pan) -> Translate(-srcCenter) -> Rotate -> Scale -> Translate(dstCenter)
//
// pan is in source UV units. scale is the plan's UV magnification; it is
// converted to a pixel scale so rotation stays free of shear.
func fitTransform(src, dst Size, pan Vec2, rotationDegrees float64, scale Vec2) f64.Aff3 {
	sw, sh := float64(src.Width), float64(src.Height)
	dw, dh := float64(dst.Width), float64(dst.Height)

	kx := scale.X * dw / sw
	ky := scale.Y * dh / sh

	m := translateAffine(pan.X*sw-sw/2, pan.Y*sh-sh/2)
	if rotationDegrees != 0 {
		m = multiplyAffine(rotateAffine(rotationDegrees*math.Pi/180), m)
	}
	m = multiplyAffine(scaleAffine(kx, ky), m)
	return multiplyAffine(translateAffine(dw/2, dh/2), m)
}

func translateAffine(tx, ty float64) f64.Aff3 {
	return f64.Aff3{1, 0, tx, 0, 1, ty}
}

func scaleAffine(sx, sy float64) f64.Aff3 {
	return f64.Aff3{sx, 0, 0, 0, sy, 0}
}

// rotateAffine rotates clockwise on screen (Y down) by rad radians.
func rotateAffine(rad float64) f64.Aff3 {
	sin, cos := math.Sincos(rad)
	return f64.Aff3{cos, -sin, 0, sin, cos, 0}
}

// multiplyAffine multiplies two affine matrices: result = p * c, so c is
// applied first.
func multiplyAffine(p, c f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		p[0]*c[0] + p[1]*c[3],
		p[0]*c[1] + p[1]*c[4],
		p[0]*c[2] + p[1]*c[5] + p[2],
		p[3]*c[0] + p[4]*c[3],
		p[3]*c[1] + p[4]*c[4],
		p[3]*c[2] + p[4]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of an affine matrix.
// Returns the identity matrix if the matrix is singular (determinant near 0).
func invertAffine(m f64.Aff3) f64.Aff3 {
	det := m[0]*m[4] - m[1]*m[3]
	if det > -1e-12 && det < 1e-12 {
		return identityAffine
	}
	invDet := 1.0 / det
	a := m[4] * invDet
	b := -m[1] * invDet
	d := -m[3] * invDet
	e := m[0] * invDet
	return f64.Aff3{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}
