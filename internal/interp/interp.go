// Package interp holds the small interpolation helpers shared by the
// parameter mapping and shaping code.
package interp

// Lerp returns a + (b-a)*t. t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// CatmullRom evaluates the uniform Catmull-Rom segment between p1 and p2
// at t in [0,1].
func CatmullRom(p0, p1, p2, p3, t float32) float32 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// Curve is a set of uniformly spaced control points over [0,1].
type Curve struct {
	points []float32
}

// NewCurve copies points into a curve. Fewer than two points make a
// constant curve.
func NewCurve(points ...float32) Curve {
	p := make([]float32, len(points))
	copy(p, points)
	return Curve{points: p}
}

// At evaluates the curve at x, clamped to [0,1]. The end segments reuse the
// end point as the missing neighbour.
func (c Curve) At(x float32) float32 {
	n := len(c.points)
	switch n {
	case 0:
		return 0
	case 1:
		return c.points[0]
	}
	if x <= 0 {
		return c.points[0]
	}
	if x >= 1 {
		return c.points[n-1]
	}
	pos := x * float32(n-1)
	i := int(pos)
	if i >= n-1 {
		i = n - 2
	}
	t := pos - float32(i)
	p1 := c.points[i]
	p2 := c.points[i+1]
	p0 := p1
	if i > 0 {
		p0 = c.points[i-1]
	}
	p3 := p2
	if i+2 < n {
		p3 = c.points[i+2]
	}
	return CatmullRom(p0, p1, p2, p3, t)
}

// Len returns the number of control points.
func (c Curve) Len() int { return len(c.points) }
