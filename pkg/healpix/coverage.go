package healpix

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon is a spherical polygon given by its vertices (unit vectors) and a
// point known to lie inside it.
type Polygon struct {
	vertices []mgl64.Vec3
	inside   mgl64.Vec3
}

func NewPolygon(vertices []mgl64.Vec3, inside mgl64.Vec3) *Polygon {
	vs := make([]mgl64.Vec3, 0, len(vertices))
	for _, v := range vertices {
		vs = append(vs, v.Normalize())
	}
	return &Polygon{vertices: vs, inside: inside.Normalize()}
}

// Contains tests p by counting the edges crossed by the arc going from the
// inside point to p.
func (p *Polygon) Contains(pt mgl64.Vec3) bool {
	if AngularDistance(pt, p.inside) < 1e-12 {
		return true
	}
	crossings := 0
	n := len(p.vertices)
	for i := 0; i < n; i++ {
		if arcsIntersect(p.inside, pt, p.vertices[i], p.vertices[(i+1)%n]) {
			crossings++
		}
	}
	return crossings%2 == 0
}

// distanceToBoundary returns the smallest angular distance between pt and an edge.
func (p *Polygon) distanceToBoundary(pt mgl64.Vec3) float64 {
	d := math.Inf(1)
	n := len(p.vertices)
	for i := 0; i < n; i++ {
		d = math.Min(d, distanceToArc(pt, p.vertices[i], p.vertices[(i+1)%n]))
	}
	return d
}

// intersectsCap reports whether the cap (center, radius) overlaps the polygon.
func (p *Polygon) intersectsCap(center mgl64.Vec3, radius float64) bool {
	return p.Contains(center) || p.distanceToBoundary(center) <= radius
}

// PolygonCoverage returns the cells of depth overlapping the polygon. The
// result may contain a thin band of cells just outside the boundary.
func PolygonCoverage(depth uint8, vertices []mgl64.Vec3, inside mgl64.Vec3) *Cells {
	out := NewCells(depth)
	if len(vertices) < 3 {
		return out
	}
	poly := NewPolygon(vertices, inside)
	var visit func(c Cell)
	visit = func(c Cell) {
		if !poly.intersectsCap(c.CenterVector(), c.boundingRadius()) {
			return
		}
		if c.Depth == depth {
			out.Insert(c)
			return
		}
		for _, child := range c.Children() {
			visit(child)
		}
	}
	for b := uint64(0); b < NumBaseCells; b++ {
		visit(Cell{Depth: 0, Index: b})
	}
	return out
}

// onArc reports whether p, assumed on the great circle of (a, b), lies on the minor arc.
func onArc(p, a, b, normal mgl64.Vec3) bool {
	return a.Cross(p).Dot(normal) >= -1e-15 && p.Cross(b).Dot(normal) >= -1e-15
}

func arcsIntersect(a1, a2, b1, b2 mgl64.Vec3) bool {
	na := a1.Cross(a2)
	nb := b1.Cross(b2)
	dir := na.Cross(nb)
	if dir.Len() < 1e-15 {
		return false
	}
	dir = dir.Normalize()
	for _, p := range [2]mgl64.Vec3{dir, dir.Mul(-1)} {
		if onArc(p, a1, a2, na) && onArc(p, b1, b2, nb) {
			return true
		}
	}
	return false
}

func distanceToArc(p, a, b mgl64.Vec3) float64 {
	n := a.Cross(b)
	if n.Len() < 1e-15 {
		return AngularDistance(p, a)
	}
	n = n.Normalize()
	proj := p.Sub(n.Mul(p.Dot(n)))
	if proj.Len() > 1e-15 {
		proj = proj.Normalize()
		if onArc(proj, a, b, n) {
			return math.Asin(math.Min(1, math.Abs(p.Dot(n))))
		}
	}
	return math.Min(AngularDistance(p, a), AngularDistance(p, b))
}
