package healpix

import "math"

var (
	// TransitionLatitude separates the equatorial and polar regions (asin(2/3)).
	TransitionLatitude = math.Asin(2.0 / 3.0)
	// LatitudeOfSquareCell is the latitude at which cells are the least distorted.
	LatitudeOfSquareCell = 0.399_340_199_478_977_75
)

// LargestCenterToVertexDistance returns the largest angular distance between
// the center of the depth cell containing (lon, lat) and its four vertices.
func LargestCenterToVertexDistance(depth uint8, lon, lat float64) float64 {
	return Hash(depth, lon, lat).LargestVertexDistance()
}

// LargestVertexDistance is the largest angle between the cell center and a vertex.
func (c Cell) LargestVertexDistance() float64 {
	center := c.CenterVector()
	var d float64
	for _, v := range c.Vertices() {
		d = math.Max(d, AngularDistance(center, v))
	}
	return d
}

// boundingRadius is the radius of a cap centered on the cell center that
// contains the whole cell, edge bulges included.
func (c Cell) boundingRadius() float64 {
	center := c.CenterVector()
	var d float64
	for _, v := range c.Grid(2) {
		d = math.Max(d, AngularDistance(center, v))
	}
	return d * 1.05
}
