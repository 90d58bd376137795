package survey

// Meta is the display configuration of a layer.
type Meta struct {
	// Opacity in [0, 1]; a zero opacity layer is not drawn.
	Opacity float32
	// Additive blends the layer by adding its colors to the layers below.
	Additive bool
	// Tint multiplies the tile colors.
	Tint [3]float32
}

func DefaultMeta() Meta {
	return Meta{Opacity: 1, Tint: [3]float32{1, 1, 1}}
}

func (m Meta) Visible() bool {
	return m.Opacity > 0
}

// Properties describe a HiPS survey.
type Properties struct {
	URL               string
	MaxOrder          uint8
	TileSize          int
	Format            string
	LongitudeReversed bool
	// NumSlots is the texture slot budget; zero picks a default.
	NumSlots int
}

// DefaultSlots is the texture slot budget of a survey when unspecified.
const DefaultSlots = 256

// LayerSpec requests a survey displayed under a layer name.
type LayerSpec struct {
	Layer      string
	Properties Properties
	Meta       Meta
}
