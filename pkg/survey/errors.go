package survey

import "errors"

// MaxLayers bounds the number of layers by the texture units a draw can bind.
const MaxLayers = 4

var (
	ErrDuplicateLayerName = errors.New("duplicate layer name")
	ErrTooManyLayers      = errors.New("too many layers")
	ErrLayerNotFound      = errors.New("layer not found")
	ErrNoSurveysLoaded    = errors.New("no surveys loaded")
	ErrPixelUnavailable   = errors.New("no tile loaded at position")
)
