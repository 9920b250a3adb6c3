// Package model defines core domain types shared across the service.
package model

import "fmt"

// LayerType selects the visualization the provider renders.
type LayerType string

const (
	LayerTrueColor LayerType = "true_color"
	LayerNDVI      LayerType = "ndvi"
)

// LayerTypes lists every supported layer. Evalscript coverage for each
// entry is checked at startup.
func LayerTypes() []LayerType {
	return []LayerType{LayerTrueColor, LayerNDVI}
}

func ParseLayerType(s string) (LayerType, error) {
	switch LayerType(s) {
	case LayerTrueColor:
		return LayerTrueColor, nil
	case LayerNDVI:
		return LayerNDVI, nil
	default:
		return "", fmt.Errorf("unknown layer type %q (must be true_color or ndvi)", s)
	}
}

// BBox is a WGS84 rectangle: min-lon, min-lat, max-lon, max-lat.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Slice returns the bbox in provider wire order.
func (b BBox) Slice() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

type RenderRequest struct {
	BBox  BBox
	Layer LayerType
}
