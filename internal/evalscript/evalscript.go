// Package evalscript holds the fixed rendering programs sent to the
// imagery provider. One script per layer type, constant for the process
// lifetime.
package evalscript

import (
	"fmt"
	"strings"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
)

// True color: plain RGB composite from the visible bands.
const trueColor = `//VERSION=3
function setup() {
    return {
        input: ["B04", "B03", "B02"],
        output: { bands: 3 }
    };
}

function evaluatePixel(sample) {
    return [2.5 * sample.B04, 2.5 * sample.B03, 2.5 * sample.B02];
}
`

// NDVI: (B08-B04)/(B08+B04) pushed through a color ramp, brown soil to
// bright green dense vegetation.
const ndvi = `//VERSION=3
function setup() {
    return {
        input: ["B04", "B08"],
        output: { bands: 3 }
    };
}

const ramp = [
    [ -0.2, 0xc1a48e ],
    [ 0.0, 0xf0e0b2 ],
    [ 0.2, 0x336600 ],
    [ 0.6, 0x00ff00 ],
    [ 1.0, 0x00ff00 ]
];

const visualizer = new ColorRampVisualizer(ramp);

function evaluatePixel(sample) {
    let ndvi = (sample.B08 - sample.B04) / (sample.B08 + sample.B04);
    return visualizer.process(ndvi);
}
`

var scripts = map[model.LayerType]string{
	model.LayerTrueColor: trueColor,
	model.LayerNDVI:      ndvi,
}

// ForLayer returns the script for a known layer type.
func ForLayer(layer model.LayerType) (string, error) {
	s, ok := scripts[layer]
	if !ok {
		return "", fmt.Errorf("no evalscript for layer type %q", layer)
	}
	return s, nil
}

// Validate checks at startup that every supported layer has a non-empty
// script carrying a version pragma.
func Validate() error {
	for _, layer := range model.LayerTypes() {
		s, ok := scripts[layer]
		if !ok {
			return fmt.Errorf("layer type %q has no evalscript", layer)
		}
		if !strings.HasPrefix(strings.TrimSpace(s), "//VERSION=") {
			return fmt.Errorf("evalscript for %q is missing a version pragma", layer)
		}
	}
	return nil
}
