// Package keys builds render cache keys.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
)

// Render returns the cache key for one rendered raster. The readable
// prefix keeps keys greppable in redis and truncates coordinates; the
// hash covers the full render identity (layer, exact bbox coordinates,
// time window, size) so bboxes differing below the displayed precision
// still get distinct keys.
func Render(layer model.LayerType, bbox model.BBox, from, to string, width, height int) string {
	coords := make([]string, 0, 4)
	for _, v := range bbox.Slice() {
		coords = append(coords, strconv.FormatFloat(v, 'g', -1, 64))
	}
	identity := fmt.Sprintf("%s|%s|%s|%s|%dx%d",
		layer, strings.Join(coords, ","), from, to, width, height)
	sum := xxhash.Sum64String(identity)
	return fmt.Sprintf("render:%s:%dx%d:%s:h=%016x", layer, width, height, bbox.String(), sum)
}

// Cell returns the index key holding render keys that intersect an H3
// cell.
func Cell(cell string) string {
	return "cellidx:" + cell
}
