// Package invalidation defines acquisition events that drop cached
// renders. A new satellite pass over an area makes every cached raster
// intersecting it stale.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

type Event struct {
	Version    int       `json:"version"`
	Op         string    `json:"op"`
	Collection string    `json:"collection"`
	TS         time.Time `json:"ts"`
	BBox       *BBox     `json:"bbox"`
}

type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "acquisition", "reprocess", "purge":
	default:
		return fmt.Errorf("op must be acquisition|reprocess|purge")
	}
	if strings.TrimSpace(e.Collection) == "" {
		return fmt.Errorf("collection is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if e.BBox == nil {
		return fmt.Errorf("bbox is required")
	}
	bb := *e.BBox
	if !(bb.MinLon >= -180 && bb.MinLon <= 180 && bb.MaxLon >= -180 && bb.MaxLon <= 180) {
		return fmt.Errorf("bbox longitude out of range")
	}
	if !(bb.MinLat >= -90 && bb.MinLat <= 90 && bb.MaxLat >= -90 && bb.MaxLat <= 90) {
		return fmt.Errorf("bbox latitude out of range")
	}
	if !(bb.MaxLon > bb.MinLon && bb.MaxLat > bb.MinLat) {
		return fmt.Errorf("bbox must satisfy max>min on both axes")
	}
	return nil
}
