// Package h3mapper maps geographic bboxes to H3 cells used for render
// cache indexing and invalidation.
package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForBBox returns the unique, sorted cells covering the bbox at the
// given resolution. Cell centers and the bbox corners are both included
// so thin bboxes still map to at least one cell.
func (m *Mapper) CellsForBBox(bb model.BBox, res int) ([]string, error) {
	if res < 0 || res > 15 {
		return nil, fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	if bb.MaxLon <= bb.MinLon || bb.MaxLat <= bb.MinLat {
		return nil, errors.New("bbox must satisfy max>min on both axes")
	}

	outer := h3.GeoLoop{
		{Lat: bb.MinLat, Lng: bb.MinLon},
		{Lat: bb.MinLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MinLon},
	}
	indexes, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	seen := make(map[string]struct{}, len(indexes)+4)
	out := make([]string, 0, len(indexes)+4)
	add := func(c h3.Cell) {
		s := c.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, idx := range indexes {
		add(idx)
	}

	// PolygonToCells keeps only cells whose center falls inside the loop;
	// a bbox smaller than one cell would come back empty. Anchor on the
	// corner cells as well.
	for _, ll := range outer {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: ll.Lat, Lng: ll.Lng}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 corner cell: %w", err)
		}
		add(cell)
	}

	sort.Strings(out)
	return out, nil
}
