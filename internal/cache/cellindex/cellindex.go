// Package cellindex maps coarse H3 cells to the render cache keys whose
// bboxes intersect them, so acquisition events over an area can drop the
// affected renders.
package cellindex

import (
	"context"
	"time"

	"github.com/avolkov/sentinel-gateway/internal/cache/keys"
	"github.com/avolkov/sentinel-gateway/internal/cache/redisstore"
)

type CellIndex interface {
	// Add records that the render key intersects each cell.
	Add(ctx context.Context, renderKey string, cells []string, ttl time.Duration) error

	// Keys returns the render keys indexed under the cells.
	Keys(ctx context.Context, cells []string) ([]string, error)

	// Drop removes the index entries for the cells.
	Drop(ctx context.Context, cells []string) error
}

type redisCellIndex struct {
	cli *redisstore.Client
}

func NewRedisIndex(cli *redisstore.Client) CellIndex {
	return &redisCellIndex{cli: cli}
}

func (ci *redisCellIndex) Add(ctx context.Context, renderKey string, cells []string, ttl time.Duration) error {
	for _, cell := range cells {
		if err := ci.cli.SAdd(ctx, keys.Cell(cell), ttl, renderKey); err != nil {
			return err
		}
	}
	return nil
}

func (ci *redisCellIndex) Keys(ctx context.Context, cells []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, cell := range cells {
		members, err := ci.cli.SMembers(ctx, keys.Cell(cell))
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

func (ci *redisCellIndex) Drop(ctx context.Context, cells []string) error {
	idx := make([]string, 0, len(cells))
	for _, cell := range cells {
		idx = append(idx, keys.Cell(cell))
	}
	return ci.cli.Del(ctx, idx...)
}
