// Package gateway runs the render pipeline: evalscript selection,
// provider round-trip, optional cache, snapshot persistence.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avolkov/sentinel-gateway/internal/cache"
	"github.com/avolkov/sentinel-gateway/internal/cache/cellindex"
	"github.com/avolkov/sentinel-gateway/internal/cache/keys"
	"github.com/avolkov/sentinel-gateway/internal/core/model"
	"github.com/avolkov/sentinel-gateway/internal/core/observability"
	"github.com/avolkov/sentinel-gateway/internal/core/router"
	"github.com/avolkov/sentinel-gateway/internal/evalscript"
	"github.com/avolkov/sentinel-gateway/internal/logger"
	h3mapper "github.com/avolkov/sentinel-gateway/internal/mapper/h3"
	"github.com/avolkov/sentinel-gateway/internal/provider/sentinelhub"
	"github.com/avolkov/sentinel-gateway/internal/snapshot"
)

// Renderer is the provider round-trip.
type Renderer interface {
	Render(ctx context.Context, bbox model.BBox, evalscript string) ([]byte, error)
}

// CacheConfig wires the optional render cache. Zero value disables it.
type CacheConfig struct {
	Store cache.Interface
	Index cellindex.CellIndex
	TTL   time.Duration
	Res   int
}

type Gateway struct {
	logger   *slog.Logger
	provider Renderer
	snaps    *snapshot.Store

	cache  cache.Interface
	index  cellindex.CellIndex
	mapper *h3mapper.Mapper
	ttl    time.Duration
	res    int
}

func New(logger *slog.Logger, provider Renderer, snaps *snapshot.Store, cc CacheConfig) *Gateway {
	return &Gateway{
		logger:   logger,
		provider: provider,
		snaps:    snaps,
		cache:    cc.Store,
		index:    cc.Index,
		mapper:   h3mapper.New(),
		ttl:      cc.TTL,
		res:      cc.Res,
	}
}

// Ready reports whether the gateway can serve renders.
func (g *Gateway) Ready() bool {
	return g.provider != nil && g.snaps != nil
}

// HandleRender fetches one raster and streams it back. The snapshot is
// overwritten before the bytes go out, so a following download returns
// exactly what this call produced.
func (g *Gateway) HandleRender(ctx context.Context, w http.ResponseWriter, r *http.Request, req model.RenderRequest) {
	ctx = logger.WithLayer(ctx, string(req.Layer))

	script, err := evalscript.ForLayer(req.Layer)
	if err != nil {
		// Unreachable after router validation; startup checks cover the map.
		router.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := keys.Render(req.Layer, req.BBox, sentinelhub.TimeFrom, sentinelhub.TimeTo,
		sentinelhub.Width, sentinelhub.Height)

	if g.cache != nil {
		if png, ok := g.cacheGet(ctx, key); ok {
			g.logger.DebugContext(ctx, "serving cached render", "key", key)
			g.finish(ctx, w, req, png)
			return
		}
	}

	png, err := g.provider.Render(ctx, req.BBox, script)
	observability.IncRender(string(req.Layer), err)
	if err != nil {
		g.logger.ErrorContext(ctx, "provider render failed", "bbox", req.BBox.String(), "err", err)
		router.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	if g.cache != nil {
		g.cachePut(ctx, key, req.BBox, png)
	}

	g.finish(ctx, w, req, png)
}

func (g *Gateway) finish(ctx context.Context, w http.ResponseWriter, req model.RenderRequest, png []byte) {
	if err := g.snaps.Write(png); err != nil {
		g.logger.ErrorContext(ctx, "snapshot write failed", "err", err)
		router.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	g.logger.InfoContext(ctx, "render served", "bbox", req.BBox.String(), "bytes", len(png))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (g *Gateway) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	png, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		// Cache trouble never fails a render.
		g.logger.Warn("render cache get failed", "key", key, "err", err)
		return nil, false
	}
	return png, ok
}

func (g *Gateway) cachePut(ctx context.Context, key string, bbox model.BBox, png []byte) {
	if err := g.cache.Set(ctx, key, png, g.ttl); err != nil {
		g.logger.Warn("render cache set failed", "key", key, "err", err)
		return
	}
	if g.index == nil {
		return
	}
	cells, err := g.mapper.CellsForBBox(bbox, g.res)
	if err != nil {
		g.logger.Warn("cell mapping failed", "bbox", bbox.String(), "err", err)
		return
	}
	if err := g.index.Add(ctx, key, cells, 2*g.ttl); err != nil {
		g.logger.Warn("cell index update failed", "key", key, "err", err)
	}
}
