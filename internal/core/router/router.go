// Package router validates incoming requests and maps errors to HTTP
// responses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
	"github.com/avolkov/sentinel-gateway/internal/core/observability"
	"github.com/avolkov/sentinel-gateway/internal/snapshot"
)

// DownloadName is the attachment filename for the snapshot route.
const DownloadName = "sentinel_snapshot.png"

// RenderHandler receives validated render requests and serves them.
type RenderHandler interface {
	HandleRender(ctx context.Context, w http.ResponseWriter, r *http.Request, req model.RenderRequest)
}

// HandleGetImage validates the request body and hands it to the render
// handler.
func HandleGetImage(logger *slog.Logger, h RenderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		req, err := ParseRenderRequest(r)
		if err != nil {
			logger.Warn("invalid render request", "err", err)
			WriteError(sw, http.StatusBadRequest, err.Error())
			observability.ObserveHTTP(r.Method, "/get-image", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleRender(r.Context(), sw, r, req)
		observability.ObserveHTTP(r.Method, "/get-image", sw.code, time.Since(start).Seconds())
	}
}

// HandleDownload serves the last rendered snapshot as an attachment. A
// deterministic 404 is returned before the first successful render.
func HandleDownload(logger *slog.Logger, snaps *snapshot.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		data, err := snaps.Read()
		switch {
		case errors.Is(err, snapshot.ErrNoSnapshot):
			WriteError(sw, http.StatusNotFound, "no image has been rendered yet")
		case err != nil:
			logger.Error("snapshot read failed", "err", err)
			WriteError(sw, http.StatusInternalServerError, err.Error())
		default:
			sw.Header().Set("Content-Type", "image/png")
			sw.Header().Set("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
			sw.Header().Set("Content-Length", strconv.Itoa(len(data)))
			_, _ = sw.Write(data)
		}
		observability.ObserveHTTP(r.Method, "/download-image", sw.code, time.Since(start).Seconds())
	}
}

// WriteError emits the uniform JSON error body.
func WriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type renderBody struct {
	BBox      []float64 `json:"bbox"`
	LayerType string    `json:"layer_type"`
}

// ParseRenderRequest decodes and validates the /get-image body. Unknown
// fields are ignored; every failure here is the caller's fault and maps
// to 400.
func ParseRenderRequest(r *http.Request) (model.RenderRequest, error) {
	var body renderBody
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		return model.RenderRequest{}, fmt.Errorf("invalid request body: %w", err)
	}

	layer, err := model.ParseLayerType(body.LayerType)
	if err != nil {
		return model.RenderRequest{}, err
	}

	bbox, err := parseBBox(body.BBox)
	if err != nil {
		return model.RenderRequest{}, fmt.Errorf("invalid bbox: %w", err)
	}

	return model.RenderRequest{BBox: bbox, Layer: layer}, nil
}

func parseBBox(vals []float64) (model.BBox, error) {
	if len(vals) != 4 {
		return model.BBox{}, fmt.Errorf("expected 4 values (min-lon,min-lat,max-lon,max-lat), got %d", len(vals))
	}
	bb := model.BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}

	if !(bb.MinLon >= -180 && bb.MinLon <= 180 && bb.MaxLon >= -180 && bb.MaxLon <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(bb.MinLat >= -90 && bb.MinLat <= 90 && bb.MaxLat >= -90 && bb.MaxLat <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if bb.MaxLon <= bb.MinLon || bb.MaxLat <= bb.MinLat {
		return model.BBox{}, errors.New("coordinates must satisfy max-lon>min-lon and max-lat>min-lat")
	}
	return bb, nil
}
