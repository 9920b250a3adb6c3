package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRender_RequestShape(t *testing.T) {
	var got processRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/api/v1/process" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if accept := r.Header.Get("Accept"); accept != "image/png" {
			t.Errorf("Accept = %q", accept)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	c, err := New(discard(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bbox := model.BBox{MinLon: 11, MinLat: 55, MaxLon: 12, MaxLat: 56}
	png, err := c.Render(context.Background(), bbox, "//VERSION=3\nscript")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(png, pngHeader) {
		t.Fatal("response bytes passed through unchanged")
	}

	if got.Evalscript != "//VERSION=3\nscript" {
		t.Errorf("evalscript = %q", got.Evalscript)
	}
	if len(got.Input.Bounds.BBox) != 4 || got.Input.Bounds.BBox[0] != 11 || got.Input.Bounds.BBox[3] != 56 {
		t.Errorf("bbox = %v", got.Input.Bounds.BBox)
	}
	if got.Input.Bounds.Properties.CRS != crsWGS84 {
		t.Errorf("crs = %q", got.Input.Bounds.Properties.CRS)
	}
	if len(got.Input.Data) != 1 || got.Input.Data[0].Type != Collection {
		t.Errorf("data = %+v", got.Input.Data)
	}
	tr := got.Input.Data[0].DataFilter.TimeRange
	if tr.From != TimeFrom || tr.To != TimeTo {
		t.Errorf("time range = %+v", tr)
	}
	if got.Output.Width != Width || got.Output.Height != Height {
		t.Errorf("size = %dx%d", got.Output.Width, got.Output.Height)
	}
	if len(got.Output.Responses) != 1 || got.Output.Responses[0].Format.Type != "image/png" {
		t.Errorf("responses = %+v", got.Output.Responses)
	}
}

func TestRender_UpstreamErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid bbox"}`))
	}))
	defer srv.Close()

	c, err := New(discard(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bbox := model.BBox{MinLon: 11, MinLat: 55, MaxLon: 12, MaxLat: 56}
	_, err = c.Render(context.Background(), bbox, "script")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "provider status 400") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "invalid bbox") {
		t.Errorf("upstream body should be surfaced, got %v", err)
	}
}

func TestRender_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	c, err := New(discard(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bbox := model.BBox{MinLon: 11, MinLat: 55, MaxLon: 12, MaxLat: 56}
	if _, err := c.Render(ctx, bbox, "script"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNew_BadURL(t *testing.T) {
	if _, err := New(discard(), http.DefaultClient, "://bad"); err == nil {
		t.Fatal("expected error")
	}
}
