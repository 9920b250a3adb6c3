package sentinelhub

import "github.com/avolkov/sentinel-gateway/internal/core/model"

// Fixed render parameters. The gateway always requests the same
// collection, season window and raster size; only bbox and evalscript
// vary per call.
const (
	Collection = "sentinel-2-l1c"
	TimeFrom   = "2025-04-01T00:00:00Z"
	TimeTo     = "2025-09-30T23:59:59Z"
	Width      = 512
	Height     = 512

	crsWGS84 = "http://www.opengis.net/def/crs/EPSG/0/4326"
)

// processRequest is the Process API request body.
type processRequest struct {
	Input      processInput  `json:"input"`
	Output     processOutput `json:"output"`
	Evalscript string        `json:"evalscript"`
}

type processInput struct {
	Bounds processBounds `json:"bounds"`
	Data   []processData `json:"data"`
}

type processBounds struct {
	BBox       []float64   `json:"bbox"`
	Properties boundsProps `json:"properties"`
}

type boundsProps struct {
	CRS string `json:"crs"`
}

type processData struct {
	Type       string     `json:"type"`
	DataFilter dataFilter `json:"dataFilter"`
}

type dataFilter struct {
	TimeRange timeRange `json:"timeRange"`
}

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type processOutput struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Responses []processResponse `json:"responses"`
}

type processResponse struct {
	Identifier string         `json:"identifier"`
	Format     responseFormat `json:"format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

func newProcessRequest(bbox model.BBox, evalscript string) processRequest {
	return processRequest{
		Input: processInput{
			Bounds: processBounds{
				BBox:       bbox.Slice(),
				Properties: boundsProps{CRS: crsWGS84},
			},
			Data: []processData{{
				Type: Collection,
				DataFilter: dataFilter{
					TimeRange: timeRange{From: TimeFrom, To: TimeTo},
				},
			}},
		},
		Output: processOutput{
			Width:  Width,
			Height: Height,
			Responses: []processResponse{{
				Identifier: "default",
				Format:     responseFormat{Type: "image/png"},
			}},
		},
		Evalscript: evalscript,
	}
}
