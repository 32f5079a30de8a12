package models

import "time"

// Region identifiers of the chart surface.
const (
	RegionPrice      = "price-chart"
	RegionVolume     = "volume-chart"
	RegionIndicators = "rsi-macd-chart"
)

// ChartHandle references one capturable chart region.
type ChartHandle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DefaultChartHandles are the report's chart regions in print order.
func DefaultChartHandles() []ChartHandle {
	return []ChartHandle{
		{ID: RegionPrice, Title: "Price Analysis"},
		{ID: RegionVolume, Title: "Volume Analysis"},
		{ID: RegionIndicators, Title: "Technical Indicators"},
	}
}

// ChartImage is a rasterized chart region.
type ChartImage struct {
	Handle ChartHandle
	Data   []byte // PNG
	Width  int    // pixels
	Height int    // pixels
}

// Report is a generated PDF and its archive metadata.
type Report struct {
	ID        string    `json:"id" badgerhold:"key"`
	Symbol    string    `json:"symbol" badgerhold:"index"`
	Filename  string    `json:"filename"`
	Pages     int       `json:"pages"`
	Size      int       `json:"size"`
	Charts    int       `json:"charts"`
	CreatedAt time.Time `json:"created_at"`
	Content   []byte    `json:"-"`
}
