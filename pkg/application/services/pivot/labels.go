package pivot

import "github.com/vsinha/opsreport/pkg/domain/services"

// Labels holds the measure markers and generated column names used when
// collapsing history. Defaults match the ERP extract headers.
type Labels struct {
	OrderMarker           string `yaml:"order_marker"`
	UnfulfilledMarker     string `yaml:"unfulfilled_marker"`
	HistoricalOrder       string `yaml:"historical_order"`
	HistoricalUnfulfilled string `yaml:"historical_unfulfilled"`
	UnknownBucket         string `yaml:"unknown_bucket"`
}

// DefaultLabels returns the labels of the standard extracts
func DefaultLabels() Labels {
	return Labels{
		OrderMarker:           "订单数量",
		UnfulfilledMarker:     "未交订单数量",
		HistoricalOrder:       "历史订单数量",
		HistoricalUnfulfilled: "历史未交订单数量",
		UnknownBucket:         services.UnknownBucket,
	}
}

// WithDefaults fills empty labels from DefaultLabels
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	if l.OrderMarker == "" {
		l.OrderMarker = d.OrderMarker
	}
	if l.UnfulfilledMarker == "" {
		l.UnfulfilledMarker = d.UnfulfilledMarker
	}
	if l.HistoricalOrder == "" {
		l.HistoricalOrder = d.HistoricalOrder
	}
	if l.HistoricalUnfulfilled == "" {
		l.HistoricalUnfulfilled = d.HistoricalUnfulfilled
	}
	if l.UnknownBucket == "" {
		l.UnknownBucket = d.UnknownBucket
	}
	return l
}
