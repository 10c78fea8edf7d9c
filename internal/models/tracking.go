package models

// Статусы результата извлечения (показываются в сайдбаре как есть).
const (
	TrackingStatusNone      = "No tracking info found"
	TrackingStatusNotesOnly = "Tracking found in order notes"
	TrackingStatusAvailable = "Tracking available"
)

// TrackingRecord — производные данные, магазин их не хранит.
// Инвариант: Status == TrackingStatusAvailable <=> URL != "".
type TrackingRecord struct {
	Number      string
	Carrier     string
	URL         string
	ShippedDate string
	Status      string
	SourceNote  string
	AdminURL    string
}

type EnrichedOrder struct {
	Order    *Order
	Tracking TrackingRecord
}
