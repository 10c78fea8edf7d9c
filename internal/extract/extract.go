package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/BlueOsprey/OrderPeek/internal/models"
)

// Перевозчики проверяются строго по порядку, первый матч побеждает.
// Перебор по map здесь не годится: порядок должен быть фиксированным.
var carriers = []struct {
	Name    string
	URLBase string
}{
	{"FedEx", "https://www.fedex.com/fedextrack/?trknbr="},
	{"UPS", "https://www.ups.com/track?tracknum="},
	{"USPS", "https://tools.usps.com/go/TrackConfirmAction?tLabels="},
	{"DHL", "https://www.dhl.com/en/express/tracking.html?AWB="},
}

var (
	digitRunRe = regexp.MustCompile(`[0-9]+`)

	// "shipped June 5, 2024" / "on June 5 2024". Только английские месяцы;
	// другие форматы дат считаем "нет совпадения", это не баг.
	shippedDateRe = regexp.MustCompile(`(?i)(?:shipped|on)\s+((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+[0-9]{1,2},?\s+[0-9]{4})`)
)

// Extractor turns free-text order notes and metadata into a structured
// tracking record. It never fails: a miss is a status, not an error.
type Extractor struct {
	storeBaseURL string
}

func New(storeBaseURL string) *Extractor {
	return &Extractor{storeBaseURL: strings.TrimRight(storeBaseURL, "/")}
}

// Extract scans, in priority order: order notes, then the customer note on the
// order itself, then order metadata. The first source that yields a tracking
// number wins; later sources are not consulted for the number.
func (e *Extractor) Extract(order *models.Order, notes []*models.OrderNote) models.TrackingRecord {
	rec := models.TrackingRecord{Status: models.TrackingStatusNone}
	if order == nil {
		return rec
	}
	rec.AdminURL = e.adminURL(order.ID)

	// 1. Первая заметка (в исходном порядке), где упомянут "tracking number".
	for _, n := range notes {
		if n == nil || !containsFold(n.Body, "tracking number") {
			continue
		}
		rec.Number = firstTrackingNumber(n.Body)
		rec.Carrier = firstCarrier(n.Body)
		rec.ShippedDate = firstShippedDate(n.Body)
		if rec.Number != "" {
			rec.SourceNote = n.Body
		}
		break
	}

	// 2. Fallback: customer note на самом заказе.
	if rec.Number == "" && order.CustomerNote != "" {
		rec.Number = firstTrackingNumber(order.CustomerNote)
		rec.Carrier = firstCarrier(order.CustomerNote)
		rec.ShippedDate = firstShippedDate(order.CustomerNote)
		if rec.Number != "" {
			rec.SourceNote = order.CustomerNote
		}
	}

	// 3. Fallback: метаданные заказа (ключи от shipping-плагинов).
	if rec.Number == "" {
		for _, m := range order.Metadata {
			k := strings.ToLower(m.Key)
			switch {
			case strings.Contains(k, "tracking") && strings.Contains(k, "number"):
				if rec.Number == "" {
					rec.Number = strings.TrimSpace(m.Value)
				}
			case strings.Contains(k, "tracking") && strings.Contains(k, "carrier"):
				if rec.Carrier == "" {
					rec.Carrier = strings.TrimSpace(m.Value)
				}
			case strings.Contains(k, "tracking") && strings.Contains(k, "url"):
				if rec.URL == "" {
					rec.URL = strings.TrimSpace(m.Value)
				}
			case strings.Contains(k, "shipped") || strings.Contains(k, "shipment"):
				if rec.ShippedDate == "" {
					rec.ShippedDate = strings.TrimSpace(m.Value)
				}
			}
		}
	}

	// 4. URL перевозчика. Явный URL из метаданных имеет приоритет.
	if rec.URL == "" && rec.Number != "" && rec.Carrier != "" {
		rec.URL = carrierURL(rec.Carrier, rec.Number)
	}

	switch {
	case rec.URL != "":
		rec.Status = models.TrackingStatusAvailable
	case rec.Number != "":
		rec.Status = models.TrackingStatusNotesOnly
	}
	return rec
}

func (e *Extractor) adminURL(orderID int64) string {
	if e.storeBaseURL == "" || orderID == 0 {
		return ""
	}
	return e.storeBaseURL + "/admin/edit?id=" + strconv.FormatInt(orderID, 10)
}

// firstTrackingNumber returns the first maximal digit run of exactly 10..12
// digits. A longer run (13+) does not contain a valid number.
func firstTrackingNumber(text string) string {
	for _, run := range digitRunRe.FindAllString(text, -1) {
		if len(run) >= 10 && len(run) <= 12 {
			return run
		}
	}
	return ""
}

func firstCarrier(text string) string {
	for _, c := range carriers {
		if containsFold(text, c.Name) {
			return c.Name
		}
	}
	return ""
}

func firstShippedDate(text string) string {
	m := shippedDateRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func carrierURL(carrier, number string) string {
	for _, c := range carriers {
		if strings.EqualFold(carrier, c.Name) {
			return c.URLBase + url.QueryEscape(number)
		}
	}
	// Незнакомый перевозчик: отдаём поисковый запрос, это лучше чем ничего.
	return "https://www.google.com/search?q=" + url.QueryEscape(carrier+" tracking "+number)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
