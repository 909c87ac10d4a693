package services

import (
	"math"
	"strconv"
	"strings"

	"car-rental-storefront/models"

	"golang.org/x/exp/slices"
)

// PricePolicy decides which price entry a car card shows.
type PricePolicy string

const (
	// PolicyPriority tries discount week, discount day, regular week, regular day.
	PolicyPriority PricePolicy = "priority"
	// PolicyPreferred first tries the rate type the API flags on the car,
	// then falls back to PolicyPriority.
	PolicyPreferred PricePolicy = "preferred"
)

func ParsePricePolicy(s string) PricePolicy {
	if PricePolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyPreferred {
		return PolicyPreferred
	}
	return PolicyPriority
}

// PriceQuote is the derived display price of a car. It is never stored.
type PriceQuote struct {
	Display         *float64        `json:"display"`
	Original        *float64        `json:"original,omitempty"`
	IsDiscount      bool            `json:"isDiscount"`
	RateType        models.RateType `json:"rateType,omitempty"`
	DiscountPercent int             `json:"discountPercent,omitempty"`
	HasPercent      bool            `json:"hasPercent"`
	Label           string          `json:"label"`
}

// HasPrice is false for "Price N/A".
func (q PriceQuote) HasPrice() bool { return q.Display != nil }

const priceNA = "Price N/A"

func lookup(entries []models.PriceEntry, rt models.RateType) models.Amount {
	want := rt.Normalize()
	for _, e := range entries {
		if e.PriceType.Normalize() == want {
			return e.Price
		}
	}
	return 0
}

func amountPtr(a models.Amount) *float64 {
	f := float64(a)
	return &f
}

// discountQuote registers a discount only when it is positive and strictly
// below a positive regular amount of the same type.
func discountQuote(regular, discount []models.PriceEntry, rt models.RateType) (PriceQuote, bool) {
	d := lookup(discount, rt)
	if !d.Set() {
		return PriceQuote{}, false
	}
	r := lookup(regular, rt)
	if r.Set() && d >= r {
		return PriceQuote{}, false
	}
	q := PriceQuote{Display: amountPtr(d), IsDiscount: true, RateType: rt.Normalize()}
	if r.Set() {
		q.Original = amountPtr(r)
		q.DiscountPercent, q.HasPercent = DiscountPercent(float64(r), float64(d))
	}
	return q, true
}

func regularQuote(regular []models.PriceEntry, rt models.RateType) (PriceQuote, bool) {
	r := lookup(regular, rt)
	if !r.Set() {
		return PriceQuote{}, false
	}
	return PriceQuote{Display: amountPtr(r), RateType: rt.Normalize()}, true
}

// ResolvePrice picks the single price a car card shows. First match wins.
func ResolvePrice(regular, discount []models.PriceEntry, policy PricePolicy, preferred models.RateType) PriceQuote {
	type step func() (PriceQuote, bool)
	var steps []step

	if policy == PolicyPreferred && preferred.Normalize() != "" {
		steps = append(steps,
			func() (PriceQuote, bool) { return discountQuote(regular, discount, preferred) },
			func() (PriceQuote, bool) { return regularQuote(regular, preferred) },
		)
	}
	steps = append(steps,
		func() (PriceQuote, bool) { return discountQuote(regular, discount, models.RateWeek) },
		func() (PriceQuote, bool) { return discountQuote(regular, discount, models.RateDay) },
		func() (PriceQuote, bool) { return regularQuote(regular, models.RateWeek) },
		func() (PriceQuote, bool) { return regularQuote(regular, models.RateDay) },
	)

	for _, s := range steps {
		if q, ok := s(); ok {
			q.Label = FormatPrice(*q.Display, q.RateType)
			return q
		}
	}
	return PriceQuote{Label: priceNA}
}

// DiscountPercent is round((original-display)/original*100). It is only
// reported when positive.
func DiscountPercent(original, display float64) (int, bool) {
	if original <= 0 || display <= 0 {
		return 0, false
	}
	pct := int(math.Round((original - display) / original * 100))
	if pct <= 0 {
		return 0, false
	}
	return pct, true
}

// BreakdownRow is one rate type of the price-breakdown view. Empty fields
// render as "-".
type BreakdownRow struct {
	RateType        models.RateType `json:"rateType"`
	Regular         string          `json:"regular"`
	Discount        string          `json:"discount"`
	DiscountPercent int             `json:"discountPercent,omitempty"`
	MinHours        string          `json:"minHours"`
}

const dash = "-"

// PriceBreakdown lists every rate type present in either list, deduplicated
// case-insensitively and sorted by name.
func PriceBreakdown(regular, discount []models.PriceEntry) []BreakdownRow {
	seen := map[models.RateType]bool{}
	var types []models.RateType
	for _, list := range [][]models.PriceEntry{regular, discount} {
		for _, e := range list {
			rt := e.PriceType.Normalize()
			if rt == "" || seen[rt] {
				continue
			}
			seen[rt] = true
			types = append(types, rt)
		}
	}
	slices.SortFunc(types, func(a, b models.RateType) int { return strings.Compare(string(a), string(b)) })

	rows := make([]BreakdownRow, 0, len(types))
	for _, rt := range types {
		row := BreakdownRow{RateType: rt, Regular: dash, Discount: dash, MinHours: dash}
		r := lookup(regular, rt)
		d := lookup(discount, rt)
		if r.Set() {
			row.Regular = formatAmount(float64(r))
		}
		if d.Set() {
			row.Discount = formatAmount(float64(d))
			if r.Set() {
				row.DiscountPercent, _ = DiscountPercent(float64(r), float64(d))
			}
		}
		if h := minHours(regular, discount, rt); h > 0 {
			row.MinHours = strconv.Itoa(h)
		}
		rows = append(rows, row)
	}
	return rows
}

func minHours(regular, discount []models.PriceEntry, rt models.RateType) int {
	for _, list := range [][]models.PriceEntry{regular, discount} {
		for _, e := range list {
			if e.PriceType.Normalize() == rt && e.MinHours > 0 {
				return int(e.MinHours)
			}
		}
	}
	return 0
}

// FormatPrice renders "₹ 5,769/day".
func FormatPrice(amount float64, rt models.RateType) string {
	s := "₹ " + formatAmount(amount)
	if rt != "" {
		s += "/" + string(rt)
	}
	return s
}

// formatAmount groups thousands and keeps two decimals only for fractional amounts.
func formatAmount(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole, frac := cents/100, cents%100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if frac != 0 {
		out += "." + leftPad2(frac)
	}
	if neg {
		out = "-" + out
	}
	return out
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
