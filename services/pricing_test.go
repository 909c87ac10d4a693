package services

import (
	"testing"

	"car-rental-storefront/models"

	. "github.com/onsi/gomega"
)

func entries(pairs ...interface{}) []models.PriceEntry {
	var out []models.PriceEntry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.PriceEntry{
			PriceType: models.RateType(pairs[i].(string)),
			Price:     models.Amount(pairs[i+1].(float64)),
		})
	}
	return out
}

func TestResolvePriceRegularDayOnly(t *testing.T) {
	g := NewWithT(t)

	q := ResolvePrice(entries("day", 100.0), nil, PolicyPriority, "")
	g.Expect(q.HasPrice()).To(BeTrue())
	g.Expect(*q.Display).To(Equal(100.0))
	g.Expect(q.IsDiscount).To(BeFalse())
	g.Expect(q.Original).To(BeNil())
	g.Expect(q.RateType).To(Equal(models.RateDay))
}

func TestResolvePriceWeekDiscountWithoutRegularWeek(t *testing.T) {
	g := NewWithT(t)

	q := ResolvePrice(entries("day", 100.0, "week", 0.0), entries("week", 80.0), PolicyPriority, "")
	g.Expect(*q.Display).To(Equal(80.0))
	g.Expect(q.IsDiscount).To(BeTrue())
	g.Expect(q.Original).To(BeNil())
	g.Expect(q.HasPercent).To(BeFalse())
}

func TestResolvePricePriorityOrder(t *testing.T) {
	g := NewWithT(t)

	regular := entries("day", 1000.0, "week", 6000.0)

	q := ResolvePrice(regular, entries("day", 900.0, "week", 5000.0), PolicyPriority, "")
	g.Expect(*q.Display).To(Equal(5000.0))
	g.Expect(*q.Original).To(Equal(6000.0))
	g.Expect(q.RateType).To(Equal(models.RateWeek))

	q = ResolvePrice(regular, entries("day", 750.0), PolicyPriority, "")
	g.Expect(*q.Display).To(Equal(750.0))
	g.Expect(*q.Original).To(Equal(1000.0))
	g.Expect(q.DiscountPercent).To(Equal(25))
	g.Expect(q.HasPercent).To(BeTrue())

	q = ResolvePrice(regular, nil, PolicyPriority, "")
	g.Expect(*q.Display).To(Equal(6000.0))
	g.Expect(q.IsDiscount).To(BeFalse())
}

func TestResolvePriceDiscountNotBelowRegularIsSkipped(t *testing.T) {
	g := NewWithT(t)

	q := ResolvePrice(entries("day", 1000.0), entries("day", 1000.0), PolicyPriority, "")
	g.Expect(q.IsDiscount).To(BeFalse())
	g.Expect(q.HasPercent).To(BeFalse())
	g.Expect(*q.Display).To(Equal(1000.0))

	q = ResolvePrice(entries("day", 1000.0), entries("day", 1200.0), PolicyPriority, "")
	g.Expect(q.IsDiscount).To(BeFalse())
	g.Expect(*q.Display).To(Equal(1000.0))
}

func TestResolvePriceNoPrice(t *testing.T) {
	g := NewWithT(t)

	q := ResolvePrice(entries("hour", 0.0), entries("day", 0.0), PolicyPriority, "")
	g.Expect(q.HasPrice()).To(BeFalse())
	g.Expect(q.Label).To(Equal("Price N/A"))

	// hour-only cars have no display price under the fixed priority
	q = ResolvePrice(entries("hour", 150.0), nil, PolicyPriority, "")
	g.Expect(q.HasPrice()).To(BeFalse())
}

func TestResolvePriceRateTypesAreCaseInsensitive(t *testing.T) {
	g := NewWithT(t)

	q := ResolvePrice(entries("Day", 1000.0), entries(" DAY ", 800.0), PolicyPriority, "")
	g.Expect(*q.Display).To(Equal(800.0))
	g.Expect(q.DiscountPercent).To(Equal(20))
}

func TestResolvePricePreferredPolicy(t *testing.T) {
	g := NewWithT(t)

	regular := entries("day", 1000.0, "hour", 150.0)
	discount := entries("day", 900.0, "hour", 120.0)

	q := ResolvePrice(regular, discount, PolicyPreferred, models.RateHour)
	g.Expect(*q.Display).To(Equal(120.0))
	g.Expect(q.RateType).To(Equal(models.RateHour))
	g.Expect(q.DiscountPercent).To(Equal(20))

	// the priority policy ignores the flag
	q = ResolvePrice(regular, discount, PolicyPriority, models.RateHour)
	g.Expect(*q.Display).To(Equal(900.0))

	// nothing usable for the preferred type falls back to the priority order
	q = ResolvePrice(regular, discount, PolicyPreferred, models.RateKm)
	g.Expect(*q.Display).To(Equal(900.0))
}

func TestDiscountPercent(t *testing.T) {
	g := NewWithT(t)

	pct, ok := DiscountPercent(1000, 750)
	g.Expect(ok).To(BeTrue())
	g.Expect(pct).To(Equal(25))

	_, ok = DiscountPercent(1000, 1000)
	g.Expect(ok).To(BeFalse())

	_, ok = DiscountPercent(0, 100)
	g.Expect(ok).To(BeFalse())

	// rounds to 0
	_, ok = DiscountPercent(1000, 999)
	g.Expect(ok).To(BeFalse())

	pct, _ = DiscountPercent(3, 2)
	g.Expect(pct).To(Equal(33))
}

func TestPriceBreakdown(t *testing.T) {
	g := NewWithT(t)

	regular := []models.PriceEntry{
		{PriceType: "week", MinHours: 168, Price: 6000},
		{PriceType: "Day", MinHours: 24, Price: 1000},
	}
	discount := []models.PriceEntry{
		{PriceType: "day", Price: 750},
		{PriceType: "KM", Price: 12},
	}

	rows := PriceBreakdown(regular, discount)
	g.Expect(rows).To(HaveLen(3))

	g.Expect(rows[0]).To(Equal(BreakdownRow{RateType: "day", Regular: "1,000", Discount: "750", DiscountPercent: 25, MinHours: "24"}))
	g.Expect(rows[1]).To(Equal(BreakdownRow{RateType: "km", Regular: "-", Discount: "12", MinHours: "-"}))
	g.Expect(rows[2]).To(Equal(BreakdownRow{RateType: "week", Regular: "6,000", Discount: "-", MinHours: "168"}))
}

func TestFormatPrice(t *testing.T) {
	g := NewWithT(t)

	g.Expect(FormatPrice(5769, models.RateDay)).To(Equal("₹ 5,769/day"))
	g.Expect(FormatPrice(1234567.5, models.RateWeek)).To(Equal("₹ 1,234,567.50/week"))
	g.Expect(FormatPrice(99, "")).To(Equal("₹ 99"))
}
