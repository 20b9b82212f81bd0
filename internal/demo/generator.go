// Package demo generates synthetic supply-chain master data with injected defects.
// Output depends only on the seed and the reference time.
package demo

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
)

// DefaultSeed keeps demo output stable across restarts
const DefaultSeed uint64 = 42

// Generator builds the six demo datasets
type Generator struct {
	Seed uint64
	Now  time.Time
}

// New creates a generator; a zero now means time.Now()
func New(seed uint64, now time.Time) *Generator {
	if now.IsZero() {
		now = time.Now()
	}
	return &Generator{Seed: seed, Now: now}
}

type buildFunc func(g *rng) *contracts.Table

// ⭐ SSOT: 데모 데이터셋 목록
var builders = map[string]buildFunc{
	"Products":       products,
	"Locations":      locations,
	"Customers":      customers,
	"Suppliers":      suppliers,
	"Time Profiles":  timeProfiles,
	"Resource Plans": resourcePlans,
}

// Types lists the dataset types the generator knows
func Types() []string {
	return contracts.SortedNames(builders)
}

// Generate builds the requested types (all when none given); unknown types are skipped
func (gen *Generator) Generate(types ...string) map[string]*contracts.Table {
	if len(types) == 0 {
		types = Types()
	}
	out := make(map[string]*contracts.Table, len(types))
	for _, t := range types {
		if tbl, ok := gen.Table(t); ok {
			out[t] = tbl
		}
	}
	return out
}

// Table builds one dataset type
func (gen *Generator) Table(dataType string) (*contracts.Table, bool) {
	build, ok := builders[dataType]
	if !ok {
		return nil, false
	}
	return build(newRNG(gen.Seed, dataType, gen.Now)), true
}

func products(g *rng) *contracts.Table {
	const n = 200
	categories := []string{"RAW", "WIP", "FG", "SPARE", "SERVICE"}
	subcategories := []string{"ELECTRONICS", "MECHANICAL", "CHEMICAL", "PACKAGING", "CONSUMABLE"}
	uoms := []string{"EA", "KG", "L", "M", "PC", "CS"}
	shelfLives := []float64{30, 60, 90, 180, 365, math.NaN()}

	f := newFrame(
		text("ProductID"), text("ProductName"), text("ProductCategory"), text("ProductSubcategory"),
		text("UnitOfMeasure"), number("GrossWeight"), number("NetWeight"), number("ShelfLife"),
		number("Price"), flag("Active"), when("CreatedOn"), when("LastUpdated"),
	)
	for i := 1; i <= n; i++ {
		var shelf any = g.pickFloat(shelfLives)
		if math.IsNaN(shelf.(float64)) {
			shelf = nil
		}
		f.add(
			fmt.Sprintf("P%06d", i),
			fmt.Sprintf("Product %d", i),
			g.pickWeighted(categories, []float64{0.2, 0.3, 0.3, 0.1, 0.1}),
			g.pick(subcategories),
			g.pickWeighted(uoms, []float64{0.5, 0.2, 0.1, 0.1, 0.05, 0.05}),
			g.uniform(0.1, 100, 2),
			g.uniform(0.1, 90, 2),
			shelf,
			g.uniform(1, 1000, 2),
			g.chance(0.9),
			g.daysAgo(30, 365),
			g.daysAgo(0, 30),
		)
	}

	f.blank(g, 0.1, "ProductSubcategory", "GrossWeight", "ShelfLife", "Price")
	f.each(g, 0.05, func(i int) { f.set(i, "ProductName", strings.ToUpper(f.get(i, "ProductName").(string))) })
	f.each(g, 0.03, func(i int) { f.set(i, "UnitOfMeasure", "INVALID") })
	// 순중량 > 총중량
	f.each(g, 0.05, func(i int) {
		gross, ok := f.get(i, "GrossWeight").(float64)
		if !ok {
			f.set(i, "NetWeight", nil)
			return
		}
		f.set(i, "NetWeight", round(gross+g.uniform(1, 10, 2), 2))
	})
	f.each(g, 0.2, func(i int) { f.set(i, "LastUpdated", f.get(i, "CreatedOn")) })

	return f.table()
}

func locations(g *rng) *contracts.Table {
	const n = 100
	types := []string{"PLANT", "DC", "WAREHOUSE", "STORE", "SUPPLIER", "CUSTOMER"}
	countries := []string{"US", "CA", "MX", "DE", "FR", "UK", "CN", "JP", "IN", "BR"}
	regions := []string{"NORTH", "SOUTH", "EAST", "WEST", "CENTRAL"}

	f := newFrame(
		text("LocationID"), text("LocationName"), text("LocationType"), text("Address"),
		text("City"), text("Country"), text("Region"), number("Capacity"),
		text("ParentLocation"), flag("Active"), when("CreatedOn"), when("LastUpdated"),
	)
	for i := 0; i < n; i++ {
		var parent any
		if g.r.Float64() > 0.3 {
			parent = fmt.Sprintf("L%04d", g.between(1, 20))
		}
		f.add(
			fmt.Sprintf("L%04d", i+1),
			fmt.Sprintf("Location %d", i+1),
			g.pick(types),
			fmt.Sprintf("%d Main St", g.between(100, 9999)),
			fmt.Sprintf("City %d", i%30),
			g.pick(countries),
			g.pick(regions),
			g.uniform(1000, 100000, 0),
			parent,
			g.chance(0.95),
			g.daysAgo(100, 730),
			g.daysAgo(0, 90),
		)
	}

	f.blank(g, 0.15, "Address", "Region", "Capacity", "ParentLocation")
	f.each(g, 0.07, func(i int) { f.set(i, "LocationName", strings.ToLower(f.get(i, "LocationName").(string))) })
	f.each(g, 0.05, func(i int) { f.set(i, "ParentLocation", "INVALID_LOC") })
	f.each(g, 0.25, func(i int) { f.set(i, "LastUpdated", f.get(i, "CreatedOn")) })

	return f.table()
}

func phone(g *rng) string {
	return fmt.Sprintf("+1-555-%d-%d", g.between(100, 999), g.between(1000, 9999))
}

func customers(g *rng) *contracts.Table {
	const n = 150
	types := []string{"RETAIL", "WHOLESALE", "DISTRIBUTOR", "DIRECT", "ONLINE"}
	terms := []string{"NET30", "NET60", "NET90", "PREPAID"}

	f := newFrame(
		text("CustomerID"), text("CustomerName"), text("CustomerType"), text("ContactPerson"),
		text("Email"), text("Phone"), text("PaymentTerms"), number("CreditLimit"),
		text("PrimaryLocationID"), flag("Active"), when("CreatedOn"), when("LastUpdated"),
	)
	for i := 0; i < n; i++ {
		f.add(
			fmt.Sprintf("C%05d", i+1),
			fmt.Sprintf("Customer %d", i+1),
			g.pick(types),
			fmt.Sprintf("Contact %d", i%50),
			fmt.Sprintf("contact%d@customer%d.com", i, i%100),
			phone(g),
			g.pick(terms),
			g.uniform(10000, 1000000, -3),
			fmt.Sprintf("L%04d", g.between(1, 100)),
			g.chance(0.9),
			g.daysAgo(30, 730),
			g.daysAgo(0, 60),
		)
	}

	f.blank(g, 0.12, "ContactPerson", "Email", "Phone", "CreditLimit")
	f.each(g, 0.08, func(i int) {
		if s, ok := f.get(i, "Email").(string); ok {
			f.set(i, "Email", strings.ReplaceAll(s, "@", "#"))
		}
	})
	f.blank(g, 0.1, "PrimaryLocationID")
	f.each(g, 0.15, func(i int) {
		if s, ok := f.get(i, "Phone").(string); ok {
			f.set(i, "Phone", strings.ReplaceAll(strings.ReplaceAll(s, "+1-", ""), "-", ""))
		}
	})

	return f.table()
}

func suppliers(g *rng) *contracts.Table {
	const n = 120
	types := []string{"MANUFACTURER", "DISTRIBUTOR", "SERVICE", "RAW_MATERIAL", "PACKAGING"}
	terms := []string{"NET30", "NET45", "NET60", "IMMEDIATE"}
	leadTimes := []float64{7, 14, 21, 30, 45, 60, 90}

	f := newFrame(
		text("SupplierID"), text("SupplierName"), text("SupplierType"), text("ContactPerson"),
		text("Email"), text("Phone"), text("PaymentTerms"), number("LeadTime"),
		number("QualityRating"), text("PrimaryLocationID"), flag("Active"),
		when("CreatedOn"), when("LastUpdated"),
	)
	for i := 0; i < n; i++ {
		f.add(
			fmt.Sprintf("S%05d", i+1),
			fmt.Sprintf("Supplier %d", i+1),
			g.pick(types),
			fmt.Sprintf("Contact %d", i%40),
			fmt.Sprintf("contact%d@supplier%d.com", i, i%80),
			phone(g),
			g.pick(terms),
			g.pickFloat(leadTimes),
			g.uniform(1, 5, 1),
			fmt.Sprintf("L%04d", g.between(1, 100)),
			g.chance(0.93),
			g.daysAgo(30, 730),
			g.daysAgo(0, 60),
		)
	}

	f.blank(g, 0.1, "ContactPerson", "Email", "LeadTime", "QualityRating")
	f.each(g, 0.03, func(i int) {
		if v, ok := f.get(i, "LeadTime").(float64); ok {
			f.set(i, "LeadTime", -v)
		}
	})
	f.each(g, 0.05, func(i int) { f.set(i, "QualityRating", g.uniform(5.1, 10, 1)) })
	f.blank(g, 0.08, "PrimaryLocationID")

	return f.table()
}

func timeProfiles(g *rng) *contracts.Table {
	const n = 30
	units := []string{"DAY", "WEEK", "MONTH", "QUARTER", "YEAR"}
	lengths := []float64{1, 2, 3, 4, 6, 12}

	f := newFrame(
		text("ProfileID"), text("ProfileName"), text("TimeUnit"), number("PeriodLength"),
		when("StartDate"), when("EndDate"), text("Description"), flag("Active"),
		when("CreatedOn"), when("LastUpdated"),
	)
	for i := 1; i <= n; i++ {
		f.add(
			fmt.Sprintf("TP%03d", i),
			fmt.Sprintf("Time Profile %d", i),
			g.pick(units),
			g.pickFloat(lengths),
			g.daysAgo(365, 730),
			g.daysAhead(365, 1095),
			fmt.Sprintf("Planning profile for %s level planning", strings.ToLower(g.pick(units))),
			g.chance(0.9),
			g.daysAgo(100, 500),
			g.daysAgo(0, 100),
		)
	}

	// 종료일 < 시작일
	f.each(g, 0.1, func(i int) {
		start := f.get(i, "StartDate").(time.Time)
		f.set(i, "EndDate", start.AddDate(0, 0, -g.between(1, 100)))
	})
	f.blank(g, 0.2, "Description")
	for i := range f.rows {
		if f.get(i, "TimeUnit") == "DAY" && f.get(i, "PeriodLength").(float64) > 1 {
			f.set(i, "PeriodLength", 1.0)
		}
	}

	return f.table()
}

func resourcePlans(g *rng) *contracts.Table {
	const n = 80
	types := []string{"MACHINE", "LABOR", "FACILITY", "TOOL", "VEHICLE"}
	units := []string{"HOURS", "UNITS", "BATCHES", "PALLETS", "SHIFTS"}
	schedules := []string{"WEEKLY", "MONTHLY", "QUARTERLY", "YEARLY", ""}

	f := newFrame(
		text("ResourceID"), text("ResourceName"), text("ResourceType"), text("CapacityUnit"),
		number("StandardCapacity"), text("LocationID"), number("CostPerHour"),
		number("EfficiencyRating"), text("MaintenanceSchedule"), flag("Active"),
		when("CreatedOn"), when("LastUpdated"),
	)
	for i := 1; i <= n; i++ {
		f.add(
			fmt.Sprintf("R%04d", i),
			fmt.Sprintf("Resource %d", i),
			g.pick(types),
			g.pick(units),
			g.uniform(100, 10000, 0),
			fmt.Sprintf("L%04d", g.between(1, 100)),
			g.uniform(10, 500, 2),
			g.uniform(60, 100, 1),
			g.pick(schedules),
			g.chance(0.9),
			g.daysAgo(30, 730),
			g.daysAgo(0, 60),
		)
	}

	f.blank(g, 0.15, "StandardCapacity", "CostPerHour", "EfficiencyRating")
	f.each(g, 0.07, func(i int) { f.set(i, "EfficiencyRating", g.uniform(101, 150, 1)) })
	f.blank(g, 0.1, "LocationID")
	f.each(g, 0.08, func(i int) { f.set(i, "ResourceName", strings.ToUpper(f.get(i, "ResourceName").(string))) })

	return f.table()
}
