// Package maintenance derives due and upcoming services for vehicles from a
// vehicle-type-aware interval catalog and the vehicle's service history. It is
// pure computation: no storage, no side effects.
package maintenance

import (
	"strings"
	"time"
)

// VehicleClass is the maintenance classification of a vehicle, derived from
// its make and model. It selects which catalog entries apply and adjusts
// intervals.
type VehicleClass string

const (
	ClassTruck    VehicleClass = "truck"
	ClassSUV      VehicleClass = "suv"
	ClassLuxury   VehicleClass = "luxury"
	ClassSports   VehicleClass = "sports"
	ClassElectric VehicleClass = "electric"
	ClassHybrid   VehicleClass = "hybrid"
	ClassStandard VehicleClass = "standard"
)

// Category distinguishes routine items from major services.
type Category string

const (
	CategoryMinor Category = "minor"
	CategoryMajor Category = "major"
)

// CatalogEntry is one recommended maintenance item: how often it should be
// performed by mileage and by calendar time. Entries are derived per vehicle
// classification, not stored.
type CatalogEntry struct {
	Name           string
	Category       Category
	IntervalMiles  int
	IntervalMonths int
}

var electricMakes = []string{"tesla", "rivian", "polestar", "lucid"}

var electricModels = []string{"leaf", "bolt", "ioniq 5", "ioniq 6", "id.4", "mach-e", "e-tron", "i3", "i4", "ix", "taycan", "ev6", "ev9"}

var hybridModels = []string{"prius", "insight", "niro", "escape hybrid", "rav4 hybrid", "camry hybrid", "accord hybrid", "hybrid"}

var luxuryMakes = []string{"bmw", "mercedes", "mercedes-benz", "audi", "lexus", "porsche", "jaguar", "land rover", "infiniti", "acura", "genesis", "cadillac", "lincoln"}

var truckModels = []string{"f-150", "f-250", "f-350", "silverado", "sierra", "ram", "tundra", "tacoma", "titan", "ranger", "colorado", "frontier", "ridgeline"}

var suvModels = []string{"explorer", "expedition", "tahoe", "suburban", "4runner", "highlander", "pilot", "pathfinder", "grand cherokee", "wrangler", "cr-v", "rav4", "escape", "equinox", "traverse", "outback", "forester"}

var sportsModels = []string{"corvette", "mustang", "camaro", "challenger", "charger", "911", "miata", "mx-5", "supra", "gt-r", "brz", "gr86", "wrx", "m3", "m4"}

// Classify derives the maintenance class of a vehicle from its make and model.
// Electric and hybrid win over body-style matches because they change which
// catalog entries exist at all; the fallback is always ClassStandard so the
// function is total.
func Classify(vehicleMake, vehicleModel string) VehicleClass {
	mk := strings.ToLower(strings.TrimSpace(vehicleMake))
	md := strings.ToLower(strings.TrimSpace(vehicleModel))

	if matchesAny(mk, electricMakes) || matchesAny(md, electricModels) || hasWord(md, "ev") {
		return ClassElectric
	}
	if matchesAny(md, hybridModels) {
		return ClassHybrid
	}
	if matchesAny(md, sportsModels) {
		return ClassSports
	}
	if matchesAny(md, truckModels) {
		return ClassTruck
	}
	if matchesAny(md, suvModels) {
		return ClassSUV
	}
	if matchesAny(mk, luxuryMakes) {
		return ClassLuxury
	}
	return ClassStandard
}

func matchesAny(value string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

// hasWord matches word as a standalone token so short markers like "ev"
// ("Bolt EV") do not fire inside unrelated model names ("Everest").
func hasWord(value, word string) bool {
	for _, token := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '-'
	}) {
		if token == word {
			return true
		}
	}
	return false
}

// CatalogFor returns the recommended maintenance items for a vehicle of the
// given class and model year. Combustion-specific entries are omitted for
// electric vehicles; the oil-change interval shortens with vehicle age and
// lengthens for luxury models.
func CatalogFor(class VehicleClass, modelYear int) []CatalogEntry {
	entries := []CatalogEntry{
		{Name: "Tire Rotation", Category: CategoryMinor, IntervalMiles: 7500, IntervalMonths: 6},
		{Name: "Brake Inspection", Category: CategoryMinor, IntervalMiles: 12000, IntervalMonths: 12},
		{Name: "Cabin Air Filter", Category: CategoryMinor, IntervalMiles: 15000, IntervalMonths: 12},
		{Name: "Brake Fluid Flush", Category: CategoryMajor, IntervalMiles: 30000, IntervalMonths: 36},
	}

	if class != ClassElectric {
		entries = append(entries,
			CatalogEntry{Name: "Oil Change", Category: CategoryMinor, IntervalMiles: oilChangeInterval(class, modelYear), IntervalMonths: 6},
			CatalogEntry{Name: "Engine Air Filter", Category: CategoryMinor, IntervalMiles: 15000, IntervalMonths: 12},
			CatalogEntry{Name: "Coolant Flush", Category: CategoryMajor, IntervalMiles: 30000, IntervalMonths: 24},
			CatalogEntry{Name: "Transmission Service", Category: CategoryMajor, IntervalMiles: 60000, IntervalMonths: 60},
			CatalogEntry{Name: "Spark Plug Replacement", Category: CategoryMajor, IntervalMiles: 60000, IntervalMonths: 60},
		)
	}

	switch class {
	case ClassTruck:
		entries = append(entries, CatalogEntry{Name: "Differential Service", Category: CategoryMajor, IntervalMiles: 30000, IntervalMonths: 36})
	case ClassElectric:
		entries = append(entries, CatalogEntry{Name: "Battery Health Check", Category: CategoryMinor, IntervalMiles: 15000, IntervalMonths: 12})
	case ClassHybrid:
		entries = append(entries, CatalogEntry{Name: "Hybrid Battery Check", Category: CategoryMinor, IntervalMiles: 15000, IntervalMonths: 12})
	}

	return entries
}

const (
	baseOilIntervalMiles   = 5000
	luxuryOilIntervalMiles = 7500
	sportsOilIntervalMiles = 3500
	agedOilIntervalMiles   = 3000
	agedVehicleYears       = 10
)

func oilChangeInterval(class VehicleClass, modelYear int) int {
	interval := baseOilIntervalMiles
	switch class {
	case ClassLuxury:
		interval = luxuryOilIntervalMiles
	case ClassSports:
		interval = sportsOilIntervalMiles
	}

	if modelYear > 0 && vehicleAgeYears(modelYear) >= agedVehicleYears && interval > agedOilIntervalMiles {
		interval = agedOilIntervalMiles
	}
	return interval
}

func vehicleAgeYears(modelYear int) int {
	age := time.Now().Year() - modelYear
	if age < 0 {
		return 0
	}
	return age
}
