package maintenance

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the urgency of an expected service. The three states are mutually
// exclusive.
type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusDueSoon  Status = "due_soon"
	StatusUpcoming Status = "upcoming"
)

// A service within this many miles of its due point counts as due soon.
const dueSoonWindowMiles = 1000

// VehicleInfo is the subset of vehicle data the engine needs. Mileage is nil
// when the current odometer reading is unknown.
type VehicleInfo struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Make       string
	Model      string
	Year       int
	Mileage    *int
}

// ServiceRecord is one historical service entry for a vehicle. Odometer is nil
// when the reading was not captured at service time.
type ServiceRecord struct {
	ServiceType string
	PerformedAt time.Time
	Odometer    *int
}

// ExpectedService is a computed projection of when a catalog item is next due
// for a specific vehicle. It is never persisted. Priority is a sort key only:
// lower means more urgent, and the concrete values carry no meaning beyond
// their order.
type ExpectedService struct {
	VehicleID      uuid.UUID `json:"vehicleId"`
	ServiceName    string    `json:"serviceName"`
	Category       Category  `json:"category"`
	IntervalMiles  int       `json:"intervalMiles"`
	IntervalMonths int       `json:"intervalMonths"`
	NextDueMileage int       `json:"nextDueMileage"`
	MilesUntilDue  *int      `json:"milesUntilDue,omitempty"`
	Status         Status    `json:"status"`
	Priority       int       `json:"priority"`
}

// Priority bands keep the three statuses totally ordered regardless of the
// within-band offsets.
const (
	priorityBandOverdue  = 0
	priorityBandDueSoon  = 10_000_000
	priorityBandUpcoming = 20_000_000
)

// ComputeForVehicle derives every applicable expected service for one vehicle,
// sorted most urgent first. Missing optional data (unknown mileage, logs
// without odometer readings) is tolerated, not an error.
func ComputeForVehicle(vehicle VehicleInfo, history []ServiceRecord) []ExpectedService {
	class := Classify(vehicle.Make, vehicle.Model)
	catalog := CatalogFor(class, vehicle.Year)

	expected := make([]ExpectedService, 0, len(catalog))
	for _, entry := range catalog {
		expected = append(expected, computeEntry(vehicle, entry, history))
	}

	sortByPriority(expected)
	return expected
}

// ComputeFleet derives expected services for every vehicle, sorted most urgent
// first across the whole fleet. The histories map is keyed by vehicle ID.
func ComputeFleet(vehicles []VehicleInfo, histories map[uuid.UUID][]ServiceRecord) []ExpectedService {
	var expected []ExpectedService
	for _, vehicle := range vehicles {
		expected = append(expected, ComputeForVehicle(vehicle, histories[vehicle.ID])...)
	}
	sortByPriority(expected)
	return expected
}

// DueOrOverdue filters a computed list down to the entries worth acting on.
func DueOrOverdue(services []ExpectedService) []ExpectedService {
	var filtered []ExpectedService
	for _, svc := range services {
		if svc.Status == StatusOverdue || svc.Status == StatusDueSoon {
			filtered = append(filtered, svc)
		}
	}
	return filtered
}

// GroupByVehicle buckets a computed list by vehicle, preserving order within
// each bucket.
func GroupByVehicle(services []ExpectedService) map[uuid.UUID][]ExpectedService {
	grouped := make(map[uuid.UUID][]ExpectedService)
	for _, svc := range services {
		grouped[svc.VehicleID] = append(grouped[svc.VehicleID], svc)
	}
	return grouped
}

func computeEntry(vehicle VehicleInfo, entry CatalogEntry, history []ServiceRecord) ExpectedService {
	svc := ExpectedService{
		VehicleID:      vehicle.ID,
		ServiceName:    entry.Name,
		Category:       entry.Category,
		IntervalMiles:  entry.IntervalMiles,
		IntervalMonths: entry.IntervalMonths,
	}

	lastOdometer, hasLast := lastServiceOdometer(entry.Name, history)

	switch {
	case hasLast:
		svc.NextDueMileage = lastOdometer + entry.IntervalMiles
	case vehicle.Mileage != nil:
		// No usable history: assume the service is due at the next interval
		// boundary past the current reading.
		svc.NextDueMileage = nextBoundary(*vehicle.Mileage, entry.IntervalMiles)
	default:
		svc.NextDueMileage = entry.IntervalMiles
	}

	if vehicle.Mileage == nil {
		svc.Status = StatusUpcoming
		svc.Priority = priorityBandUpcoming + svc.NextDueMileage
		return svc
	}

	milesUntil := svc.NextDueMileage - *vehicle.Mileage
	svc.MilesUntilDue = &milesUntil

	switch {
	case milesUntil <= 0:
		svc.Status = StatusOverdue
		// More overdue sorts first: milesUntil is zero or negative here.
		svc.Priority = priorityBandOverdue + (priorityBandDueSoon / 2) + milesUntil
	case milesUntil <= dueSoonWindowMiles:
		svc.Status = StatusDueSoon
		svc.Priority = priorityBandDueSoon + milesUntil
	default:
		svc.Status = StatusUpcoming
		svc.Priority = priorityBandUpcoming + milesUntil
	}

	return svc
}

// lastServiceOdometer finds the odometer reading of the most recent history
// entry matching the catalog name (case-insensitive exact match). Entries
// without a reading are skipped; the mileage fallback handles them.
func lastServiceOdometer(name string, history []ServiceRecord) (int, bool) {
	var (
		best      ServiceRecord
		foundBest bool
	)
	for _, record := range history {
		if !strings.EqualFold(record.ServiceType, name) || record.Odometer == nil {
			continue
		}
		if !foundBest || record.PerformedAt.After(best.PerformedAt) {
			best = record
			foundBest = true
		}
	}
	if !foundBest {
		return 0, false
	}
	return *best.Odometer, true
}

// nextBoundary returns the smallest multiple of interval strictly greater
// than mileage.
func nextBoundary(mileage, interval int) int {
	if interval <= 0 {
		return mileage
	}
	return (mileage/interval + 1) * interval
}

func sortByPriority(services []ExpectedService) {
	sort.SliceStable(services, func(i, j int) bool {
		return services[i].Priority < services[j].Priority
	})
}
