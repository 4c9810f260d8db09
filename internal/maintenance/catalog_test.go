package maintenance

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		make  string
		model string
		want  VehicleClass
	}{
		{"Tesla", "Model 3", ClassElectric},
		{"Ford", "Mustang Mach-E", ClassElectric},
		{"Toyota", "Prius", ClassHybrid},
		{"Toyota", "RAV4 Hybrid", ClassHybrid},
		{"Ford", "Mustang", ClassSports},
		{"Ford", "F-150", ClassTruck},
		{"Toyota", "RAV4", ClassSUV},
		{"BMW", "330i", ClassLuxury},
		{"Chevrolet", "Bolt EV", ClassElectric},
		{"Kia", "EV6", ClassElectric},
		{"Honda", "Civic", ClassStandard},
		{"", "", ClassStandard},
	}

	for _, tc := range cases {
		if got := Classify(tc.make, tc.model); got != tc.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tc.make, tc.model, got, tc.want)
		}
	}
}

func TestClassifyElectricWinsOverBodyStyle(t *testing.T) {
	// A Rivian pickup is electric first, truck never.
	if got := Classify("Rivian", "R1T"); got != ClassElectric {
		t.Fatalf("Classify(Rivian R1T) = %s, want electric", got)
	}
}

func TestClassifyEVMarkerNeedsWholeToken(t *testing.T) {
	// Models merely containing "ev" stay combustion-classified.
	if got := Classify("Ford", "Everest"); got == ClassElectric {
		t.Fatal("Classify(Ford Everest) = electric, want a combustion class")
	}
	if got := Classify("Chevrolet", "Silverado EV"); got != ClassElectric {
		t.Fatalf("Classify(Silverado EV) = %s, want electric", got)
	}
}

func TestCatalogForElectricSkipsCombustion(t *testing.T) {
	entries := CatalogFor(ClassElectric, time.Now().Year()-2)

	for _, e := range entries {
		switch e.Name {
		case "Oil Change", "Engine Air Filter", "Coolant Flush", "Transmission Service", "Spark Plug Replacement":
			t.Errorf("electric catalog contains combustion entry %q", e.Name)
		}
	}
	if !hasEntry(entries, "Battery Health Check") {
		t.Error("electric catalog missing Battery Health Check")
	}
	if !hasEntry(entries, "Tire Rotation") {
		t.Error("electric catalog missing Tire Rotation")
	}
}

func TestCatalogForTruckAddsDifferential(t *testing.T) {
	entries := CatalogFor(ClassTruck, time.Now().Year()-2)
	if !hasEntry(entries, "Differential Service") {
		t.Fatal("truck catalog missing Differential Service")
	}
}

func TestOilChangeInterval(t *testing.T) {
	currentYear := time.Now().Year()

	cases := []struct {
		name      string
		class     VehicleClass
		modelYear int
		want      int
	}{
		{"standard recent", ClassStandard, currentYear - 3, 5000},
		{"luxury recent", ClassLuxury, currentYear - 3, 7500},
		{"sports recent", ClassSports, currentYear - 3, 3500},
		{"standard aged", ClassStandard, currentYear - 15, 3000},
		{"luxury aged", ClassLuxury, currentYear - 15, 3000},
		{"sports aged keeps shorter interval", ClassSports, currentYear - 15, 3000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := oilChangeInterval(tc.class, tc.modelYear); got != tc.want {
				t.Errorf("oilChangeInterval(%s, %d) = %d, want %d", tc.class, tc.modelYear, got, tc.want)
			}
		})
	}
}

func hasEntry(entries []CatalogEntry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}
