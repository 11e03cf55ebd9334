package acceptance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/vehicle"
)

func TestListVehicles_FiltersByCityAndLimit(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ctx := context.Background()

	seattleOwner := ts.CreateTestUser(t, "seattle", "Sal")
	portlandOwner := ts.CreateTestUser(t, "portland", "Pat")

	for i := 0; i < 3; i++ {
		ts.CreateTestVehicle(t, "seattle", seattleOwner)
	}
	ts.CreateTestVehicle(t, "portland", portlandOwner)

	vehicles, err := ts.VehicleRepo.List(ctx, "seattle", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(vehicles) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(vehicles))
	}
	for _, v := range vehicles {
		if v.City != "seattle" {
			t.Errorf("vehicle %s leaked from city %q", v.ID, v.City)
		}
	}
	if vehicles[0].ID.String() >= vehicles[1].ID.String() {
		t.Errorf("vehicles out of key order: %s before %s", vehicles[0].ID, vehicles[1].ID)
	}

	all, err := ts.VehicleRepo.List(ctx, "seattle", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 seattle vehicles, got %d", len(all))
	}
}

func TestAddVehicle_CrossCityOwnerRejected(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	owner := ts.CreateTestUser(t, "seattle", "Sal")

	_, err := ts.VehicleRepo.Add(ctx, "portland", owner, "scooter", "100 Main Street", nil)
	if !errors.Is(err, vehicle.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound for cross-city owner, got %v", err)
	}

	vehicles, err := ts.VehicleRepo.List(ctx, "portland", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(vehicles) != 0 {
		t.Errorf("cross-city vehicle silently persisted: %v", vehicles)
	}
}

func TestAddVehicle_ExtDocumentRoundTrips(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	owner := ts.CreateTestUser(t, "seattle", "Sal")

	ext := db.Document{"color": "red", "brand": "Schwinn"}
	v, err := ts.VehicleRepo.Add(ctx, "seattle", owner, "bike", "100 Main Street", ext)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := ts.VehicleRepo.Get(ctx, "seattle", v.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Ext["color"] != "red" || got.Ext["brand"] != "Schwinn" {
		t.Errorf("ext document mangled: %v", got.Ext)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	_, err := ts.VehicleRepo.Get(context.Background(), "seattle", uuid.New())
	if !errors.Is(err, vehicle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordLocation_AppendsHistory(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	owner := ts.CreateTestUser(t, "seattle", "Sal")
	vehicleID := ts.CreateTestVehicle(t, "seattle", owner)

	if err := ts.HistoryRepo.Record(ctx, "seattle", vehicleID, 47.6, -122.3); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := ts.HistoryRepo.Record(ctx, "seattle", vehicleID, 47.7, -122.4); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := ts.HistoryRepo.List(ctx, "seattle", vehicleID, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].TS.After(entries[1].TS) {
		t.Error("history not in increasing timestamp order")
	}

	if err := ts.HistoryRepo.Record(ctx, "seattle", uuid.New(), 0, 0); err == nil {
		t.Error("expected error recording location for unknown vehicle")
	}
}
