package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/api"
	"github.com/semanticallynull/movr-backend/history"
	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/internal/o11y"
	"github.com/semanticallynull/movr-backend/promo"
	"github.com/semanticallynull/movr-backend/ride"
	"github.com/semanticallynull/movr-backend/user"
	"github.com/semanticallynull/movr-backend/vehicle"
)

type TestServer struct {
	DB          *db.DB
	Router      *gin.Engine
	UserRepo    *user.Repository
	VehicleRepo *vehicle.Repository
	RideRepo    *ride.Repository
	HistoryRepo *history.Repository
	PromoRepo   *promo.Repository
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping acceptance tests")
	}

	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	d, err := db.Open(ctx, dbURL, db.Options{AutoCreateSchema: true})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	cleanupTestData(t, d)

	ur := user.NewRepository(d)
	vr := vehicle.NewRepository(d)
	rr := ride.NewRepository(d)
	hr := history.NewRepository(d)
	pr := promo.NewRepository(d)

	obs, cleanup, err := o11y.Setup(ctx, false)
	if err != nil {
		t.Fatalf("failed to set up observability: %v", err)
	}
	t.Cleanup(cleanup)

	a := api.New(ur, vr, rr, hr, pr, obs, "", "")

	return &TestServer{
		DB:          d,
		Router:      a.Router(),
		UserRepo:    ur,
		VehicleRepo: vr,
		RideRepo:    rr,
		HistoryRepo: hr,
		PromoRepo:   pr,
	}
}

func (ts *TestServer) Close() {
	ts.DB.Close()
}

func cleanupTestData(t *testing.T, d *db.DB) {
	t.Helper()

	// Delete in order of dependencies
	tables := []string{
		"user_promo_codes",
		"promo_codes",
		"vehicle_location_histories",
		"rides",
		"vehicles",
		"users",
	}
	err := d.Tx(context.Background(), func(s db.Session) error {
		for _, table := range tables {
			if _, err := s.ExecContext(context.Background(), "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to clean test data: %v", err)
	}
}

// Helper methods for making requests
func (ts *TestServer) GET(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) POST(path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

// Helper to create a test user
func (ts *TestServer) CreateTestUser(t *testing.T, city, name string) uuid.UUID {
	t.Helper()
	u, err := ts.UserRepo.Add(context.Background(), city, name, "1 Test Street", "0000111122223333")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u.ID
}

// Helper to create a test vehicle owned by ownerID
func (ts *TestServer) CreateTestVehicle(t *testing.T, city string, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	v, err := ts.VehicleRepo.Add(context.Background(), city, ownerID, "scooter", "100 Main Street", nil)
	if err != nil {
		t.Fatalf("failed to create test vehicle: %v", err)
	}
	return v.ID
}
