package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/carqr-app/carqr-backend/internal/models"
)

func TestLogScanIsPublicAndAppendOnly(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.loginUser(t, "9876543210", "owner@example.com")
	car := s.seedCar(t, user.ID, "MH01AB1234", "Swift")

	for i := 0; i < 2; i++ {
		status, envelope := s.request(t, http.MethodPost, "/api/v1/scans/", map[string]interface{}{
			"carId":        car.ID,
			"scannerPhone": "9123456780",
			"scannerEmail": "scanner@example.com",
			"notes":        fmt.Sprintf("scan %d", i),
		}, "")
		if status != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %v", status, envelope)
		}
		activity := envelope["activity"].(map[string]interface{})
		if activity["carId"] != car.ID {
			t.Fatalf("unexpected activity %v", activity)
		}
	}

	_, total, err := s.store.GetScansByCar(car.ID, models.ScanFilter{Limit: 50})
	if err != nil {
		t.Fatalf("history lookup failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected two scan rows, got %d", total)
	}
}

func TestLogScanRequiresContactFields(t *testing.T) {
	s := newTestServer(t)

	status, envelope := s.request(t, http.MethodPost, "/api/v1/scans/", map[string]interface{}{
		"carId":        "car_1",
		"scannerPhone": "9123456780",
	}, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	expectCode(t, envelope, "INVALID_REQUEST")
}

func TestGetScanHistoryNewestFirst(t *testing.T) {
	s := newTestServer(t)
	user, token := s.loginUser(t, "9876543210", "owner@example.com")
	car := s.seedCar(t, user.ID, "MH01AB1234", "Swift")

	for i := 0; i < 3; i++ {
		status, _ := s.request(t, http.MethodPost, "/api/v1/scans/", map[string]interface{}{
			"carId":        car.ID,
			"scannerPhone": "9123456780",
			"scannerEmail": "scanner@example.com",
			"notes":        fmt.Sprintf("scan %d", i),
		}, "")
		if status != http.StatusCreated {
			t.Fatalf("seed scan %d failed: %d", i, status)
		}
		time.Sleep(time.Millisecond)
	}

	status, envelope := s.request(t, http.MethodGet, "/api/v1/scans/"+car.ID+"/scans?limit=2", nil, token)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, envelope)
	}

	scans := envelope["scans"].([]interface{})
	if len(scans) != 2 {
		t.Fatalf("expected page of 2, got %d", len(scans))
	}
	first := scans[0].(map[string]interface{})
	if first["notes"] != "scan 2" {
		t.Fatalf("expected newest scan first, got %v", first["notes"])
	}

	pagination := envelope["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 3 {
		t.Fatalf("expected total 3, got %v", pagination["total"])
	}
	if pagination["limit"].(float64) != 2 || pagination["offset"].(float64) != 0 {
		t.Fatalf("unexpected pagination %v", pagination)
	}
}

func TestGetScanHistoryClampsNegativePagination(t *testing.T) {
	s := newTestServer(t)
	user, token := s.loginUser(t, "9876543210", "owner@example.com")
	car := s.seedCar(t, user.ID, "MH01AB1234", "Swift")

	status, _ := s.request(t, http.MethodPost, "/api/v1/scans/", map[string]interface{}{
		"carId":        car.ID,
		"scannerPhone": "9123456780",
		"scannerEmail": "scanner@example.com",
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("seed scan failed: %d", status)
	}

	status, envelope := s.request(t, http.MethodGet,
		"/api/v1/scans/"+car.ID+"/scans?offset=-1&limit=-5", nil, token)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for negative pagination, got %d: %v", status, envelope)
	}
	scans := envelope["scans"].([]interface{})
	if len(scans) != 1 {
		t.Fatalf("expected the scan back, got %d", len(scans))
	}
	pagination := envelope["pagination"].(map[string]interface{})
	if pagination["offset"].(float64) != 0 || pagination["limit"].(float64) != 50 {
		t.Fatalf("expected clamped pagination, got %v", pagination)
	}
}

func TestGetScanHistoryEnforcesOwnership(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.loginUser(t, "9876543210", "owner@example.com")
	car := s.seedCar(t, owner.ID, "MH01AB1234", "Swift")

	_, intruderToken := s.loginUser(t, "9123456780", "intruder@example.com")

	status, envelope := s.request(t, http.MethodGet, "/api/v1/scans/"+car.ID+"/scans", nil, intruderToken)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner, got %d", status)
	}
	expectCode(t, envelope, "CAR_NOT_FOUND")

	status, _ = s.request(t, http.MethodGet, "/api/v1/scans/"+car.ID+"/scans", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}
