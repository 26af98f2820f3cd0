package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vitalix-dev/vitalix-bmi/internal/engine"
	"github.com/vitalix-dev/vitalix-bmi/internal/service"
)

func setupTestRouter() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	store := engine.NewMemStore(nil, nil)
	h := &Handler{Svc: service.New(store)}
	r := gin.Default()
	h.Routes(r.Group("/api"))
	return r, h
}

func computeBody(owner string, weight, height float64, permit bool) *bytes.Buffer {
	body, _ := json.Marshal(map[string]any{
		"owner":  owner,
		"weight": weight,
		"height": height,
		"permit": permit,
	})
	return bytes.NewBuffer(body)
}

func TestCompute_ReferenceScenario(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("alice.test", 52, 127.0, true))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Rounded  int      `json:"rounded"`
		Category string   `json:"category"`
		Lines    []string `json:"lines"`
		Stored   bool     `json:"stored"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)

	if res.Rounded != 32 || res.Category != "Obese" {
		t.Errorf("Expected rounded 32 / Obese, got %d / %s", res.Rounded, res.Category)
	}
	if !res.Stored {
		t.Error("Expected record to be stored")
	}
	if len(res.Lines) != 4 {
		t.Errorf("Expected 4 output lines, got %v", res.Lines)
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("bob", 0, 170, true))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	// Nothing may be stored on invalid input.
	req, _ = http.NewRequest("GET", "/api/records/bob", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for bob's record, got %d", w.Code)
	}
}

func TestCompute_NoPermitNotStored(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("carol", 70, 175, false))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	req, _ = http.NewRequest("GET", "/api/records/carol", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without permit, got %d", w.Code)
	}
}

func TestGetRecordAndListOwners(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("dave", 52, 127, true))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	req, _ = http.NewRequest("GET", "/api/records/dave", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var rec map[string]any
	json.Unmarshal(w.Body.Bytes(), &rec)
	if rec["owner"] != "dave" || rec["category"] != "Obese" {
		t.Errorf("Unexpected record: %v", rec)
	}

	req, _ = http.NewRequest("GET", "/api/records", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var owners []string
	json.Unmarshal(w.Body.Bytes(), &owners)
	if len(owners) != 1 || owners[0] != "dave" {
		t.Errorf("Expected [dave], got %v", owners)
	}
}

func TestDeleteRecord_PermissionGate(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("eve", 52, 127, true))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Without permit the delete is refused.
	req, _ = http.NewRequest("DELETE", "/api/records/eve", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without permit, got %d", w.Code)
	}

	req, _ = http.NewRequest("DELETE", "/api/records/eve?permit=true", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with permit, got %d", w.Code)
	}

	req, _ = http.NewRequest("GET", "/api/records/eve", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Record should be gone, got %d", w.Code)
	}
}

func TestProfiles(t *testing.T) {
	r, _ := setupTestRouter()

	body, _ := json.Marshal(map[string]string{"owner": "frank", "name": "Frank F."})
	req, _ := http.NewRequest("POST", "/api/profiles", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Second registration conflicts.
	req, _ = http.NewRequest("POST", "/api/profiles", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate, got %d", w.Code)
	}

	req, _ = http.NewRequest("GET", "/api/profiles/frank", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var p map[string]any
	json.Unmarshal(w.Body.Bytes(), &p)
	if p["name"] != "Frank F." {
		t.Errorf("Unexpected profile: %v", p)
	}
}

func TestAudit(t *testing.T) {
	r, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/compute", computeBody("grace", 52, 127, true))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	req, _ = http.NewRequest("GET", "/api/audit", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var entries []map[string]any
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0]["action"] != "compute" {
		t.Errorf("Expected one compute audit entry, got %v", entries)
	}
}
