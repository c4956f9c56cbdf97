package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleModel = `ISO-10303-21;
HEADER; FILE_DESCRIPTION(('d'),'2;1'); FILE_NAME('n','',(''),(''),'t'); FILE_SCHEMA(('IFC2X3')); ENDSEC;
DATA;
#1=IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);
#2=IFCUNITASSIGNMENT((#1));
#3=IFCPROJECT('guid',$,$,$,$,$,$,$,#2);
#10=IFCWALL('w');
ENDSEC; END-ISO-10303-21;`

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	server, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go server.hub.Run()
	return server, server.Routes()
}

func createModel(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/models?name=test.ifc", strings.NewReader(sampleModel))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create model status = %d, body %s", rec.Code, rec.Body)
	}
	var model Model
	if err := json.Unmarshal(rec.Body.Bytes(), &model); err != nil {
		t.Fatalf("decoding model failed: %v", err)
	}
	return model.ID
}

func TestHealth(t *testing.T) {
	_, handler := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestCreateAndGetModel(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get model status = %d", rec.Code)
	}
	var model Model
	if err := json.Unmarshal(rec.Body.Bytes(), &model); err != nil {
		t.Fatal(err)
	}
	if model.NumLines != 4 {
		t.Errorf("NumLines = %d, want 4", model.NumLines)
	}
	if model.Scale != 1e-3 {
		t.Errorf("Scale = %v, want 1e-3", model.Scale)
	}
	if model.SHA256 == "" {
		t.Error("SHA256 should be recorded")
	}
}

func TestCreateModelRejectsEmptyBody(t *testing.T) {
	_, handler := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/models", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty create status = %d, want 400", rec.Code)
	}
}

func TestCreateModelRejectsMalformed(t *testing.T) {
	_, handler := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/models", strings.NewReader("#1=IFCWALL('oops);")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed create status = %d, want 400", rec.Code)
	}
}

func TestGetModelAbsent(t *testing.T) {
	_, handler := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent model status = %d, want 404", rec.Code)
	}
}

func TestListEntitiesByType(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/entities?type=IFCWALL", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list entities status = %d", rec.Code)
	}
	var payload struct {
		ExpressIDs []uint32 `json:"express_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.ExpressIDs) != 1 || payload.ExpressIDs[0] != 10 {
		t.Errorf("express_ids = %v, want [10]", payload.ExpressIDs)
	}
}

func TestListEntitiesWithFilter(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/entities?filter=id+%3E%3D+3+%26%26+id+%3C+11", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered entities status = %d, body %s", rec.Code, rec.Body)
	}
	var payload struct {
		ExpressIDs []uint32 `json:"express_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.ExpressIDs) != 2 || payload.ExpressIDs[0] != 3 || payload.ExpressIDs[1] != 10 {
		t.Errorf("express_ids = %v, want [3 10]", payload.ExpressIDs)
	}
}

func TestListEntitiesBadFilter(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/entities?filter=bogus+%3D+1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter status = %d, want 400", rec.Code)
	}
}

func TestGetEntity(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/entities/10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get entity status = %d", rec.Code)
	}
	var payload struct {
		ExpressID uint32 `json:"express_id"`
		Type      string `json:"type"`
		Step      string `json:"step"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Type != "IFCWALL" {
		t.Errorf("type = %q, want IFCWALL", payload.Type)
	}
	if !strings.Contains(payload.Step, "#10=IFCWALL('w');") {
		t.Errorf("step = %q, want the serialized line", payload.Step)
	}
}

func TestGetEntityAbsent(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/entities/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent entity status = %d, want 404", rec.Code)
	}
}

func TestExport(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id+"/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "ISO-10303-21;\n") {
		t.Error("export missing STEP header")
	}
	if !strings.Contains(body, "#10=IFCWALL('w');") {
		t.Error("export missing entity line")
	}
}

func TestRelations(t *testing.T) {
	server, handler := newTestServer(t)
	_ = server

	req := httptest.NewRequest("POST", "/api/models", strings.NewReader("#5=IFCRELAGGREGATES($,$,$,$,#1,(#2,#3));"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var model Model
	if err := json.Unmarshal(rec.Body.Bytes(), &model); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+model.ID+"/relations/aggregates", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("relations status = %d", rec.Code)
	}
	var aggregates map[string][]uint32
	if err := json.Unmarshal(rec.Body.Bytes(), &aggregates); err != nil {
		t.Fatal(err)
	}
	if got := aggregates["1"]; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("aggregates[1] = %v, want [2 3]", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+model.ID+"/relations/bogus", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown relation kind status = %d, want 404", rec.Code)
	}
}

func TestDeleteModel(t *testing.T) {
	_, handler := newTestServer(t)
	id := createModel(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/models/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/models/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted model status = %d, want 404", rec.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	job := server.jobs.Create("/tmp/model.ifc")
	if job.Status != JobStatusPending {
		t.Errorf("new job status = %s, want pending", job.Status)
	}

	if err := server.jobs.Update(job.ID, func(j *Job) {
		j.Status = JobStatusCompleted
		j.Progress = 100
	}); err != nil {
		t.Fatal(err)
	}

	got, err := server.jobs.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobStatusCompleted || got.Progress != 100 {
		t.Errorf("job = %+v, want completed at 100", got)
	}
}

func TestCatalogDisabled(t *testing.T) {
	_, handler := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/catalog", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("catalog without path status = %d, want 501", rec.Code)
	}
}
