package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
)

func newTestHandler(svc *mockConnectionService) *DatabasesHandler {
	return NewDatabasesHandler(svc, zap.NewNop())
}

func testConnection() *models.Connection {
	return &models.Connection{
		ID:         uuid.New(),
		Name:       "orders",
		ServerType: models.ServerLocal,
		EngineType: models.EnginePostgreSQL,
		Host:       "db.internal",
		Port:       "5432",
		Username:   "app",
		Database:   "orders",
		Status:     models.StatusConnected,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestList_ReturnsPaginationEnvelope(t *testing.T) {
	svc := &mockConnectionService{
		listConnections: []*models.Connection{testConnection()},
		listTotal:       11,
	}
	h := newTestHandler(svc)

	r := httptest.NewRequest("GET", "/api/databases?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total"] != float64(11) {
		t.Errorf("total = %v", body["total"])
	}
	if body["totalPages"] != float64(3) {
		t.Errorf("totalPages = %v", body["totalPages"])
	}
	if body["currentPage"] != float64(2) {
		t.Errorf("currentPage = %v", body["currentPage"])
	}
	if _, ok := body["databases"].([]any); !ok {
		t.Errorf("databases missing: %v", body)
	}
}

func TestAdd_FlexiblePortAndCreated(t *testing.T) {
	svc := &mockConnectionService{
		conn:   testConnection(),
		result: &engine.TestResult{Message: "Successfully connected"},
	}
	h := newTestHandler(svc)

	// Numeric port must be accepted.
	payload := `{"name":"orders","serverType":"local","engineType":"postgresql","host":"db.internal","port":5432,"username":"app","password":"pw","database":"orders"}`
	r := httptest.NewRequest("POST", "/api/databases", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.Add(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.lastRequest.Port != "5432" {
		t.Errorf("port = %q, want normalized string", svc.lastRequest.Port)
	}
	body := decodeBody(t, w)
	if body["message"] != "Successfully connected" {
		t.Errorf("message = %v", body["message"])
	}
	if db, ok := body["database"].(map[string]any); !ok || db["name"] != "orders" {
		t.Errorf("database = %v", body["database"])
	}
}

func TestAdd_PasswordNeverSerialized(t *testing.T) {
	conn := testConnection()
	pw := "hunter2"
	conn.Password = &pw
	svc := &mockConnectionService{conn: conn, result: &engine.TestResult{Message: "ok"}}
	h := newTestHandler(svc)

	payload := `{"name":"orders","serverType":"local","engineType":"postgresql","host":"h","port":"5432","username":"app","password":"hunter2"}`
	r := httptest.NewRequest("POST", "/api/databases", strings.NewReader(payload))
	w := httptest.NewRecorder()
	h.Add(w, r)

	if strings.Contains(w.Body.String(), "hunter2") {
		t.Errorf("password leaked in response: %s", w.Body.String())
	}
}

func TestAdd_ValidationErrorGets400(t *testing.T) {
	svc := &mockConnectionService{err: apperrors.ValidationError("host is required for local connections")}
	h := newTestHandler(svc)

	r := httptest.NewRequest("POST", "/api/databases", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	h.Add(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
	if body["message"] != "host is required for local connections" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestAdd_ConflictGets400(t *testing.T) {
	// Insert races surface as ErrConflict from the store. The client sees the
	// same 400 and message as a screened duplicate.
	svc := &mockConnectionService{err: apperrors.ErrConflict}
	h := newTestHandler(svc)

	r := httptest.NewRequest("POST", "/api/databases", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	h.Add(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "A connection to this database already exists" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestAdd_EngineErrorMessagePassesThrough(t *testing.T) {
	svc := &mockConnectionService{err: apperrors.NewEngineError(apperrors.KindAuthFailed,
		"Authentication failed: invalid username or password", nil)}
	h := newTestHandler(svc)

	r := httptest.NewRequest("POST", "/api/databases", strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	h.Add(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Authentication failed: invalid username or password" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := &mockConnectionService{err: apperrors.ErrNotFound}
	h := newTestHandler(svc)

	r := httptest.NewRequest("GET", "/api/databases/"+uuid.NewString(), nil)
	r.SetPathValue("id", uuid.NewString())
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGet_InvalidID(t *testing.T) {
	h := newTestHandler(&mockConnectionService{})

	r := httptest.NewRequest("GET", "/api/databases/not-a-uuid", nil)
	r.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestConnect_ReturnsStatusAndDetails(t *testing.T) {
	conn := testConnection()
	conn.Status = models.StatusConnectedSecure
	svc := &mockConnectionService{conn: conn, result: &engine.TestResult{Message: "ok", IsSecure: true}}
	h := newTestHandler(svc)

	r := httptest.NewRequest("POST", "/api/databases/"+conn.ID.String()+"/connect", nil)
	r.SetPathValue("id", conn.ID.String())
	w := httptest.NewRecorder()
	h.Connect(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != string(models.StatusConnectedSecure) {
		t.Errorf("status = %v", body["status"])
	}
	if _, ok := body["databasedetails"].(map[string]any); !ok {
		t.Errorf("databasedetails missing: %v", body)
	}
}

func TestConnect_FailureCarriesDisconnectedStatus(t *testing.T) {
	svc := &mockConnectionService{err: apperrors.NewEngineError(apperrors.KindRefusedConnection,
		"Connection refused: verify the database server is running and reachable", nil)}
	h := newTestHandler(svc)

	id := uuid.NewString()
	r := httptest.NewRequest("POST", "/api/databases/"+id+"/connect", nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Connect(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != string(models.StatusDisconnected) {
		t.Errorf("status = %v", body["status"])
	}
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
}

func TestSchema_Envelope(t *testing.T) {
	svc := &mockConnectionService{
		conn:   testConnection(),
		tables: []string{"orders", "users"},
	}
	h := newTestHandler(svc)

	id := uuid.NewString()
	r := httptest.NewRequest("GET", "/api/databases/"+id+"/schema", nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Schema(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["databaseType"] != "postgresql" {
		t.Errorf("databaseType = %v", body["databaseType"])
	}
	tables, ok := body["tables"].([]any)
	if !ok || len(tables) != 2 {
		t.Errorf("tables = %v", body["tables"])
	}
	if _, ok := body["collections"].([]any); !ok {
		t.Errorf("collections missing: %v", body)
	}
}

func TestSchema_NotConnected(t *testing.T) {
	svc := &mockConnectionService{conn: testConnection()}
	svc.err = apperrors.ErrNotConnected
	h := newTestHandler(svc)

	id := uuid.NewString()
	r := httptest.NewRequest("GET", "/api/databases/"+id+"/schema", nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Schema(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Database is not connected" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestTableData_Envelope(t *testing.T) {
	svc := &mockConnectionService{rows: []map[string]any{{"id": float64(1)}}}
	h := newTestHandler(svc)

	id := uuid.NewString()
	r := httptest.NewRequest("GET", "/api/databases/"+id+"/table-data/orders", nil)
	r.SetPathValue("id", id)
	r.SetPathValue("tableName", "orders")
	w := httptest.NewRecorder()
	h.TableData(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.lastTable != "orders" {
		t.Errorf("table = %q", svc.lastTable)
	}
	body := decodeBody(t, w)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Errorf("data = %v", body["data"])
	}
}

func TestDelete_Success(t *testing.T) {
	svc := &mockConnectionService{}
	h := newTestHandler(svc)

	id := uuid.NewString()
	r := httptest.NewRequest("DELETE", "/api/databases/"+id, nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.Delete(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
}
