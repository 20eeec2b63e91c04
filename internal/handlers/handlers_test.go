package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangtd/shelfcheck-golang/internal/handlers"
	"github.com/quangtd/shelfcheck-golang/internal/models"
	"github.com/quangtd/shelfcheck-golang/internal/routes"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory ProductRepository + EmployeeFinder backing
// the handler tests. No MySQL in unit tests.
type memStore struct {
	products  map[string]*models.Product
	employees map[string]*models.Employee
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*models.Product{},
		employees: map[string]*models.Employee{
			"NV001": {Username: "NV001", EmployeeName: "Nguyễn Văn An", Status: "Active", Role: "staff"},
			"SV01":  {Username: "SV01", EmployeeName: "Trần Thị Bình", Status: "Active", Role: "supervisor"},
			"NV999": {Username: "NV999", EmployeeName: "Left Employee", Status: "Left", Role: "staff"},
		},
	}
}

func (m *memStore) GetByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	p, ok := m.products[barcode]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, p *models.Product) error {
	if _, ok := m.products[p.Barcode]; ok {
		return workflow.ErrAlreadyExists
	}
	cp := *p
	m.products[p.Barcode] = &cp
	return nil
}

func (m *memStore) ApplyTransition(_ context.Context, barcode string, state models.VerificationState, official *workflow.OfficialFields) error {
	p, ok := m.products[barcode]
	if !ok {
		return workflow.ErrNotFound
	}
	p.VerificationState = state
	if official != nil {
		p.Name = official.Name
		p.Unit = official.Unit
		p.Price = official.Price
	}
	p.RefreshChecked()
	return nil
}

func (m *memStore) sorted() []*models.Product {
	out := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]*models.Product, int, error) {
	return m.sorted(), len(m.products), nil
}

func (m *memStore) Search(_ context.Context, term string, limit, offset int) ([]*models.Product, int, error) {
	var out []*models.Product
	for _, p := range m.sorted() {
		if strings.Contains(p.Name, term) || strings.Contains(p.Barcode, term) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *memStore) ListPendingFirstCheck(_ context.Context, limit, offset int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range m.sorted() {
		if !p.FirstCheckDone {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListPendingSecondCheck(_ context.Context, limit, offset int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range m.sorted() {
		if p.FirstCheckDone && !p.SecondCheckDone {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context) (*models.CheckWorkflowStats, error) {
	stats := &models.CheckWorkflowStats{}
	for _, p := range m.products {
		stats.Total++
		switch {
		case !p.FirstCheckDone:
			stats.PendingFirstCheck++
		case !p.SecondCheckDone:
			stats.PendingSecondCheck++
		default:
			stats.Completed++
		}
	}
	return stats, nil
}

func (m *memStore) FindEmployee(_ context.Context, username string) (*models.Employee, error) {
	e, ok := m.employees[username]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	return e, nil
}

type memBlobs struct{ n int }

func (b *memBlobs) Save(data []byte, ext string) (string, error) {
	b.n++
	return fmt.Sprintf("/uploads/img-%d%s", b.n, ext), nil
}

func (b *memBlobs) IsRef(s string) bool { return strings.HasPrefix(s, "/uploads/") }

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := workflow.NewService(store, &memBlobs{})
	svc.Now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

	h := &handlers.Handlers{Svc: svc, Employees: store}
	return routes.SetupRouter(h, t.TempDir()), store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createMilk(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/products", gin.H{
		"barcode": "P1", "name": "Milk", "price": 35000, "unit": "hộp",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// --- Auth ---

func TestLoginAndMe(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "NV001"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Nguyễn Văn An", body["employeeName"])
	assert.Equal(t, "staff", body["role"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// Session restore with the issued token.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NV001", decodeBody(t, rec)["username"])
}

func TestLoginFailures(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "NV999"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- Products ---

func TestCreateAndGetProduct(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/products/P1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Milk", body["name"])
	assert.Equal(t, "Hộp", body["unit"]) // canonical vocabulary spelling
	assert.Equal(t, false, body["first_check"])
	assert.Equal(t, false, body["checked"])
	assert.Equal(t, []any{}, body["images"])
}

func TestCreateProduct_Conflict(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/products", gin.H{
		"barcode": "P1", "name": "Milk", "price": 35000, "unit": "hộp",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateProduct_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/products", gin.H{"barcode": "P1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/products", gin.H{
		"barcode": "P1", "name": "Milk", "price": -1, "unit": "hộp",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/products/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndSearchProducts(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)
	w := doJSON(t, router, http.MethodPost, "/api/products", gin.H{
		"barcode": "P2", "name": "Fish sauce", "price": 22000, "unit": "chai",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products?limit=10&offset=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["data"], 2)

	w = doJSON(t, router, http.MethodGet, "/api/products/search?q=Fish", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["total"])
}

func TestUpdateProduct(t *testing.T) {
	router, store := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPut, "/api/products/P1", gin.H{"price": 36000})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 36000.0, store.products["P1"].Price)
	assert.Equal(t, "Milk", store.products["P1"].Name)

	w = doJSON(t, router, http.MethodPut, "/api/products/nope", gin.H{"price": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Double-check workflow ---

func TestFirstCheckEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
		"stock":        7,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p := store.products["P1"]
	assert.True(t, p.FirstCheckDone)
	assert.False(t, p.SecondCheckDone)
	assert.Equal(t, "NV001", *p.CheckedBy)
	assert.Equal(t, 7, *p.Stock)

	// The GET endpoint reflects the transition.
	w = doJSON(t, router, http.MethodGet, "/api/products/P1", nil)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["first_check"])
	assert.Equal(t, false, body["second_check"])
}

func TestFirstCheck_InvalidResult(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "looks_fine",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid check_result")
}

func TestFirstCheck_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPatch, "/api/products/nope/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSecondCheck_BeforeFirstCheck(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by": "SV01",
		"approved":   true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "First check not completed yet")
}

func TestSecondCheck_RecheckOverwrites(t *testing.T) {
	router, store := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by":   "SV01",
		"check_result": "needs_correction",
		"new_price":    40000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p := store.products["P1"]
	assert.True(t, p.SecondCheckDone)
	assert.Equal(t, "SV01", *p.CheckedBy)
	assert.Equal(t, 40000.0, *p.NewPrice)
	assert.Equal(t, 35000.0, p.Price) // re-check never commits
}

func TestSecondCheck_ApprovalCommits(t *testing.T) {
	router, store := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":       "NV001",
		"check_result":     "needs_correction",
		"new_product_name": "Sữa tươi Vinamilk 1L",
		"new_price":        40000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by": "SV01",
		"approved":   true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["changes_applied"])

	p := store.products["P1"]
	assert.Equal(t, "Sữa tươi Vinamilk 1L", p.Name)
	assert.Equal(t, 40000.0, p.Price)
	assert.Equal(t, "Hộp", p.Unit) // no staged unit, official kept
	assert.True(t, p.Checked)
}

func TestSecondCheck_RejectionResets(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "incorrect",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by": "SV01",
		"approved":   false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The product is back in the pending-first-check pool.
	w = doJSON(t, router, http.MethodGet, "/api/products/pending-first-check", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "P1", pending[0]["barcode"])
	assert.Equal(t, "rejected", pending[0]["check_result"])
}

func TestSecondCheck_NeitherShape(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by": "SV01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPendingSecondCheckListsStagedFields(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "needs_correction",
		"new_unit":     "chai",
		"images":       []string{"/uploads/shelf.jpg"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products/pending-second-check", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pending []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "Chai", pending[0]["new_unit"])
	assert.Equal(t, []any{"/uploads/shelf.jpg"}, pending[0]["images"])
}

func TestFirstCheck_TooManyImages(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)

	w := doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
		"images": []string{
			"/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg", "/uploads/4.jpg",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowStats(t *testing.T) {
	router, _ := newTestRouter(t)
	createMilk(t, router)
	w := doJSON(t, router, http.MethodPost, "/api/products", gin.H{
		"barcode": "P2", "name": "Fish sauce", "price": 22000, "unit": "chai",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/first-check", gin.H{
		"checked_by":   "NV001",
		"check_result": "correct",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPatch, "/api/products/P1/second-check", gin.H{
		"checked_by": "SV01",
		"approved":   true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/check-workflow/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["pending_first_check"])
	assert.Equal(t, float64(1), body["completed"])
	assert.Equal(t, float64(50), body["progress_percentage"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
