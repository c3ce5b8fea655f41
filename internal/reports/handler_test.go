package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type failingRepo struct{}

func (failingRepo) Save(context.Context, Report) error { return errors.New("down") }
func (failingRepo) ListByUser(context.Context, string, int) ([]Report, error) {
	return nil, errors.New("down")
}
func (failingRepo) GetByID(context.Context, string, string) (Report, error) {
	return Report{}, errors.New("down")
}

func newTestRouter(repo Repo, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	h := NewHandler(repo)
	h.Now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestListReturnsCallerHistory(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	_ = repo.Save(ctx, sampleReport("r1", "google:1", base))
	_ = repo.Save(ctx, sampleReport("r2", "google:1", base.Add(time.Minute)))
	_ = repo.Save(ctx, sampleReport("r3", "google:2", base))

	resp := httptest.NewRecorder()
	newTestRouter(repo, "google:1").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Success bool     `json:"success"`
		Reports []Report `json:"reports"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Reports) != 2 || body.Reports[0].ID != "r2" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestListRequiresIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(NewMemoryRepo(), "").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"success":false`) {
		t.Fatalf("expected failure shape, got %s", resp.Body.String())
	}
}

func TestListStoreFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(failingRepo{}, "google:1").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestGetReport(t *testing.T) {
	repo := NewMemoryRepo()
	_ = repo.Save(context.Background(), sampleReport("r1", "google:1", time.Now()))
	router := newTestRouter(repo, "google:1")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/r1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestExportServesWorkbook(t *testing.T) {
	repo := NewMemoryRepo()
	_ = repo.Save(context.Background(), sampleReport("r1", "google:1", time.Now()))

	resp := httptest.NewRecorder()
	newTestRouter(repo, "google:1").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
	disposition := resp.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "20260601.xlsx") || strings.Contains(disposition, "google:1") {
		t.Fatalf("unexpected disposition %q", disposition)
	}
	if resp.Body.Len() == 0 {
		t.Fatalf("expected workbook body")
	}
}
