package taxtablehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/taxtable"
	"chancehr/internal/requestctx"
)

type captureAudit struct {
	entries []audit.Entry
}

func (c *captureAudit) Record(_ context.Context, e audit.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func newRouter(t *testing.T) (http.Handler, *captureAudit) {
	t.Helper()
	svc := taxtable.NewService(nil)
	if err := svc.LoadBuiltin(context.Background()); err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	auditor := &captureAudit{}
	r := chi.NewRouter()
	NewHandler(svc, auditor).RegisterRoutes(r)
	return r, auditor
}

func ownerRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	actor := requestctx.Actor{UserID: "u1", WorkplaceID: "wp-1", Role: requestctx.RoleOwner}
	return req.WithContext(requestctx.WithActor(req.Context(), actor))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestLookupBuiltinTable(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodGet, "/tax-tables/2026/lookup?gross=3000000&dependents=1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		IncomeTax int64 `json:"incomeTax"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.IncomeTax != 85220 {
		t.Fatalf("expected 85220, got %d", data.IncomeTax)
	}
}

func TestLookupMissingYear(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodGet, "/tax-tables/2019/lookup?gross=1000000", ""))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Code != "tax_table_not_found" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestImportCSV(t *testing.T) {
	router, auditor := newRouter(t)
	body := "min,max,1\n1000,2000,100\n2000,3000,200\n"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodPost, "/tax-tables/2027/import", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result taxtable.ImportResult
	if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTaxTableImport {
		t.Fatalf("expected one import audit entry, got %+v", auditor.entries)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodGet, "/tax-tables/2027/lookup?gross=2500000", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"incomeTax":200`) {
		t.Fatalf("expected imported bracket, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	router, auditor := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodPost, "/tax-tables/2027/import", "a,b\nc,d\n"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(auditor.entries) != 0 {
		t.Fatal("failed import must not be audited")
	}
}

func TestInvalidYear(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodGet, "/tax-tables/19/rates", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSetRatesRoundTrip(t *testing.T) {
	router, _ := newRouter(t)
	body := `{"pensionRate":"0.0475","pensionFloor":400000,"pensionCeiling":6370000,"healthRate":"0.03595","longTermCareRate":"0.1314","employmentRate":"0.009","employerEmploymentRate":"0.0115"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodPut, "/tax-tables/2030/rates", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, ownerRequest(http.MethodGet, "/tax-tables/2030/rates", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"year":2030`) {
		t.Fatalf("expected stored rates, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEmployeeCannotImport(t *testing.T) {
	router, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/tax-tables/2027/import", strings.NewReader("1000,2000,1"))
	req = req.WithContext(requestctx.WithActor(req.Context(), requestctx.Actor{UserID: "u2", WorkplaceID: "wp-1", Role: requestctx.RoleEmployee}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
