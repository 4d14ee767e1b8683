package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flyerflix/internal/sqlinline"
)

const (
	testUserID     = "6f1f5a52-72f4-4f43-bd85-97d3ef22a0a9"
	testTemplateID = "0b0e8ed9-44cb-4c3a-b0cf-5a7f5a437c11"
)

func stubTemplate(sql *fakeSQL, premium bool) {
	sql.rowFns[sqlinline.QSelectTemplateByID] = func(args []any) func(dest ...any) error {
		return scanValues(
			testTemplateID, "Flyer Baile Neon", "https://cdn.example/neon.jpg",
			"balada", "show", "https://canva.com/design/neon",
			premium, false, 10, "", testClock, testClock,
		)
	}
}

func stubEntitlement(sql *fakeSQL, plan string, maxDownloads, usedToday int, lastDate string) {
	sql.rowFns[sqlinline.QSelectEntitlement] = func(args []any) func(dest ...any) error {
		return scanValues(testUserID, plan, maxDownloads, usedToday, lastDate)
	}
}

func doDownload(t *testing.T, app *App) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/templates/"+testTemplateID+"/download", nil)
	req = asUser(req, testUserID)
	req = withURLParam(req, "id", testTemplateID)
	rec := httptest.NewRecorder()
	app.DownloadTemplate(rec, req)
	return rec
}

func TestDownloadTemplateFreeUserWithinQuota(t *testing.T) {
	sql := newFakeSQL()
	stubTemplate(sql, false)
	stubEntitlement(sql, "free", 2, 1, testClock.Format("2006-01-02"))
	app, kv := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp downloadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CanvaURL != "https://canva.com/design/neon" {
		t.Fatalf("canva_url = %q", resp.CanvaURL)
	}
	if resp.RemainingDownloads != 0 {
		t.Fatalf("remaining = %d, want 0", resp.RemainingDownloads)
	}
	for _, q := range []string{sqlinline.QUpdateEntitlement, sqlinline.QInsertDownloadEvent, sqlinline.QIncrementTemplateUsage} {
		if sql.execCount(q) != 1 {
			t.Fatalf("statement executed %d times, want 1", sql.execCount(q))
		}
	}
	if _, ok, _ := kv.Get("flyerflix-downloads-" + testUserID); !ok {
		t.Fatalf("download record not written to engagement store")
	}
	if _, ok, _ := kv.Get("flyerflix-history-" + testUserID); !ok {
		t.Fatalf("history entry not written to engagement store")
	}
}

func TestDownloadTemplateQuotaExhausted(t *testing.T) {
	sql := newFakeSQL()
	stubTemplate(sql, false)
	stubEntitlement(sql, "free", 2, 2, testClock.Format("2006-01-02"))
	app, _ := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["upgrade_price"] != "R$ 23,90/mes" {
		t.Fatalf("upgrade_price = %v", resp["upgrade_price"])
	}
	if sql.execCount(sqlinline.QUpdateEntitlement) != 0 {
		t.Fatalf("entitlement must not change on a refused download")
	}
}

func TestDownloadTemplateQuotaResetsOnNewDay(t *testing.T) {
	sql := newFakeSQL()
	stubTemplate(sql, false)
	yesterday := testClock.AddDate(0, 0, -1).Format("2006-01-02")
	stubEntitlement(sql, "free", 2, 2, yesterday)
	app, _ := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp downloadResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.RemainingDownloads != 1 {
		t.Fatalf("remaining = %d, want 1 after reset", resp.RemainingDownloads)
	}
}

func TestDownloadTemplatePremiumLockedForFreeUser(t *testing.T) {
	sql := newFakeSQL()
	stubTemplate(sql, true)
	// Quota fully available: the premium lock must win regardless.
	stubEntitlement(sql, "free", 2, 0, "")
	app, _ := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	errObj, _ := resp["error"].(map[string]any)
	if errObj["code"] != "premium_required" {
		t.Fatalf("error code = %v", errObj["code"])
	}
}

func TestDownloadTemplateUltimateUnlimited(t *testing.T) {
	sql := newFakeSQL()
	stubTemplate(sql, true)
	stubEntitlement(sql, "ultimate", 0, 99, testClock.Format("2006-01-02"))
	app, _ := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp downloadResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.RemainingDownloads != -1 {
		t.Fatalf("remaining = %d, want -1 for unlimited", resp.RemainingDownloads)
	}
}

func TestDownloadTemplateRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t, newFakeSQL())
	req := httptest.NewRequest(http.MethodPost, "/v1/templates/"+testTemplateID+"/download", nil)
	req = withURLParam(req, "id", testTemplateID)
	rec := httptest.NewRecorder()
	app.DownloadTemplate(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestDownloadTemplateUnknownTemplate(t *testing.T) {
	sql := newFakeSQL()
	// No template row registered: scan returns pgx.ErrNoRows.
	app, _ := newTestApp(t, sql)

	rec := doDownload(t, app)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
