package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"momo-loanhub/internal/adapters/http/middleware"
	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/response"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAdmin    = "admin"
	testPassword = "s3cret-pass"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppMode: "dev",
		Port:    "0",
		JWT:     config.JWTConfig{Secret: "test-secret", AccessTokenMins: 30},
		Cookie:  config.CookieConfig{SameSite: "Lax"},
		Admin:   config.AdminConfig{Username: testAdmin, Password: testPassword},
		USSD: config.USSDConfig{
			Separator:   "*",
			ServiceName: "Test Loans",
			Currency:    "RWF",
			SessionTTL:  30 * time.Minute,
		},
		Settlement: config.SettlementConfig{
			Schedule:             "@every 1m",
			HousekeepingSchedule: "@every 10m",
			PoolMode:             "snapshot",
			ZeroPoolPolicy:       "mark_paid",
		},
		Reports: config.ReportsConfig{Enabled: false, Dir: t.TempDir()},
	}
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	cfg := testConfig(t)
	require.NoError(t, config.NewSeeder(db, cfg).Run())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, cfg)
	Setup(app, NewContainer(db, cfg, services.LogErrorReporter{}, nil), cfg)
	return app, db
}

func ussdCall(t *testing.T, app *fiber.App, sessionID, phone, text string) string {
	t.Helper()

	form := url.Values{}
	form.Set("sessionId", sessionID)
	form.Set("phoneNumber", phone)
	form.Set("text", text)

	req := httptest.NewRequest(http.MethodPost, "/ussd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func login(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"`+testAdmin+`","password":"`+testPassword+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			require.NotEmpty(t, c.Value)
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func authed(t *testing.T, app *fiber.App, cookie *http.Cookie, method, target, body string) (*http.Response, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response.Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestUSSDEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	t.Run("empty text shows the menu", func(t *testing.T) {
		reply := ussdCall(t, app, "s-1", "+250788000001", "")
		require.True(t, strings.HasPrefix(reply, "CON Welcome to Test Loans"))
		require.Contains(t, reply, "1. Register")
	})

	t.Run("check loan before registering", func(t *testing.T) {
		reply := ussdCall(t, app, "s-2", "+250788000001", "2")
		require.Equal(t, "END You are not registered yet.", reply)
	})

	t.Run("batch registration then check loan", func(t *testing.T) {
		reply := ussdCall(t, app, "s-3", "+250788000001", "1*1199*Jane Doe*Kigali*Paul*Mary*7000*7")
		require.True(t, strings.HasPrefix(reply, "END "), reply)

		var count int64
		require.NoError(t, db.Model(&models.Repayment{}).Count(&count).Error)
		require.EqualValues(t, 7, count)

		reply = ussdCall(t, app, "s-4", "+250788000001", "2")
		require.Equal(t, "END Hello Jane Doe, Loan Amount: RWF 7000.00, Duration: 7 days", reply)
	})

	t.Run("session id falls back to session_id", func(t *testing.T) {
		form := url.Values{}
		form.Set("session_id", "s-5")
		form.Set("phone", "+250788000002")
		form.Set("text", "1")

		req := httptest.NewRequest(http.MethodPost, "/ussd", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(body), "CON "), string(body))

		var session models.USSDSession
		require.NoError(t, db.Where("session_id = ?", "s-5").First(&session).Error)
		require.Equal(t, "+250788000002", session.Phone)
	})
}

func TestAdminAuth(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("browser is redirected to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	})

	t.Run("api client gets 401", func(t *testing.T) {
		resp, body := authed(t, app, nil, http.MethodGet, "/api/v1/dashboard", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.False(t, body.Success)
	})

	t.Run("bad token gets 401", func(t *testing.T) {
		resp, _ := authed(t, app, &http.Cookie{Name: middleware.AccessTokenCookie, Value: "garbage"},
			http.MethodGet, "/api/v1/users", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := authed(t, app, nil, http.MethodPost, "/api/v1/auth/login",
			`{"username":"admin","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("login opens the dashboard", func(t *testing.T) {
		cookie := login(t, app)

		resp, body := authed(t, app, cookie, http.MethodGet, "/api/v1/dashboard?page=1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, body.Success)

		resp, body = authed(t, app, cookie, http.MethodGet, "/api/v1/auth/me", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, body.Success)
	})
}

func TestAdminEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := login(t, app)

	reply := ussdCall(t, app, "s-1", "+250788000010", "1*1199*Jane Doe*Kigali*Paul*Mary*300*3")
	require.True(t, strings.HasPrefix(reply, "END "), reply)

	t.Run("invalid user id", func(t *testing.T) {
		resp, _ := authed(t, app, cookie, http.MethodGet, "/api/v1/users/abc", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, _ := authed(t, app, cookie, http.MethodGet, "/api/v1/users/999", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("search and detail", func(t *testing.T) {
		resp, body := authed(t, app, cookie, http.MethodGet, "/api/v1/users?search=Jane", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		users, ok := page["data"].([]interface{})
		require.True(t, ok)
		require.Len(t, users, 1)
		meta, ok := page["meta"].(map[string]interface{})
		require.True(t, ok)
		require.EqualValues(t, 1, meta["total"])

		resp, body = authed(t, app, cookie, http.MethodGet, "/api/v1/users?page=2&limit=1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page, ok = body.Data.(map[string]interface{})
		require.True(t, ok)
		require.Empty(t, page["data"])

		resp, _ = authed(t, app, cookie, http.MethodGet, "/api/v1/users/1/repayments", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("mark paid", func(t *testing.T) {
		resp, body := authed(t, app, cookie, http.MethodPost, "/api/v1/repayments/1/mark-paid", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, true, data["paid"])

		resp, _ = authed(t, app, cookie, http.MethodPost, "/api/v1/repayments/999/mark-paid", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("edit rejects a non-positive duration", func(t *testing.T) {
		resp, _ := authed(t, app, cookie, http.MethodPut, "/api/v1/users/1", `{"duration":0}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("float account crud", func(t *testing.T) {
		resp, _ := authed(t, app, cookie, http.MethodPut, "/api/v1/momopays",
			`{"phone":"+250788000010","balance":"150.50","float_shared":"0","merged_batch":"0"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, _ = authed(t, app, cookie, http.MethodPut, "/api/v1/momopays",
			`{"phone":"+250788000010","balance":"150.50"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := authed(t, app, cookie, http.MethodGet, "/api/v1/momopays", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data, ok := body.Data.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "150.5", data["merged_pool"])

		resp, _ = authed(t, app, cookie, http.MethodPut, "/api/v1/momopays", `{"phone":"","balance":"1"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = authed(t, app, cookie, http.MethodDelete, "/api/v1/momopays/+250788000010", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = authed(t, app, cookie, http.MethodGet, "/api/v1/momopays/+250788000010", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("manual settlement", func(t *testing.T) {
		resp, body := authed(t, app, cookie, http.MethodPost, "/api/v1/settlement/run", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, body.Success)
	})

	t.Run("csv export", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/export/users.csv", nil)
		req.AddCookie(cookie)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Content-Disposition"), "users_export.csv")
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[1], "Jane Doe")
	})

	t.Run("delete cascades", func(t *testing.T) {
		resp, _ := authed(t, app, cookie, http.MethodDelete, "/api/v1/users/1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = authed(t, app, cookie, http.MethodGet, "/api/v1/users/1", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
