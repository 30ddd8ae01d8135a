package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"presusimple/internal/client"
	"presusimple/internal/config"
	"presusimple/internal/logger"
	"presusimple/internal/middleware"
	"presusimple/internal/models"
	"presusimple/internal/server"
	"presusimple/internal/testutil"
	"presusimple/internal/validator"
)

const internalAPIKey = "integration-internal-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	sent   []string
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{
		Env:              "test",
		JWTSecret:        "integration-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		MobileCodeTTL:    time.Minute,
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		InternalAPIKey:   internalAPIKey,
	})
}

// recordingNotifier captures reset mails instead of sending them.
type recordingNotifier struct {
	app *testApp
}

func (n recordingNotifier) NotifyReset(email string, _ *models.ResetSnapshot) error {
	n.app.sent = append(n.app.sent, email)
	return nil
}

// setupApp builds the production router over an isolated in-memory SQLite.
// The reset workflow resolves users through a real HTTP call, so the router
// is also served from an httptest server the users client points at.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	app := &testApp{DB: db}

	self := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.Router.ServeHTTP(w, r)
	}))
	t.Cleanup(self.Close)

	cfg := *config.Get()
	cfg.InternalAPIURL = self.URL

	srv := server.New(server.Deps{
		Config:     &cfg,
		DB:         db,
		UserLookup: client.NewUsersClient(self.URL, internalAPIKey, 5*time.Second, self.Client()),
		Notifier:   recordingNotifier{app: app},
	})
	app.Router = srv.Router

	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return app
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// internalRequest calls a service-to-service route with the API key.
func (app *testApp) internalRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.InternalAPIKeyHeader, internalAPIKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// parseJSONArray parses a JSON array response.
func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var result []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expectStatus fails the test when rec does not carry status.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

// assertMoney compares a JSON decimal string against want.
func assertMoney(t *testing.T, field string, got interface{}, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("%s: expected decimal string, got %T (%v)", field, got, got)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("%s: invalid decimal %q: %v", field, s, err)
	}
	if !d.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", field, want, s)
	}
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"firstName":"Test","lastName":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	expectStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["accessToken"].(string), result["refreshToken"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	expectStatus(t, rec, http.StatusOK)
	result := parseJSON(t, rec)
	return result["accessToken"].(string), result["refreshToken"].(string)
}

// createBudget creates a budget and returns its JSON body.
func (app *testApp) createBudget(t *testing.T, token string, month, year int, envelope string, sections ...string) map[string]interface{} {
	t.Helper()
	names, _ := json.Marshal(sections)
	body := fmt.Sprintf(`{"month":%d,"year":%d,"envelope":%q,"sections":%s}`, month, year, envelope, names)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)
}

// createCategory creates a category in the named section and returns its id.
func (app *testApp) createCategory(t *testing.T, token, budgetID, section, name, budgeted string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"budgeted":%q,"sectionId":%q,"budgetId":%q}`, name, budgeted, section, budgetID)
	rec := app.request("POST", "/api/v1/categories", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["id"].(string)
}

// createExpense records an expense and returns its id.
func (app *testApp) createExpense(t *testing.T, token, categoryID, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"categoryId":%q,"amount":%q,"description":"test"}`, categoryID, amount)
	rec := app.request("POST", "/api/v1/expenses", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["id"].(string)
}

// getBudget fetches a budget by id.
func (app *testApp) getBudget(t *testing.T, token, budgetID string) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)
}
