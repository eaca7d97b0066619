package server_test

// End-to-end tests that drive the whole wired application through its HTTP
// surface: real router, real middleware, real services, in-memory SQLite.
// Only the outside world (disk for uploads, the clock's timezone) is
// substituted with test-friendly values.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailybite/dailybite/internal/config"
	"github.com/dailybite/dailybite/internal/server"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Port:              0,
		DBPath:            ":memory:",
		LogLevel:          "error",
		JWTSecret:         "integration-test-secret-key",
		JWTTTL:            30 * time.Minute,
		MaxUploadBytes:    1 << 20,
		AllowedImageTypes: []string{"image/jpeg", "image/png"},
		UploadDir:         t.TempDir(),
		AutoDeleteImages:  false,
		ImageRetention:    24 * time.Hour,
		Timezone:          "UTC",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(cfg, logger)
	require.NoError(t, err, "building server")

	return srv.Handler()
}

// doJSON sends a JSON request and decodes the JSON response into out (if
// out is non-nil).
func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if out != nil && rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out),
			"decoding response of %s %s: %s", method, path, rr.Body.String())
	}
	return rr
}

// registerUser creates an account and returns its bearer token.
func registerUser(t *testing.T, h http.Handler, email, username string) string {
	t.Helper()

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	rr := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"email":    email,
		"username": username,
		"password": "secret123",
	}, &resp)
	require.Equal(t, http.StatusCreated, rr.Code, "register: %s", rr.Body.String())
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// uploadPhoto performs a multipart upload and returns the recorder.
func uploadPhoto(t *testing.T, h http.Handler, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// =========================================================================
// SMOKE
// =========================================================================

func TestNewRejectsShortJWTSecret(t *testing.T) {
	cfg := &config.Config{
		DBPath:            ":memory:",
		JWTSecret:         "short",
		JWTTTL:            30 * time.Minute,
		MaxUploadBytes:    1 << 20,
		AllowedImageTypes: []string{"image/jpeg"},
		UploadDir:         t.TempDir(),
		ImageRetention:    24 * time.Hour,
		Timezone:          "UTC",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := server.New(cfg, logger)
	require.Error(t, err, "a weak signing secret must fail construction")
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t)

	var root map[string]string
	rr := doJSON(t, h, http.MethodGet, "/", "", nil, &root)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "running", root["status"])

	var health map[string]string
	rr = doJSON(t, h, http.MethodGet, "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", health["status"])
}

// =========================================================================
// AUTH FLOW
// =========================================================================

func TestRegisterLoginMe(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "alice@example.com", "alice")

	// JSON login.
	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	rr := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, &login)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bearer", login.TokenType)

	// The token works on a protected route.
	var me struct {
		Email       string `json:"email"`
		CalorieGoal int    `json:"calorieGoal"`
	}
	rr = doJSON(t, h, http.MethodGet, "/auth/me", login.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, 2000, me.CalorieGoal)
}

func TestFormLogin(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "bob@example.com", "bobby")

	// The OAuth2 form convention: the "username" field carries the email.
	form := url.Values{}
	form.Set("username", "bob@example.com")
	form.Set("password", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "access_token")
}

func TestLoginFailures(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "carol@example.com", "carol")

	rr := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "carol@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	rr = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ghost@example.com",
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDuplicateRegistration(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "dave@example.com", "dave")

	rr := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"email":    "dave@example.com",
		"username": "dave2",
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/auth/me", "/api/meals", "/api/summary"} {
		rr := doJSON(t, h, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "GET %s without token", path)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		// The rejection honors the same JSON error contract as the handlers.
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `"error":"unauthorized"`)
	}

	rr := doJSON(t, h, http.MethodGet, "/api/meals", "not-a-real-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateProfile(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "erin@example.com", "erin")

	var updated struct {
		CalorieGoal int    `json:"calorieGoal"`
		Username    string `json:"username"`
	}
	rr := doJSON(t, h, http.MethodPut, "/auth/me", token, map[string]interface{}{
		"calorieGoal": 2500,
	}, &updated)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 2500, updated.CalorieGoal)
	assert.Equal(t, "erin", updated.Username, "merge-patch must not touch omitted fields")

	rr = doJSON(t, h, http.MethodPut, "/auth/me", token, map[string]interface{}{
		"calorieGoal": 999,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =========================================================================
// MEAL PIPELINE
// =========================================================================

type mealResponse struct {
	ID                string  `json:"id"`
	EstimatedCalories int     `json:"estimatedCalories"`
	Status            string  `json:"status"`
	Confidence        float64 `json:"confidence"`
	Items             []struct {
		Name     string `json:"name"`
		Calories int    `json:"calories"`
	} `json:"items"`
}

func TestPhotoUploadAndConfirmFlow(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "frank@example.com", "frank")

	// Upload → pending meal with analysis.
	rr := uploadPhoto(t, h, token, "lunch.jpg", "image/jpeg", []byte("fake jpeg bytes"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var analysis mealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &analysis))
	assert.Equal(t, "pending", analysis.Status)
	assert.NotEmpty(t, analysis.ID)
	assert.NotEmpty(t, analysis.Items)
	assert.Greater(t, analysis.EstimatedCalories, 0)
	assert.GreaterOrEqual(t, analysis.Confidence, 0.70)
	assert.LessOrEqual(t, analysis.Confidence, 0.95)

	// Confirm as eaten.
	var confirmed mealResponse
	rr = doJSON(t, h, http.MethodPost, "/api/meals/"+analysis.ID+"/confirm", token, map[string]string{
		"action": "eat",
		"notes":  "extra sauce",
	}, &confirmed)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "eat", confirmed.Status)

	// The meal shows up in today's summary.
	var summary struct {
		Goal      int            `json:"goal"`
		Consumed  int            `json:"consumed"`
		Remaining int            `json:"remaining"`
		Meals     []mealResponse `json:"meals"`
	}
	rr = doJSON(t, h, http.MethodGet, "/api/summary", token, nil, &summary)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2000, summary.Goal)
	assert.Equal(t, analysis.EstimatedCalories, summary.Consumed)
	assert.Len(t, summary.Meals, 1)
}

func TestPhotoUploadRejectsNonImage(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "grace@example.com", "grace")

	rr := uploadPhoto(t, h, token, "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// No meal was created.
	var meals []mealResponse
	rr = doJSON(t, h, http.MethodGet, "/api/meals", token, nil, &meals)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, meals)
}

func TestPhotoUploadRequiresFilePart(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "heidi@example.com", "heidi")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("something", "else"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMealOwnershipIsolation(t *testing.T) {
	h := newTestServer(t)
	alice := registerUser(t, h, "alice2@example.com", "alice2")
	mallory := registerUser(t, h, "mallory@example.com", "mallory")

	rr := uploadPhoto(t, h, alice, "lunch.jpg", "image/jpeg", []byte("fake jpeg"))
	require.Equal(t, http.StatusCreated, rr.Code)
	var meal mealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meal))

	// Another user sees 404, not 403 — existence is not disclosed.
	rr = doJSON(t, h, http.MethodGet, "/api/meals/"+meal.ID, mallory, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/meals/"+meal.ID+"/confirm", mallory, map[string]string{"action": "eat"}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/meals/"+meal.ID, mallory, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The owner still has it.
	rr = doJSON(t, h, http.MethodGet, "/api/meals/"+meal.ID, alice, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMealDeleteSecondTimeIs404(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "ivan@example.com", "ivan")

	rr := uploadPhoto(t, h, token, "dinner.jpg", "image/jpeg", []byte("fake jpeg"))
	require.Equal(t, http.StatusCreated, rr.Code)
	var meal mealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meal))

	rr = doJSON(t, h, http.MethodDelete, "/api/meals/"+meal.ID, token, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/meals/"+meal.ID, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserSummaryForbiddenForOthers(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "judy@example.com", "judy")

	rr := doJSON(t, h, http.MethodGet, "/api/users/someone-else/summary", token, nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMealListInvalidDate(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "kate@example.com", "kate")

	rr := doJSON(t, h, http.MethodGet, "/api/meals?date=not-a-date", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =========================================================================
// LEGACY CRUD
// =========================================================================

func TestBlogPostCRUD(t *testing.T) {
	h := newTestServer(t)

	var post struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Published bool   `json:"published"`
	}
	rr := doJSON(t, h, http.MethodPost, "/posts/", "", map[string]interface{}{
		"title":   "Hello",
		"content": "First post",
	}, &post)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, post.Published, "published defaults to true")

	var fetched struct {
		Title string `json:"title"`
	}
	rr = doJSON(t, h, http.MethodGet, "/posts/"+post.ID, "", nil, &fetched)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hello", fetched.Title)

	rr = doJSON(t, h, http.MethodPut, "/posts/"+post.ID, "", map[string]interface{}{
		"published": false,
	}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// published_only filter now excludes it.
	var list []json.RawMessage
	rr = doJSON(t, h, http.MethodGet, "/posts/?published_only=true", "", nil, &list)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, list)

	rr = doJSON(t, h, http.MethodDelete, "/posts/"+post.ID, "", nil, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/posts/"+post.ID, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPartnerCRUD(t *testing.T) {
	h := newTestServer(t)

	var partner struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	rr := doJSON(t, h, http.MethodPost, "/partners/", "", map[string]interface{}{
		"name":    "Acme Foods",
		"email":   "contact@acme.example",
		"company": "Acme Inc",
	}, &partner)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, partner.Active)

	// Duplicate email is a conflict.
	rr = doJSON(t, h, http.MethodPost, "/partners/", "", map[string]interface{}{
		"name":    "Acme Clone",
		"email":   "contact@acme.example",
		"company": "Clone Inc",
	}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// PATCH deactivates, active_only filter excludes.
	rr = doJSON(t, h, http.MethodPatch, "/partners/"+partner.ID, "", map[string]interface{}{
		"active": false,
	}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var list []json.RawMessage
	rr = doJSON(t, h, http.MethodGet, "/partners/?active_only=true", "", nil, &list)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, list)

	rr = doJSON(t, h, http.MethodDelete, "/partners/"+partner.ID, "", nil, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
