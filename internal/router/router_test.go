package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/db"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/throttle"
)

type testClient struct {
	t      *testing.T
	engine *gin.Engine
	tokens *auth.TokenManager
}

func newTestClient(t *testing.T, guard throttle.LoginGuard) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.ConnectDatabase(db.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tokens, err := auth.NewTokenManager("test-secret", 5*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	engine := NewRouter(Deps{
		DB:             conn,
		Tokens:         tokens,
		Guard:          guard,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return &testClient{t: t, engine: engine, tokens: tokens}
}

func (c *testClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	c.engine.ServeHTTP(rr, req)
	return rr
}

func (c *testClient) expect(rr *httptest.ResponseRecorder, status int) map[string]any {
	c.t.Helper()

	if rr.Code != status {
		c.t.Fatalf("expected status %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}

	payload := map[string]any{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			c.t.Fatalf("parse response: %v", err)
		}
	}
	return payload
}

// signup registers a user and logs in, returning the user id and access token.
func (c *testClient) signup(username string, age int) (uint, string) {
	c.t.Helper()

	user := c.expect(c.do(http.MethodPost, "/users/", "", map[string]any{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "correct-horse-battery",
		"password2": "correct-horse-battery",
		"age":       age,
	}), http.StatusCreated)

	tokens := c.expect(c.do(http.MethodPost, "/login/", "", map[string]any{
		"username": username,
		"password": "correct-horse-battery",
	}), http.StatusOK)

	return uint(user["id"].(float64)), tokens["access"].(string)
}

func id(payload map[string]any) uint {
	return uint(payload["id"].(float64))
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestClient(t, nil)

	aliceID, alice := c.signup("alice", 28)
	bobID, bob := c.signup("bob", 30)

	project := c.expect(c.do(http.MethodPost, "/projects/", alice, map[string]any{
		"name":        "SoftDesk",
		"description": "Issue tracker",
		"type":        "back-end",
	}), http.StatusCreated)

	if uint(project["author"].(float64)) != aliceID || project["author_username"] != "alice" {
		t.Fatalf("author = %v", project["author"])
	}
	if project["contributors_count"].(float64) != 1 {
		t.Fatalf("contributors_count = %v, want 1", project["contributors_count"])
	}

	projectPath := fmt.Sprintf("/projects/%d", id(project))

	contributors := c.expect(c.do(http.MethodGet, projectPath+"/contributors/", alice, nil), http.StatusOK)
	if contributors["count"].(float64) != 1 {
		t.Fatalf("contributors count = %v", contributors["count"])
	}
	authorRow := id(contributors["results"].([]any)[0].(map[string]any))

	issue := c.expect(c.do(http.MethodPost, projectPath+"/issues/", alice, map[string]any{
		"name": "Login crashes",
		"tag":  "BUG",
	}), http.StatusCreated)
	if issue["assigned_to"] != nil || issue["priority"] != "MEDIUM" || issue["status"] != "To Do" {
		t.Fatalf("unexpected issue defaults: %v", issue)
	}
	issuePath := fmt.Sprintf("%s/issues/%d", projectPath, id(issue))

	c.expect(c.do(http.MethodGet, projectPath+"/", bob, nil), http.StatusNotFound)
	c.expect(c.do(http.MethodGet, issuePath+"/", bob, nil), http.StatusNotFound)

	c.expect(c.do(http.MethodPost, projectPath+"/contributors/", alice, map[string]any{"user": bobID}), http.StatusCreated)
	c.expect(c.do(http.MethodPost, projectPath+"/contributors/", alice, map[string]any{"user_id": bobID}), http.StatusConflict)

	c.expect(c.do(http.MethodGet, projectPath+"/", bob, nil), http.StatusOK)

	comment := c.expect(c.do(http.MethodPost, issuePath+"/comments/", bob, map[string]any{
		"description": "Reproduced on staging",
	}), http.StatusCreated)
	if uuid, _ := comment["uuid"].(string); len(uuid) != 36 {
		t.Fatalf("comment uuid = %v", comment["uuid"])
	}
	commentPath := fmt.Sprintf("%s/comments/%d/", issuePath, id(comment))

	denied := c.expect(c.do(http.MethodDelete, commentPath, alice, nil), http.StatusForbidden)
	if denied["code"] != "permission_denied" {
		t.Fatalf("code = %v", denied["code"])
	}

	c.expect(c.do(http.MethodPatch, issuePath+"/", bob, map[string]any{"status": "Finished"}), http.StatusForbidden)
	c.expect(c.do(http.MethodDelete, projectPath+"/", bob, nil), http.StatusForbidden)
	c.expect(c.do(http.MethodDelete, fmt.Sprintf("%s/contributors/%d/", projectPath, authorRow), alice, nil), http.StatusBadRequest)

	assigned := c.expect(c.do(http.MethodPatch, issuePath+"/", alice, map[string]any{"assigned_to": bobID}), http.StatusOK)
	if assigned["assigned_to_username"] != "bob" {
		t.Fatalf("assigned_to_username = %v", assigned["assigned_to_username"])
	}
	cleared := c.expect(c.do(http.MethodPatch, issuePath+"/", alice, `{"assigned_to": null}`), http.StatusOK)
	if cleared["assigned_to"] != nil {
		t.Fatalf("assigned_to = %v, want null", cleared["assigned_to"])
	}

	c.expect(c.do(http.MethodDelete, commentPath, bob, nil), http.StatusNoContent)

	activity := c.expect(c.do(http.MethodGet, projectPath+"/activity/", bob, nil), http.StatusOK)
	results := activity["results"].([]any)
	if latest := results[0].(map[string]any); latest["action"] != "comment.deleted" {
		t.Fatalf("latest activity = %v", latest["action"])
	}

	c.expect(c.do(http.MethodDelete, projectPath+"/", alice, nil), http.StatusNoContent)
	c.expect(c.do(http.MethodGet, projectPath+"/", alice, nil), http.StatusNotFound)
}

func TestAuthenticationRequired(t *testing.T) {
	c := newTestClient(t, nil)
	userID, _ := c.signup("alice", 28)

	pair, err := c.tokens.IssuePair(userID)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "refresh token as access", token: pair.Refresh},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c.expect(c.do(http.MethodGet, "/projects/", tc.token, nil), http.StatusUnauthorized)
		})
	}

	c.expect(c.do(http.MethodGet, "/projects/", pair.Access, nil), http.StatusOK)
}

func TestTokenRefresh(t *testing.T) {
	c := newTestClient(t, nil)
	c.signup("alice", 28)

	tokens := c.expect(c.do(http.MethodPost, "/login", "", map[string]any{
		"username": "alice",
		"password": "correct-horse-battery",
	}), http.StatusOK)

	refreshed := c.expect(c.do(http.MethodPost, "/token/refresh/", "", map[string]any{
		"refresh": tokens["refresh"],
	}), http.StatusOK)
	c.expect(c.do(http.MethodGet, "/users/", refreshed["access"].(string), nil), http.StatusOK)

	c.expect(c.do(http.MethodPost, "/token/refresh/", "", map[string]any{
		"refresh": tokens["access"],
	}), http.StatusUnauthorized)

	c.expect(c.do(http.MethodPost, "/login/", "", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	}), http.StatusUnauthorized)
}

func TestRegistrationValidation(t *testing.T) {
	c := newTestClient(t, nil)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		field  string
	}{
		{
			name:   "fourteen",
			body:   map[string]any{"username": "kid", "password": "correct-horse-battery", "password2": "correct-horse-battery", "age": 14},
			status: http.StatusBadRequest,
			field:  "age",
		},
		{
			name:   "missing age",
			body:   map[string]any{"username": "kid", "password": "correct-horse-battery", "password2": "correct-horse-battery"},
			status: http.StatusBadRequest,
			field:  "age",
		},
		{
			name:   "bad email",
			body:   map[string]any{"username": "kid", "email": "nope", "password": "correct-horse-battery", "password2": "correct-horse-battery", "age": 20},
			status: http.StatusBadRequest,
			field:  "email",
		},
		{
			name:   "fifteen",
			body:   map[string]any{"username": "teen", "password": "correct-horse-battery", "password2": "correct-horse-battery", "age": 15},
			status: http.StatusCreated,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := c.expect(c.do(http.MethodPost, "/users/", "", tc.body), tc.status)
			if tc.field != "" && payload["field"] != tc.field {
				t.Fatalf("field = %v, want %s", payload["field"], tc.field)
			}
		})
	}
}

func TestUserEndpointsAreSelfOnly(t *testing.T) {
	c := newTestClient(t, nil)
	aliceID, alice := c.signup("alice", 28)
	bobID, bob := c.signup("bob", 30)

	list := c.expect(c.do(http.MethodGet, "/users/", alice, nil), http.StatusOK)
	if list["count"].(float64) != 1 {
		t.Fatalf("alice sees %v users", list["count"])
	}

	c.expect(c.do(http.MethodGet, fmt.Sprintf("/users/%d/", bobID), alice, nil), http.StatusNotFound)
	c.expect(c.do(http.MethodDelete, fmt.Sprintf("/users/%d/", bobID), alice, nil), http.StatusForbidden)
	c.expect(c.do(http.MethodGet, fmt.Sprintf("/users/%d/", bobID), bob, nil), http.StatusOK)

	updated := c.expect(c.do(http.MethodPatch, fmt.Sprintf("/users/%d", aliceID), alice, map[string]any{
		"can_be_contacted": true,
	}), http.StatusOK)
	if updated["can_be_contacted"] != true {
		t.Fatal("consent flag not updated")
	}

	c.expect(c.do(http.MethodDelete, fmt.Sprintf("/users/%d/", aliceID), alice, nil), http.StatusNoContent)
	c.expect(c.do(http.MethodGet, "/users/", alice, nil), http.StatusUnauthorized)
}

func TestPaginationLinks(t *testing.T) {
	c := newTestClient(t, nil)
	_, alice := c.signup("alice", 28)

	const n = 12
	for i := 0; i < n; i++ {
		c.expect(c.do(http.MethodPost, "/projects/", alice, map[string]any{
			"name": fmt.Sprintf("Project %d", i),
			"type": "iOS",
		}), http.StatusCreated)
	}

	seen := 0
	next := "/projects/?page_size=5"
	for pages := 0; next != ""; pages++ {
		if pages > n {
			t.Fatal("pagination does not terminate")
		}

		page := c.expect(c.do(http.MethodGet, next, alice, nil), http.StatusOK)
		if page["count"].(float64) != n {
			t.Fatalf("count = %v", page["count"])
		}
		seen += len(page["results"].([]any))

		next = ""
		if link, ok := page["next"].(string); ok {
			if !strings.HasPrefix(link, "http://") || !strings.Contains(link, "page_size=5") {
				t.Fatalf("next link = %q", link)
			}
			next = strings.TrimPrefix(link, "http://example.com")
		}
	}
	if seen != n {
		t.Fatalf("pages summed to %d, want %d", seen, n)
	}

	first := c.expect(c.do(http.MethodGet, "/projects?page_size=5", alice, nil), http.StatusOK)
	if first["previous"] != nil {
		t.Fatalf("first page previous = %v", first["previous"])
	}
	last := c.expect(c.do(http.MethodGet, "/projects/?page=3&page_size=5", alice, nil), http.StatusOK)
	if last["next"] != nil || last["previous"] == nil {
		t.Fatalf("last page links = %v / %v", last["next"], last["previous"])
	}

	c.expect(c.do(http.MethodGet, "/projects/?page=4&page_size=5", alice, nil), http.StatusNotFound)
	c.expect(c.do(http.MethodGet, "/projects/?page=abc", alice, nil), http.StatusNotFound)

	// (page-1)*page_size wraps past MaxInt64 for this page.
	huge := c.expect(c.do(http.MethodGet, "/projects/?page=1844674407370955162&page_size=10", alice, nil), http.StatusNotFound)
	if huge["error"] != "Invalid page" {
		t.Fatalf("huge page error = %v", huge["error"])
	}
}

func TestLoginThrottling(t *testing.T) {
	s := miniredis.RunT(t)

	limiter, err := throttle.NewRedisLimiter(s.Addr(), "", 0, 2, 15*time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })

	c := newTestClient(t, limiter)
	c.signup("alice", 28)

	bad := map[string]any{"username": "alice", "password": "wrong-password"}
	good := map[string]any{"username": "alice", "password": "correct-horse-battery"}

	c.expect(c.do(http.MethodPost, "/login/", "", bad), http.StatusUnauthorized)
	c.expect(c.do(http.MethodPost, "/login/", "", bad), http.StatusUnauthorized)
	c.expect(c.do(http.MethodPost, "/login/", "", good), http.StatusTooManyRequests)

	s.FastForward(16 * time.Minute)

	c.expect(c.do(http.MethodPost, "/login/", "", good), http.StatusOK)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, nil)

	payload := c.expect(c.do(http.MethodGet, "/health", "", nil), http.StatusOK)
	if payload["database"] != "ok" {
		t.Fatalf("database = %v", payload["database"])
	}
	if payload["redis"] != "disabled" {
		t.Fatalf("redis = %v, want disabled without a limiter", payload["redis"])
	}
}

func TestHealthReportsRedis(t *testing.T) {
	s := miniredis.RunT(t)
	limiter, err := throttle.NewRedisLimiter(s.Addr(), "", 0, 5, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })

	c := newTestClient(t, limiter)

	payload := c.expect(c.do(http.MethodGet, "/health", "", nil), http.StatusOK)
	if payload["redis"] != "ok" {
		t.Fatalf("redis = %v", payload["redis"])
	}

	s.Close()

	payload = c.expect(c.do(http.MethodGet, "/health", "", nil), http.StatusOK)
	if payload["redis"] != "unavailable" {
		t.Fatalf("redis = %v after shutdown", payload["redis"])
	}
}
