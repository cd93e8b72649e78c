package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestSessionStore_Lifecycle tests create, expiry and account-wide logout.
func TestSessionStore_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ss := NewSessionStore()
	ss.SetClock(func() time.Time { return now })

	token, err := ss.Create(Session{AccountID: "a1", Role: "admin"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ss.Create(Session{AccountID: "a1", Role: "admin"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s, ok := ss.Get(token)
	if !ok || s.AccountID != "a1" || !s.CreatedAt.Equal(now) {
		t.Fatalf("Get = %+v, %v", s, ok)
	}

	now = now.Add(SessionTTL + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("session should expire after 24h")
	}

	if n := ss.DeleteAccount("a1"); n != 1 {
		t.Errorf("DeleteAccount removed %d sessions, want 1", n)
	}
}

// TestRequireRole tests the 401/403/200 split.
func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	tests := []struct {
		name    string
		session *Session
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &Session{AccountID: "m", Role: "member"}, http.StatusForbidden},
		{"admin", &Session{AccountID: "a", Role: "admin"}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/accounts", nil)
			if tt.session != nil {
				req = req.WithContext(ContextWithSession(req.Context(), *tt.session))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// TestAuth_ReadsCookie tests that a valid cookie puts the session in context.
func TestAuth_ReadsCookie(t *testing.T) {
	ss := NewSessionStore()
	token, _ := ss.Create(Session{AccountID: "a1", Role: "user"})

	var got Session
	h := Auth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	}))
	req := httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.AccountID != "a1" {
		t.Errorf("session AccountID = %q, want a1", got.AccountID)
	}
}

// TestCSRF_ExemptsJSON tests that JSON posts skip the token check while form
// posts without a token are rejected.
func TestCSRF_ExemptsJSON(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/api/bills", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("JSON post status = %d, want 204", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/members/m1/photo", strings.NewReader("x"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("tokenless multipart status = %d, want 403", rr.Code)
	}
}

// TestRateLimiter tests the token bucket per client.
func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
}

// TestRateLimiter_Refill gives tokens back once an interval passes.
func TestRateLimiter_Refill(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("bucket should be empty")
	}
	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after one interval")
	}

	now = now.Add(10 * time.Minute)
	rl.Allow("10.0.0.2")
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("idle client should be swept")
	}
}

// TestRateLimit_Middleware answers 429 with Retry-After and reports the client.
func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	var limited []string
	rl.OnLimit = func(ip string) { limited = append(limited, ip) }
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/api/bills", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
	if len(limited) != 1 || limited[0] != "192.0.2.7" {
		t.Errorf("OnLimit calls = %v, want [192.0.2.7]", limited)
	}
}
