package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutor_market/internal/domain"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]domain.Actor

func (s stubVerifier) Verify(token string) (domain.Actor, error) {
	a, ok := s[token]
	if !ok {
		return domain.Actor{}, errors.New("bad token")
	}
	return a, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user": actor.UserID, "role": actor.Role})
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	v := stubVerifier{"good": {UserID: "u1", Role: domain.RoleStudent}}
	r := newTestRouter(JWTAuthMiddleware(v))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user":"u1","role":"student"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"kind":"auth"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	v := stubVerifier{
		"admin":   {UserID: "a", Role: domain.RoleAdmin},
		"student": {UserID: "s", Role: domain.RoleStudent},
	}
	r := newTestRouter(JWTAuthMiddleware(v), AdminOnlyMiddleware())

	for token, want := range map[string]int{"admin": http.StatusOK, "student": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}

	// Without JWTAuthMiddleware there is no actor
	w := httptest.NewRecorder()
	newTestRouter(RequireRole(domain.RoleTutor)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(newTestRouter())

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
	}{
		{"preflight from allowed origin", http.MethodOptions, "http://localhost:5173", "http://localhost:5173"},
		{"preflight from other origin", http.MethodOptions, "http://evil.example", ""},
		{"simple request from allowed origin", http.MethodGet, "http://localhost:5173", "http://localhost:5173"},
		{"simple request from other origin", http.MethodGet, "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Less(t, w.Code, 300)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.method == http.MethodOptions && tt.wantOrigin != "" {
				assert.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := newTestRouter(RequestLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRequestLoggerRecordsCaller(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	v := stubVerifier{"admin": {UserID: "a", Role: domain.RoleAdmin}}
	r := newTestRouter(RequestLogger(), JWTAuthMiddleware(v))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "a", entry.Data["user_id"])
	assert.Equal(t, "admin", entry.Data["role"])
}
