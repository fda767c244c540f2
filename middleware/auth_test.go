package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"land-registry-service/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestExtractToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		expect string
	}{
		{name: "Bearer token", header: "Bearer abc.def.ghi", expect: "abc.def.ghi"},
		{name: "Missing scheme", header: "abc.def.ghi", expect: ""},
		{name: "Wrong scheme", header: "Basic abc", expect: ""},
		{name: "Empty token", header: "Bearer ", expect: ""},
		{name: "Empty header", header: "", expect: ""},
	}

	for _, testCase := range testCases {
		if got := extractToken(testCase.header); got != testCase.expect {
			t.Errorf("%s: expected %q, got %q", testCase.name, testCase.expect, got)
		}
	}
}

func TestValidateToken(t *testing.T) {
	testCases := []struct {
		name        string
		token       string
		secret      string
		expectAdmin string
		expectError bool
	}{
		{
			name:        "Valid token",
			token:       signToken(t, testSecret, "admin-1", time.Now().Add(time.Hour)),
			secret:      testSecret,
			expectAdmin: "admin-1",
		}, {
			name:        "Wrong secret",
			token:       signToken(t, "other-secret", "admin-1", time.Now().Add(time.Hour)),
			secret:      testSecret,
			expectError: true,
		}, {
			name:        "Expired token",
			token:       signToken(t, testSecret, "admin-1", time.Now().Add(-time.Hour)),
			secret:      testSecret,
			expectError: true,
		}, {
			name:        "No subject",
			token:       signToken(t, testSecret, "", time.Now().Add(time.Hour)),
			secret:      testSecret,
			expectError: true,
		}, {
			name:        "Auth not configured",
			token:       signToken(t, testSecret, "admin-1", time.Now().Add(time.Hour)),
			secret:      "",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		adminID, err := validateToken(testCase.token, testCase.secret)
		if testCase.expectError {
			if err == nil {
				t.Errorf("%s: expected an error", testCase.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", testCase.name, err)
			continue
		}
		if adminID != testCase.expectAdmin {
			t.Errorf("%s: expected admin %q, got %q", testCase.name, testCase.expectAdmin, adminID)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.GET("/protected", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin_id": c.GetString("admin_id")})
	})

	testCases := []struct {
		name         string
		header       string
		expectStatus int
	}{
		{
			name:         "Valid token",
			header:       "Bearer " + signToken(t, testSecret, "admin-1", time.Now().Add(time.Hour)),
			expectStatus: http.StatusOK,
		}, {
			name:         "Missing header",
			header:       "",
			expectStatus: http.StatusUnauthorized,
		}, {
			name:         "Garbage token",
			header:       "Bearer not-a-jwt",
			expectStatus: http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if testCase.header != "" {
			req.Header.Set("Authorization", testCase.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != testCase.expectStatus {
			t.Errorf("%s: expected status %d, got %d", testCase.name, testCase.expectStatus, w.Code)
		}
	}
}
