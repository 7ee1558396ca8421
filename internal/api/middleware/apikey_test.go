package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runAPIKey(configured, sent string, setHeader bool) (int, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/progress/reconcile", nil)
	if setHeader {
		req.Header.Set(APIKeyHeader, sent)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := APIKey(configured)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, called
}

func TestAPIKey_Accepts(t *testing.T) {
	code, called := runAPIKey("k-123", "k-123", true)
	if !called || code != http.StatusOK {
		t.Fatalf("expected pass-through, got called=%v code=%d", called, code)
	}
}

func TestAPIKey_Rejects(t *testing.T) {
	cases := []struct {
		name       string
		configured string
		sent       string
		setHeader  bool
	}{
		{"missing header", "k-123", "", false},
		{"wrong key", "k-123", "nope", true},
		{"no key configured", "", "anything", true},
	}

	for _, tc := range cases {
		code, called := runAPIKey(tc.configured, tc.sent, tc.setHeader)
		if called {
			t.Errorf("%s: next must not run", tc.name)
		}
		if code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", tc.name, code)
		}
	}
}
