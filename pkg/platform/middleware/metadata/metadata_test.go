package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kycgate/pkg/requestcontext"
)

func TestRequestMetadata(t *testing.T) {
	var gotID, gotIP string
	h := RequestMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotIP = requestcontext.ClientIP(r.Context())
	}))

	t.Run("propagates caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", gotID)
		assert.Equal(t, "203.0.113.7", gotIP)
		assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	})

	t.Run("generates id when missing or oversized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLength+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Len(t, gotID, 36)
		assert.Equal(t, gotID, rec.Header().Get(HeaderRequestID))
	})
}
