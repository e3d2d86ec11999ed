package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsupply/storefront/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
		t.Helper()

		var fromCtx string
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = requestid.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(requestid.Header, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec, fromCtx
	}

	t.Run("generates an ID when none supplied", func(t *testing.T) {
		t.Parallel()
		rec, fromCtx := serve(t, "")
		require.NotEmpty(t, fromCtx)
		assert.Equal(t, fromCtx, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses a valid client ID", func(t *testing.T) {
		t.Parallel()
		rec, fromCtx := serve(t, "client-supplied-42")
		assert.Equal(t, "client-supplied-42", fromCtx)
		assert.Equal(t, "client-supplied-42", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces an invalid client ID", func(t *testing.T) {
		t.Parallel()
		_, fromCtx := serve(t, "bad id\nwith newline")
		assert.NotEqual(t, "bad id\nwith newline", fromCtx)
		assert.NotEmpty(t, fromCtx)
	})

	t.Run("replaces an oversized client ID", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 200)
		_, fromCtx := serve(t, long)
		assert.NotEqual(t, long, fromCtx)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(t.Context(), "req_1"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)

	_, ok = extract(t.Context())
	assert.False(t, ok)
}
