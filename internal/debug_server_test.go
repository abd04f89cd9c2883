package internal

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspectHandler(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("msg:0001:0001"), []byte("hello")); err != nil {
			return err
		}
		return txn.Set([]byte("user:0001"), []byte("alice"))
	}))

	stats := func() map[string]any { return map[string]any{"connections": 3} }
	handler := newInspectHandler(slog.Default(), db, nil, stats)

	t.Run("should list the default prefix", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		require.Contains(t, body, "msg:0001:0001")
		require.Contains(t, body, "Size: 5 bytes")
		require.NotContains(t, body, "user:0001")
		require.Contains(t, body, "connections")
	})

	t.Run("should follow the requested prefix", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect?prefix=user:", nil))

		body := recorder.Body.String()
		require.Contains(t, body, "user:0001")
		require.NotContains(t, body, "msg:0001:0001")
	})
}
