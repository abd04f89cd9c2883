package internal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const (
	defaultPrefix = "msg:"
	maxRows       = 500
)

type InspectRow struct {
	Key       string
	Kind      string
	Timestamp string
	EntityID  string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix    string
	Items     []InspectRow
	Truncated bool
	Stats     map[string]any
}

// StartDebugServer serves a read-only HTML view of the Badger keyspace on
// 127.0.0.1. The returned server is already listening.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(endpoint, newInspectHandler(log, db, mapper, statsProvider))

	server := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug server stopped", "error", err)
		}
	}()
	log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", port, endpoint))
	return server
}

func newInspectHandler(log *slog.Logger, db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.HandlerFunc {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	if mapper == nil {
		mapper = DefaultMapper
	}

	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultPrefix
		}
		data := PageData{Prefix: prefix, Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			options := badger.DefaultIteratorOptions
			options.Prefix = []byte(prefix)
			it := txn.NewIterator(options)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				if len(data.Items) == maxRows {
					data.Truncated = true
					return nil
				}
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err = tmpl.Execute(w, data); err != nil {
			log.Debug("Inspector page not rendered", "error", err)
		}
	}
}

// StopDebugServer is a no-op on a nil server.
func StopDebugServer(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// DefaultMapper only knows the key, the value is reported by size.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	return InspectRow{
		Key:       key,
		Kind:      parts[0],
		Timestamp: "--:--:--",
		EntityID:  parts[len(parts)-1],
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
}
