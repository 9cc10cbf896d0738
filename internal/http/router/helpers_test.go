package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/alerts"
	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
	"github.com/rogerio-castellano/stationery-tracker/internal/db"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/handlers"
	rl "github.com/rogerio-castellano/stationery-tracker/internal/http/rate_limiter"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/router"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rogerio-castellano/stationery-tracker/internal/service"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router    http.Handler
	backupDir string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimiter(t, nil)
}

func newTestEnvWithLimiter(t *testing.T, limiter *rl.Limiter) *testEnv {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stationery.db")
	conn, err := db.Connect(db.DriverSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	store := repo.NewStore(conn)
	ledger := service.NewLedgerService(store, alerts.NopPublisher{})

	backupDir := filepath.Join(dir, "backups")
	backups := backup.NewService(backup.Options{
		SourcePath: dbPath,
		Dir:        backupDir,
		Prefix:     "respaldo_test",
		Ext:        "db",
		BeforeCopy: func(ctx context.Context) error {
			_, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
			return err
		},
	})
	scheduler, err := backup.NewScheduler(backups, backup.SchedulerConfig{
		BackupEveryDays:  30,
		BackupAt:         "02:00",
		CleanupEveryDays: 90,
		CleanupAt:        "03:00",
		RetentionDays:    180,
		Tick:             time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { scheduler.Stop() })

	srv := &handlers.Server{
		Ledger:        ledger,
		Sales:         service.NewSaleService(store, ledger),
		Suppliers:     service.NewSupplierService(store, ledger),
		Metrics:       store.Metrics,
		Backups:       backups,
		Scheduler:     scheduler,
		RetentionDays: 180,
	}
	return &testEnv{router: router.NewRouter(srv, limiter), backupDir: backupDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode checks the status code and unpacks the envelope data into out.
func decode(t *testing.T, w *httptest.ResponseRecorder, status int, out any) envelope {
	t.Helper()

	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("error decoding data: %v", err)
		}
	}
	return env
}

func (e *testEnv) createProduct(t *testing.T, name string, price string, qty, threshold int) handlers.ProductResponse {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"price":%s,"quantity":%d,"threshold":%d}`, name, price, qty, threshold)
	var p handlers.ProductResponse
	decode(t, e.do(t, http.MethodPost, "/products", body), http.StatusCreated, &p)
	return p
}

func (e *testEnv) createSupplier(t *testing.T, company string) int {
	t.Helper()

	var sup struct {
		ID int `json:"id"`
	}
	decode(t, e.do(t, http.MethodPost, "/suppliers", handlers.SupplierRequest{
		FirstName:   "Lucia",
		CompanyName: company,
		Email:       "ventas@example.com",
	}), http.StatusCreated, &sup)
	return sup.ID
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	part.Write([]byte(csvContent))

	writer.Close()
	return &buf, writer.FormDataContentType()
}
