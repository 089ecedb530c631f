package upstream

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStatusDB(t *testing.T) *StatusDB {
	t.Helper()
	sdb, err := OpenStatusDB(filepath.Join(t.TempDir(), "status.db"))
	if err != nil {
		t.Fatalf("OpenStatusDB: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenStatusDB_CreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.db")
	sdb, err := OpenStatusDB(path)
	if err != nil {
		t.Fatalf("OpenStatusDB: %v", err)
	}
	defer sdb.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	checks, err := sdb.List()
	if err != nil {
		t.Fatalf("List on empty db: %v", err)
	}
	if len(checks) != 0 {
		t.Fatalf("expected 0 checks, got %d", len(checks))
	}
}

func TestOpenStatusDB_Memory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	sdb, err := OpenStatusDB(MemoryPath)
	if err != nil {
		t.Fatalf("OpenStatusDB: %v", err)
	}
	defer sdb.Close()

	const ep = "http://127.0.0.1:8000"
	if err := sdb.Register(ep); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := sdb.UpdateCheck(ep, 503, "unavailable"); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	checks, err := sdb.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(checks) != 1 || checks[0].LastStatus == nil || *checks[0].LastStatus != 503 {
		t.Fatalf("checks = %+v, want one row with status 503", checks)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("memory db wrote %d files to the working directory", len(entries))
	}
}

func TestRegister_Idempotent(t *testing.T) {
	sdb := tempStatusDB(t)
	const ep = "http://127.0.0.1:8000"

	if err := sdb.Register(ep); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := sdb.UpdateCheck(ep, 200, ""); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	if err := sdb.Register(ep); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	c, err := sdb.Get(ep)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.LastStatus == nil || *c.LastStatus != 200 {
		t.Errorf("status lost on re-register: %+v", c)
	}
	if c.LastError != nil {
		t.Errorf("LastError = %q, want nil", *c.LastError)
	}
}

func TestUpdateCheck_Unregistered(t *testing.T) {
	sdb := tempStatusDB(t)
	if err := sdb.UpdateCheck("http://nowhere", 200, ""); err == nil {
		t.Fatal("expected error for unregistered endpoint")
	}
}

func TestGet_Missing(t *testing.T) {
	sdb := tempStatusDB(t)
	if _, err := sdb.Get("http://nowhere"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestCheckAll_Mixed(t *testing.T) {
	handler := func(code int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("method = %s, want HEAD", r.Method)
			}
			w.WriteHeader(code)
		}))
	}
	srv200 := handler(http.StatusOK)
	defer srv200.Close()
	srv404 := handler(http.StatusNotFound)
	defer srv404.Close()
	srv500 := handler(http.StatusInternalServerError)
	defer srv500.Close()

	sdb := tempStatusDB(t)
	checker, err := NewChecker(sdb, []string{srv200.URL, srv404.URL, srv500.URL}, quietLogger(), time.Hour)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	if failed := checker.CheckAll(context.Background()); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	checks, err := checker.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	byEndpoint := make(map[string]Check)
	for _, c := range checks {
		byEndpoint[c.Endpoint] = c
	}

	tests := []struct {
		url       string
		status    int
		reachable bool
	}{
		{srv200.URL, 200, true},
		{srv404.URL, 404, true},
		{srv500.URL, 500, false},
	}
	for _, tt := range tests {
		c := byEndpoint[tt.url]
		if c.LastStatus == nil || *c.LastStatus != tt.status {
			t.Errorf("%s: status = %v, want %d", tt.url, c.LastStatus, tt.status)
		}
		if c.Reachable() != tt.reachable {
			t.Errorf("%s: Reachable = %v, want %v", tt.url, c.Reachable(), tt.reachable)
		}
	}
}

func TestCheckAll_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sdb := tempStatusDB(t)
	checker, err := NewChecker(sdb, []string{url}, quietLogger(), time.Hour)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	checker.CheckAll(context.Background())

	c, err := sdb.Get(url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.LastStatus == nil || *c.LastStatus != 0 {
		t.Errorf("status = %v, want 0", c.LastStatus)
	}
	if c.LastError == nil || *c.LastError == "" {
		t.Error("expected an error message to be recorded")
	}
	if c.Reachable() {
		t.Error("closed server reported reachable")
	}
}

func TestLatest_BeforeFirstCheck(t *testing.T) {
	sdb := tempStatusDB(t)
	checker, err := NewChecker(sdb, []string{"http://127.0.0.1:1"}, quietLogger(), 0)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	checks, err := checker.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(checks) != 1 || checks[0].LastCheck != nil || checks[0].Reachable() {
		t.Errorf("checks = %+v, want one unchecked row", checks)
	}
	if checker.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", checker.interval, DefaultInterval)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sdb := tempStatusDB(t)
	checker, err := NewChecker(sdb, []string{srv.URL}, quietLogger(), time.Hour)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		c, err := sdb.Get(srv.URL)
		if err == nil && c.LastCheck != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial check never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestLatest_IgnoresStaleEndpoints(t *testing.T) {
	sdb := tempStatusDB(t)
	if err := sdb.Register("http://old.example:8000"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	checker, err := NewChecker(sdb, []string{"http://127.0.0.1:1"}, quietLogger(), time.Hour)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	checks, err := checker.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(checks) != 1 || checks[0].Endpoint != "http://127.0.0.1:1" {
		t.Errorf("checks = %+v", checks)
	}
	all, _ := sdb.List()
	if len(all) != 2 {
		t.Errorf("List = %d rows, want 2", len(all))
	}
}
