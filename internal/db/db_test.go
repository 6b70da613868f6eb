package db

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "morpho.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n > 0
}

func TestNewDB_AppliesPragmas(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != BusyTimeoutMs {
		t.Errorf("Expected busy_timeout=%d, got %d", BusyTimeoutMs, busyTimeout)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", fk)
	}
}

func TestNewDB_CreatesSchema(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"morph_runs", "morph_objects", "schema_migrations"} {
		if !tableExists(t, db, name) {
			t.Errorf("table %s missing", name)
		}
	}
}

func TestNewDB_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morpho.db")
	first, err := NewDB(path)
	if err != nil {
		t.Fatalf("first NewDB: %v", err)
	}
	first.Close()

	second, err := NewDB(path)
	if err != nil {
		t.Fatalf("second NewDB: %v", err)
	}
	defer second.Close()
	if second.Path() != path {
		t.Errorf("Path() = %q, want %q", second.Path(), path)
	}
}

func TestMigrateVersionAndDown(t *testing.T) {
	db := newTestDB(t)
	migrations := MigrationsFS()

	latest, err := LatestMigrationVersion(migrations)
	if err != nil {
		t.Fatalf("LatestMigrationVersion: %v", err)
	}
	if latest != 1 {
		t.Errorf("latest = %d, want 1", latest)
	}

	version, dirty, err := db.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != latest || dirty {
		t.Errorf("version = %d dirty = %v, want %d clean", version, dirty, latest)
	}

	if err := db.MigrateDown(migrations); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if tableExists(t, db, "morph_runs") {
		t.Error("morph_runs still present after down migration")
	}
	version, _, err = db.MigrateVersion(migrations)
	if err != nil {
		t.Fatalf("MigrateVersion after down: %v", err)
	}
	if version != 0 {
		t.Errorf("version after down = %d, want 0", version)
	}

	if err := db.MigrateUp(migrations); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if !tableExists(t, db, "morph_objects") {
		t.Error("morph_objects missing after re-applying migrations")
	}
}

func TestOpenDB_LeavesSchemaAlone(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "bare.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()
	if tableExists(t, db, "morph_runs") {
		t.Error("OpenDB should not create tables")
	}
	version, dirty, err := db.MigrateVersion(MigrationsFS())
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh database version = %d dirty = %v", version, dirty)
	}
}

func TestAttachAdminRoutes_Backup(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(`INSERT INTO morph_runs (run_id, created_at_ns, dims, nx, ny, nz, spacing_json, params_json)
		VALUES ('r1', 1, 2, 4, 4, 1, '[1,1,1]', '{}')`); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatalf("AttachAdminRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("backup status = %d, body %q", w.Code, w.Body.String())
	}

	gz, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("backup is not gzip: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if len(data) < 16 || string(data[:15]) != "SQLite format 3" {
		t.Errorf("backup does not look like a SQLite file (%d bytes)", len(data))
	}
}

func TestAttachAdminRoutes_RejectsRemoteClients(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatalf("AttachAdminRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("remote backup status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
