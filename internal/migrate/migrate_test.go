package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_appliesEmbeddedSchema(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	n, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d; want 2", n)
	}

	for _, table := range []string{"station", "measurement"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	var idx int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_measurement_%'`).Scan(&idx); err != nil {
		t.Fatalf("count indexes: %v", err)
	}
	if idx != 2 {
		t.Errorf("measurement indexes = %d; want 2", idx)
	}
}

func TestRun_isIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if _, err := Run(ctx, db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	n, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n != 0 {
		t.Errorf("second Run applied %d; want 0", n)
	}
}

func TestRun_ordersByVersionAndSkipsForeignFiles(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"sql/0002_second.sql": {Data: []byte(`INSERT INTO log (step) VALUES ('second');`)},
		"sql/0001_first.sql":  {Data: []byte(`CREATE TABLE log (step TEXT); INSERT INTO log (step) VALUES ('first');`)},
		"sql/README.md":       {Data: []byte(`not a migration`)},
	}

	n, err := run(context.Background(), db, fsys)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Fatalf("applied = %d; want 2", n)
	}

	rows, err := db.Query(`SELECT step FROM log ORDER BY rowid`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var steps []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("scan: %v", err)
		}
		steps = append(steps, s)
	}
	if len(steps) != 2 || steps[0] != "first" || steps[1] != "second" {
		t.Errorf("steps = %v; want [first second]", steps)
	}
}

func TestRun_failedMigrationIsNotRecorded(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"sql/0001_ok.sql":     {Data: []byte(`CREATE TABLE a (x TEXT);`)},
		"sql/0002_broken.sql": {Data: []byte(`CREATE TABLE ;`)},
	}

	n, err := run(context.Background(), db, fsys)
	if err == nil {
		t.Fatal("run() error = nil; want error")
	}
	if n != 1 {
		t.Errorf("applied = %d; want 1", n)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("recorded migrations = %d; want 1", count)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{in: "0001_climate_schema.sql", wantVersion: "0001", wantName: "climate_schema", wantOK: true},
		{in: "12_short.sql", wantOK: false},
		{in: "0003_missing_ext", wantOK: false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if ok != tt.wantOK || v != tt.wantVersion || n != tt.wantName {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v); want (%q, %q, %v)",
				tt.in, v, n, ok, tt.wantVersion, tt.wantName, tt.wantOK)
		}
	}
}
