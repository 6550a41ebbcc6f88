package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{in: "0001_points_schema.sql", wantVersion: "0001", wantName: "points_schema", wantOK: true},
		{in: "0002_seed_points.sql", wantVersion: "0002", wantName: "seed_points", wantOK: true},
		{in: "1_short.sql", wantOK: false},
		{in: "0003_missing_ext", wantOK: false},
		{in: "README.md", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, n, ok := parseMigrationFilename(tt.in)
			if ok != tt.wantOK || v != tt.wantVersion || n != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v); want (%q, %q, %v)",
					tt.in, v, n, ok, tt.wantVersion, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestRun_SeedsCatalog(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run() = %v; want nil", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM points_of_interest`).Scan(&n); err != nil {
		t.Fatalf("count points: %v", err)
	}
	if n != 139 {
		t.Errorf("points_of_interest has %d rows; want 139", n)
	}

	var lat, lon float64
	if err := db.QueryRow(`SELECT latitude, longitude FROM points_of_interest WHERE name = 'New York'`).Scan(&lat, &lon); err != nil {
		t.Fatalf("select New York: %v", err)
	}
	if lat != 40.7128 || lon != -74.006 {
		t.Errorf("New York = (%v, %v); want (40.7128, -74.006)", lat, lon)
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("first Run() = %v", err)
	}
	if err := Run(ctx, db); err != nil {
		t.Fatalf("second Run() = %v; want nil", err)
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("schema_migrations has %d rows; want 2", applied)
	}
}

func TestRunFS_OrdersByVersionAndRollsBackFailures(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/0002_insert.sql": {Data: []byte(`INSERT INTO t (id) VALUES (1);`)},
		"m/0001_create.sql": {Data: []byte(`CREATE TABLE t (id INTEGER PRIMARY KEY);`)},
		"m/0003_broken.sql": {Data: []byte(`INSERT INTO missing VALUES (1);`)},
		"m/notes.txt":       {Data: []byte(`ignored`)},
	}

	if err := runFS(ctx, db, fsys, "m"); err == nil {
		t.Fatal("runFS() = nil; want error from broken migration")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count t: %v", err)
	}
	if n != 1 {
		t.Errorf("t has %d rows; want 1", n)
	}
	var versions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if versions != 2 {
		t.Errorf("recorded %d migrations; want 2 (broken one rolled back)", versions)
	}
}
