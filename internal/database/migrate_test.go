package database

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header
CREATE TABLE a (
    id INT
);

-- second
CREATE TABLE b (id INT);
INSERT INTO b VALUES (1)`
	got := SplitStatements(script)
	if len(got) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "CREATE TABLE a (") || strings.HasSuffix(got[0], ";") {
		t.Fatalf("unexpected first statement %q", got[0])
	}
	if got[2] != "INSERT INTO b VALUES (1)" {
		t.Fatalf("unexpected trailing statement %q", got[2])
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := Migrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migs) != 2 || migs[0].Version != "0001_init" {
		t.Fatalf("unexpected migrations %+v", migs)
	}
	tables := map[string]bool{}
	for _, m := range migs {
		for _, stmt := range m.Statements {
			if strings.Contains(stmt, "--") {
				t.Fatalf("expected comments stripped, got %q", stmt)
			}
			if strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS ") {
				name := strings.Fields(strings.TrimPrefix(stmt, "CREATE TABLE IF NOT EXISTS "))[0]
				tables[name] = true
			}
		}
	}
	for _, want := range []string{"sessions", "cards", "bookings", "email_challenges", "guest_tickets", "admissions"} {
		if !tables[want] {
			t.Fatalf("expected table %s in migrations", want)
		}
	}
}
