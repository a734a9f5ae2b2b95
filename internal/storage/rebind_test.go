package storage

import "testing"

func TestRebind(t *testing.T) {
	pg := &SQLRepository{dialect: Postgres}
	lite := &SQLRepository{dialect: SQLite}
	q := "SELECT 1 FROM t WHERE a = ? AND b = ? LIMIT ?"
	if got := pg.rebind(q); got != "SELECT 1 FROM t WHERE a = $1 AND b = $2 LIMIT $3" {
		t.Fatalf("postgres rebind: %q", got)
	}
	if got := lite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"50%":     `50\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}
