package database

import (
	"strings"
	"testing"
)

func TestNormalizeDSNForcesParseTime(t *testing.T) {
	out, err := normalizeDSN("vista:secret@tcp(127.0.0.1:3306)/vista?charset=utf8mb4")
	if err != nil {
		t.Fatalf("normalizeDSN: %v", err)
	}
	if !strings.Contains(out, "parseTime=true") {
		t.Fatalf("expected parseTime=true in %q", out)
	}
	if !strings.Contains(out, "127.0.0.1:3306") {
		t.Fatalf("lost address in %q", out)
	}
}

func TestNormalizeDSNRejectsGarbage(t *testing.T) {
	if _, err := normalizeDSN("not a dsn"); err == nil {
		t.Fatalf("expected error")
	}
}
