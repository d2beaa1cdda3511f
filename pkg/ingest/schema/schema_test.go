package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
)

func TestEnsureSchemaNilPool(t *testing.T) {
	err := EnsureSchema(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil pool")
	}

	var loadErr *rverrors.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T", err)
	}
	if loadErr.Code != rverrors.ErrSchemaFailure {
		t.Errorf("expected code %s, got %s", rverrors.ErrSchemaFailure, loadErr.Code)
	}
	if !loadErr.Fatal() {
		t.Error("schema failures should be fatal")
	}
}

func TestCheckStatusNilPool(t *testing.T) {
	if _, err := CheckStatus(context.Background(), nil); err == nil {
		t.Error("expected error for nil pool")
	}
}

func TestStatementsOrder(t *testing.T) {
	// The reviews table references banks, so banks must come first, and
	// the view reads both tables, so it must come last.
	if len(statements) < 3 {
		t.Fatalf("expected at least 3 statements, got %d", len(statements))
	}
	if statements[0].Name != "banks table" {
		t.Errorf("expected banks table first, got %s", statements[0].Name)
	}
	if statements[1].Name != "reviews table" {
		t.Errorf("expected reviews table second, got %s", statements[1].Name)
	}
	last := statements[len(statements)-1]
	if last.Name != "review_statistics view" {
		t.Errorf("expected view last, got %s", last.Name)
	}
}

func TestStatementsIdempotent(t *testing.T) {
	for _, stmt := range statements {
		sql := strings.ToUpper(stmt.SQL)
		if !strings.Contains(sql, "IF NOT EXISTS") && !strings.Contains(sql, "CREATE OR REPLACE") {
			t.Errorf("statement %q is not idempotent", stmt.Name)
		}
	}
}

func TestStatusComplete(t *testing.T) {
	empty := &Status{}
	if empty.Complete() {
		t.Error("empty status should not be complete")
	}

	partial := &Status{Objects: []ObjectStatus{
		{Name: "banks", Kind: "table", Exists: true},
		{Name: "reviews", Kind: "table", Exists: false},
	}}
	if partial.Complete() {
		t.Error("status with missing objects should not be complete")
	}

	full := &Status{Objects: []ObjectStatus{
		{Name: "banks", Kind: "table", Exists: true},
		{Name: "reviews", Kind: "table", Exists: true},
	}}
	if !full.Complete() {
		t.Error("status with all objects should be complete")
	}
}
