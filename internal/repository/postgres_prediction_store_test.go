package repository

import (
	"strings"
	"testing"
	"time"
)

func TestPendingQueryLimit(t *testing.T) {
	endedBy := hour0.Add(2 * time.Hour)

	q, args := pendingQuery(endedBy, 0)
	if strings.Contains(q, "LIMIT") {
		t.Fatalf("zero limit should not bound the query: %s", q)
	}
	if len(args) != 1 || !args[0].(time.Time).Equal(hour0.Add(time.Hour)) {
		t.Fatalf("unexpected args %v", args)
	}

	q, args = pendingQuery(endedBy, -5)
	if strings.Contains(q, "LIMIT") || len(args) != 1 {
		t.Fatalf("negative limit should not bound the query: %s %v", q, args)
	}

	q, args = pendingQuery(endedBy, 25)
	if !strings.HasSuffix(q, "LIMIT $2") {
		t.Fatalf("expected LIMIT $2, got %s", q)
	}
	if len(args) != 2 || args[1] != 25 {
		t.Fatalf("unexpected args %v", args)
	}
}
