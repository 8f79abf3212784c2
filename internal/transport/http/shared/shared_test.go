package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Fatalf("expected peer address, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-02", time.Time{})
	if err != nil || !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month %s %v", got, err)
	}
	got, err = ParseMonth("", time.Date(2024, 3, 17, 22, 0, 0, 0, time.UTC))
	if err != nil || !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected fallback month %s %v", got, err)
	}
	if _, err := ParseMonth("March", time.Time{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPaginationClamp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	p := ParsePagination(req, 20, 100)
	if p.Limit != 100 || p.Offset != 0 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}

func TestValidatorRejects(t *testing.T) {
	v := NewValidator()
	v.Required("reason", " ", "is required")
	v.Enum("leaveType", "Gap Year", []string{"Casual Leave"}, "is not a known leave type")
	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidatorFieldChecks(t *testing.T) {
	name := "a very long name"
	v := NewValidator()
	v.Email("email", "not-an-address")
	v.Email("backupEmail", "Ann <ann@example.com>")
	v.Email("workEmail", "ann@example.com")
	v.MaxLen("title", "abcdef", 5)
	v.OptionalMaxLen("name", &name, 4)
	v.OptionalMaxLen("city", nil, 1)
	v.Enum("workingFrom", "home", []string{"Office", "Home"}, "unknown")

	issues := v.Issues()
	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	want := []string{"backupEmail", "email", "name", "title"}
	if len(fields) != len(want) {
		t.Fatalf("expected issues for %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("expected issues for %v, got %v", want, fields)
		}
	}
}

func TestValidatorMonth(t *testing.T) {
	today := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	v := NewValidator()

	month, ok := v.Month("month", "", today)
	if !ok || !month.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected current month, got %s", month)
	}
	month, ok = v.Month("month", "2023-11", today)
	if !ok || month.Month() != time.November || month.Year() != 2023 {
		t.Fatalf("expected November 2023, got %s", month)
	}
	if _, ok := v.Month("month", "11/2023", today); ok {
		t.Fatal("expected invalid month")
	}
	if !v.HasIssues() {
		t.Fatal("expected a recorded issue")
	}
}
