package rollup

import (
	"testing"
	"time"
)

func TestParseStartDate_Empty(t *testing.T) {
	for _, payload := range []string{"", "   ", "\n"} {
		d, err := ParseStartDate(payload)
		if err != nil {
			t.Errorf("ParseStartDate(%q) error: %v", payload, err)
		}
		if d != nil {
			t.Errorf("ParseStartDate(%q) = %v, want nil", payload, d)
		}
	}
}

func TestParseStartDate_BareDate(t *testing.T) {
	d, err := ParseStartDate("2025-08-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || !d.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v, want 2025-08-01", d)
	}
}

func TestParseStartDate_JSONObject(t *testing.T) {
	d, err := ParseStartDate(`{"start_date": "2025-08-01"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Format("2006-01-02") != "2025-08-01" {
		t.Errorf("got %v, want 2025-08-01", d)
	}
}

func TestParseStartDate_JSONNull(t *testing.T) {
	for _, payload := range []string{`{"start_date": null}`, `{}`} {
		d, err := ParseStartDate(payload)
		if err != nil {
			t.Errorf("ParseStartDate(%q) error: %v", payload, err)
		}
		if d != nil {
			t.Errorf("ParseStartDate(%q) = %v, want nil", payload, d)
		}
	}
}

func TestParseStartDate_Malformed(t *testing.T) {
	for _, payload := range []string{
		"not-a-date",
		"2025-13-45",
		`{"start_date": "soon"}`,
		"08/01/2025",
	} {
		if _, err := ParseStartDate(payload); err == nil {
			t.Errorf("ParseStartDate(%q) should fail", payload)
		}
	}
}
