package rollup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ParseStartDate interprets a trigger payload. Accepted forms:
//
//   - empty / whitespace            -> nil (resume from the watermark)
//   - "2025-08-01"                  -> that date
//   - {"start_date": "2025-08-01"}  -> that date
//   - {"start_date": null}          -> nil
//
// Anything else is an error; the CLI trigger downgrades it to a warning and
// runs with the default window, the webhook rejects the request instead.
func ParseStartDate(payload string) (*time.Time, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}

	var body struct {
		StartDate *string `json:"start_date"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err == nil {
		if body.StartDate == nil || *body.StartDate == "" {
			return nil, nil
		}
		d, err := time.Parse(dateLayout, *body.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", *body.StartDate)
		}
		d = dateOnly(d)
		return &d, nil
	}

	d, err := time.Parse(dateLayout, payload)
	if err != nil {
		return nil, fmt.Errorf("unparseable trigger payload %q: expected empty, YYYY-MM-DD, or {\"start_date\": ...}", payload)
	}
	d = dateOnly(d)
	return &d, nil
}
