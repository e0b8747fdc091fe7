package grading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidGradeDate is returned when a value is neither "MM/YY" nor a recognised legacy date.
var ErrInvalidGradeDate = errors.New("invalid grade date")

// GradeDate is the decoded month/year of a grade record.
type GradeDate struct {
	Month    string `json:"month"`
	YearFull string `json:"yearFull"`
	// Legacy is set when the value was parsed through the ISO fallback.
	Legacy bool `json:"legacy"`
}

// Key returns a chronologically sortable "YYYY-MM" key.
func (d GradeDate) Key() string {
	return d.YearFull + "-" + d.Month
}

// String renders the canonical "MM/YY" form.
func (d GradeDate) String() string {
	if len(d.YearFull) < 2 {
		return d.Month + "/" + d.YearFull
	}
	return d.Month + "/" + d.YearFull[len(d.YearFull)-2:]
}

var legacyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// FormatGradeDate encodes a month (1-12) and year into "MM/YY".
// The year may be given with two or four digits.
func FormatGradeDate(month, year string) (string, error) {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return "", fmt.Errorf("%w: month %q", ErrInvalidGradeDate, month)
	}

	y := strings.TrimSpace(year)
	if len(y) != 2 && len(y) != 4 {
		return "", fmt.Errorf("%w: year %q", ErrInvalidGradeDate, year)
	}
	if _, err := strconv.Atoi(y); err != nil {
		return "", fmt.Errorf("%w: year %q", ErrInvalidGradeDate, year)
	}

	return fmt.Sprintf("%02d/%s", m, y[len(y)-2:]), nil
}

// ParseGradeDate decodes "MM/YY" first and falls back to ISO layouts for legacy rows.
func ParseGradeDate(value string) (GradeDate, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return GradeDate{}, fmt.Errorf("%w: empty", ErrInvalidGradeDate)
	}

	if parts := strings.Split(raw, "/"); len(parts) == 2 && len(parts[1]) == 2 {
		m, errM := strconv.Atoi(parts[0])
		y, errY := strconv.Atoi(parts[1])
		if errM == nil && errY == nil && m >= 1 && m <= 12 && len(parts[0]) <= 2 {
			return GradeDate{
				Month:    fmt.Sprintf("%02d", m),
				YearFull: fmt.Sprintf("20%02d", y),
			}, nil
		}
	}

	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return GradeDate{
				Month:    fmt.Sprintf("%02d", int(t.Month())),
				YearFull: strconv.Itoa(t.Year()),
				Legacy:   true,
			}, nil
		}
	}

	return GradeDate{}, fmt.Errorf("%w: %q", ErrInvalidGradeDate, value)
}
