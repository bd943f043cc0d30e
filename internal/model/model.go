package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk form of match dates.
const DateLayout = "2006-01-02"

// Metadata keys carried by the trailing rows of a raw export.
const (
	KeySurface = "matchSurface"
	KeyLevel   = "matchLevel"
	KeyType    = "matchType"
	KeyResult  = "matchResult"
)

// LabelSeparator joins category and subcategory into MetricLabel.
const LabelSeparator = " | "

// ---- Dataset rows ----

// MatchInfo is one row of the match_info dataset.
type MatchInfo struct {
	MatchID      string     `csv:"match_id"`
	MatchDate    Date       `csv:"match_date"`
	MatchSurface NullString `csv:"match_surface"`
	MatchLevel   NullString `csv:"match_level"`
	MatchType    NullString `csv:"match_type"`
	MatchResult  NullString `csv:"match_result"`
	MatchMonth   int        `csv:"match_month"`
	MatchYear    int        `csv:"match_year"`
}

// MatchKey returns the match_id the row belongs to.
func (m MatchInfo) MatchKey() string { return m.MatchID }

// CoreStatRow is one long-format observation of the core_stats dataset.
type CoreStatRow struct {
	MetricCategory    string    `csv:"MetricCategory"`
	MetricSubcategory string    `csv:"MetricSubcategory"`
	MetricType        string    `csv:"MetricType"`
	MetricValue       NullFloat `csv:"MetricValue"`
	MetricLabel       string    `csv:"MetricLabel"`
	MatchID           string    `csv:"match_id"`
}

// MatchKey returns the match_id the row belongs to.
func (r CoreStatRow) MatchKey() string { return r.MatchID }

// Label builds the display label for a category/subcategory pair.
func Label(category, subcategory string) string {
	return category + LabelSeparator + subcategory
}

// ---- Nullable CSV values ----

// NullString is a string that may be absent. Absent values are written as an
// empty cell.
type NullString struct {
	String string
	Valid  bool
}

// NewNullString returns a valid NullString holding s.
func NewNullString(s string) NullString { return NullString{String: s, Valid: true} }

// MarshalCSV implements gocsv.TypeMarshaller.
func (s NullString) MarshalCSV() (string, error) {
	if !s.Valid {
		return "", nil
	}
	return s.String, nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (s *NullString) UnmarshalCSV(v string) error {
	if v == "" {
		*s = NullString{}
		return nil
	}
	*s = NewNullString(v)
	return nil
}

// OrEmpty returns the value or "" when absent.
func (s NullString) OrEmpty() string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// NullFloat is a metric value that may be missing. Valid values are written
// with two decimals.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// NewNullFloat returns a valid NullFloat holding f.
func NewNullFloat(f float64) NullFloat { return NullFloat{Float64: f, Valid: true} }

// MarshalCSV implements gocsv.TypeMarshaller.
func (f NullFloat) MarshalCSV() (string, error) {
	if !f.Valid {
		return "", nil
	}
	return strconv.FormatFloat(f.Float64, 'f', 2, 64), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (f *NullFloat) UnmarshalCSV(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*f = NullFloat{}
		return nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("metric value %q: %w", v, err)
	}
	if math.IsNaN(x) {
		*f = NullFloat{}
		return nil
	}
	*f = NewNullFloat(x)
	return nil
}

// String renders the value for terminal output.
func (f NullFloat) String() string {
	if !f.Valid {
		return "—"
	}
	return strconv.FormatFloat(f.Float64, 'f', 2, 64)
}

// Date is a calendar date without time of day.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

// Accepted when reading back datasets written by other tools.
var dateReadLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Year returns the calendar year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the calendar month as 1-12.
func (d Date) Month() int { return int(d.t.Month()) }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (d Date) MarshalCSV() (string, error) { return d.String(), nil }

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *Date) UnmarshalCSV(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*d = Date{}
		return nil
	}
	for _, layout := range dateReadLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("match date %q: unrecognised format", v)
}
