// Package reshape turns a loaded export into dataset rows: one MatchInfo from
// the metadata block and long-format CoreStatRows from the data block.
package reshape

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/parser"
)

// ErrInvalidDate is returned when the match date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid match date")

// ExtractMatchInfo builds the match-level record from the metadata block.
// Keys come from column 0 and values from column 1; a later duplicate key wins.
// Absent keys leave the field null.
func ExtractMatchInfo(meta parser.Block, matchID, matchDate string) (model.MatchInfo, error) {
	date, err := model.ParseDate(matchDate)
	if err != nil {
		return model.MatchInfo{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, matchDate)
	}

	kv := make(map[string]model.NullString, meta.Len())
	for i := 0; i < meta.Len(); i++ {
		key := meta.Cell(i, 0)
		if !key.Valid {
			continue
		}
		kv[key.String] = meta.Cell(i, 1)
	}

	return model.MatchInfo{
		MatchID:      matchID,
		MatchDate:    date,
		MatchSurface: kv[model.KeySurface],
		MatchLevel:   kv[model.KeyLevel],
		MatchType:    kv[model.KeyType],
		MatchResult:  kv[model.KeyResult],
		MatchMonth:   date.Month(),
		MatchYear:    date.Year(),
	}, nil
}

// Melt converts the wide data block into one row per
// (category, subcategory, metric). Rows are ordered metric by metric, each
// metric listing every data row in input order. A row missing its category
// or subcategory gets an empty MetricLabel.
func Melt(data parser.Block, matchID string) []model.CoreStatRow {
	metrics := data.MetricColumns()
	out := make([]model.CoreStatRow, 0, len(metrics)*data.Len())
	for m, metric := range metrics {
		col := parser.LabelColumns + m
		for i := 0; i < data.Len(); i++ {
			category, subcategory := data.Cell(i, 0), data.Cell(i, 1)
			out = append(out, model.CoreStatRow{
				MetricCategory:    category.OrEmpty(),
				MetricSubcategory: subcategory.OrEmpty(),
				MetricType:        metric,
				MetricValue:       ParseValue(data.Cell(i, col)),
				MetricLabel:       label(category, subcategory),
				MatchID:           matchID,
			})
		}
	}
	return out
}

// label is empty when either part is missing.
func label(category, subcategory model.NullString) string {
	if !category.Valid || !subcategory.Valid {
		return ""
	}
	return model.Label(category.String, subcategory.String)
}

// ParseValue coerces a raw cell to a metric value. Missing, non-numeric and
// non-finite cells yield an invalid NullFloat.
func ParseValue(cell model.NullString) model.NullFloat {
	if !cell.Valid {
		return model.NullFloat{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell.String), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return model.NullFloat{}
	}
	return model.NewNullFloat(f)
}

// CountNull returns how many rows carry no metric value.
func CountNull(rows []model.CoreStatRow) int {
	n := 0
	for _, r := range rows {
		if !r.MetricValue.Valid {
			n++
		}
	}
	return n
}
