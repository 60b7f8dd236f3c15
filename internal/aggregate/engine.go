// Package aggregate computes the views drawn by the dashboard from
// loaded result rows: stat column selection, majority winners, candidate
// filtering and bar ordering. Every operation is pure.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"presidentielle/internal/models"
)

// Majority is the candidate selection showing the winner of each unit
const Majority = "Majorité"

// Stats lists the recognized statistics in dashboard order
var Stats = []string{
	models.ColRegistered,
	models.ColVoters,
	models.ColAbstentions,
	models.ColBlank,
	models.ColNull,
	models.ColExpressed,
}

type statColumns struct {
	stat       string
	absolute   string
	percentage string
}

// Registered voters are the denominator of every other ratio and have
// no percentage form.
var statTable = []statColumns{
	{models.ColRegistered, models.ColRegistered, models.ColRegistered},
	{models.ColVoters, models.ColVoters, models.ColPctVoters},
	{models.ColAbstentions, models.ColAbstentions, models.ColPctAbstentions},
	{models.ColBlank, models.ColBlank, models.ColPctBlank},
	{models.ColNull, models.ColNull, models.ColPctNull},
	{models.ColExpressed, models.ColExpressed, models.ColPctExpressed},
}

// Engine maps dashboard selections to table columns
type Engine struct {
	stats map[string]statColumns
}

// New builds the engine and checks that the stat table covers every
// recognized statistic
func New() (*Engine, error) {
	return newEngine(statTable)
}

func newEngine(table []statColumns) (*Engine, error) {
	e := &Engine{stats: make(map[string]statColumns, len(table))}
	for _, sc := range table {
		key := foldName(sc.stat)
		if _, dup := e.stats[key]; dup {
			return nil, fmt.Errorf("stat %q mapped twice", sc.stat)
		}
		e.stats[key] = sc
	}
	for _, stat := range Stats {
		sc, ok := e.stats[foldName(stat)]
		if !ok {
			return nil, fmt.Errorf("stat %q has no column mapping", stat)
		}
		if sc.absolute == "" || sc.percentage == "" {
			return nil, fmt.Errorf("stat %q has an incomplete column mapping", stat)
		}
	}
	return e, nil
}

// foldName normalizes names for case-insensitive comparison, so that
// "zemmour" matches "ZEMMOUR" and a decomposed "é" matches a composed one
func foldName(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// SameName reports whether two names are equal ignoring case
func SameName(a, b string) bool {
	return foldName(a) == foldName(b)
}

// StatName returns the canonical spelling of a stat selection
func (e *Engine) StatName(stat string) (string, error) {
	sc, ok := e.stats[foldName(stat)]
	if !ok {
		return "", models.NewInvalidSelectionError("stat", stat, fmt.Errorf("unknown statistic"))
	}
	return sc.stat, nil
}

// SelectStatColumn returns the column holding a statistic, either as an
// absolute count or as a percentage
func (e *Engine) SelectStatColumn(stat string, asPercentage bool) (string, error) {
	sc, ok := e.stats[foldName(stat)]
	if !ok {
		return "", models.NewInvalidSelectionError("stat", stat, fmt.Errorf("unknown statistic"))
	}
	column := sc.absolute
	if asPercentage {
		column = sc.percentage
	}
	if column == "" {
		return "", models.NewInvalidSelectionError("stat", stat, fmt.Errorf("no column for percentage=%t", asPercentage))
	}
	return column, nil
}

// HasPercentage reports whether the statistic has a distinct percentage column
func (e *Engine) HasPercentage(stat string) bool {
	sc, ok := e.stats[foldName(stat)]
	return ok && sc.percentage != sc.absolute && models.IsPercentColumn(sc.percentage)
}

// IsMajority reports whether the candidate selection asks for winners
func IsMajority(candidate string) bool {
	return SameName(candidate, Majority) || SameName(candidate, "majorite")
}

// SelectCandidateColumn returns the column coloring the candidate view
func SelectCandidateColumn(candidate string, asPercentage bool) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", models.NewInvalidSelectionError("candidate", candidate, fmt.Errorf("empty candidate"))
	}
	if IsMajority(candidate) {
		return models.ColCandidateName, nil
	}
	return VotesColumn(asPercentage), nil
}

// VotesColumn returns the column of a candidate score
func VotesColumn(asPercentage bool) string {
	if asPercentage {
		return models.ColPctVotesExpressed
	}
	return models.ColVotes
}

func requireColumn(rows []models.ResultRow, column string) error {
	if len(rows) == 0 || rows[0].Has(column) {
		return nil
	}
	return models.NewInvalidSelectionError("column", column, models.ErrUnknownColumn)
}

// MajorityWinner keeps, for every unit, the row with the highest share
// of registered voters. On equal shares the first row read wins. A
// missing share never beats a present one. Units come out ordered by
// their identifier.
func MajorityWinner(rows []models.ResultRow, unitIDField string) ([]models.ResultRow, error) {
	if err := requireColumn(rows, unitIDField); err != nil {
		return nil, err
	}
	if err := requireColumn(rows, models.ColPctVotesRegistered); err != nil {
		return nil, err
	}

	best := make(map[string]models.ResultRow)
	for _, row := range rows {
		key := row.Text(unitIDField)
		current, seen := best[key]
		if !seen {
			best[key] = row
			continue
		}
		v, ok := row.Float(models.ColPctVotesRegistered)
		if !ok {
			continue
		}
		if b, bok := current.Float(models.ColPctVotesRegistered); !bok || v > b {
			best[key] = row
		}
	}

	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	winners := make([]models.ResultRow, 0, len(keys))
	for _, k := range keys {
		winners = append(winners, best[k])
	}
	return winners, nil
}

// FilterCandidate returns the rows of one candidate across all units.
// An unknown candidate yields no rows.
func FilterCandidate(rows []models.ResultRow, candidateName string) []models.ResultRow {
	want := foldName(candidateName)
	out := []models.ResultRow{}
	for _, row := range rows {
		if foldName(row.CandidateName()) == want {
			out = append(out, row)
		}
	}
	return out
}

func cellRank(c models.Cell, found bool) int {
	switch {
	case !found || c.Kind == models.CellMissing:
		return 2
	case c.Numeric():
		return 0
	default:
		return 1
	}
}

// RankForBarChart sorts rows by ascending value of the column. Numbers
// come before text and missing values come last; equal values keep
// their input order.
func RankForBarChart(rows []models.ResultRow, valueColumn string) ([]models.ResultRow, error) {
	if err := requireColumn(rows, valueColumn); err != nil {
		return nil, err
	}
	out := append([]models.ResultRow{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].Cell(valueColumn)
		b, bok := out[j].Cell(valueColumn)
		ra, rb := cellRank(a, aok), cellRank(b, bok)
		if ra != rb {
			return ra < rb
		}
		switch ra {
		case 0:
			return a.Number < b.Number
		case 1:
			return a.Raw < b.Raw
		default:
			return false
		}
	})
	return out, nil
}

// CountMajorities counts the units won by each candidate, ascending by
// count then by name
func CountMajorities(winners []models.ResultRow) []models.MajorityCount {
	index := make(map[string]int)
	var counts []models.MajorityCount
	for _, row := range winners {
		name := row.CandidateName()
		i, ok := index[name]
		if !ok {
			i = len(counts)
			index[name] = i
			counts = append(counts, models.MajorityCount{CandidateName: name})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count < counts[j].Count
		}
		return counts[i].CandidateName < counts[j].CandidateName
	})
	return counts
}

// CandidateNames lists the distinct candidate names in reading order
func CandidateNames(rows []models.ResultRow) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, row := range rows {
		name := row.CandidateName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
