package dashboard

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/models"
)

// Option is one entry of a radio group or dropdown
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options lists the contents of every dashboard control
type Options struct {
	Title      string    `json:"title"`
	Rounds     []Option  `json:"rounds"`
	Levels     []Option  `json:"levels"`
	Percentage []Option  `json:"percentage"`
	Stats      []string  `json:"stats"`
	Candidates []string  `json:"candidates"`
	Defaults   Selection `json:"defaults"`
}

// Options returns the control contents for a round. Candidate labels
// come from the configuration, or from the round's candidate table.
func (s *Service) Options(ctx context.Context, round models.Round) (*Options, error) {
	if err := models.ValidateRound(round); err != nil {
		return nil, models.NewInvalidSelectionError("round", round.Label(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := &Options{
		Title:      Title(round),
		Percentage: []Option{{Value: "oui", Label: "Oui"}, {Value: "non", Label: "Non"}},
		Stats:      append([]string(nil), aggregate.Stats...),
		Defaults:   DefaultSelection(),
	}
	opts.Defaults.Round = round

	seenRound := make(map[models.Round]bool)
	seenLevel := make(map[models.Level]bool)
	var levelSource *models.Source
	for _, src := range s.tables.Sources() {
		if !seenRound[src.Round] {
			seenRound[src.Round] = true
			opts.Rounds = append(opts.Rounds, Option{Value: strconv.Itoa(int(src.Round)), Label: src.Round.Label()})
		}
		if src.Round != round || seenLevel[src.Level] {
			continue
		}
		seenLevel[src.Level] = true
		opts.Levels = append(opts.Levels, Option{Value: src.Level.String(), Label: src.Level.Label()})
		if levelSource == nil {
			levelSource = &src
		}
	}

	labels := s.candidateLabels
	if len(labels) == 0 && levelSource != nil {
		rows, err := s.tables.Load(levelSource.Round, levelSource.Level, models.KindCandidates)
		if err != nil {
			return nil, err
		}
		labels = candidateLabels(aggregate.CandidateNames(rows))
	}
	opts.Candidates = append([]string{aggregate.Majority}, labels...)
	return opts, nil
}

// candidateLabels turns the upper case surnames of the tables into
// dropdown labels: "LE PEN" becomes "Le Pen"
func candidateLabels(names []string) []string {
	caser := cases.Title(language.French)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, caser.String(strings.ToLower(n)))
	}
	return out
}
