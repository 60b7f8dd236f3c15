// Package dashboard turns a control selection into the view model of
// both dashboard panels. Rendering is a pure projection of the
// selection and the bundled files; nothing is kept between calls.
package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/config"
	"presidentielle/internal/formatter"
	"presidentielle/internal/models"
	"presidentielle/internal/storage"
)

// Tables resolves and loads the result tables
type Tables interface {
	Source(round models.Round, level models.Level) (models.Source, error)
	Sources() []models.Source
	Load(round models.Round, level models.Level, kind models.Kind) ([]models.ResultRow, error)
}

// Boundaries gives access to the GeoJSON files
type Boundaries interface {
	LoadGeoIndex(name, featureIDKey string) (*storage.GeoIndex, error)
	ReadFile(name string) ([]byte, error)
}

// Service renders dashboard view models
type Service struct {
	tables          Tables
	geo             Boundaries
	engine          *aggregate.Engine
	stats           *formatter.ResultsFormatter
	candidates      *formatter.ResultsFormatter
	featureIDKey    string
	candidateLabels []string
	logger          *zap.Logger
}

// NewService creates a new dashboard service
func NewService(tables Tables, geo Boundaries, engine *aggregate.Engine, pres config.PresentationConfig, candidateLabels []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := formatter.Options{
		Projection:     pres.Projection,
		FitBounds:      pres.FitBounds,
		FeatureIDKey:   pres.FeatureIDKey,
		DiscreteColors: pres.CandidateColors,
	}
	statsOpts := base
	statsOpts.ColorScale = pres.StatsColorScale
	candOpts := base
	candOpts.ColorScale = pres.CandidatesColorScale
	candOpts.HoverColumns = []string{models.ColPctVotesExpressed}

	return &Service{
		tables:          tables,
		geo:             geo,
		engine:          engine,
		stats:           formatter.New(statsOpts),
		candidates:      formatter.New(candOpts),
		featureIDKey:    pres.FeatureIDKey,
		candidateLabels: append([]string(nil), candidateLabels...),
		logger:          logger,
	}
}

// ViewModel is everything the presentation layer needs to draw the page
type ViewModel struct {
	Title      string         `json:"title"`
	Selection  Selection      `json:"selection"`
	Stats      StatsPanel     `json:"stats"`
	Candidates CandidatePanel `json:"candidates"`
}

// StatsPanel shows one turnout statistic. There is no map at nation level.
type StatsPanel struct {
	Column string                    `json:"column"`
	Map    *formatter.ChoroplethSpec `json:"map,omitempty"`
	Bar    formatter.BarSpec         `json:"bar"`
}

// CandidatePanel shows one candidate or the winner of every unit
type CandidatePanel struct {
	Column  string                    `json:"column"`
	Map     *formatter.ChoroplethSpec `json:"map,omitempty"`
	Bar     formatter.BarSpec         `json:"bar"`
	Winners []models.MajorityCount    `json:"winners,omitempty"`
}

// Title returns the page heading for a round
func Title(round models.Round) string {
	return fmt.Sprintf("Elections présidentielles 2022 - %s", round.Label())
}

func (s *Service) normalize(sel Selection) (Selection, error) {
	if err := models.ValidateRound(sel.Round); err != nil {
		return sel, models.NewInvalidSelectionError("round", fmt.Sprint(int(sel.Round)), err)
	}
	stat, err := s.engine.StatName(sel.Stat)
	if err != nil {
		return sel, err
	}
	sel.Stat = stat
	if aggregate.IsMajority(sel.Candidate) {
		sel.Candidate = aggregate.Majority
	}
	if _, err := aggregate.SelectCandidateColumn(sel.Candidate, sel.Percentage); err != nil {
		return sel, err
	}
	return sel, nil
}

// Render computes both panels. The panels share nothing, so they are
// computed concurrently.
func (s *Service) Render(ctx context.Context, sel Selection) (*ViewModel, error) {
	sel, err := s.normalize(sel)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("render_id", uuid.NewString()))

	vm := &ViewModel{Title: Title(sel.Round), Selection: sel}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.renderStats(ctx, sel, logger)
		if err != nil {
			return err
		}
		vm.Stats = *p
		return nil
	})
	g.Go(func() error {
		p, err := s.renderCandidates(ctx, sel, logger)
		if err != nil {
			return err
		}
		vm.Candidates = *p
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn("render failed", zap.Error(err))
		return nil, err
	}

	logger.Info("rendered dashboard",
		zap.Int("round", int(sel.Round)),
		zap.Stringer("level", sel.Level),
		zap.String("stat", sel.Stat),
		zap.String("candidate", sel.Candidate),
		zap.Bool("percentage", sel.Percentage))
	return vm, nil
}

// RenderStats computes the statistics panel alone
func (s *Service) RenderStats(ctx context.Context, sel Selection) (*StatsPanel, error) {
	sel, err := s.normalize(sel)
	if err != nil {
		return nil, err
	}
	return s.renderStats(ctx, sel, s.logger)
}

// RenderCandidates computes the candidate panel alone
func (s *Service) RenderCandidates(ctx context.Context, sel Selection) (*CandidatePanel, error) {
	sel, err := s.normalize(sel)
	if err != nil {
		return nil, err
	}
	return s.renderCandidates(ctx, sel, s.logger)
}

func (s *Service) renderStats(ctx context.Context, sel Selection, logger *zap.Logger) (*StatsPanel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := s.tables.Source(sel.Round, sel.Level)
	if err != nil {
		return nil, err
	}
	column, err := s.engine.SelectStatColumn(sel.Stat, sel.Percentage)
	if err != nil {
		return nil, err
	}
	rows, err := s.tables.Load(sel.Round, sel.Level, models.KindStats)
	if err != nil {
		return nil, err
	}

	panel := &StatsPanel{Column: column}
	if sel.Level == models.LevelNation {
		bar, err := s.nationStatsBar(rows, sel.Percentage)
		if err != nil {
			return nil, err
		}
		panel.Bar = bar
		return panel, nil
	}

	m, err := s.stats.Choropleth(rows, src.IDColumn, column)
	if err != nil {
		return nil, err
	}
	if err := s.attachBoundaries(&m, src, logger); err != nil {
		return nil, err
	}
	panel.Map = &m

	ranked, err := aggregate.RankForBarChart(rows, column)
	if err != nil {
		return nil, err
	}
	if panel.Bar, err = s.stats.Bar(ranked, src.IDColumn, column); err != nil {
		return nil, err
	}
	return panel, nil
}

// nationStatsBar draws every statistic of the single national row. In
// percentage mode only statistics with a percentage column are drawn so
// counts and shares never share an axis.
func (s *Service) nationStatsBar(rows []models.ResultRow, percentage bool) (formatter.BarSpec, error) {
	var labels, columns []string
	for _, stat := range aggregate.Stats {
		if percentage && !s.engine.HasPercentage(stat) {
			continue
		}
		col, err := s.engine.SelectStatColumn(stat, percentage)
		if err != nil {
			return formatter.BarSpec{}, err
		}
		labels = append(labels, stat)
		columns = append(columns, col)
	}
	if len(rows) == 0 {
		return s.stats.Bar(nil, "", "")
	}
	return s.stats.ColumnsBar(rows[0], labels, columns)
}

func (s *Service) renderCandidates(ctx context.Context, sel Selection, logger *zap.Logger) (*CandidatePanel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := s.tables.Source(sel.Round, sel.Level)
	if err != nil {
		return nil, err
	}
	column, err := aggregate.SelectCandidateColumn(sel.Candidate, sel.Percentage)
	if err != nil {
		return nil, err
	}
	rows, err := s.tables.Load(sel.Round, sel.Level, models.KindCandidates)
	if err != nil {
		return nil, err
	}
	majority := aggregate.IsMajority(sel.Candidate)

	if sel.Level == models.LevelNation {
		return s.nationCandidates(rows, sel, column, majority)
	}

	panel := &CandidatePanel{Column: column}
	var shown []models.ResultRow
	if majority {
		if shown, err = aggregate.MajorityWinner(rows, src.IDColumn); err != nil {
			return nil, err
		}
	} else {
		shown = aggregate.FilterCandidate(rows, sel.Candidate)
		if len(shown) == 0 {
			logger.Info("no rows for candidate", zap.String("candidate", sel.Candidate))
		}
	}

	m, err := s.candidates.Choropleth(shown, src.IDColumn, column)
	if err != nil {
		return nil, err
	}
	if err := s.attachBoundaries(&m, src, logger); err != nil {
		return nil, err
	}
	panel.Map = &m

	if majority {
		panel.Winners = aggregate.CountMajorities(shown)
		panel.Bar = s.candidates.CountBar(panel.Winners)
		return panel, nil
	}

	ranked, err := aggregate.RankForBarChart(shown, column)
	if err != nil {
		return nil, err
	}
	if panel.Bar, err = s.candidates.Bar(ranked, src.IDColumn, column); err != nil {
		return nil, err
	}
	return panel, nil
}

// nationCandidates ranks every candidate of the national table, or
// shows the selected one alone
func (s *Service) nationCandidates(rows []models.ResultRow, sel Selection, column string, majority bool) (*CandidatePanel, error) {
	shown := rows
	if majority {
		column = aggregate.VotesColumn(sel.Percentage)
	} else {
		shown = aggregate.FilterCandidate(rows, sel.Candidate)
	}
	ranked, err := aggregate.RankForBarChart(shown, column)
	if err != nil {
		return nil, err
	}
	bar, err := s.candidates.Bar(ranked, models.ColCandidateName, column)
	if err != nil {
		return nil, err
	}
	return &CandidatePanel{Column: column, Bar: bar}, nil
}

// attachBoundaries points the map at its GeoJSON file and lists the
// locations the file cannot draw
func (s *Service) attachBoundaries(m *formatter.ChoroplethSpec, src models.Source, logger *zap.Logger) error {
	m.GeoJSON = src.Geo
	idx, err := s.geo.LoadGeoIndex(src.Geo, s.featureIDKey)
	if err != nil {
		return fmt.Errorf("failed to load boundaries for %s: %w", src.Level, err)
	}
	m.MatchFeatures(idx)
	if len(m.Unmatched) > 0 {
		logger.Warn("locations without boundary",
			zap.String("geo", src.Geo),
			zap.Strings("locations", m.Unmatched))
	}
	return nil
}

// GeoJSON returns the boundary file drawn for the round and level
func (s *Service) GeoJSON(round models.Round, level models.Level) ([]byte, error) {
	src, err := s.tables.Source(round, level)
	if err != nil {
		return nil, err
	}
	if src.Geo == "" {
		return nil, models.NewInvalidSelectionError("level", level.String(), fmt.Errorf("no map at this level"))
	}
	return s.geo.ReadFile(src.Geo)
}
