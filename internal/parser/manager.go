package parser

import (
	"fmt"

	"go.uber.org/zap"

	"presidentielle/internal/models"
)

type sourceKey struct {
	round models.Round
	level models.Level
}

// Manager resolves a round and geography level to its bundled tables
// and loads them through a Loader
type Manager struct {
	loader  Loader
	sources map[sourceKey]models.Source
	logger  *zap.Logger
}

// NewManager creates a new manager over an immutable source table
func NewManager(loader Loader, sources []models.Source, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		loader:  loader,
		sources: make(map[sourceKey]models.Source, len(sources)),
		logger:  logger,
	}
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid data source: %w", err)
		}
		key := sourceKey{s.Round, s.Level}
		if _, dup := m.sources[key]; dup {
			return nil, fmt.Errorf("duplicate data source for round %d %s", s.Round, s.Level)
		}
		m.sources[key] = s
	}
	return m, nil
}

// Source returns the files configured for the round and level
func (m *Manager) Source(round models.Round, level models.Level) (models.Source, error) {
	s, ok := m.sources[sourceKey{round, level}]
	if !ok {
		return models.Source{}, models.NewInvalidSelectionError("geography",
			fmt.Sprintf("%s/%s", round.Label(), level), fmt.Errorf("no data configured"))
	}
	return s, nil
}

// Sources returns every configured source, ordered by round then level
func (m *Manager) Sources() []models.Source {
	var out []models.Source
	for _, r := range models.Rounds {
		for _, l := range models.Levels {
			if s, ok := m.sources[sourceKey{r, l}]; ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Load reads the table of the given kind for the round and level
func (m *Manager) Load(round models.Round, level models.Level, kind models.Kind) ([]models.ResultRow, error) {
	s, err := m.Source(round, level)
	if err != nil {
		return nil, err
	}
	file, err := s.File(kind)
	if err != nil {
		return nil, models.NewInvalidSelectionError("kind", string(kind), err)
	}
	rows, err := m.loader.Load(file, level)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s table for %s %s: %w", kind, round.Label(), level, err)
	}
	return rows, nil
}
