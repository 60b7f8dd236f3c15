package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presidentielle/internal/models"
	"presidentielle/internal/parser"
)

var testColors = map[string]string{"MACRON": "#636EFA", "LE PEN": "#EF553B"}

func testFormatter() *ResultsFormatter {
	return New(Options{
		Projection:     "mercator",
		FitBounds:      true,
		FeatureIDKey:   "properties.nom",
		ColorScale:     "Blues",
		DiscreteColors: testColors,
		HoverColumns:   []string{models.ColPctVotesExpressed},
	})
}

func parseRows(t *testing.T, level models.Level, lines ...string) []models.ResultRow {
	t.Helper()
	rows, err := parser.Parse(strings.NewReader(strings.Join(lines, "\n")+"\n"), "test.csv", level)
	require.NoError(t, err)
	return rows
}

type featureNames map[string]bool

func (f featureNames) Contains(name string) bool { return f[name] }

func TestChoropleth_Continuous(t *testing.T) {
	rows := parseRows(t, models.LevelRegion,
		"Libellé de la région;Nom;Voix;% Voix/Exp",
		"Bretagne;ZEMMOUR;100;6,1",
		"Corse;ZEMMOUR;;",
	)

	spec, err := testFormatter().Choropleth(rows, models.ColRegionLabel, models.ColVotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bretagne", "Corse"}, spec.Locations)
	assert.Equal(t, ScaleContinuous, spec.Scale)
	assert.Equal(t, "Blues", spec.ColorScale)
	assert.Nil(t, spec.DiscreteColors)
	assert.Equal(t, "properties.nom", spec.FeatureIDKey)
	assert.Equal(t, "mercator", spec.Projection)
	assert.True(t, spec.FitBounds)
	assert.False(t, spec.Empty)

	n, ok := spec.Values[0].Number()
	require.True(t, ok)
	assert.Equal(t, 100.0, n)
	assert.True(t, spec.Values[1].IsNull())

	require.Len(t, spec.Hover, 1)
	assert.Equal(t, models.ColPctVotesExpressed, spec.Hover[0].Column)
}

func TestChoropleth_DiscreteWinners(t *testing.T) {
	rows := parseRows(t, models.LevelRegion,
		"Libellé de la région;Nom;% Voix/Exp",
		"Bretagne;MACRON;30",
		"Hauts-de-France;LE PEN;33",
	)

	spec, err := testFormatter().Choropleth(rows, models.ColRegionLabel, models.ColCandidateName)
	require.NoError(t, err)
	assert.Equal(t, ScaleDiscrete, spec.Scale)
	assert.Equal(t, testColors, spec.DiscreteColors)
	assert.Empty(t, spec.ColorScale)

	name, ok := spec.Values[1].Text()
	require.True(t, ok)
	assert.Equal(t, "LE PEN", name)
}

func TestChoropleth_EmptyAndUnknownColumn(t *testing.T) {
	f := testFormatter()

	spec, err := f.Choropleth(nil, models.ColRegionLabel, models.ColVotes)
	require.NoError(t, err)
	assert.True(t, spec.Empty)
	assert.Empty(t, spec.Locations)

	rows := parseRows(t, models.LevelRegion, "Libellé de la région;Voix", "Bretagne;100")
	_, err = f.Choropleth(rows, models.ColRegionLabel, "% Voix/Exp")
	var selErr *models.InvalidSelectionError
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "% Voix/Exp", selErr.Value)
}

func TestChoropleth_MatchFeatures(t *testing.T) {
	rows := parseRows(t, models.LevelDepartment,
		"Libellé du département;Voix",
		"Ain;1",
		"Atlantis;2",
	)
	spec, err := testFormatter().Choropleth(rows, models.ColDepartmentLabel, models.ColVotes)
	require.NoError(t, err)

	spec.MatchFeatures(featureNames{"Ain": true})
	assert.Equal(t, []string{"Atlantis"}, spec.Unmatched)
}

func TestBar(t *testing.T) {
	rows := parseRows(t, models.LevelRegion,
		"Libellé de la région;% Abs/Ins",
		"Corse;35,2",
		"Bretagne;20",
	)

	spec, err := testFormatter().Bar(rows, models.ColRegionLabel, "% Abs/Ins")
	require.NoError(t, err)
	assert.Equal(t, "h", spec.Orientation)
	assert.Equal(t, []string{"Corse", "Bretagne"}, spec.Categories)
	assert.Equal(t, "% Abs/Ins", spec.ValueColumn)

	_, err = testFormatter().Bar(rows, models.ColRegionLabel, "Votants")
	assert.True(t, errors.Is(err, models.ErrUnknownColumn))

	empty, err := testFormatter().Bar(nil, models.ColRegionLabel, "Votants")
	require.NoError(t, err)
	assert.True(t, empty.Empty)
}

func TestCountBar(t *testing.T) {
	spec := testFormatter().CountBar([]models.MajorityCount{
		{CandidateName: "MACRON", Count: 2},
		{CandidateName: "LE PEN", Count: 5},
	})
	assert.Equal(t, []string{"MACRON", "LE PEN"}, spec.Categories)
	assert.Equal(t, CountColumn, spec.ValueColumn)
	assert.Equal(t, ScaleDiscrete, spec.Scale)
	assert.Equal(t, testColors, spec.DiscreteColors)

	n, _ := spec.Values[1].Number()
	assert.Equal(t, 5.0, n)
}

func TestColumnsBar(t *testing.T) {
	rows := parseRows(t, models.LevelNation,
		"Inscrits;Votants;% Vot/Ins",
		"48747876;35923707;73,69",
	)

	spec, err := testFormatter().ColumnsBar(rows[0], []string{"Inscrits", "Votants"}, []string{"Inscrits", "% Vot/Ins"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Inscrits", "Votants"}, spec.Categories)
	v, _ := spec.Values[1].Number()
	assert.InDelta(t, 73.69, v, 1e-9)

	_, err = testFormatter().ColumnsBar(rows[0], nil, []string{"Nuls"})
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{NumberValue(12.5), TextValue("MACRON"), NullValue()})
	require.NoError(t, err)
	assert.JSONEq(t, `[12.5, "MACRON", null]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 3)
	n, ok := back[0].Number()
	assert.True(t, ok)
	assert.Equal(t, 12.5, n)
	assert.True(t, back[2].IsNull())
}
