package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/config"
	"presidentielle/internal/formatter"
	"presidentielle/internal/models"
	"presidentielle/internal/parser"
	"presidentielle/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const statsHeader = "Inscrits;Abstentions;% Abs/Ins;Votants;% Vot/Ins;Blancs;% Blancs/Ins;% Blancs/Vot;Nuls;% Nuls/Ins;% Nuls/Vot;Exprimés;% Exp/Ins;% Exp/Vot"

var testBundle = fstest.MapFS{
	"reg.csv": {Data: []byte("Code de la région;Libellé de la région;" + statsHeader + "\n" +
		"01;Guadeloupe;318894;182867;57,34;136027;42,66;3000;0,94;2,21;1500;0,47;1,10;131527;41,24;96,69\n" +
		"53;Bretagne;2600000;574600;22,10;2025400;77,90;30000;1,15;1,48;12000;0,46;0,59;1983400;76,28;97,93\n" +
		"94;Corse;250000;88750;35,50;161250;64,50;2500;1,00;1,55;1200;0,48;0,74;157550;63,02;97,71\n" +
		"11;Île-de-France;7400000;1850000;25,00;5550000;75,00;60000;0,81;1,08;25000;0,34;0,45;5465000;73,85;98,47\n")},
	"reg-candidats.csv": {Data: []byte("Code de la région;Libellé de la région;Nom;Prénom;Voix;% Voix/Ins;% Voix/Exp\n" +
		"01;Guadeloupe;MÉLENCHON;Jean-Luc;74000;23,20;56,26\n" +
		"53;Bretagne;MACRON;Emmanuel;780000;30,00;39,33\n" +
		"53;Bretagne;LE PEN;Marine;520000;20,00;26,22\n" +
		"53;Bretagne;ZEMMOUR;Éric;130000;5,00;6,55\n" +
		"94;Corse;MACRON;Emmanuel;37500;15,00;23,80\n" +
		"94;Corse;LE PEN;Marine;45000;18,00;28,56\n" +
		"94;Corse;ZEMMOUR;Éric;22500;9,00;14,28\n" +
		"11;Île-de-France;MACRON;Emmanuel;1776000;24,00;32,50\n" +
		"11;Île-de-France;MÉLENCHON;Jean-Luc;1850000;25,00;33,85\n" +
		"11;Île-de-France;ZEMMOUR;Éric;444000;6,00;8,12\n")},
	"fr.csv": {Data: []byte(statsHeader + "\n" +
		"48747876;12824169;26,31;35923707;73,69;543609;1,12;1,51;247151;0,51;0,69;35132947;72,07;97,80\n")},
	"fr-candidats.csv": {Data: []byte("Nom;Prénom;Voix;% Voix/Ins;% Voix/Exp\n" +
		"MACRON;Emmanuel;9783058;20,07;27,85\n" +
		"LE PEN;Marine;8133828;16,69;23,15\n" +
		"ZEMMOUR;Éric;2485226;5,10;7,07\n" +
		"MÉLENCHON;Jean-Luc;7712520;15,82;21,95\n")},
	"regions.geojson": {Data: []byte(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {"nom": "Bretagne"}, "geometry": null},
		{"type": "Feature", "properties": {"nom": "Corse"}, "geometry": null}
	]}`)},
}

var testSources = []models.Source{
	{Round: models.RoundFirst, Level: models.LevelNation, Stats: "fr.csv", Candidates: "fr-candidats.csv"},
	{Round: models.RoundFirst, Level: models.LevelRegion, IDColumn: models.ColRegionLabel,
		Stats: "reg.csv", Candidates: "reg-candidats.csv", Geo: "regions.geojson"},
}

func newTestService(t *testing.T, candidateLabels []string) *Service {
	t.Helper()
	bundle, err := storage.NewBundle(testBundle, "utf-8", nil)
	require.NoError(t, err)
	manager, err := parser.NewManager(parser.NewCSVLoader(bundle, nil), testSources, nil)
	require.NoError(t, err)
	engine, err := aggregate.New()
	require.NoError(t, err)
	return NewService(manager, bundle, engine, config.DefaultConfig().Presentation, candidateLabels, nil)
}

func texts(values []formatter.Value) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, _ := v.Text()
		out = append(out, s)
	}
	return out
}

func TestRender_DefaultSelection(t *testing.T) {
	s := newTestService(t, nil)

	vm, err := s.Render(context.Background(), DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, "Elections présidentielles 2022 - 1er tour", vm.Title)
	assert.Equal(t, DefaultSelection(), vm.Selection)

	// Votants in percentage mode
	assert.Equal(t, "% Vot/Ins", vm.Stats.Column)
	require.NotNil(t, vm.Stats.Map)
	assert.Equal(t, []string{"Bretagne", "Corse", "Île-de-France"}, vm.Stats.Map.Locations)
	assert.Equal(t, "Purples", vm.Stats.Map.ColorScale)
	assert.Equal(t, "regions.geojson", vm.Stats.Map.GeoJSON)
	assert.Equal(t, []string{"Île-de-France"}, vm.Stats.Map.Unmatched)
	assert.Equal(t, []string{"Corse", "Île-de-France", "Bretagne"}, vm.Stats.Bar.Categories)

	// Majorité
	c := vm.Candidates
	assert.Equal(t, models.ColCandidateName, c.Column)
	require.NotNil(t, c.Map)
	assert.Equal(t, formatter.ScaleDiscrete, c.Map.Scale)
	assert.Equal(t, []string{"Bretagne", "Corse", "Île-de-France"}, c.Map.Locations)
	assert.Equal(t, []string{"MACRON", "LE PEN", "MÉLENCHON"}, texts(c.Map.Values))
	assert.Equal(t, "#636EFA", c.Map.DiscreteColors["MACRON"])
	assert.Equal(t, []models.MajorityCount{
		{CandidateName: "LE PEN", Count: 1},
		{CandidateName: "MACRON", Count: 1},
		{CandidateName: "MÉLENCHON", Count: 1},
	}, c.Winners)
	assert.Equal(t, []string{"LE PEN", "MACRON", "MÉLENCHON"}, c.Bar.Categories)
	assert.Equal(t, formatter.CountColumn, c.Bar.ValueColumn)
}

func TestRender_CandidateAbsolute(t *testing.T) {
	s := newTestService(t, nil)
	sel := DefaultSelection()
	sel.Candidate = "zemmour"
	sel.Percentage = false
	sel.Stat = "abstentions"

	vm, err := s.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, "Abstentions", vm.Selection.Stat)
	assert.Equal(t, "Abstentions", vm.Stats.Column)

	c := vm.Candidates
	assert.Equal(t, models.ColVotes, c.Column)
	assert.Equal(t, formatter.ScaleContinuous, c.Map.Scale)
	assert.Equal(t, "Blues", c.Map.ColorScale)
	assert.Equal(t, []string{"Bretagne", "Corse", "Île-de-France"}, c.Map.Locations)
	assert.Equal(t, []string{"Corse", "Bretagne", "Île-de-France"}, c.Bar.Categories)
	assert.Empty(t, c.Winners)
	require.Len(t, c.Map.Hover, 1)
	assert.Equal(t, models.ColPctVotesExpressed, c.Map.Hover[0].Column)
}

func TestRenderCandidates_UnknownCandidateIsEmpty(t *testing.T) {
	s := newTestService(t, nil)
	sel := DefaultSelection()
	sel.Candidate = "HIDALGO"

	p, err := s.RenderCandidates(context.Background(), sel)
	require.NoError(t, err)
	require.NotNil(t, p.Map)
	assert.True(t, p.Map.Empty)
	assert.True(t, p.Bar.Empty)
}

func TestRender_Nation(t *testing.T) {
	s := newTestService(t, nil)
	sel := DefaultSelection()
	sel.Level = models.LevelNation

	vm, err := s.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Nil(t, vm.Stats.Map)
	assert.Nil(t, vm.Candidates.Map)

	assert.Equal(t, []string{"Votants", "Abstentions", "Blancs", "Nuls", "Exprimés"}, vm.Stats.Bar.Categories)
	assert.Equal(t, models.ColPctVotesExpressed, vm.Candidates.Column)
	assert.Equal(t, []string{"ZEMMOUR", "MÉLENCHON", "LE PEN", "MACRON"}, vm.Candidates.Bar.Categories)

	sel.Percentage = false
	sel.Candidate = "Le Pen"
	vm, err = s.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inscrits", "Votants", "Abstentions", "Blancs", "Nuls", "Exprimés"}, vm.Stats.Bar.Categories)
	assert.Equal(t, []string{"LE PEN"}, vm.Candidates.Bar.Categories)
	n, ok := vm.Candidates.Bar.Values[0].Number()
	require.True(t, ok)
	assert.Equal(t, 8133828.0, n)
}

func TestRender_InvalidSelection(t *testing.T) {
	s := newTestService(t, nil)
	var selErr *models.InvalidSelectionError

	sel := DefaultSelection()
	sel.Stat = "Procurations"
	_, err := s.Render(context.Background(), sel)
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "stat", selErr.Field)

	sel = DefaultSelection()
	sel.Level = models.LevelDepartment
	_, err = s.Render(context.Background(), sel)
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "geography", selErr.Field)

	sel = DefaultSelection()
	sel.Round = 3
	_, err = s.RenderStats(context.Background(), sel)
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "round", selErr.Field)

	sel = DefaultSelection()
	sel.Candidate = " "
	_, err = s.RenderCandidates(context.Background(), sel)
	require.True(t, errors.As(err, &selErr))
}

func TestRender_Canceled(t *testing.T) {
	s := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Render(ctx, DefaultSelection())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRender_Idempotent(t *testing.T) {
	s := newTestService(t, nil)

	first, err := s.Render(context.Background(), DefaultSelection())
	require.NoError(t, err)
	second, err := s.Render(context.Background(), DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOptions(t *testing.T) {
	s := newTestService(t, nil)

	opts, err := s.Options(context.Background(), models.RoundFirst)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Value: "1", Label: "1er tour"}}, opts.Rounds)
	assert.Equal(t, []Option{
		{Value: "nation", Label: "France"},
		{Value: "region", Label: "Région"},
	}, opts.Levels)
	assert.Equal(t, []string{"Majorité", "Macron", "Le Pen", "Zemmour", "Mélenchon"}, opts.Candidates)
	assert.Equal(t, aggregate.Stats, opts.Stats)
	assert.Equal(t, DefaultSelection(), opts.Defaults)

	configured := newTestService(t, []string{"Jadot", "Pécresse"})
	opts, err = configured.Options(context.Background(), models.RoundFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"Majorité", "Jadot", "Pécresse"}, opts.Candidates)

	_, err = s.Options(context.Background(), 0)
	assert.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	s := newTestService(t, nil)

	data, err := s.GeoJSON(models.RoundFirst, models.LevelRegion)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")

	_, err = s.GeoJSON(models.RoundFirst, models.LevelNation)
	var selErr *models.InvalidSelectionError
	assert.True(t, errors.As(err, &selErr))
}

func TestAudit(t *testing.T) {
	s := newTestService(t, nil)

	report, err := s.Audit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Files)
	assert.Equal(t, 1+4+3+9, report.Rows)

	require.Len(t, report.Findings, 2)
	for _, f := range report.Findings {
		assert.Equal(t, FindingNoBoundary, f.Kind)
		assert.Contains(t, f.Message, "Île-de-France")
	}
}

func TestAuditTable(t *testing.T) {
	s := newTestService(t, nil)
	src := testSources[1]

	rows, err := parser.Parse(strings.NewReader(
		"Code de la région;Libellé de la région;Nom;Voix;% Voix/Ins\n"+
			"53;Bretagne;MACRON;780000;130,5\n"), "bad.csv", models.LevelRegion)
	require.NoError(t, err)

	findings := s.auditTable("bad.csv", src, models.KindCandidates, rows)
	var kinds []string
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	assert.ElementsMatch(t, []string{FindingMissingColumn, FindingOutOfRange}, kinds)

	empty := s.auditTable("empty.csv", src, models.KindStats, nil)
	require.Len(t, empty, 1)
	assert.Equal(t, FindingEmptyTable, empty[0].Kind)
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection(Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSelection(), sel)

	sel, err = ParseSelection(Values{Round: "2", Level: "Département", Percentage: "Non", Stat: "Nuls", Candidate: "macron"})
	require.NoError(t, err)
	assert.Equal(t, Selection{
		Round:      models.RoundSecond,
		Level:      models.LevelDepartment,
		Percentage: false,
		Stat:       "Nuls",
		Candidate:  "macron",
	}, sel)

	for _, v := range []Values{{Round: "4"}, {Level: "canton"}, {Percentage: "peut-être"}} {
		_, err := ParseSelection(v)
		var selErr *models.InvalidSelectionError
		assert.True(t, errors.As(err, &selErr), "%+v", v)
	}
}
