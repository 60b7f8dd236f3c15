package formatter

import "presidentielle/internal/models"

// Scale tells the charting library how to color values
type Scale string

const (
	ScaleContinuous Scale = "continuous"
	ScaleDiscrete   Scale = "discrete"
)

// Options configures the charts handed to the external renderer
type Options struct {
	Projection     string            `json:"projection"`
	FitBounds      bool              `json:"fit_bounds"`
	FeatureIDKey   string            `json:"feature_id_key"`
	ColorScale     string            `json:"color_scale"`
	DiscreteColors map[string]string `json:"discrete_colors,omitempty"`
	HoverColumns   []string          `json:"hover_columns,omitempty"`
}

// Series holds extra values shown on hover
type Series struct {
	Column string  `json:"column"`
	Values []Value `json:"values"`
}

// ChoroplethSpec describes a map colored by unit
type ChoroplethSpec struct {
	GeoJSON        string            `json:"geojson,omitempty"`
	FeatureIDKey   string            `json:"feature_id_key"`
	LocationColumn string            `json:"location_column"`
	ColorColumn    string            `json:"color_column"`
	Locations      []string          `json:"locations"`
	Values         []Value           `json:"values"`
	Scale          Scale             `json:"scale"`
	ColorScale     string            `json:"color_scale,omitempty"`
	DiscreteColors map[string]string `json:"discrete_colors,omitempty"`
	Hover          []Series          `json:"hover,omitempty"`
	Projection     string            `json:"projection"`
	FitBounds      bool              `json:"fit_bounds"`
	Unmatched      []string          `json:"unmatched,omitempty"`
	Empty          bool              `json:"empty"`
}

// FeatureSet is the set of boundary names a map can join on
type FeatureSet interface {
	Contains(name string) bool
}

// MatchFeatures records the locations that have no boundary
func (s *ChoroplethSpec) MatchFeatures(features FeatureSet) {
	s.Unmatched = nil
	for _, loc := range s.Locations {
		if !features.Contains(loc) {
			s.Unmatched = append(s.Unmatched, loc)
		}
	}
}

// BarSpec describes a horizontal bar chart. Bars keep the order given.
type BarSpec struct {
	Orientation    string            `json:"orientation"`
	CategoryColumn string            `json:"category_column"`
	ValueColumn    string            `json:"value_column"`
	Categories     []string          `json:"categories"`
	Values         []Value           `json:"values"`
	Scale          Scale             `json:"scale"`
	ColorScale     string            `json:"color_scale,omitempty"`
	DiscreteColors map[string]string `json:"discrete_colors,omitempty"`
	Empty          bool              `json:"empty"`
}

// CountColumn labels the value axis of the majority count chart
const CountColumn = "Count"

// ResultsFormatter shapes computed rows into chart specs
type ResultsFormatter struct {
	opts Options
}

// New creates a new ResultsFormatter
func New(opts Options) *ResultsFormatter {
	return &ResultsFormatter{opts: opts}
}

// Options returns the formatter configuration
func (f *ResultsFormatter) Options() Options {
	return f.opts
}

func checkColumns(rows []models.ResultRow, columns ...string) error {
	if len(rows) == 0 {
		return nil
	}
	for _, c := range columns {
		if !rows[0].Has(c) {
			return models.NewInvalidSelectionError("column", c, models.ErrUnknownColumn)
		}
	}
	return nil
}

func scaleOf(values []Value) Scale {
	for _, v := range values {
		if _, ok := v.Text(); ok {
			return ScaleDiscrete
		}
	}
	return ScaleContinuous
}

func (f *ResultsFormatter) colors(scale Scale) (string, map[string]string) {
	if scale == ScaleDiscrete {
		return "", f.opts.DiscreteColors
	}
	return f.opts.ColorScale, nil
}

// Choropleth colors each unit found in geoJoinKey by colorColumn. A
// textual column such as the winner name gives a discrete map.
func (f *ResultsFormatter) Choropleth(rows []models.ResultRow, geoJoinKey, colorColumn string) (ChoroplethSpec, error) {
	if err := checkColumns(rows, geoJoinKey, colorColumn); err != nil {
		return ChoroplethSpec{}, err
	}

	spec := ChoroplethSpec{
		FeatureIDKey:   f.opts.FeatureIDKey,
		LocationColumn: geoJoinKey,
		ColorColumn:    colorColumn,
		Locations:      make([]string, 0, len(rows)),
		Values:         make([]Value, 0, len(rows)),
		Projection:     f.opts.Projection,
		FitBounds:      f.opts.FitBounds,
		Empty:          len(rows) == 0,
	}
	for _, row := range rows {
		spec.Locations = append(spec.Locations, row.Text(geoJoinKey))
		spec.Values = append(spec.Values, valueOf(row.Cell(colorColumn)))
	}
	spec.Scale = scaleOf(spec.Values)
	spec.ColorScale, spec.DiscreteColors = f.colors(spec.Scale)

	for _, col := range f.opts.HoverColumns {
		if len(rows) == 0 || !rows[0].Has(col) || col == colorColumn {
			continue
		}
		s := Series{Column: col, Values: make([]Value, 0, len(rows))}
		for _, row := range rows {
			s.Values = append(s.Values, valueOf(row.Cell(col)))
		}
		spec.Hover = append(spec.Hover, s)
	}
	return spec, nil
}

// Bar draws one bar per row, labelled by categoryColumn
func (f *ResultsFormatter) Bar(rows []models.ResultRow, categoryColumn, valueColumn string) (BarSpec, error) {
	if err := checkColumns(rows, categoryColumn, valueColumn); err != nil {
		return BarSpec{}, err
	}
	spec := f.newBar(categoryColumn, valueColumn, len(rows))
	for _, row := range rows {
		spec.Categories = append(spec.Categories, row.Text(categoryColumn))
		spec.Values = append(spec.Values, valueOf(row.Cell(valueColumn)))
	}
	spec.Scale = scaleOf(spec.Values)
	spec.ColorScale, spec.DiscreteColors = f.colors(spec.Scale)
	return spec, nil
}

// CountBar draws the number of units won per candidate. Bars are
// colored by candidate.
func (f *ResultsFormatter) CountBar(counts []models.MajorityCount) BarSpec {
	spec := f.newBar(models.ColCandidateName, CountColumn, len(counts))
	for _, c := range counts {
		spec.Categories = append(spec.Categories, c.CandidateName)
		spec.Values = append(spec.Values, NumberValue(float64(c.Count)))
	}
	spec.Scale = ScaleDiscrete
	spec.DiscreteColors = f.opts.DiscreteColors
	return spec
}

// ColumnsBar draws one bar per column of a single row, labelled by the
// matching entry of labels
func (f *ResultsFormatter) ColumnsBar(row models.ResultRow, labels, columns []string) (BarSpec, error) {
	spec := f.newBar("", "", len(columns))
	for i, col := range columns {
		if !row.Has(col) {
			return BarSpec{}, models.NewInvalidSelectionError("column", col, models.ErrUnknownColumn)
		}
		label := col
		if i < len(labels) {
			label = labels[i]
		}
		spec.Categories = append(spec.Categories, label)
		spec.Values = append(spec.Values, valueOf(row.Cell(col)))
	}
	spec.Scale = ScaleContinuous
	spec.ColorScale = f.opts.ColorScale
	return spec, nil
}

func (f *ResultsFormatter) newBar(categoryColumn, valueColumn string, n int) BarSpec {
	return BarSpec{
		Orientation:    "h",
		CategoryColumn: categoryColumn,
		ValueColumn:    valueColumn,
		Categories:     make([]string, 0, n),
		Values:         make([]Value, 0, n),
		Scale:          ScaleContinuous,
		Empty:          n == 0,
	}
}
