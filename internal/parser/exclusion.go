package parser

import (
	"sort"
	"strconv"
	"strings"

	"presidentielle/internal/models"
)

// Overseas collectivities and French citizens abroad are not drawn on
// the metropolitan maps.
var excludedDepartmentCodes = map[string]struct{}{
	"ZA": {}, "ZB": {}, "ZC": {}, "ZD": {}, "ZM": {},
	"ZN": {}, "ZP": {}, "ZS": {}, "ZW": {}, "ZX": {},
}

var excludedRegionCodes = map[int64]struct{}{
	1: {}, 2: {}, 3: {}, 4: {}, 6: {},
}

// ExcludedDepartmentCodes returns the department codes dropped at load time
func ExcludedDepartmentCodes() []string {
	codes := make([]string, 0, len(excludedDepartmentCodes))
	for c := range excludedDepartmentCodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// ExcludedRegionCodes returns the region codes dropped at load time
func ExcludedRegionCodes() []int64 {
	codes := make([]int64, 0, len(excludedRegionCodes))
	for c := range excludedRegionCodes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// exclusionFor picks the rule from the identifying column of the file.
// The department rule wins when both columns are present.
func exclusionFor(h *models.Header) func(models.ResultRow) bool {
	switch {
	case h.Has(models.ColDepartmentCode):
		return excludedDepartment
	case h.Has(models.ColRegionCode):
		return excludedRegion
	default:
		return func(models.ResultRow) bool { return false }
	}
}

func excludedDepartment(row models.ResultRow) bool {
	code := strings.ToUpper(strings.TrimSpace(row.Text(models.ColDepartmentCode)))
	_, ok := excludedDepartmentCodes[code]
	return ok
}

func excludedRegion(row models.ResultRow) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(row.Text(models.ColRegionCode)), 10, 64)
	if err != nil {
		return false
	}
	_, ok := excludedRegionCodes[n]
	return ok
}

// IsExcluded reports whether a row carries an excluded code. Loaded rows
// never do; the check exists for audits of the loaded tables.
func IsExcluded(row models.ResultRow) bool {
	h := row.Header()
	if h == nil {
		return false
	}
	return exclusionFor(h)(row)
}
