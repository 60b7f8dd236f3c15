package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultFeatureIDKey is the property joining boundaries to unit labels
const DefaultFeatureIDKey = "properties.nom"

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// GeoIndex is the set of feature names of a boundary file
type GeoIndex struct {
	File  string
	Key   string
	names map[string]struct{}
}

// Contains reports whether a feature carries the name
func (g *GeoIndex) Contains(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.names[name]
	return ok
}

// Len returns the number of distinct feature names
func (g *GeoIndex) Len() int {
	if g == nil {
		return 0
	}
	return len(g.names)
}

// LoadGeoIndex reads a GeoJSON FeatureCollection and indexes the value
// found at featureIDKey ("properties.<name>") of every feature
func (b *Bundle) LoadGeoIndex(name, featureIDKey string) (*GeoIndex, error) {
	data, err := b.ReadFile(name)
	if err != nil {
		return nil, err
	}
	prop, err := propertyName(featureIDKey)
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON in %s: %w", name, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unsupported GeoJSON type in %s: %q", name, fc.Type)
	}

	idx := &GeoIndex{File: name, Key: featureIDKey, names: make(map[string]struct{}, len(fc.Features))}
	for i, f := range fc.Features {
		v, ok := f.Properties[prop]
		if !ok {
			return nil, fmt.Errorf("feature %d of %s has no %q property", i, name, prop)
		}
		idx.names[fmt.Sprint(v)] = struct{}{}
	}
	return idx, nil
}

func propertyName(featureIDKey string) (string, error) {
	prop, ok := strings.CutPrefix(featureIDKey, "properties.")
	if !ok || prop == "" {
		return "", fmt.Errorf("feature id key must look like properties.<name>, got %q", featureIDKey)
	}
	return prop, nil
}
