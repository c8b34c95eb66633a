// Package geo parses, validates and merges uploaded location files.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TransactionIDProperty is the feature property stamped with the owning transaction.
const TransactionIDProperty = "transaction_id"

// ErrInvalidGeoJSON is returned for location files that do not decode or validate.
var ErrInvalidGeoJSON = errors.New("invalid geojson")

// worldBound is the valid WGS84 coordinate range.
var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Parse decodes a location file into a feature collection. A single Feature
// document is accepted and wrapped. Every feature must carry a geometry
// inside WGS84 bounds.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
	}

	var fc *geojson.FeatureCollection
	switch head.Type {
	case "FeatureCollection":
		decoded, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		fc = decoded
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
		}
		fc = geojson.NewFeatureCollection().Append(f)
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidGeoJSON, head.Type)
	}

	if err := Validate(fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// Validate checks the structure of an already decoded collection.
func Validate(fc *geojson.FeatureCollection) error {
	if fc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidGeoJSON)
	}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return fmt.Errorf("%w: feature %d has no geometry", ErrInvalidGeoJSON, i)
		}
		b := f.Geometry.Bound()
		if !worldBound.Contains(b.Min) || !worldBound.Contains(b.Max) {
			return fmt.Errorf("%w: feature %d is outside WGS84 bounds", ErrInvalidGeoJSON, i)
		}
	}
	return nil
}

// StampTransactionID sets the transaction_id property on every feature.
func StampTransactionID(fc *geojson.FeatureCollection, transactionID string) {
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[TransactionIDProperty] = transactionID
	}
}

// Merge unions the features of collections into a new collection.
func Merge(collections ...*geojson.FeatureCollection) *geojson.FeatureCollection {
	merged := geojson.NewFeatureCollection()
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		merged.Features = append(merged.Features, fc.Features...)
	}
	return merged
}

// Marshal encodes fc, writing an empty feature list rather than null.
func Marshal(fc *geojson.FeatureCollection) ([]byte, error) {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	if fc.Features == nil {
		fc.Features = []*geojson.Feature{}
	}
	return json.Marshal(fc)
}
