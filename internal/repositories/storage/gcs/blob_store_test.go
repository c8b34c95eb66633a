package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		file     string
		wantOpts int
	}{
		{name: "none", wantOpts: 0},
		{name: "inline json", json: `{"type":"service_account"}`, wantOpts: 1},
		{name: "file path", file: "/secrets/sa.json", wantOpts: 1},
		{name: "json wins over file", json: `{"type":"service_account"}`, file: "/secrets/sa.json", wantOpts: 1},
		{name: "blank values", json: "  ", file: "\t", wantOpts: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ClientOptions(tt.json, tt.file), tt.wantOpts)
		})
	}
}

func TestContentTypeForPath(t *testing.T) {
	assert.Equal(t, "application/geo+json", contentTypeForPath("locations/tx-1.geojson"))
	assert.Equal(t, "application/zip", contentTypeForPath("exports/chain.zip"))
	assert.Equal(t, "text/csv", contentTypeForPath("exports/chain.csv"))
	assert.Equal(t, "application/octet-stream", contentTypeForPath("raw/blob"))
}
