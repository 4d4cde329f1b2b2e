package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulationReferenceDecoding(t *testing.T) {
	raw := `{
		"Tanauan": {"totalPopulation": 10000, "barangays": {"Poblacion": 2000, "Sambat": {"total_population": "1,500"}}},
		"Malvar": {"totalPopulation": null, "total_population": "500", "barangays": {"Luta": {"totalPopulation": "unknown"}}},
		"Lipa": {"totalPopulation": 0},
		"Talisay": {"totalPopulation": "N/A"}
	}`
	var ref PopulationReference
	require.NoError(t, json.Unmarshal([]byte(raw), &ref))

	tanauan, ok := ref.Municipality("Tanauan")
	require.True(t, ok)
	assert.Equal(t, KnownPopulation(10000), tanauan.TotalPopulation)
	assert.Equal(t, KnownPopulation(2000), tanauan.Barangay("Poblacion"))
	assert.Equal(t, KnownPopulation(1500), tanauan.Barangay("Sambat"))
	assert.False(t, tanauan.Barangay("Missing").Known)

	malvar := ref["Malvar"]
	assert.Equal(t, KnownPopulation(500), malvar.TotalPopulation)
	assert.False(t, malvar.Barangay("Luta").Known)

	lipa := ref["Lipa"]
	assert.True(t, lipa.TotalPopulation.Known)
	assert.False(t, lipa.TotalPopulation.Positive())
	assert.NotNil(t, lipa.Barangays)

	assert.False(t, ref["Talisay"].TotalPopulation.Known)
}

func TestPopulationCountJSON(t *testing.T) {
	out, err := json.Marshal(map[string]PopulationCount{"known": KnownPopulation(0), "unknown": {}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"known":0,"unknown":"N/A"}`, string(out))
}
