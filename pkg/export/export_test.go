package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	ds := Dataset{Title: "Coverage by Municipality", Headers: []string{"Municipality", "Applicants", "Coverage %"}}
	ds.AddRow("Tanauan", "12", "0.12")
	ds.AddRow("Malvar", "3")
	return ds
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Municipality,Applicants,Coverage %\nTanauan,12,0.12\nMalvar,3,\n", string(out))
}

func TestRenderersRejectHeaderlessDataset(t *testing.T) {
	_, err := NewCSVRenderer().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderer(t *testing.T) {
	ds := sampleDataset()
	ds.Subtitle = []string{"Generated for Batangas"}
	for i := 0; i < 80; i++ {
		ds.AddRow("Barangay", "1", "0.01")
	}
	out, err := NewPDFRenderer().Render(ds)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", NewPDFRenderer().ContentType())
}
