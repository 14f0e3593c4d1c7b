package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Civic Issues",
		Headers: []string{"id", "category", "description"},
		Rows: []map[string]string{
			{"id": "1", "category": "roads", "description": "Large pothole, near the school"},
			{"id": "2", "category": "traffic", "description": strings.Repeat("signal broken ", 10)},
		},
		Widths: map[string]float64{"description": 4},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "category", "description"}, records[0])
	assert.Equal(t, "Large pothole, near the school", records[1][2])
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"location", "reporter"},
		Rows:    []map[string]string{{"location": "=HYPERLINK(\"http://x\")", "reporter": "@asha"}, {"location": "Main St", "reporter": ""}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `'=HYPERLINK("http://x")`, records[1][0])
	assert.Equal(t, "'@asha", records[1][1])
	assert.Equal(t, []string{"Main St", ""}, records[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset())
	require.Len(t, widths, 3)
	assert.InDelta(t, pdfPageWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[0]*4, widths[2], 0.001)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
