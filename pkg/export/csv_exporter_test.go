package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	content, err := exporter.Render(Dataset{
		Headers: []string{"Discipline", "Grade"},
		Rows: []map[string]string{
			{"Discipline": "Algorithms", "Grade": "5"},
			{"Discipline": "Databases, part 2", "Grade": "4"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Discipline,Grade\nAlgorithms,5\n\"Databases, part 2\",4\n", string(content))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	content, err := exporter.Render(Dataset{
		Headers: []string{"Discipline", "Grade"},
		Rows:    []map[string]string{{"Discipline": "Algorithms", "Grade": "5"}},
	}, "Exam Record Sheet", "Ivanov Petr, group IS-21 (Software Engineering)")
	require.NoError(t, err)

	require.True(t, len(content) > 4)
	assert.Equal(t, "%PDF", string(content[:4]))
}
