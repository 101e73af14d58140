package importfile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/errors"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"batch.csv", FormatCSV, false},
		{"batch.JSON", FormatJSON, false},
		{"dir/batch.yml", FormatYAML, false},
		{"batch.yaml", FormatYAML, false},
		{"batch.txt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CategoryFileParsing, errors.CategoryOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_CSV(t *testing.T) {
	input := `dataset,detector,detector_config,is_box,start_datetime,end_datetime,min_frequency,max_frequency,label,confidence_indicator_label,confidence_indicator_level
hydrophone-1,PAMGuard,threshold=0.8,true,2021-01-01T00:01:00Z,2021-01-01T00:01:05Z,100,900,Upcall,sure,1
hydrophone-1,,,false,2021-01-01T00:00:00Z,2021-01-01T00:10:00Z,,,Moan,,
`
	rows, err := Read(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.True(t, first.IsBox)
	assert.Equal(t, "PAMGuard", first.Detector)
	assert.Equal(t, "threshold=0.8", first.DetectorConfig)
	assert.True(t, first.StartDatetime.Equal(time.Date(2021, 1, 1, 0, 1, 0, 0, time.UTC)))
	require.NotNil(t, first.MaxFrequency)
	assert.InDelta(t, 900.0, *first.MaxFrequency, 0)
	require.NotNil(t, first.ConfidenceIndicator)
	assert.Equal(t, "sure", first.ConfidenceIndicator.Label)
	assert.Equal(t, 1, *first.ConfidenceIndicator.Level)

	second := rows[1]
	assert.False(t, second.IsBox)
	assert.Nil(t, second.MinFrequency)
	assert.Nil(t, second.MaxFrequency)
	assert.Nil(t, second.ConfidenceIndicator)
	assert.Equal(t, "Moan", second.Label)
}

func TestRead_CSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing column", "dataset,label\nds,x\n", 1},
		{"bad datetime", "dataset,start_datetime,end_datetime,label\nds,yesterday,2021-01-01T00:00:00Z,x\n", 2},
		{"bad frequency", "dataset,start_datetime,end_datetime,label,min_frequency\nds,2021-01-01T00:00:00Z,2021-01-01T00:00:00Z,x,low\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), FormatCSV)
			require.Error(t, err)
			var ee *errors.EnhancedError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, errors.CategoryFileParsing, ee.Category)
			assert.Equal(t, tt.line, ee.GetContext()["line"])
		})
	}
}

func TestRead_JSONAndYAML(t *testing.T) {
	jsonList := `[{"dataset": "hydrophone-1", "label": "Upcall", "is_box": true,
		"start_datetime": "2021-01-01T00:01:00Z", "end_datetime": "2021-01-01T00:01:05Z",
		"min_frequency": 100, "confidence_indicator": {"label": "sure", "level": 1}}]`
	yamlDoc := `rows:
  - dataset: hydrophone-1
    label: Upcall
    is_box: true
    start_datetime: 2021-01-01T00:01:00Z
    end_datetime: 2021-01-01T00:01:05Z
    min_frequency: 100
    confidence_indicator:
      label: sure
      level: 1
`
	for name, tc := range map[string]struct {
		input  string
		format Format
	}{
		"json list":     {jsonList, FormatJSON},
		"yaml document": {yamlDoc, FormatYAML},
	} {
		t.Run(name, func(t *testing.T) {
			rows, err := Read(strings.NewReader(tc.input), tc.format)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			row := rows[0]
			assert.Equal(t, "hydrophone-1", row.Dataset)
			assert.True(t, row.IsBox)
			assert.True(t, row.EndDatetime.Equal(time.Date(2021, 1, 1, 0, 1, 5, 0, time.UTC)))
			require.NotNil(t, row.MinFrequency)
			assert.InDelta(t, 100.0, *row.MinFrequency, 0)
			assert.Nil(t, row.MaxFrequency)
			require.NotNil(t, row.ConfidenceIndicator)
			assert.Equal(t, 1, *row.ConfidenceIndicator.Level)
		})
	}
}

func TestRead_Empty(t *testing.T) {
	rows, err := Read(strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Read(strings.NewReader("  \n"), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
