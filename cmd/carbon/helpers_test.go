package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/scoring"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    scoring.Draft
		wantErr bool
	}{
		{name: "note only", raw: "3=8", want: scoring.Draft{CriterionID: 3, Note: "8", Respected: true}},
		{name: "not respected", raw: "2=4:false", want: scoring.Draft{CriterionID: 2, Note: "4", Respected: false}},
		{name: "blank note kept for skipping", raw: "5=", want: scoring.Draft{CriterionID: 5, Note: "", Respected: true}},
		{name: "garbage note kept for skipping", raw: "5=abc:true", want: scoring.Draft{CriterionID: 5, Note: "abc", Respected: true}},
		{name: "missing separator", raw: "58", wantErr: true},
		{name: "bad criterion id", raw: "x=8", wantErr: true},
		{name: "zero criterion id", raw: "0=8", wantErr: true},
		{name: "bad respected flag", raw: "1=8:maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDraft(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{value: "table", want: outputTable},
		{value: "json", want: outputJSON},
		{value: "yaml", want: outputYAML},
		{value: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cmd := &cobra.Command{}
			addOutputFlag(cmd)
			require.NoError(t, cmd.Flags().Set("output", tt.value))

			got, err := outputFormat(cmd)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteOutput(t *testing.T) {
	value := map[string]int{"approved": 2}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputJSON, value, nil))
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, value, decoded)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, outputYAML, value, nil))
	assert.Equal(t, "approved: 2\n", buf.String())

	called := false
	require.NoError(t, writeOutput(&buf, outputTable, value, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestReadEvaluationInput(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "evaluation.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(evaluationFileExample), 0o600))
	in, err := readEvaluationInput(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "approve", in.Decision)
	require.Len(t, in.Ratings, 2)
	assert.Equal(t, int64(2), in.Ratings[1].CriterionID)
	assert.False(t, in.Ratings[1].Respected)

	jsonInput := `{"project_id": 4, "decision": "reject", "observations": "Emission data missing",
		"ratings": [{"criterion_id": 1, "note": 2, "respected": false, "comment": "No measurement"}]}`
	in, err = readEvaluationInput("-", strings.NewReader(jsonInput))
	require.NoError(t, err)
	assert.Equal(t, int64(4), in.ProjectID)
	assert.Equal(t, 2, in.Ratings[0].Note)

	_, err = readEvaluationInput("-", strings.NewReader("decision: ok\nunknown_field: 1\n"))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = readEvaluationInput(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 12 ", "project")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"", "-1", "0", "abc"} {
		_, err := parseID(raw, "project")
		assert.ErrorIs(t, err, common.ErrValidation, raw)
	}
}
