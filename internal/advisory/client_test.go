package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name         string
		config       Config
		wantEndpoint string
		wantErr      bool
	}{
		{
			name:         "defaults",
			config:       Config{},
			wantEndpoint: "http://localhost:8082/analyze-project",
		},
		{
			name:         "custom base URL with trailing slash",
			config:       Config{BaseURL: "https://advisor.example.com/v1/"},
			wantEndpoint: "https://advisor.example.com/v1/analyze-project",
		},
		{
			name:    "missing scheme",
			config:  Config{BaseURL: "advisor.example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, client.Endpoint())
			assert.Equal(t, DefaultTimeout, client.Timeout())
		})
	}
}

func TestHTTPClient_Analyze(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AnalyzePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_esg_score": 70, "credibility_score": 85, "carbon_risk": "Low", "recommendations": "Publish scope 3 data"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	req := Request{
		Description: "Mangrove restoration",
		Budget:      120000,
		Sector:      "Forestry",
		Criteria:    []Criterion{{Name: "Emissions CO2", Note: 8, Respect: true}},
	}
	analysis, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	assert.Equal(t, Analysis{
		PredictedESGScore: 70,
		CredibilityScore:  85,
		CarbonRisk:        "Low",
		Recommendations:   "Publish scope 3 data",
	}, analysis)
}

func TestHTTPClient_AnalyzeRequestBody(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"predicted_esg_score": 1, "credibility_score": 1}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), Request{
		Description: "d",
		Sector:      "s",
		Budget:      10,
		Criteria:    []Criterion{{Name: "n", Note: 3, Respect: false}},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"description", "budget", "sector", "criteria"}, keys(raw))
	criteria, ok := raw["criteria"].([]any)
	require.True(t, ok)
	require.Len(t, criteria, 1)
	first, ok := criteria[0].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"name", "note", "respect"}, keys(first))
}

func TestHTTPClient_AnalyzeErrors(t *testing.T) {
	tests := []struct {
		handler http.HandlerFunc
		wantErr error
		name    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: common.ErrAdvisoryUnavailable,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("model not loaded"))
			},
			wantErr: common.ErrAdvisoryResponse,
		},
		{
			name: "missing score",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"credibility_score": 50, "carbon_risk": "low"}`))
			},
			wantErr: common.ErrAdvisoryResponse,
		},
		{
			name: "score has wrong type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"predicted_esg_score": "high", "credibility_score": 50}`))
			},
			wantErr: common.ErrAdvisoryResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, err := NewClient(Config{BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Analyze(context.Background(), Request{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPClient_AnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Analyze(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAdvisoryUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Analysis
		wantErr bool
	}{
		{
			name:    "plain object",
			content: `{"predicted_esg_score": 40, "credibility_score": 30, "carbon_risk": "high", "recommendations": "Reduce"}`,
			want:    Analysis{PredictedESGScore: 40, CredibilityScore: 30, CarbonRisk: "high", Recommendations: "Reduce"},
		},
		{
			name:    "wrapped in log text",
			content: "INFO model ready\n{\"predicted_esg_score\": 66, \"credibility_score\": 90, \"carbon_risk\": \"medium\"}\nINFO done",
			want:    Analysis{PredictedESGScore: 66, CredibilityScore: 90, CarbonRisk: "medium"},
		},
		{
			name:    "nested objects keep outer braces",
			content: `result={"predicted_esg_score": 55, "credibility_score": 70, "carbon_risk": "low", "meta": {"v": 2}} end`,
			want:    Analysis{PredictedESGScore: 55, CredibilityScore: 70, CarbonRisk: "low"},
		},
		{
			name:    "float scores are rounded",
			content: `{"predicted_esg_score": 64.6, "credibility_score": 80.0}`,
			want:    Analysis{PredictedESGScore: 65, CredibilityScore: 80},
		},
		{name: "no braces", content: "nothing here", wantErr: true},
		{name: "reversed braces", content: "} {", wantErr: true},
		{name: "broken json", content: `{"predicted_esg_score": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrAdvisoryResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRequest(t *testing.T) {
	lookup := catalog.NewLookup([]model.CriterionReference{
		{ID: 1, Name: "Emissions CO2", Description: "Tonnes évitées", Weight: 5},
	})
	project := model.Project{Description: "Solar farm", Budget: 5e5, Sector: "Energy"}

	got := BuildRequest(project, []model.Rating{
		{CriterionID: 1, Note: 8, Respected: true},
		{CriterionID: 9, Note: 2, Respected: false},
	}, lookup)

	assert.Equal(t, Request{
		Description: "Solar farm",
		Budget:      5e5,
		Sector:      "Energy",
		Criteria: []Criterion{
			{Name: "Emissions CO2", Note: 8, Respect: true},
			{Name: "Criterion #9", Note: 2, Respect: false},
		},
	}, got)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
