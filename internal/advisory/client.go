package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8082"
	// DefaultTimeout bounds a single analysis call.
	DefaultTimeout = 8 * time.Second
	// AnalyzePath is the analysis endpoint relative to the base URL.
	AnalyzePath = "/analyze-project"

	maxResponseBytes = 1 << 20
)

// Client analyzes a project remotely.
type Client interface {
	Analyze(ctx context.Context, req Request) (Analysis, error)
}

// Criterion is one rated criterion in an analysis request.
type Criterion struct {
	Name    string `json:"name"`
	Note    int    `json:"note"`
	Respect bool   `json:"respect"`
}

// Request is the body posted to the analysis endpoint.
type Request struct {
	Description string      `json:"description"`
	Sector      string      `json:"sector"`
	Criteria    []Criterion `json:"criteria"`
	Budget      float64     `json:"budget"`
}

// Analysis is the service's verdict on a project.
type Analysis struct {
	CarbonRisk        string `json:"carbon_risk"`
	Recommendations   string `json:"recommendations"`
	PredictedESGScore int    `json:"predicted_esg_score"`
	CredibilityScore  int    `json:"credibility_score"`
}

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClient implements Client over HTTP. It never retries.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates an advisory client, applying defaults for empty settings.
func NewClient(cfg Config) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: advisory base URL %q", common.ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClient{
		endpoint:   baseURL + AnalyzePath,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Endpoint returns the full analysis URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Timeout returns the per-call timeout.
func (c *HTTPClient) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Analyze posts the request and parses the service's answer.
func (c *HTTPClient) Analyze(ctx context.Context, analysisReq Request) (Analysis, error) {
	body, err := json.Marshal(analysisReq)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	slog.Debug("calling advisory service", "endpoint", c.endpoint, "request_id", requestID, "criteria", len(analysisReq.Criteria))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", common.ErrAdvisoryUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Analysis{}, fmt.Errorf("%w: status %d: %s", common.ErrAdvisoryUnavailable, resp.StatusCode, truncate(string(respBody), 200))
	}

	return ParseAnalysis(string(respBody))
}

// ParseAnalysis extracts the outermost JSON object from content, which may be
// wrapped in log text, and decodes it.
func ParseAnalysis(content string) (Analysis, error) {
	object, ok := extractJSONObject(content)
	if !ok {
		return Analysis{}, fmt.Errorf("%w: no JSON object in response", common.ErrAdvisoryResponse)
	}

	var raw struct {
		PredictedESGScore *float64 `json:"predicted_esg_score"`
		CredibilityScore  *float64 `json:"credibility_score"`
		CarbonRisk        string   `json:"carbon_risk"`
		Recommendations   string   `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", common.ErrAdvisoryResponse, err)
	}

	if raw.PredictedESGScore == nil {
		return Analysis{}, fmt.Errorf("%w: missing predicted_esg_score", common.ErrAdvisoryResponse)
	}
	if raw.CredibilityScore == nil {
		return Analysis{}, fmt.Errorf("%w: missing credibility_score", common.ErrAdvisoryResponse)
	}

	return Analysis{
		PredictedESGScore: int(math.Round(*raw.PredictedESGScore)),
		CredibilityScore:  int(math.Round(*raw.CredibilityScore)),
		CarbonRisk:        strings.TrimSpace(raw.CarbonRisk),
		Recommendations:   strings.TrimSpace(raw.Recommendations),
	}, nil
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// BuildRequest assembles the analysis request for a project's ratings.
func BuildRequest(project model.Project, ratings []model.Rating, lookup *catalog.Lookup) Request {
	criteria := make([]Criterion, 0, len(ratings))
	for _, r := range ratings {
		criteria = append(criteria, Criterion{
			Name:    lookup.Resolve(r.CriterionID).Name,
			Note:    r.Note,
			Respect: r.Respected,
		})
	}
	return Request{
		Description: project.Description,
		Budget:      project.Budget,
		Sector:      project.Sector,
		Criteria:    criteria,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
