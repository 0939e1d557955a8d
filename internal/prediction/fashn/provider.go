// Package fashn implements the prediction.Provider interface against the
// FASHN-style try-on HTTP API fronted by the platform's quota gateway.
package fashn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/prediction"
)

const (
	// DefaultBaseURL is the production endpoint of the try-on gateway.
	DefaultBaseURL = "https://api.fashn.ai"

	// DefaultStartTimeout bounds the start request. The service may be slow
	// to accept work, so this is generous.
	DefaultStartTimeout = 60 * time.Second

	// DefaultPollTimeout bounds each status poll.
	DefaultPollTimeout = 15 * time.Second
)

// modelNames maps our backend selectors to the service's model names.
var modelNames = map[domain.ModelKey]string{
	domain.ModelKeyLite:    "tryon-v1.6-lite",
	domain.ModelKeyQuality: "tryon-v1.6",
}

// Config contains configuration for the FASHN provider.
type Config struct {
	BaseURL      string
	APIKey       string
	StartTimeout time.Duration
	PollTimeout  time.Duration
}

// Provider implements prediction.Provider over the FASHN HTTP API.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new FASHN prediction provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("fashn API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.StartTimeout == 0 {
		config.StartTimeout = DefaultStartTimeout
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = DefaultPollTimeout
	}

	return &Provider{
		config: config,
		client: &http.Client{},
		logger: logger,
	}, nil
}

// Start submits a generation job.
func (p *Provider) Start(ctx context.Context, params prediction.StartParams) (*prediction.StartResult, error) {
	model, ok := modelNames[params.Model]
	if !ok {
		model = modelNames[domain.DefaultModelKey]
	}

	reqBody := runRequest{
		ModelName: model,
		Inputs: runInputs{
			ModelImage:   "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(params.PersonImage),
			GarmentImage: params.GarmentImage,
			Category:     string(params.Category),
		},
		DeviceID: params.DeviceID,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, prediction.WrapError("start", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.StartTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/run", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, prediction.WrapError("start", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if params.IdentityToken != "" {
		req.Header.Set("X-Identity-Token", params.IdentityToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, prediction.WrapError("start", prediction.ETimeout)
		}
		return nil, prediction.WrapError("start", prediction.EUnavailable)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, prediction.WrapError("start", err)
	}

	// The gateway reports quota exhaustion as 402 with a typed code.
	if resp.StatusCode == http.StatusPaymentRequired {
		var exErr exhaustionResponse
		_ = json.Unmarshal(respBytes, &exErr)
		kind := exhaustionKind(exErr.Code)
		if kind == nil {
			return nil, prediction.WrapError("start", fmt.Errorf("unrecognized exhaustion code %q", exErr.Code))
		}
		return &prediction.StartResult{Exhausted: kind}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, prediction.WrapError("start", p.mapHTTPError(resp.StatusCode, respBytes))
	}

	var out runResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, prediction.WrapError("start", err)
	}
	if out.ID == "" {
		return nil, prediction.WrapError("start", fmt.Errorf("response carried no job id"))
	}

	return &prediction.StartResult{
		JobID:  out.ID,
		Status: prediction.JobStatusPending,
	}, nil
}

// Poll reports the status of an in-flight job.
func (p *Provider) Poll(ctx context.Context, jobID string) (*prediction.PollResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.PollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/v1/status/"+jobID, nil)
	if err != nil {
		return nil, prediction.WrapError("poll", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, prediction.WrapError("poll", prediction.ETimeout)
		}
		return nil, prediction.WrapError("poll", prediction.EUnavailable)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, prediction.WrapError("poll", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, prediction.WrapError("poll", p.mapHTTPError(resp.StatusCode, respBytes))
	}

	var out statusResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, prediction.WrapError("poll", err)
	}

	result := &prediction.PollResult{
		Status:    mapStatus(out.Status),
		Remaining: out.Remaining,
	}
	if len(out.Output) > 0 {
		result.Output = out.Output[0]
	}
	return result, nil
}

// Fetch resolves a result reference to image bytes. Data URIs are decoded
// locally; anything else is fetched over HTTP.
func (p *Provider) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		idx := strings.Index(ref, ";base64,")
		if idx < 0 {
			return nil, prediction.WrapError("fetch", fmt.Errorf("unsupported data URI encoding"))
		}
		data, err := base64.StdEncoding.DecodeString(ref[idx+len(";base64,"):])
		if err != nil {
			return nil, prediction.WrapError("fetch", err)
		}
		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.PollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, prediction.WrapError("fetch", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, prediction.WrapError("fetch", prediction.EUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, prediction.WrapError("fetch", fmt.Errorf("result fetch returned status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

// mapHTTPError maps HTTP status codes to sentinel errors.
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return prediction.EUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", prediction.EInvalidInput, errResp.Message)
	case http.StatusRequestTimeout:
		return prediction.ETimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return prediction.EUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Message)
	}
}

// mapStatus translates the service's status vocabulary to ours.
func mapStatus(s string) prediction.JobStatus {
	switch s {
	case "completed", "succeeded":
		return prediction.JobStatusSucceeded
	case "failed", "canceled":
		return prediction.JobStatusFailed
	default:
		// starting, in_queue, processing
		return prediction.JobStatusPending
	}
}

// exhaustionKind maps gateway exhaustion codes to the closed enum.
func exhaustionKind(code string) *prediction.ExhaustionKind {
	var k prediction.ExhaustionKind
	switch code {
	case "quota_exhausted_guest":
		k = prediction.ExhaustionGuest
	case "quota_exhausted_registered":
		k = prediction.ExhaustionAuthenticated
	default:
		return nil
	}
	return &k
}

// API request/response types

type runRequest struct {
	ModelName string    `json:"model_name"`
	Inputs    runInputs `json:"inputs"`
	DeviceID  string    `json:"device_id,omitempty"`
}

type runInputs struct {
	ModelImage   string `json:"model_image"`
	GarmentImage string `json:"garment_image"`
	Category     string `json:"category"`
}

type runResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type statusResponse struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	Output    []string `json:"output,omitempty"`
	Remaining *int     `json:"remaining,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type exhaustionResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
