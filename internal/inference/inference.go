// Package inference is the client for the external model-serving service.
// The service owns the trained regressor; this API only ships it feature
// vectors and reads back predictions.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ntousis/aeolus-api/internal/features"
	"github.com/rs/zerolog"
)

type Client struct {
	BaseURL string
	Client  *http.Client
	logger  zerolog.Logger
}

func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	url := fmt.Sprintf("http://%s%s", c.BaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	url := fmt.Sprintf("http://%s%s", c.BaseURL, path)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Client.Do(req)
}

// Predict sends a feature vector to the model server and returns the
// predicted AQI. Missing features are serialized as nulls; the server side
// imputes them the way the training pipeline did.
func (c *Client) Predict(ctx context.Context, vector features.Vector) (float64, error) {
	payload := struct {
		Features features.Vector `json:"features"`
	}{Features: vector}

	resp, err := c.post(ctx, "/v1/predict", payload)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to reach model server")
		return 0, fmt.Errorf("failed to reach model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(body)).Msg("unexpected model server status")
		return 0, fmt.Errorf("unexpected %d from model server: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Prediction float64 `json:"prediction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}

	return out.Prediction, nil
}

// ModelInfo describes the served model.
type ModelInfo struct {
	Name     string   `json:"name"`
	Features []string `json:"features,omitempty"`
}

func (c *Client) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	resp, err := c.get(ctx, "/v1/model")
	if err != nil {
		return nil, fmt.Errorf("failed to reach model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected %d from model server: %s", resp.StatusCode, string(body))
	}

	var out ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode model info: %w", err)
	}

	return &out, nil
}

// Health reports whether the model server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/v1/health")
	if err != nil {
		return fmt.Errorf("failed to reach model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: %s", resp.Status)
	}
	return nil
}
