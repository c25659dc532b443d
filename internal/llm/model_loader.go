package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ModelLoader asks an inference server to load the embedding model before it
// is used. Servers that manage models expose /models and /models/load
// (llama.cpp router mode); servers that don't are detected and tolerated.
type ModelLoader struct {
	baseURL string
	client  *http.Client
}

// NewModelLoader creates a new model loader.
func NewModelLoader(baseURL string) *ModelLoader {
	return &ModelLoader{
		baseURL: baseURL,
		client:  newHTTPClient(),
	}
}

// LoadModelRequest represents the request payload for loading a model.
type LoadModelRequest struct {
	Model     string   `json:"model"`
	ExtraArgs []string `json:"extra_args,omitempty"`
}

// LoadModelResponse represents the response from the load model endpoint.
type LoadModelResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ModelStatus represents the status of a model from the /models endpoint.
type ModelStatus struct {
	ID      string `json:"id"`
	InCache bool   `json:"in_cache"`
	Status  struct {
		Value    string `json:"value"`
		ExitCode *int   `json:"exit_code,omitempty"`
		Failed   *bool  `json:"failed,omitempty"`
	} `json:"status"`
}

// ModelsResponse represents the response from the /models endpoint.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

// EnsureLoaded makes a best-effort attempt to have modelName loaded on the
// server. If the server does not expose model management (no /models
// endpoint, or it cannot be queried) EnsureLoaded returns nil and leaves the
// verdict to the caller's embedding probe. A failed load on a server that
// does manage models wraps ErrModelUnavailable.
func (ml *ModelLoader) EnsureLoaded(ctx context.Context, modelName string) error {
	loaded, err := ml.IsModelLoaded(ctx, modelName)
	if err != nil {
		// Server without model management, or unreachable; the embedding
		// probe decides whether the model is actually usable
		return nil
	}
	if loaded {
		return nil
	}

	if err := ml.LoadModel(ctx, modelName, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return nil
}

// IsModelLoaded checks if a model is already loaded (in cache) on the server.
func (ml *ModelLoader) IsModelLoaded(ctx context.Context, modelName string) (bool, error) {
	modelsURL := fmt.Sprintf("%s/models", ml.baseURL)
	statusReq, err := http.NewRequestWithContext(ctx, "GET", modelsURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create status request: %w", err)
	}

	statusResp, err := ml.client.Do(statusReq)
	if err != nil {
		return false, fmt.Errorf("failed to check model status: %w", err)
	}
	defer func() {
		_ = statusResp.Body.Close()
	}()

	if statusResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(statusResp.Body)
		return false, fmt.Errorf("bad status %d: %s", statusResp.StatusCode, string(raw))
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&modelsResp); err != nil {
		return false, fmt.Errorf("failed to decode models response: %w", err)
	}

	for _, model := range modelsResp.Data {
		if model.ID == modelName {
			return model.InCache, nil
		}
	}

	// Model not found in the list
	return false, nil
}

// LoadModel loads a model on the server with optional extra arguments.
// The load endpoint returns success immediately while the actual loading
// happens asynchronously, so LoadModel polls /models until the model is in
// cache, reports a failure, or the timeout elapses.
func (ml *ModelLoader) LoadModel(ctx context.Context, modelName string, extraArgs []string) error {
	url := fmt.Sprintf("%s/models/load", ml.baseURL)

	payload := LoadModelRequest{
		Model:     modelName,
		ExtraArgs: extraArgs,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := ml.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var loadResp LoadModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&loadResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !loadResp.Success {
		return fmt.Errorf("model load failed: %s", loadResp.Error)
	}

	maxAttempts := 30 // Wait up to 30 seconds (1 second per attempt)
	for i := 0; i < maxAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		loaded, err := ml.checkLoadOutcome(ctx, modelName)
		if err != nil {
			return err
		}
		if loaded {
			return nil
		}

		time.Sleep(time.Second)
	}

	return fmt.Errorf("model did not load within timeout period")
}

// checkLoadOutcome polls /models once. It returns true when the model is in
// cache, an error when the server reports the load failed, and false while
// the load is still in progress or the status cannot be read.
func (ml *ModelLoader) checkLoadOutcome(ctx context.Context, modelName string) (bool, error) {
	modelsURL := fmt.Sprintf("%s/models", ml.baseURL)
	statusReq, err := http.NewRequestWithContext(ctx, "GET", modelsURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create status request: %w", err)
	}

	statusResp, err := ml.client.Do(statusReq)
	if err != nil {
		// Transient; keep polling
		return false, nil
	}
	defer func() {
		_ = statusResp.Body.Close()
	}()

	var modelsResp ModelsResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&modelsResp); err != nil {
		return false, nil
	}

	for _, model := range modelsResp.Data {
		if model.ID != modelName {
			continue
		}
		if model.InCache {
			return true, nil
		}
		if model.Status.Failed != nil && *model.Status.Failed {
			exitCode := 0
			if model.Status.ExitCode != nil {
				exitCode = *model.Status.ExitCode
			}
			return false, fmt.Errorf("model load failed with exit code %d", exitCode)
		}
		// Still loading
		return false, nil
	}

	return false, nil
}
