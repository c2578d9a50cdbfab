// Package httppush provides the 'http-push' node. It serializes its input
// as JSON and delivers it to a configured HTTP endpoint.
package httppush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

type processor struct {
	client *http.Client
}

func (processor) Concurrent() bool { return true }

func (p processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	url, ok := in.Config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required")
	}
	method := http.MethodPost
	if m, found := in.Config["method"].(string); found && m != "" {
		method = m
	}

	timeout := defaultTimeout
	if t, found := in.Config["timeout"].(string); found {
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", t, err)
		}
		timeout = parsed
	}

	logger := ctxlog.FromContext(ctx).With("processor", "http-push", "node", in.NodeID, "method", method, "url", url)

	body, err := json.Marshal(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Pushing payload.", "bytes", len(body))
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("endpoint returned %s", resp.Status)
	}

	logger.Debug("Push delivered.", "status", resp.StatusCode)
	return map[string]any{
		"status_code": resp.StatusCode,
		"response":    string(respBody),
	}, nil
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("http-push", processor{client: &http.Client{}})
}
