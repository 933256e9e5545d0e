package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// subsystemClient is the shared HTTP plumbing for the concrete adapters.
type subsystemClient struct {
	base url.URL
	http *http.Client
}

func newSubsystemClient(baseURL string, timeout time.Duration) (*subsystemClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &subsystemClient{
		base: *base,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// post issues the call, measures wall time and classifies failures into
// ErrTimeout vs SubsystemError.
func (c *subsystemClient) post(ctx context.Context, path string, reqData any) (json.RawMessage, int64, error) {
	reqBytes, err := json.Marshal(reqData)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := c.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(reqBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(request)
	latencyMs := time.Since(start).Milliseconds()
	if err != nil {
		if isTimeout(err) {
			return nil, latencyMs, fmt.Errorf("%w: %s", ErrTimeout, reqURL.Path)
		}
		return nil, latencyMs, fmt.Errorf("call subsystem: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	latencyMs = time.Since(start).Milliseconds()
	if err != nil {
		return nil, latencyMs, fmt.Errorf("read subsystem response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, latencyMs, &SubsystemError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, latencyMs, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
