package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// maxResponseBytes caps provider bodies; geocoding answers are a few KB.
const maxResponseBytes = 1 << 20

// fetchJSON performs a GET and decodes the body into out, translating every
// failure into a classified ProviderError.
func fetchJSON(ctx context.Context, client *http.Client, provider, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return newProviderError(provider, FailureMalformed, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return newProviderError(provider, FailureTimeout, transportError(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ProviderError{Kind: FailureNotFound, Provider: provider, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{Kind: FailureRateLimited, Provider: provider, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &ProviderError{Kind: FailureHTTP, Provider: provider, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return newProviderError(provider, FailureTimeout, fmt.Errorf("read body: %w", err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newProviderError(provider, FailureMalformed, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
