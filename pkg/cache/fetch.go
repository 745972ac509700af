package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher obtains model artifacts from the upstream host. Stat reports
// the artifact size before a download starts; Fetch streams the bytes to
// dst and returns the host-advertised SHA-256 hex digest, which the cache
// verifies against its own stream hash before publication.
type Fetcher interface {
	Stat(ctx context.Context, modelID string) (size int64, err error)
	Fetch(ctx context.Context, modelID string, dst io.Writer) (advertisedSHA256 string, err error)
}

// checksumHeader is where the model host advertises the artifact digest.
// Hosts that omit the header publish a companion "<url>.sha256" file
// instead; HubFetcher checks the header first, then the companion.
const checksumHeader = "X-Checksum-Sha256"

// HubFetcher downloads artifacts over HTTP from a model hub. The artifact
// URL is <baseURL>/<model id>.
type HubFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHubFetcher builds a fetcher against baseURL. A nil client gets a
// default with a generous timeout suitable for large artifacts.
func NewHubFetcher(baseURL string, client *http.Client) *HubFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	return &HubFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (f *HubFetcher) artifactURL(modelID string) string {
	return f.baseURL + "/" + modelID
}

// Stat issues a HEAD request for the artifact's Content-Length.
func (f *HubFetcher) Stat(ctx context.Context, modelID string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.artifactURL(modelID), nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("statting %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%s: %w", modelID, ErrModelNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("statting %s: unexpected status %d", modelID, resp.StatusCode)
	}
	return resp.ContentLength, nil
}

// Fetch streams the artifact into dst and returns the advertised digest.
func (f *HubFetcher) Fetch(ctx context.Context, modelID string, dst io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.artifactURL(modelID), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", modelID, ErrModelNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("requesting %s: unexpected status %d", modelID, resp.StatusCode)
	}

	digest := strings.TrimSpace(resp.Header.Get(checksumHeader))
	if digest == "" {
		digest, err = f.companionDigest(ctx, modelID)
		if err != nil {
			return "", err
		}
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return "", fmt.Errorf("streaming %s: %w", modelID, err)
	}
	return strings.ToLower(digest), nil
}

// companionDigest fetches the "<url>.sha256" sidecar published by hosts
// that do not set the checksum header.
func (f *HubFetcher) companionDigest(ctx context.Context, modelID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.artifactURL(modelID)+".sha256", nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching digest for %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("no digest advertised for %s (companion status %d)", modelID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("reading digest for %s: %w", modelID, err)
	}
	// Sidecar format is "<hex digest>" or "<hex digest>  <filename>".
	digest, _, _ := strings.Cut(strings.TrimSpace(string(data)), " ")
	if digest == "" {
		return "", fmt.Errorf("empty digest sidecar for %s", modelID)
	}
	return digest, nil
}
