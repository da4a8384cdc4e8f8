package synthesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
)

// Hub download settings.
const (
	defaultHubBaseURL  = "https://huggingface.co"
	hubDownloadTimeout = 30 * time.Minute

	hubFilePermissions = 0o600
	hubDirPermissions  = 0o750
)

// Headers.
const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

var (
	// ErrModelIDEmpty indicates a missing model identifier.
	ErrModelIDEmpty = errors.New("model id cannot be empty")
	// ErrModelDirEmpty indicates a missing model directory.
	ErrModelDirEmpty = errors.New("model directory cannot be empty")
	// ErrHubDownloadFailed indicates a non-OK response from the hub.
	ErrHubDownloadFailed = errors.New("hub download failed")
)

// DefaultModelFiles are the weight and tokenizer files the runner needs.
func DefaultModelFiles() []string {
	return []string{
		"config.json",
		"tokenizer.json",
		"model.safetensors",
	}
}

// HubFetcher downloads model files from the Hugging Face hub. Gated models
// need an access token; it is sent as a bearer credential when present.
type HubFetcher struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// NewHubFetcher creates a fetcher against the public hub.
func NewHubFetcher(token string, log *logger.Logger) *HubFetcher {
	return &HubFetcher{
		baseURL: defaultHubBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: hubDownloadTimeout,
		},
		log: log,
	}
}

// NewHubFetcherWithBaseURL creates a fetcher against a specific hub address.
// This constructor is primarily for testing purposes.
func NewHubFetcherWithBaseURL(baseURL, token string, log *logger.Logger) *HubFetcher {
	fetcher := NewHubFetcher(token, log)
	fetcher.baseURL = baseURL

	return fetcher
}

// EnsureModel makes sure every listed model file is present under modelDir,
// downloading missing ones from the hub. The model is fetched once at
// startup; a failure here should abort service startup.
func (f *HubFetcher) EnsureModel(ctx context.Context, modelID, modelDir string, files []string) error {
	if modelID == "" {
		return ErrModelIDEmpty
	}

	if modelDir == "" {
		return ErrModelDirEmpty
	}

	err := os.MkdirAll(modelDir, hubDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create model directory '%s': %w", modelDir, err)
	}

	for _, file := range files {
		localPath := filepath.Join(modelDir, file)

		_, statErr := os.Stat(localPath)
		if statErr == nil {
			continue
		}

		f.log.Info("Downloading model file '%s' for %s", file, modelID)

		downloadErr := f.downloadFile(ctx, modelID, file, localPath)
		if downloadErr != nil {
			return downloadErr
		}
	}

	return nil
}

func (f *HubFetcher) downloadFile(ctx context.Context, modelID, file, localPath string) error {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", f.baseURL, modelID, file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create hub request: %w", err)
	}

	if f.token != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download '%s' from hub: %w", file, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("%w: %s for '%s': %s", ErrHubDownloadFailed, resp.Status, file, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read hub response for '%s': %w", file, err)
	}

	err = os.WriteFile(localPath, data, hubFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to write model file '%s': %w", localPath, err)
	}

	return nil
}
