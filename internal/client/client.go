package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/voiceclone-service/internal/audio"
	"github.com/book-expert/voiceclone-service/internal/core"
	"github.com/gorilla/websocket"
)

// API endpoints and paths.
const (
	apiUploadReference = "/upload_reference_audio"
	apiHealth          = "/health"
	apiAudio           = "/audio"
)

// Form field names.
const formFieldFile = "file"

var (
	// ErrTextEmpty indicates there is no text to synthesize.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrUploadRejected indicates the server refused the reference upload.
	ErrUploadRejected = errors.New("reference upload rejected")
	// ErrServerError indicates the server answered a synthesis request with
	// an error frame instead of audio.
	ErrServerError = errors.New("server error")
	// ErrEmptyAudio indicates an audio frame with no samples.
	ErrEmptyAudio = errors.New("received empty audio data")
)

// Client talks to a voiceclone-server instance.
type Client struct {
	address    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	sampleRate int
}

// New creates a client for the given server address. The address may omit
// the port; the server default is assumed. sampleRate is used when wrapping
// received PCM into a WAV file.
func New(address string, timeout time.Duration, sampleRate int) *Client {
	return &Client{
		address: hostPort(address),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		sampleRate: sampleRate,
	}
}

// Address returns the normalized host:port this client targets.
func (c *Client) Address() string {
	return c.address
}

func (c *Client) httpURL(path string) string {
	return "http://" + c.address + path
}

func (c *Client) wsURL(path string) string {
	return "ws://" + c.address + path
}

// uploadResult mirrors the server's upload response body.
type uploadResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// UploadReference sends a reference audio file to the server, making it the
// voice all subsequent synthesis conditions on.
func (c *Client) UploadReference(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read reference file: %w", err)
	}

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(formFieldFile, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	_, err = part.Write(data)
	if err != nil {
		return fmt.Errorf("failed to copy file data: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.httpURL(apiUploadReference),
		&body,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send upload to server at %s: %w", c.address, err)
	}
	defer resp.Body.Close()

	var result uploadResult

	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK || (decodeErr == nil && result.Status != "success") {
		if decodeErr == nil && result.Message != "" {
			return fmt.Errorf("%w: %s", ErrUploadRejected, result.Message)
		}

		return fmt.Errorf("%w: status %s", ErrUploadRejected, resp.Status)
	}

	return nil
}

// HealthCheck verifies that the server is running and its model is loaded.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpURL(apiHealth), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for server at %s: %w", c.address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// errorFrame is the JSON error reply on the synthesis socket.
type errorFrame struct {
	Error string `json:"error"`
}

// Synthesize sends text over the synthesis WebSocket and returns the clip
// from the single reply frame.
func (c *Client) Synthesize(ctx context.Context, text string) (core.Clip, error) {
	if text == "" {
		return core.Clip{}, ErrTextEmpty
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL(apiAudio), nil)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to connect to server at %s: %w", c.address, err)
	}

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	err = conn.WriteJSON(map[string]string{"text": text})
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to send text: %w", err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to read server reply: %w", err)
	}

	return c.decodeReply(message)
}

func (c *Client) decodeReply(message []byte) (core.Clip, error) {
	text := string(message)

	if audio.IsAudioFrame(text) {
		pcm, err := audio.DecodeFrame(text)
		if err != nil {
			return core.Clip{}, err
		}

		if len(pcm) == 0 {
			return core.Clip{}, ErrEmptyAudio
		}

		return core.Clip{PCM: pcm, SampleRate: c.sampleRate}, nil
	}

	var frame errorFrame

	err := json.Unmarshal(message, &frame)
	if err == nil && frame.Error != "" {
		return core.Clip{}, fmt.Errorf("%w: %s", ErrServerError, frame.Error)
	}

	return core.Clip{}, fmt.Errorf("%w: unexpected reply: %s", ErrServerError, text)
}

// SynthesizeToFile runs Synthesize and writes the clip as a WAV file.
func (c *Client) SynthesizeToFile(ctx context.Context, text, outputPath string) error {
	clip, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	wavData, err := audio.EncodeWAV(clip.PCM, clip.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to encode WAV output: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(outputPath), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = os.WriteFile(outputPath, wavData, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}

// ListReferences fetches the IDs of stored reference samples.
func (c *Client) ListReferences(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpURL("/v1/references"), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create references request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list references from %s: %w", c.address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("%w: %s: %s", ErrServerError, resp.Status, string(body))
	}

	var result struct {
		ReferenceIDs []string `json:"reference_ids"`
	}

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode references response: %w", err)
	}

	return result.ReferenceIDs, nil
}
