package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/voiceclone-service/internal/audio"
	"github.com/book-expert/voiceclone-service/internal/client"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// newClientFor builds a client targeting an httptest server.
func newClientFor(server *httptest.Server) *client.Client {
	address := strings.TrimPrefix(server.URL, "http://")

	return client.New(address, testTimeout, 16000)
}

func writeTempReference(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "speaker.wav")
	require.NoError(t, os.WriteFile(path, []byte("fake reference bytes"), 0o600))

	return path
}

func TestUploadReference_SendsMultipartFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, http.MethodPost, request.Method)
			require.Equal(t, "/upload_reference_audio", request.URL.Path)

			file, header, err := request.FormFile("file")
			require.NoError(t, err)

			defer func() { _ = file.Close() }()

			assert.Equal(t, "speaker.wav", header.Filename)

			responseWriter.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(responseWriter).Encode(map[string]string{
				"message": "File 'speaker.wav' uploaded successfully.",
				"status":  "success",
			})
		},
	))
	defer server.Close()

	c := newClientFor(server)

	err := c.UploadReference(context.Background(), writeTempReference(t))
	require.NoError(t, err)
}

func TestUploadReference_Rejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(responseWriter).Encode(map[string]string{
				"message": "Error uploading file: bad form",
				"status":  "error",
			})
		},
	))
	defer server.Close()

	c := newClientFor(server)

	err := c.UploadReference(context.Background(), writeTempReference(t))
	require.ErrorIs(t, err, client.ErrUploadRejected)
	assert.Contains(t, err.Error(), "bad form")
}

func TestUploadReference_MissingLocalFile(t *testing.T) {
	t.Parallel()

	c := client.New("127.0.0.1:8000", testTimeout, 16000)

	err := c.UploadReference(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read reference file")
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, "/health", request.URL.Path)
			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	c := newClientFor(server)
	require.NoError(t, c.HealthCheck(context.Background()))
}

func TestHealthCheck_ServiceDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusServiceUnavailable)
		},
	))
	defer server.Close()

	c := newClientFor(server)

	err := c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed with status")
}

// newAudioSocketServer serves /audio with a canned per-message reply.
func newAudioSocketServer(t *testing.T, reply func(text string) (messageType int, payload []byte)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, "/audio", request.URL.Path)

			conn, err := upgrader.Upgrade(responseWriter, request, nil)
			require.NoError(t, err)

			defer func() { _ = conn.Close() }()

			for {
				var msg struct {
					Text string `json:"text"`
				}

				if conn.ReadJSON(&msg) != nil {
					return
				}

				messageType, payload := reply(msg.Text)
				if conn.WriteMessage(messageType, payload) != nil {
					return
				}
			}
		},
	))
}

func TestSynthesize_ReturnsClip(t *testing.T) {
	t.Parallel()

	wantPCM := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}

	server := newAudioSocketServer(t, func(text string) (int, []byte) {
		assert.Equal(t, "hello world", text)

		return websocket.TextMessage, []byte(audio.EncodeFrame(wantPCM))
	})
	defer server.Close()

	c := newClientFor(server)

	clip, err := c.Synthesize(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, wantPCM, clip.PCM)
	assert.Equal(t, 16000, clip.SampleRate)
}

func TestSynthesize_ServerErrorFrame(t *testing.T) {
	t.Parallel()

	server := newAudioSocketServer(t, func(_ string) (int, []byte) {
		return websocket.TextMessage, []byte(`{"error":"Please upload a reference audio file first."}`)
	})
	defer server.Close()

	c := newClientFor(server)

	_, err := c.Synthesize(context.Background(), "hello")
	require.ErrorIs(t, err, client.ErrServerError)
	assert.Contains(t, err.Error(), "upload a reference audio file")
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()

	c := client.New("127.0.0.1:8000", testTimeout, 16000)

	_, err := c.Synthesize(context.Background(), "")
	require.ErrorIs(t, err, client.ErrTextEmpty)
}

func TestSynthesizeToFile_WritesWAV(t *testing.T) {
	t.Parallel()

	wantPCM := []byte{0x0a, 0x00, 0x0b, 0x00}

	server := newAudioSocketServer(t, func(_ string) (int, []byte) {
		return websocket.TextMessage, []byte(audio.EncodeFrame(wantPCM))
	})
	defer server.Close()

	c := newClientFor(server)
	outputPath := filepath.Join(t.TempDir(), "out", "speech.wav")

	err := c.SynthesizeToFile(context.Background(), "hello", outputPath)
	require.NoError(t, err)

	wavData, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	pcm, sampleRate, err := audio.ParseWAV(wavData)
	require.NoError(t, err)
	assert.Equal(t, wantPCM, pcm)
	assert.Equal(t, 16000, sampleRate)
}

func TestListReferences(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, "/v1/references", request.URL.Path)
			responseWriter.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(responseWriter).Encode(map[string]any{
				"reference_ids": []string{"ref-1", "ref-2"},
				"current":       "ref-2",
			})
		},
	))
	defer server.Close()

	c := newClientFor(server)

	ids, err := c.ListReferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-1", "ref-2"}, ids)
}
