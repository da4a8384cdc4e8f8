package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/book-expert/voiceclone-service/internal/audio"
	"github.com/book-expert/voiceclone-service/internal/core"
	"github.com/gorilla/websocket"
)

// Messages exchanged on the synthesis WebSocket.
const (
	msgNoReference      = "Please upload a reference audio file first."
	msgGenerationFailed = "Audio generation failed."
)

// textMessage is a synthesis request frame from the client.
type textMessage struct {
	Text string `json:"text"`
}

// errorMessage is the JSON frame sent when a request cannot produce audio.
type errorMessage struct {
	Error string `json:"error"`
}

// handleAudio runs the per-connection synthesis loop: one text frame in, one
// audio or error frame out. Empty text frames are ignored. Connections are
// independent; the engine serializes the actual inference runs.
func (s *Server) handleAudio(responseWriter http.ResponseWriter, request *http.Request) {
	conn, err := s.upgrader.Upgrade(responseWriter, request, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed: %v", err)

		return
	}

	defer func() { _ = conn.Close() }()

	s.log.Info("WebSocket connection established.")

	for {
		var req textMessage

		readErr := conn.ReadJSON(&req)
		if readErr != nil {
			break
		}

		text := strings.TrimSpace(req.Text)
		if text == "" {
			continue
		}

		if !s.respond(request.Context(), conn, text) {
			break
		}
	}

	s.log.Info("WebSocket connection closed.")
}

// respond produces exactly one reply frame for a text frame. It returns
// false when the connection is no longer writable.
func (s *Server) respond(ctx context.Context, conn *websocket.Conn, text string) bool {
	ref, ok := s.refs.Current()
	if !ok {
		s.log.Warn("No reference audio has been uploaded.")

		return conn.WriteJSON(errorMessage{Error: msgNoReference}) == nil
	}

	synthCtx, cancel := context.WithTimeout(ctx, s.synthTimeout)
	defer cancel()

	clip, err := s.synth.Synthesize(synthCtx, text, ref.Path, s.synth.Options())
	if err != nil {
		s.log.Error("Audio generation failed: %v", err)

		return conn.WriteJSON(errorMessage{Error: msgGenerationFailed}) == nil
	}

	frame := audio.EncodeFrame(clip.PCM)

	writeErr := conn.WriteMessage(websocket.TextMessage, []byte(frame))
	if writeErr != nil {
		return false
	}

	s.log.Info("Sent %.2fs of audio to client.", clip.Duration().Seconds())
	s.archiveClip(synthCtx, text, clip)

	return true
}

// archiveClip stores the clip for downstream consumers. Archive failures are
// logged, never surfaced to the client.
func (s *Server) archiveClip(ctx context.Context, text string, clip core.Clip) {
	wavData, err := audio.EncodeWAV(clip.PCM, clip.SampleRate)
	if err != nil {
		s.log.Warn("Failed to encode clip for archive: %v", err)

		return
	}

	_, err = s.archiver.ArchiveClip(ctx, text, wavData)
	if err != nil {
		s.log.Warn("Failed to archive clip: %v", err)
	}
}
