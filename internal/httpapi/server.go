// Package httpapi exposes the voice-clone service over HTTP: reference
// uploads, health, and the synthesis WebSocket.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/core"
	"github.com/gorilla/websocket"
)

const (
	// maxUploadBytes caps multipart reference uploads.
	maxUploadBytes = 32 << 20

	wsReadBufferSize  = 4096
	wsWriteBufferSize = 4096
)

// Server routes HTTP and WebSocket traffic to the synthesis engine and the
// reference store.
type Server struct {
	mux          *http.ServeMux
	synth        core.Synthesizer
	refs         core.ReferenceStore
	archiver     core.ClipArchiver
	log          *logger.Logger
	upgrader     websocket.Upgrader
	synthTimeout time.Duration
}

// NewServer wires the handlers. webDir, when non-empty, is served as the
// static frontend. The archiver may be archive.NoOp{} when disabled.
func NewServer(
	synth core.Synthesizer,
	refs core.ReferenceStore,
	archiver core.ClipArchiver,
	synthTimeout time.Duration,
	webDir string,
	log *logger.Logger,
) *Server {
	server := &Server{
		mux:      http.NewServeMux(),
		synth:    synth,
		refs:     refs,
		archiver: archiver,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsReadBufferSize,
			WriteBufferSize: wsWriteBufferSize,
			// The browser frontend may be served from anywhere.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		synthTimeout: synthTimeout,
	}
	server.routes(webDir)

	return server
}

// ServeHTTP applies the CORS policy and dispatches to the mux.
func (s *Server) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	setCORSHeaders(responseWriter)

	if request.Method == http.MethodOptions {
		responseWriter.WriteHeader(http.StatusNoContent)

		return
	}

	s.mux.ServeHTTP(responseWriter, request)
}

func (s *Server) routes(webDir string) {
	s.mux.HandleFunc("POST /upload_reference_audio", s.handleUploadReference)
	s.mux.HandleFunc("GET /v1/references", s.handleListReferences)
	s.mux.HandleFunc("GET /audio", s.handleAudio)

	s.mux.HandleFunc("GET /health", func(responseWriter http.ResponseWriter, _ *http.Request) {
		writeJSON(responseWriter, http.StatusOK, map[string]any{
			"status":       "healthy",
			"model_loaded": true,
		})
	})

	// Serve the UI, if one is deployed alongside the service.
	if webDir != "" {
		fileServer := http.FileServer(http.Dir(webDir))
		s.mux.Handle("/ui/", http.StripPrefix("/ui/", fileServer))
	}
}

// listReferencesResponse reports the stored reference IDs and which one is
// currently conditioning synthesis.
type listReferencesResponse struct {
	ReferenceIDs []string `json:"reference_ids"`
	Current      string   `json:"current,omitempty"`
}

func (s *Server) handleListReferences(responseWriter http.ResponseWriter, _ *http.Request) {
	refs := s.refs.List()

	resp := listReferencesResponse{
		ReferenceIDs: make([]string, 0, len(refs)),
	}

	for _, ref := range refs {
		resp.ReferenceIDs = append(resp.ReferenceIDs, ref.ID)
	}

	if current, ok := s.refs.Current(); ok {
		resp.Current = current.ID
	}

	writeJSON(responseWriter, http.StatusOK, resp)
}

func setCORSHeaders(responseWriter http.ResponseWriter) {
	header := responseWriter.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(responseWriter http.ResponseWriter, status int, payload any) {
	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(status)

	_ = json.NewEncoder(responseWriter).Encode(payload)
}
