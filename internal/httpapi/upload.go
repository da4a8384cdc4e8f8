package httpapi

import (
	"fmt"
	"io"
	"net/http"
)

// Multipart form field carrying the reference sample.
const uploadFieldName = "file"

// uploadResponse mirrors the upload contract: a human-readable message plus
// a machine-checkable status.
type uploadResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func (s *Server) handleUploadReference(responseWriter http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(responseWriter, request.Body, maxUploadBytes)

	file, header, err := request.FormFile(uploadFieldName)
	if err != nil {
		s.log.Error("Error reading uploaded file: %v", err)
		writeJSON(responseWriter, http.StatusBadRequest, uploadResponse{
			Message: fmt.Sprintf("Error uploading file: %v", err),
			Status:  statusError,
		})

		return
	}

	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		s.log.Error("Error reading uploaded file body: %v", err)
		writeJSON(responseWriter, http.StatusBadRequest, uploadResponse{
			Message: fmt.Sprintf("Error uploading file: %v", err),
			Status:  statusError,
		})

		return
	}

	ref, err := s.refs.Save(header.Filename, content)
	if err != nil {
		s.log.Error("Error storing reference audio: %v", err)
		writeJSON(responseWriter, http.StatusInternalServerError, uploadResponse{
			Message: fmt.Sprintf("Error uploading file: %v", err),
			Status:  statusError,
		})

		return
	}

	s.log.Info("Reference audio updated to: %s", ref.Path)
	writeJSON(responseWriter, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("File '%s' uploaded successfully.", header.Filename),
		Status:  statusSuccess,
	})
}
