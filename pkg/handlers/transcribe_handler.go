package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/services"
)

// maxAudioUploadBytes caps call recordings at 25 MB, the provider's own
// upload limit.
const maxAudioUploadBytes = 25 << 20

// TranscribeHandler turns uploaded call audio into a transcript.
type TranscribeHandler struct {
	transcribeService services.TranscribeService
	logger            *zap.Logger
}

// NewTranscribeHandler creates a new transcribe handler.
func NewTranscribeHandler(transcribeService services.TranscribeService, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		transcribeService: transcribeService,
		logger:            logger,
	}
}

// RegisterRoutes registers the transcribe handler's routes on the given mux.
func (h *TranscribeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transcribe", h.Transcribe)
}

// Transcribe handles POST /api/transcribe with a multipart "audio" part.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)

	file, header, err := r.FormFile("audio")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_audio", "multipart field 'audio' is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	// The service never fails: provider errors fall back to canned
	// transcripts.
	transcript := h.transcribeService.Transcribe(r.Context(), header.Filename, file)

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: transcript}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
