package services

import (
	"context"
	"io"
	"math/rand"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/config"
	"github.com/utiliwatch/triage-engine/pkg/logging"
)

const (
	// TranscribeModeRemote means a speech-to-text provider produced the
	// transcript.
	TranscribeModeRemote = "remote"
	// TranscribeModeCanned means a built-in sample transcript was served.
	TranscribeModeCanned = "canned"
)

// cannedTranscripts are served when no provider is configured or the
// provider call fails. They read like real call-in reports so the triage
// form stays usable in demos and offline development.
var cannedTranscripts = []string{
	"There is a strong smell of gas coming from the basement of my building at 450 Oak Street. It started about an hour ago and it is getting worse.",
	"My power has been out since six this morning. The whole block seems dark and the traffic lights at the corner are off too.",
	"Water is pooling on the sidewalk in front of 12 Harrison Avenue. I think a pipe burst under the street, the pavement is cracking.",
	"I got my bill today and it is three times higher than last month. Nothing changed in our usage, I think the meter reading is wrong.",
}

// Transcript is the transcription result.
type Transcript struct {
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence,omitempty"`
	Segments   []string `json:"segments,omitempty"`
	Mode       string   `json:"mode"`
}

// audioTranscriber is the slice of the OpenAI client the service needs.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// TranscribeService turns uploaded call audio into text.
type TranscribeService interface {
	// Transcribe returns a transcript for the audio stream. Provider
	// failures never surface: a canned transcript is returned instead.
	Transcribe(ctx context.Context, filename string, audio io.Reader) *Transcript
}

type transcribeService struct {
	client audioTranscriber // nil means canned-only
	model  string
	logger *zap.Logger
	pick   func(n int) int
}

// NewTranscribeService creates a new TranscribeService. When cfg carries no
// API key the service runs in canned mode.
func NewTranscribeService(cfg config.TranscribeConfig, logger *zap.Logger) TranscribeService {
	var client audioTranscriber
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	return &transcribeService{
		client: client,
		model:  cfg.Model,
		logger: logger.Named("transcribe"),
		pick:   rand.Intn,
	}
}

var _ TranscribeService = (*transcribeService)(nil)

func (s *transcribeService) Transcribe(ctx context.Context, filename string, audio io.Reader) *Transcript {
	if s.client == nil {
		return s.canned()
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		s.logger.Warn("transcription provider failed, serving canned transcript",
			zap.String("filename", filename),
			zap.String("error", logging.SanitizeError(err)))
		return s.canned()
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		s.logger.Warn("transcription provider returned empty text, serving canned transcript",
			zap.String("filename", filename))
		return s.canned()
	}

	transcript := &Transcript{
		Transcript: text,
		Mode:       TranscribeModeRemote,
	}
	if len(resp.Segments) > 0 {
		var logprobSum float64
		for _, segment := range resp.Segments {
			transcript.Segments = append(transcript.Segments, strings.TrimSpace(segment.Text))
			logprobSum += segment.AvgLogprob
		}
		// Rough per-segment confidence from the average log probability.
		confidence := clamp01(1 + logprobSum/float64(len(resp.Segments)))
		transcript.Confidence = &confidence
	}
	return transcript
}

func (s *transcribeService) canned() *Transcript {
	return &Transcript{
		Transcript: cannedTranscripts[s.pick(len(cannedTranscripts))],
		Mode:       TranscribeModeCanned,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
