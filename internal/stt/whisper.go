package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/localwhisper/whisper-stt/internal/metrics"
	"github.com/localwhisper/whisper-stt/internal/wav"
	"github.com/rs/zerolog"
)

const (
	// DefaultAPIURL is used when the platform config leaves api_url unset.
	DefaultAPIURL = "http://sanjeev-debian-llm-vm:9000"

	// RequestTimeout bounds the outbound ASR call. Buffering the stream is not bounded.
	RequestTimeout = 30 * time.Second

	providerName  = "Local Whisper STT"
	formField     = "audio_file"
	uploadName    = "recording.wav"
	uploadType    = "audio/wav"
	maxLoggedBody = 1024
)

// PlatformConfig is the host's platform configuration for this engine.
type PlatformConfig struct {
	APIURL string `json:"api_url"`
}

// WhisperClient posts buffered sessions to a whisper-asr-webservice /asr endpoint.
// It is safe for concurrent use; sessions share nothing but the http.Client.
type WhisperClient struct {
	baseURL  string
	endpoint string
	client   *http.Client
	timeout  time.Duration
	log      zerolog.Logger

	active    atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

var _ Provider = (*WhisperClient)(nil)

// NewEngine builds the provider from platform config. This is the registration
// entry point the host calls once.
func NewEngine(cfg PlatformConfig, client *http.Client, log zerolog.Logger) (*WhisperClient, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return NewWhisperClient(apiURL, client, log)
}

// NewWhisperClient creates a client for the ASR service at baseURL. The
// http.Client is borrowed from the caller so connections are pooled process-wide;
// a nil client gets a private one.
func NewWhisperClient(baseURL string, client *http.Client, log zerolog.Logger) (*WhisperClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q: missing host", baseURL)
	}

	u = u.JoinPath("asr")
	u.RawQuery = url.Values{
		"encode": {"true"},
		"task":   {"transcribe"},
		"output": {"txt"},
	}.Encode()

	if client == nil {
		client = &http.Client{}
	}
	return &WhisperClient{
		baseURL:  baseURL,
		endpoint: u.String(),
		client:   client,
		timeout:  RequestTimeout,
		log:      log,
	}, nil
}

// Name returns the provider's display name.
func (wc *WhisperClient) Name() string { return providerName }

// Capabilities returns the static capability record.
func (wc *WhisperClient) Capabilities() Capabilities { return SupportedCapabilities() }

// BaseURL returns the configured ASR base URL.
func (wc *WhisperClient) BaseURL() string { return wc.baseURL }

// ActiveSessions returns the number of in-flight Transcribe calls.
func (wc *WhisperClient) ActiveSessions() int { return int(wc.active.Load()) }

// SessionStats counts finished sessions.
type SessionStats struct {
	Active    int64 `json:"active"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// Stats returns session counters.
func (wc *WhisperClient) Stats() SessionStats {
	return SessionStats{
		Active:    wc.active.Load(),
		Succeeded: wc.succeeded.Load(),
		Failed:    wc.failed.Load(),
	}
}

// Transcribe buffers the whole stream, frames it as WAV and sends it to the
// ASR service. Every failure is reported as an error Result; the returned error
// is only set when ctx is cancelled by the caller.
func (wc *WhisperClient) Transcribe(ctx context.Context, meta Metadata, stream AudioStream) (Result, error) {
	wc.active.Add(1)
	defer wc.active.Add(-1)

	log := wc.log.With().Str("language", meta.Language).Logger()
	log.Debug().Msg("start processing audio stream")

	pcm, err := drain(ctx, stream)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return wc.fail(log, "stream", err), nil
	}
	metrics.AudioBytes.Observe(float64(len(pcm)))
	log.Debug().Int("audio_bytes", len(pcm)).Msg("audio stream drained")

	text, err := wc.recognize(ctx, log, meta, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return wc.fail(log, reason(err), err), nil
	}

	wc.succeeded.Add(1)
	metrics.TranscriptionsTotal.WithLabelValues(string(StateSuccess), "").Inc()
	return Success(text), nil
}

func (wc *WhisperClient) recognize(ctx context.Context, log zerolog.Logger, meta Metadata, pcm []byte) (string, error) {
	audio, err := frame(meta, pcm)
	if err != nil {
		return "", err
	}

	body, contentType, err := buildForm(audio)
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, wc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, wc.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	log.Debug().Str("url", wc.endpoint).Msg("sending request to asr")
	start := time.Now()
	resp, err := wc.client.Do(req)
	metrics.ASRRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	log.Debug().Str("response", string(raw)).Msg("asr response")

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

func frame(meta Metadata, pcm []byte) ([]byte, error) {
	width, err := wav.SampleWidth(meta.BitRate)
	if err != nil {
		return nil, err
	}
	if meta.SampleRate < 1 || int64(meta.SampleRate) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: sample rate %d", wav.ErrInvalidFormat, meta.SampleRate)
	}
	if meta.Channel < 1 || meta.Channel > math.MaxUint16 {
		return nil, fmt.Errorf("%w: channel count %d", wav.ErrInvalidFormat, meta.Channel)
	}
	return wav.Frame(pcm, uint32(meta.SampleRate), uint16(meta.Channel), width)
}

func buildForm(audio []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, uploadName))
	h.Set("Content-Type", uploadType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// fail logs err at the level its class warrants and returns the error result.
func (wc *WhisperClient) fail(log zerolog.Logger, why string, err error) Result {
	var httpErr *HTTPError
	switch {
	case errors.Is(err, ErrEmptyTranscript):
		log.Warn().Msg("transcription returned empty text")
	case errors.As(err, &httpErr):
		log.Error().
			Int("status", httpErr.StatusCode).
			Str("body", truncate(httpErr.Body, maxLoggedBody)).
			Msg("asr http error")
	default:
		log.Error().Err(err).Str("reason", why).Msg("error during transcription")
	}

	wc.failed.Add(1)
	metrics.TranscriptionsTotal.WithLabelValues(string(StateError), why).Inc()
	return Failure()
}

func reason(err error) string {
	var httpErr *HTTPError
	switch {
	case errors.Is(err, ErrEmptyTranscript):
		return "empty"
	case errors.As(err, &httpErr):
		return "http_status"
	case errors.Is(err, wav.ErrInvalidFormat):
		return "invalid_format"
	default:
		return "transport"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
