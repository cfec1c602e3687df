package stt

import "context"

// ProviderID is the platform key the engine is registered under.
const ProviderID = "local_whisper"

// Provider is the interface the host's speech-to-text registry talks to.
type Provider interface {
	Name() string
	Capabilities() Capabilities

	// Transcribe consumes the whole audio stream and returns exactly one result.
	// The error is non-nil only when ctx was cancelled, in which case no result
	// is produced.
	Transcribe(ctx context.Context, meta Metadata, stream AudioStream) (Result, error)
}

// State is the outcome of a transcription session.
type State string

const (
	StateSuccess State = "success"
	StateError   State = "error"
)

// Result is the single value returned to the host per session.
// Text is non-empty and trimmed when State is StateSuccess, and empty otherwise.
type Result struct {
	Text  string `json:"text"`
	State State  `json:"result"`
}

// Success returns a successful result carrying text.
func Success(text string) Result { return Result{Text: text, State: StateSuccess} }

// Failure returns the error result.
func Failure() Result { return Result{State: StateError} }

// Metadata describes the audio of one session. It is supplied once by the host
// and not modified afterwards.
type Metadata struct {
	Language   string      `json:"language"`
	Format     AudioFormat `json:"format"`
	Codec      AudioCodec  `json:"codec"`
	BitRate    int         `json:"bit_rate"` // bits per sample
	SampleRate int         `json:"sample_rate"`
	Channel    int         `json:"channel"`
}
