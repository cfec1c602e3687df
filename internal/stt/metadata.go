package stt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// AudioFormat is the container the host captured audio in.
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatOGG AudioFormat = "ogg"
)

// UnmarshalText accepts any letter case.
func (f *AudioFormat) UnmarshalText(b []byte) error {
	*f = AudioFormat(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// AudioCodec is the sample encoding inside the container.
type AudioCodec string

// UnmarshalText accepts any letter case.
func (c *AudioCodec) UnmarshalText(b []byte) error {
	*c = AudioCodec(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

const (
	CodecPCM  AudioCodec = "pcm"
	CodecOpus AudioCodec = "opus"
)

var supportedLanguages = []string{
	"af", "ar", "hy", "az", "be", "bs", "bg", "ca", "zh", "hr",
	"cs", "da", "nl", "en", "et", "fi", "fr", "gl", "de", "el",
	"he", "hi", "hu", "is", "id", "it", "ja", "kn", "kk", "ko",
	"lv", "lt", "mk", "ms", "mr", "mi", "ne", "no", "fa", "pl",
	"pt", "ro", "ru", "sr", "sk", "sl", "es", "sw", "sv", "tl",
	"ta", "th", "tr", "uk", "ur", "vi", "cy",
}

// Capabilities is the static description of what the provider accepts.
type Capabilities struct {
	Languages   []string      `json:"languages"`
	Formats     []AudioFormat `json:"formats"`
	Codecs      []AudioCodec  `json:"codecs"`
	BitRates    []int         `json:"bit_rates"`
	SampleRates []int         `json:"sample_rates"`
	Channels    []int         `json:"channels"`
}

// SupportedCapabilities returns a fresh copy of the provider's capability record.
func SupportedCapabilities() Capabilities {
	return Capabilities{
		Languages:   slices.Clone(supportedLanguages),
		Formats:     []AudioFormat{FormatWAV, FormatOGG},
		Codecs:      []AudioCodec{CodecPCM, CodecOpus},
		BitRates:    []int{16},
		SampleRates: []int{16000},
		Channels:    []int{1},
	}
}

// Check reports whether meta falls inside the declared capabilities.
func (c Capabilities) Check(meta Metadata) error {
	switch {
	case !slices.Contains(c.Languages, meta.Language):
		return fmt.Errorf("%w: language %q", ErrUnsupportedMetadata, meta.Language)
	case !slices.Contains(c.Formats, meta.Format):
		return fmt.Errorf("%w: format %q", ErrUnsupportedMetadata, meta.Format)
	case !slices.Contains(c.Codecs, meta.Codec):
		return fmt.Errorf("%w: codec %q", ErrUnsupportedMetadata, meta.Codec)
	case !slices.Contains(c.BitRates, meta.BitRate):
		return fmt.Errorf("%w: bit rate %d", ErrUnsupportedMetadata, meta.BitRate)
	case !slices.Contains(c.SampleRates, meta.SampleRate):
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedMetadata, meta.SampleRate)
	case !slices.Contains(c.Channels, meta.Channel):
		return fmt.Errorf("%w: channel %d", ErrUnsupportedMetadata, meta.Channel)
	}
	return nil
}

// ParseSpeechContent parses the X-Speech-Content header, e.g.
//
//	format=wav; codec=pcm; sample_rate=16000; bit_rate=16; channel=1; language=en
//
// Every key is required. Unknown keys are ignored.
func ParseSpeechContent(header string) (Metadata, error) {
	fields := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Metadata{}, fmt.Errorf("%w: %q is not key=value", ErrMalformedMetadata, pair)
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	var meta Metadata
	for _, key := range []string{"language", "format", "codec", "bit_rate", "sample_rate", "channel"} {
		if _, ok := fields[key]; !ok {
			return Metadata{}, fmt.Errorf("%w: missing %s", ErrMalformedMetadata, key)
		}
	}
	meta.Language = fields["language"]
	meta.Format.UnmarshalText([]byte(fields["format"]))
	meta.Codec.UnmarshalText([]byte(fields["codec"]))

	ints := map[string]*int{
		"bit_rate":    &meta.BitRate,
		"sample_rate": &meta.SampleRate,
		"channel":     &meta.Channel,
	}
	for key, dst := range ints {
		n, err := strconv.Atoi(fields[key])
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: %s=%q is not an integer", ErrMalformedMetadata, key, fields[key])
		}
		*dst = n
	}
	return meta, nil
}
