// Package audio decodes the synthesis service's base64 PCM payload into a
// playable container.
//
// The service returns 24 kHz mono signed 16-bit little-endian PCM. Any other
// interpretation plays back at the wrong speed or as noise.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Sample format produced by the synthesis service.
const (
	ServiceSampleRate = 24000
	ServiceChannels   = 1
	ServiceBitDepth   = 16
)

// Validation limits.
const (
	maxSampleRate = 192000
	maxChannels   = 8
)

const (
	errFmtSampleRateRange = "%w: sample rate must be between 1 and %d Hz"
	errFmtBitDepthValues  = "%w: bit depth must be 8, 16, 24, or 32"
	errFmtChannelsRange   = "%w: channels must be between 1 and %d"
)

// Errors.
var (
	ErrInvalidSpec       = errors.New("invalid audio spec")
	ErrInvalidPayload    = errors.New("invalid base64 audio payload")
	ErrMisalignedPCM     = errors.New("pcm payload not aligned to sample frames")
	ErrUnsupportedFormat = errors.New("unsupported container format")
)

// Format is a container format for decoded audio.
type Format string

// Supported formats.
const (
	FormatWAV Format = "wav"
	FormatPCM Format = "pcm"
)

// ParseFormat accepts "wav" or "pcm".
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatWAV, FormatPCM:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPCM {
		return "audio/L16"
	}

	return "audio/wav"
}

// Extension is the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Spec describes linear PCM samples.
type Spec struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	BitDepth   int `json:"bitDepth"`
}

// ServiceSpec is the sample format of the synthesis service.
func ServiceSpec() Spec {
	return Spec{
		SampleRate: ServiceSampleRate,
		Channels:   ServiceChannels,
		BitDepth:   ServiceBitDepth,
	}
}

// BlockAlign is the byte size of one frame across all channels.
func (s Spec) BlockAlign() int {
	return s.Channels * s.BitDepth / 8
}

// ByteRate is the number of bytes per second of audio.
func (s Spec) ByteRate() int {
	return s.SampleRate * s.BlockAlign()
}

// Validate checks the spec is within reasonable bounds.
func (s Spec) Validate() error {
	if s.SampleRate <= 0 || s.SampleRate > maxSampleRate {
		return fmt.Errorf(errFmtSampleRateRange, ErrInvalidSpec, maxSampleRate)
	}

	switch s.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf(errFmtBitDepthValues, ErrInvalidSpec)
	}

	if s.Channels <= 0 || s.Channels > maxChannels {
		return fmt.Errorf(errFmtChannelsRange, ErrInvalidSpec, maxChannels)
	}

	return nil
}

// DecodePayload turns the base64 payload into raw PCM bytes.
func DecodePayload(payload string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return pcm, nil
}

// Decode converts a service payload into the requested container.
func Decode(payload string, format Format) ([]byte, error) {
	pcm, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	spec := ServiceSpec()

	if len(pcm)%spec.BlockAlign() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisalignedPCM, len(pcm))
	}

	switch format {
	case FormatPCM:
		return pcm, nil
	case FormatWAV:
		return EncodeWAV(pcm, spec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
