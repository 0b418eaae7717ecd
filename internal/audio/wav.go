package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVHeaderSize is the size of the canonical RIFF/WAVE header.
const WAVHeaderSize = 44

const (
	wavFormatPCM  = 1
	fmtChunkSize  = 16
	filePerm      = 0o600
	riffOverhead  = WAVHeaderSize - 8
	maxDataLength = 1<<32 - 1 - riffOverhead
)

// ErrInvalidHeader is returned when a byte slice is not a canonical PCM WAV.
var ErrInvalidHeader = errors.New("invalid wav header")

// Header holds the fields of a canonical PCM WAV header.
type Header struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataLength    uint32
}

// EncodeWAV prepends a 44-byte WAV header to pcm.
func EncodeWAV(pcm []byte, spec Spec) ([]byte, error) {
	err := spec.Validate()
	if err != nil {
		return nil, err
	}

	if uint64(len(pcm)) > maxDataLength {
		return nil, fmt.Errorf("pcm payload too large for wav: %d bytes", len(pcm))
	}

	dataLength := uint32(len(pcm))

	out := make([]byte, WAVHeaderSize, WAVHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], riffOverhead+dataLength)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(out[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(spec.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(spec.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(spec.ByteRate()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(spec.BlockAlign()))
	binary.LittleEndian.PutUint16(out[34:36], uint16(spec.BitDepth))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataLength)

	return append(out, pcm...), nil
}

// ParseWAVHeader reads back a header written by EncodeWAV.
func ParseWAVHeader(data []byte) (Header, error) {
	if len(data) < WAVHeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" ||
		string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, fmt.Errorf("%w: missing chunk markers", ErrInvalidHeader)
	}

	return Header{
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		DataLength:    binary.LittleEndian.Uint32(data[40:44]),
	}, nil
}

// WriteWAVFile encodes 16-bit pcm to a WAV file at path.
func WriteWAVFile(path string, pcm []byte, spec Spec) error {
	err := spec.Validate()
	if err != nil {
		return err
	}

	if spec.BitDepth != ServiceBitDepth {
		return fmt.Errorf("%w: only 16-bit pcm can be exported", ErrInvalidSpec)
	}

	if len(pcm)%spec.BlockAlign() != 0 {
		return fmt.Errorf("%w: %d bytes", ErrMisalignedPCM, len(pcm))
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create wav file %s: %w", path, err)
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
		Data:           samples,
		SourceBitDepth: spec.BitDepth,
	}

	encoder := wav.NewEncoder(file, spec.SampleRate, spec.BitDepth, spec.Channels, wavFormatPCM)

	writeErr := encoder.Write(buffer)
	closeErr := encoder.Close()
	fileErr := file.Close()

	switch {
	case writeErr != nil:
		return fmt.Errorf("failed to write wav samples: %w", writeErr)
	case closeErr != nil:
		return fmt.Errorf("failed to finalize wav file: %w", closeErr)
	case fileErr != nil:
		return fmt.Errorf("failed to close wav file: %w", fileErr)
	}

	return nil
}
