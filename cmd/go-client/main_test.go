package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/voice"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseFlags verifies that command-line flags are parsed correctly.
func TestParseFlags(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{
		"--template", "spot_1",
		"--var", "evento=la Fonda",
		"--var", "fecha=sábado=18",
		"--radio", "Radio Sur",
		"--voice", "f3",
		"--style", "storyteller",
		"--speed", "1.3",
		"--pitch", "-2",
		"--output", "out/spot.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, "spot_1", flags.template)
	assert.Equal(t, varFlags{"evento": "la Fonda", "fecha": "sábado=18"}, flags.vars)
	assert.Equal(t, "Radio Sur", flags.radio)
	assert.Equal(t, "f3", flags.voice)
	assert.Equal(t, "storyteller", flags.style)
	assert.InDelta(t, 1.3, flags.speed, 0.0001)
	assert.Equal(t, -2, flags.pitch)
	assert.Equal(t, "out/spot.wav", flags.output)
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"--text", "Hola"})
	require.NoError(t, err)

	params, err := buildParams(flags)
	require.NoError(t, err)
	assert.Equal(t, voice.NewParams("Hola"), params)
	assert.Equal(t, defaultOutputFile, flags.output)
}

func TestParseFlags_InvalidVar(t *testing.T) {
	t.Parallel()

	_, err := parseFlags([]string{"--var", "sin-igual"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected name=value")
}

// TestArgumentValidation verifies the required and conflicting arguments.
func TestArgumentValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{name: "success with text flag", args: []string{"--text", "some text"}},
		{name: "success with template flag", args: []string{"--template", "jingle_1"}},
		{
			name:          "error with both flags",
			args:          []string{"--text", "some text", "--template", "jingle_1"},
			expectedError: errCannotSpecifyBoth,
		},
		{name: "error with no flags", args: nil, expectedError: errEitherTextOrTemplate},
		{
			name:          "error with non-wav output",
			args:          []string{"--text", "Hola", "--output", "hola.mp3"},
			expectedError: `must be a .wav file`,
		},
		{
			name:          "error with unknown template",
			args:          []string{"--template", "nope"},
			expectedError: `unknown template "nope"`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			flags, err := parseFlags(testCase.args)
			require.NoError(t, err)

			err = validateArguments(flags)
			if testCase.expectedError == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.expectedError)
		})
	}
}

func TestBuildParams_RejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "style", args: []string{"--text", "Hola", "--style", "gritón"}, wantErr: voice.ErrUnknownStyle},
		{name: "speed", args: []string{"--text", "Hola", "--speed", "0.2"}, wantErr: voice.ErrSpeedRange},
		{name: "pitch", args: []string{"--template", "id_1", "--pitch", "11"}, wantErr: voice.ErrPitchRange},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			flags, err := parseFlags(testCase.args)
			require.NoError(t, err)

			_, err = buildParams(flags)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestListings(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, run([]string{"--list-voices"}, &out))
	assert.Contains(t, out.String(), "Valentina (Clara)")
	assert.Equal(t, len(voice.Catalog())+1, strings.Count(out.String(), "\n"))

	out.Reset()

	require.NoError(t, run([]string{"--list-templates"}, &out))
	assert.Contains(t, out.String(), "spot_1")
}

func TestGenerate_WritesWAV(t *testing.T) {
	pcm := make([]byte, 480)
	payload := base64.StdEncoding.EncodeToString(pcm)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16","data":"` +
			payload + `"}}]}}]}`))
	}))
	t.Cleanup(server.Close)

	t.Setenv("STUDIO_CLIENT_TEST_KEY", "test-key")
	t.Setenv("CACHE_DIR", t.TempDir())

	cfg := &config.Config{Gemini: config.GeminiConfig{BaseURL: server.URL, APIKeyEnv: "STUDIO_CLIENT_TEST_KEY"}}
	cfg.ApplyDefaults()

	clientLog, err := logger.New(t.TempDir(), "client-test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientLog.Close() })

	output := filepath.Join(t.TempDir(), "nested", "jingle.wav")

	flags, err := parseFlags([]string{"--template", "id_3", "--city", "Valdivia", "--output", output})
	require.NoError(t, err)

	params, err := buildParams(flags)
	require.NoError(t, err)

	var out bytes.Buffer

	err = generate(context.Background(), cfg, clientLog, flags, params, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), output)

	file, err := os.Open(output)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	decoder := wav.NewDecoder(file)
	require.True(t, decoder.IsValidFile())
	assert.Equal(t, uint32(24000), decoder.SampleRate)
	assert.Equal(t, uint16(1), decoder.NumChans)
	assert.Equal(t, uint16(16), decoder.BitDepth)

	buffer, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	assert.Len(t, buffer.Data, len(pcm)/2)
}

func TestGenerate_MissingKeyReportsOperatorMessage(t *testing.T) {
	t.Setenv("STUDIO_CLIENT_EMPTY_KEY", "")
	t.Setenv("CACHE_DIR", t.TempDir())

	cfg := &config.Config{Gemini: config.GeminiConfig{BaseURL: "http://127.0.0.1:1", APIKeyEnv: "STUDIO_CLIENT_EMPTY_KEY"}}
	cfg.ApplyDefaults()

	clientLog, err := logger.New(t.TempDir(), "client-test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientLog.Close() })

	flags, err := parseFlags([]string{"--text", "Hola", "--output", filepath.Join(t.TempDir(), "x.wav")})
	require.NoError(t, err)

	params, err := buildParams(flags)
	require.NoError(t, err)

	err = generate(context.Background(), cfg, clientLog, flags, params, &bytes.Buffer{})
	require.EqualError(t, err, studio.MsgMissingAPIKey)
}
