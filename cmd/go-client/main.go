// Command go-client renders a script or radio template to a WAV file from the
// command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/audio"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/prompt"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/template"
	"github.com/book-expert/voice-studio/internal/tts"
	"github.com/book-expert/voice-studio/internal/ttsutils"
	"github.com/book-expert/voice-studio/internal/voice"
)

// Flag descriptions.
const (
	flagTextDesc          = "Text to convert to speech"
	flagTemplateDesc      = "Template id to render and convert"
	flagVarDesc           = "Template variable as name=value (repeatable)"
	flagRadioDesc         = "Radio name for templates"
	flagCityDesc          = "City for templates"
	flagVoiceDesc         = "Voice id (see --list-voices)"
	flagStyleDesc         = "Style: natural, alegre, triste, susurrar, storyteller"
	flagSpeedDesc         = "Speed multiplier in [0.5, 2.0]"
	flagPitchDesc         = "Pitch offset in [-10, 10]"
	flagOutputDesc        = "Output file path (.wav)"
	flagEnvDesc           = "Env file holding the API key"
	flagListVoicesDesc    = "List voices and exit"
	flagListTemplatesDesc = "List templates and exit"
)

// Flag names.
const (
	flagText          = "text"
	flagTemplate      = "template"
	flagVar           = "var"
	flagRadio         = "radio"
	flagCity          = "city"
	flagVoice         = "voice"
	flagStyle         = "style"
	flagSpeed         = "speed"
	flagPitch         = "pitch"
	flagOutput        = "output"
	flagEnv           = "env"
	flagListVoices    = "list-voices"
	flagListTemplates = "list-templates"
)

// Error messages.
const (
	errEitherTextOrTemplate = "either --text or --template must be provided"
	errCannotSpecifyBoth    = "cannot specify both --text and --template"
	errFmtInvalidVar        = "invalid --var %q: expected name=value"
	errFmtUnknownTemplate   = "unknown template %q"
	errFmtOutputNotWAV      = "output %q must be a .wav file"
)

// Log messages.
const (
	logConfigFallback = "No configuration found, using defaults: %v"
	logGenerating     = "Generating %s with voice %s"
	logWritten        = "Wrote %s (%s, %s)"
	msgWritten        = "Generated: %s (%s, %s)\n"
)

const (
	logFileName       = "voice-studio-client.log"
	defaultOutputFile = "output.wav"
	defaultEnvFile    = ".env"
)

var (
	errMissingInput     = errors.New(errEitherTextOrTemplate)
	errConflictingInput = errors.New(errCannotSpecifyBoth)
)

// varFlags collects repeated name=value pairs.
type varFlags map[string]string

func (v varFlags) String() string {
	pairs := make([]string, 0, len(v))
	for name, value := range v {
		pairs = append(pairs, name+"="+value)
	}

	return strings.Join(pairs, ",")
}

func (v varFlags) Set(raw string) error {
	name, value, found := strings.Cut(raw, "=")
	if !found || strings.TrimSpace(name) == "" {
		return fmt.Errorf(errFmtInvalidVar, raw)
	}

	v[strings.TrimSpace(name)] = value

	return nil
}

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text          string
	template      string
	vars          varFlags
	radio         string
	city          string
	voice         string
	style         string
	speed         float64
	pitch         int
	output        string
	envFile       string
	listVoices    bool
	listTemplates bool
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run(args []string, stdout io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	if flags.listVoices {
		return listVoices(stdout)
	}

	if flags.listTemplates {
		return listTemplates(stdout)
	}

	err = validateArguments(flags)
	if err != nil {
		return err
	}

	params, err := buildParams(flags)
	if err != nil {
		return err
	}

	err = config.LoadEnv(flags.envFile)
	if err != nil {
		return err
	}

	clientLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer clientLog.Close()

	cfg, loadErr := config.Load(clientLog)
	if loadErr != nil {
		clientLog.Warn(logConfigFallback, loadErr)

		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return generate(ctx, cfg, clientLog, flags, params, stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	flags := appFlags{vars: varFlags{}}

	flagSet := flag.NewFlagSet("go-client", flag.ContinueOnError)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.template, flagTemplate, "", flagTemplateDesc)
	flagSet.Var(flags.vars, flagVar, flagVarDesc)
	flagSet.StringVar(&flags.radio, flagRadio, "", flagRadioDesc)
	flagSet.StringVar(&flags.city, flagCity, "", flagCityDesc)
	flagSet.StringVar(&flags.voice, flagVoice, string(voice.Default().ID), flagVoiceDesc)
	flagSet.StringVar(&flags.style, flagStyle, string(voice.Natural), flagStyleDesc)
	flagSet.Float64Var(&flags.speed, flagSpeed, voice.DefaultSpeed, flagSpeedDesc)
	flagSet.IntVar(&flags.pitch, flagPitch, voice.DefaultPitch, flagPitchDesc)
	flagSet.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flagSet.StringVar(&flags.envFile, flagEnv, defaultEnvFile, flagEnvDesc)
	flagSet.BoolVar(&flags.listVoices, flagListVoices, false, flagListVoicesDesc)
	flagSet.BoolVar(&flags.listTemplates, flagListTemplates, false, flagListTemplatesDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, err
	}

	return flags, nil
}

// validateArguments requires exactly one of --text and --template.
func validateArguments(flags appFlags) error {
	if flags.text == "" && flags.template == "" {
		return errMissingInput
	}

	if flags.text != "" && flags.template != "" {
		return errConflictingInput
	}

	extension := ttsutils.GetFileExtension(flags.output)
	if !ttsutils.IsValidAudioFile(flags.output) || !strings.EqualFold(extension, string(audio.FormatWAV)) {
		return fmt.Errorf(errFmtOutputNotWAV, flags.output)
	}

	if flags.template != "" {
		if _, found := template.ByID(flags.template); !found {
			return fmt.Errorf(errFmtUnknownTemplate, flags.template)
		}
	}

	return nil
}

// buildParams validates the voice settings. Text is filled later for
// templates.
func buildParams(flags appFlags) (voice.GenerationParams, error) {
	style, err := voice.ParseStyle(flags.style)
	if err != nil {
		return voice.GenerationParams{}, err
	}

	params := voice.GenerationParams{
		Text:    flags.text,
		VoiceID: voice.ID(flags.voice),
		Style:   style,
		Speed:   flags.speed,
		Pitch:   flags.pitch,
	}

	probe := params
	if probe.Text == "" {
		probe.Text = flags.template
	}

	err = probe.Validate()
	if err != nil {
		return voice.GenerationParams{}, err
	}

	return params, nil
}

func generate(
	ctx context.Context,
	cfg *config.Config,
	clientLog *logger.Logger,
	flags appFlags,
	params voice.GenerationParams,
	stdout io.Writer,
) error {
	objects, err := objectstore.NewDirStore(ttsutils.NewSessionDir())
	if err != nil {
		return err
	}
	defer objects.Close()

	client := tts.NewClient(tts.Options{
		BaseURL:  cfg.Gemini.BaseURL,
		Model:    cfg.Gemini.Model,
		APIKey:   cfg.APIKey(),
		Timeout:  cfg.Timeout(),
		Composer: prompt.NewComposer(cfg.Studio.Language, cfg.Studio.Accent),
	}, clientLog)

	hist := history.New(objects, clientLog)
	pipeline := studio.New(client, objects, hist, studio.Options{Format: audio.FormatPCM}, clientLog)

	clientLog.Info(logGenerating, flags.output, voice.DisplayName(params.VoiceID))

	start := time.Now()

	var item history.Item

	if flags.template != "" {
		item, err = pipeline.GenerateTemplate(ctx, studio.TemplateRequest{
			TemplateID: flags.template,
			Variables:  flags.vars,
			RadioName:  orDefault(flags.radio, cfg.Studio.RadioName),
			City:       orDefault(flags.city, cfg.Studio.City),
			Voice:      params,
		})
	} else {
		item, err = pipeline.Generate(ctx, params)
	}

	if err != nil {
		return errors.New(studio.UserMessage(err))
	}

	_, pcm, err := pipeline.Audio(ctx, item.ID)
	if err != nil {
		return err
	}

	err = writeOutput(flags.output, pcm)
	if err != nil {
		return err
	}

	size := ttsutils.FormatFileSize(int64(audio.WAVHeaderSize + len(pcm)))
	elapsed := ttsutils.FormatDuration(time.Since(start))

	clientLog.Info(logWritten, flags.output, size, elapsed)
	fmt.Fprintf(stdout, msgWritten, flags.output, size, elapsed)

	return hist.Close(ctx)
}

func writeOutput(path string, pcm []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		err := ttsutils.EnsureDir(dir)
		if err != nil {
			return err
		}
	}

	return audio.WriteWAVFile(path, pcm, audio.ServiceSpec())
}

func listVoices(stdout io.Writer) error {
	writer := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(writer, "ID\tNOMBRE\tGÉNERO\tVOZ")

	for _, option := range voice.Catalog() {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", option.ID, option.DisplayName, option.Gender, option.ExternalName)
	}

	return writer.Flush()
}

func listTemplates(stdout io.Writer) error {
	writer := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(writer, "ID\tCATEGORÍA\tNOMBRE\tVARIABLES")

	for _, tmpl := range template.All() {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			tmpl.ID, tmpl.Category.Label(), tmpl.Name, strings.Join(tmpl.Variables, ", "))
	}

	return writer.Flush()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
