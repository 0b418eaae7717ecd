// Package prompt turns discrete voice parameters into the natural-language
// instruction that steers the remote speech model.
//
// The instruction and the user's text travel together as a single prompt. The
// service rejects a separate system instruction when audio output is
// requested, so the two must never be split.
package prompt

import (
	"fmt"
	"strings"

	"github.com/book-expert/voice-studio/internal/voice"
)

// Default language constraint.
const (
	DefaultLanguage = "Español"
	DefaultAccent   = "Chileno"
)

// Speed thresholds.
const (
	speedVerySlowBelow = 0.8
	speedSlowBelow     = 1.0
	speedFastAbove     = 1.1
	speedVeryFastAbove = 1.5
)

// Pitch thresholds.
const (
	pitchVeryLowBelow  = -5
	pitchLowBelow      = -1
	pitchHighAbove     = 1
	pitchVeryHighAbove = 5
)

// SpeedTier is the descriptive bucket for a speed multiplier.
type SpeedTier int

// Speed tiers, slowest first.
const (
	SpeedVerySlow SpeedTier = iota
	SpeedSlow
	SpeedNormal
	SpeedFast
	SpeedVeryFast
)

var speedNames = [...]string{"very slow", "slow", "normal", "fast", "very fast"}

var speedDescriptions = [...]string{"muy lenta", "lenta", "normal", "rápida", "muy rápida"}

func (t SpeedTier) String() string { return speedNames[t] }

// Description is the wording used inside the instruction.
func (t SpeedTier) Description() string { return speedDescriptions[t] }

// SpeedTierFor buckets speed. Exactly 1.0 is normal.
func SpeedTierFor(speed float64) SpeedTier {
	switch {
	case speed < speedVerySlowBelow:
		return SpeedVerySlow
	case speed < speedSlowBelow:
		return SpeedSlow
	case speed > speedVeryFastAbove:
		return SpeedVeryFast
	case speed > speedFastAbove:
		return SpeedFast
	default:
		return SpeedNormal
	}
}

// PitchTier is the descriptive bucket for a pitch offset.
type PitchTier int

// Pitch tiers, lowest first.
const (
	PitchVeryLow PitchTier = iota
	PitchLow
	PitchNormal
	PitchHigh
	PitchVeryHigh
)

var pitchNames = [...]string{"very low", "low", "normal", "high", "very high"}

var pitchDescriptions = [...]string{"muy grave y profundo", "grave", "normal", "agudo", "muy agudo"}

func (t PitchTier) String() string { return pitchNames[t] }

// Description is the wording used inside the instruction.
func (t PitchTier) Description() string { return pitchDescriptions[t] }

// PitchTierFor buckets pitch.
func PitchTierFor(pitch int) PitchTier {
	switch {
	case pitch < pitchVeryLowBelow:
		return PitchVeryLow
	case pitch < pitchLowBelow:
		return PitchLow
	case pitch > pitchVeryHighAbove:
		return PitchVeryHigh
	case pitch > pitchHighAbove:
		return PitchHigh
	default:
		return PitchNormal
	}
}

// Tag is an inline control token the model performs instead of reading.
type Tag string

// Recognized tags.
const (
	TagPause Tag = "[pausa]"
	TagLaugh Tag = "[risa]"
	TagShout Tag = "[grito]"
	TagCry   Tag = "[llanto]"
)

type tagRule struct {
	tag            Tag
	interpretation string
}

var tagRules = []tagRule{
	{tag: TagPause, interpretation: "Genera silencio."},
	{tag: TagLaugh, interpretation: "Genera una risa natural."},
	{tag: TagShout, interpretation: "Voz enérgica/volumen alto."},
	{tag: TagCry, interpretation: "Voz quebrada/llanto."},
}

// Tags lists the recognized control tags in toolbar order.
func Tags() []Tag {
	out := make([]Tag, 0, len(tagRules))
	for _, rule := range tagRules {
		out = append(out, rule.tag)
	}

	return out
}

// InsertTag appends tag to text, padded with spaces.
func InsertTag(text string, tag Tag) string {
	return text + " " + string(tag) + " "
}

// Composer builds instructions for a fixed language and accent.
type Composer struct {
	Language string
	Accent   string
}

// NewComposer returns a Composer, substituting defaults for empty values.
func NewComposer(language, accent string) Composer {
	if language == "" {
		language = DefaultLanguage
	}

	if accent == "" {
		accent = DefaultAccent
	}

	return Composer{Language: language, Accent: accent}
}

// Compose returns the instruction block for the given voice configuration.
func (c Composer) Compose(style voice.Style, speed float64, pitch int) string {
	var builder strings.Builder

	builder.WriteString("Instrucciones de generación de audio:\n\n")

	builder.WriteString("1. IDIOMA Y ACENTO:\n")
	fmt.Fprintf(&builder, "- Habla EXCLUSIVAMENTE en %s.\n", c.Language)
	fmt.Fprintf(&builder, "- Acento: %s nativo.\n\n", c.Accent)

	builder.WriteString("2. CONFIGURACIÓN DE VOZ:\n")
	fmt.Fprintf(&builder, "- Velocidad: %s.\n", SpeedTierFor(speed).Description())
	fmt.Fprintf(&builder, "- Tono: %s.\n", PitchTierFor(pitch).Description())
	fmt.Fprintf(&builder, "- Estilo/Emoción: %s.\n\n", style)

	builder.WriteString("3. INTERPRETACIÓN DE ETIQUETAS:\n")

	for _, rule := range tagRules {
		fmt.Fprintf(&builder, "- %s: %s\n", rule.tag, rule.interpretation)
	}

	builder.WriteString("- No leas las etiquetas literalmente.\n\n")
	builder.WriteString("Lee el siguiente texto aplicando estas instrucciones:")

	return builder.String()
}

// BuildPrompt returns the instruction followed by the quoted text.
func (c Composer) BuildPrompt(text string, style voice.Style, speed float64, pitch int) string {
	return c.Compose(style, speed, pitch) + "\n\n\"" + text + "\""
}

// Compose uses the default Spanish/Chilean composer.
func Compose(style voice.Style, speed float64, pitch int) string {
	return NewComposer("", "").Compose(style, speed, pitch)
}

// BuildPrompt uses the default Spanish/Chilean composer.
func BuildPrompt(text string, style voice.Style, speed float64, pitch int) string {
	return NewComposer("", "").BuildPrompt(text, style, speed, pitch)
}
