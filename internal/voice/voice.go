// Package voice defines the closed voice and style catalogs and the
// parameters of a single generation request.
package voice

import (
	"errors"
	"fmt"
	"strings"
)

// Parameter bounds accepted by the generation pipeline.
const (
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	DefaultSpeed = 1.0
	MinPitch     = -10
	MaxPitch     = 10
	DefaultPitch = 0
)

// UnknownVoiceName is recorded in history when a request names a voice id that
// is not in the catalog.
const UnknownVoiceName = "Desconocido"

// Validation errors.
var (
	ErrEmptyText    = errors.New("text cannot be empty")
	ErrSpeedRange   = errors.New("speed out of range")
	ErrPitchRange   = errors.New("pitch out of range")
	ErrUnknownStyle = errors.New("unknown style")
)

// ID identifies a UI-facing voice.
type ID string

// Catalog voice ids.
const (
	Mateo     ID = "m1"
	Benjamin  ID = "m2"
	Lucas     ID = "m3"
	Joaquin   ID = "m4"
	Vicente   ID = "m5"
	Valentina ID = "f1"
	Sofia     ID = "f2"
	Isabella  ID = "f3"
	Camila    ID = "f4"
	Emilia    ID = "f5"
)

// Gender of a catalog voice.
type Gender string

// Genders.
const (
	Male   Gender = "Hombre"
	Female Gender = "Mujer"
)

// Option maps a UI-facing identity to the prebuilt voice the remote service
// expects. Several options share one external voice.
type Option struct {
	ID           ID     `json:"id"`
	DisplayName  string `json:"name"`
	Gender       Gender `json:"gender"`
	ExternalName string `json:"api_voice_name"`
}

// The service exposes five prebuilt voices; ten personas are mapped onto them.
var catalog = []Option{
	{ID: Mateo, DisplayName: "Mateo (Grave)", Gender: Male, ExternalName: "Fenrir"},
	{ID: Benjamin, DisplayName: "Benjamín (Joven)", Gender: Male, ExternalName: "Puck"},
	{ID: Lucas, DisplayName: "Lucas (Profundo)", Gender: Male, ExternalName: "Charon"},
	{ID: Joaquin, DisplayName: "Joaquín (Suave)", Gender: Male, ExternalName: "Fenrir"},
	{ID: Vicente, DisplayName: "Vicente (Enérgico)", Gender: Male, ExternalName: "Puck"},
	{ID: Valentina, DisplayName: "Valentina (Clara)", Gender: Female, ExternalName: "Kore"},
	{ID: Sofia, DisplayName: "Sofía (Dulce)", Gender: Female, ExternalName: "Zephyr"},
	{ID: Isabella, DisplayName: "Isabella (Profesional)", Gender: Female, ExternalName: "Kore"},
	{ID: Camila, DisplayName: "Camila (Joven)", Gender: Female, ExternalName: "Zephyr"},
	{ID: Emilia, DisplayName: "Emilia (Madura)", Gender: Female, ExternalName: "Kore"},
}

// Catalog returns a copy of the voice catalog in display order.
func Catalog() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)

	return out
}

// Default is the first catalog entry.
func Default() Option {
	return catalog[0]
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Option, bool) {
	for _, opt := range catalog {
		if opt.ID == id {
			return opt, true
		}
	}

	return Option{}, false
}

// Resolve returns the catalog entry for id, falling back to Default for
// unknown ids. It never fails.
func Resolve(id ID) Option {
	opt, ok := Lookup(id)
	if !ok {
		return Default()
	}

	return opt
}

// DisplayName returns the catalog display name for id or UnknownVoiceName.
func DisplayName(id ID) string {
	opt, ok := Lookup(id)
	if !ok {
		return UnknownVoiceName
	}

	return opt.DisplayName
}

// ByGender filters the catalog.
func ByGender(gender Gender) []Option {
	var out []Option

	for _, opt := range catalog {
		if opt.Gender == gender {
			out = append(out, opt)
		}
	}

	return out
}

// Style is the delivery style requested from the model.
type Style string

// Styles.
const (
	Natural     Style = "natural"
	Alegre      Style = "alegre"
	Triste      Style = "triste"
	Susurrar    Style = "susurrar"
	Storyteller Style = "storyteller"
)

// StyleOption pairs a style with its display label.
type StyleOption struct {
	Value Style  `json:"value"`
	Label string `json:"label"`
}

var styles = []StyleOption{
	{Value: Natural, Label: "Natural"},
	{Value: Alegre, Label: "Alegre"},
	{Value: Triste, Label: "Triste"},
	{Value: Susurrar, Label: "Susurrar"},
	{Value: Storyteller, Label: "Cuentacuentos"},
}

// Styles returns the style catalog in display order.
func Styles() []StyleOption {
	out := make([]StyleOption, len(styles))
	copy(out, styles)

	return out
}

// Valid reports whether s is one of the known styles.
func (s Style) Valid() bool {
	for _, opt := range styles {
		if opt.Value == s {
			return true
		}
	}

	return false
}

// ParseStyle accepts a style value or label, case-insensitively.
func ParseStyle(raw string) (Style, error) {
	needle := strings.TrimSpace(raw)

	for _, opt := range styles {
		if strings.EqualFold(string(opt.Value), needle) || strings.EqualFold(opt.Label, needle) {
			return opt.Value, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, raw)
}

// GenerationParams is the immutable input of one generation.
type GenerationParams struct {
	Text    string  `json:"text"`
	VoiceID ID      `json:"voice_id"`
	Style   Style   `json:"style"`
	Speed   float64 `json:"speed"`
	Pitch   int     `json:"pitch"`
}

// NewParams returns params with the studio defaults for everything but text.
func NewParams(text string) GenerationParams {
	return GenerationParams{
		Text:    text,
		VoiceID: Default().ID,
		Style:   Natural,
		Speed:   DefaultSpeed,
		Pitch:   DefaultPitch,
	}
}

// WithDefaults fills an empty voice id or style and a zero speed with the
// studio defaults. Pitch zero is already the default.
func (p GenerationParams) WithDefaults() GenerationParams {
	if p.VoiceID == "" {
		p.VoiceID = Default().ID
	}

	if p.Style == "" {
		p.Style = Natural
	}

	if p.Speed == 0 {
		p.Speed = DefaultSpeed
	}

	return p
}

// Validate checks the parameter ranges. Unknown voice ids are accepted.
func (p GenerationParams) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return ErrEmptyText
	}

	if !p.Style.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, p.Style)
	}

	if p.Speed < MinSpeed || p.Speed > MaxSpeed {
		return fmt.Errorf("%w: %.2f not in [%.1f, %.1f]", ErrSpeedRange, p.Speed, MinSpeed, MaxSpeed)
	}

	if p.Pitch < MinPitch || p.Pitch > MaxPitch {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrPitchRange, p.Pitch, MinPitch, MaxPitch)
	}

	return nil
}
