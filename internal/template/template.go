// Package template renders radio message templates with {variable}
// placeholders and holds the static catalog of radio templates.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"
)

// ErrUndeclaredVariable is returned when a pattern references a variable that
// the template does not declare.
var ErrUndeclaredVariable = errors.New("template references undeclared variable")

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Category groups templates by broadcast function.
type Category string

// Categories in display order.
const (
	Jingle         Category = "jingle"
	Spot           Category = "spot"
	Identification Category = "identification"
	Transition     Category = "transition"
	Closing        Category = "closing"
)

var categoryLabels = []struct {
	category Category
	label    string
}{
	{Jingle, "Jingles de Entrada"},
	{Spot, "Spots Promocionales"},
	{Identification, "Identificaciones"},
	{Transition, "Transiciones"},
	{Closing, "Cierres"},
}

// Label returns the display label of c, or c itself when unknown.
func (c Category) Label() string {
	for _, entry := range categoryLabels {
		if entry.category == c {
			return entry.label
		}
	}

	return string(c)
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryLabels))
	for _, entry := range categoryLabels {
		out = append(out, entry.category)
	}

	return out
}

// Template is a read-only catalog entry.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Pattern     string   `json:"template"`
	Variables   []string `json:"variables"`
	Description string   `json:"description"`
}

// Render substitutes vars into pattern. Placeholders whose value is missing or
// empty are left as {name}. Substituted values are not rescanned.
func Render(pattern string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := vars[name]
		if !ok || value == "" {
			return match
		}

		return value
	})
}

// Placeholders lists the distinct variable names referenced by text, in order
// of first appearance.
func Placeholders(text string) []string {
	var names []string

	for _, groups := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, groups[1]) {
			names = append(names, groups[1])
		}
	}

	return names
}

// Unresolved lists the placeholders still present in rendered text.
func Unresolved(rendered string) []string {
	return Placeholders(rendered)
}

// Render fills the template pattern.
func (t Template) Render(vars map[string]string) string {
	return Render(t.Pattern, vars)
}

// Validate checks that every placeholder in the pattern is declared.
func (t Template) Validate() error {
	for _, name := range Placeholders(t.Pattern) {
		if !slices.Contains(t.Variables, name) {
			return fmt.Errorf("%w: %s in %s", ErrUndeclaredVariable, name, t.ID)
		}
	}

	return nil
}

// Fill returns vars overlaid with the subset of common values the template
// declares. Values already present in vars win.
func (t Template) Fill(vars, common map[string]string) map[string]string {
	out := make(map[string]string, len(t.Variables))

	for _, name := range t.Variables {
		if value := common[name]; value != "" {
			out[name] = value
		}

		if value := vars[name]; value != "" {
			out[name] = value
		}
	}

	return out
}

// Common variable names shared by many templates.
const (
	VarRadioName = "radio_name"
	VarTime      = "tiempo"
	VarCity      = "ciudad"
)

// Defaults for CommonVariables.
const (
	DefaultRadioName = "Mi Radio"
	DefaultCity      = "Santiago"
)

// Greeting returns the time-of-day greeting for now.
func Greeting(now time.Time) string {
	hour := now.Hour()

	switch {
	case hour >= 6 && hour < 12:
		return "Buenos días"
	case hour >= 12 && hour < 18:
		return "Buenas tardes"
	default:
		return "Buenas noches"
	}
}

// CommonVariables returns the values the studio can prefill for any template.
func CommonVariables(now time.Time, radioName, city string) map[string]string {
	if radioName == "" {
		radioName = DefaultRadioName
	}

	if city == "" {
		city = DefaultCity
	}

	return map[string]string{
		VarRadioName: radioName,
		VarTime:      Greeting(now),
		VarCity:      city,
	}
}
