package template_test

import (
	"testing"
	"time"

	"github.com/book-expert/voice-studio/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_FullySuppliedIsIdempotent(t *testing.T) {
	t.Parallel()

	tmpl, ok := template.ByID("spot_1")
	require.True(t, ok)

	vars := map[string]string{
		"evento":     "el Festival",
		"fecha":      "sábado",
		"lugar":      "el Parque",
		"radio_name": "Radio Sur",
	}

	first := tmpl.Render(vars)
	second := tmpl.Render(vars)

	assert.Equal(t, first, second)
	assert.Equal(t, "No te pierdas el Festival este sábado en el Parque. ¡Solo en Radio Sur!", first)
	assert.Empty(t, template.Unresolved(first))
}

func TestRender_PartialLeavesMissingPlaceholders(t *testing.T) {
	t.Parallel()

	pattern := "{a} y {b} con {c}"
	rendered := template.Render(pattern, map[string]string{"a": "uno", "b": ""})

	assert.Equal(t, "uno y {b} con {c}", rendered)
	assert.Equal(t, []string{"b", "c"}, template.Unresolved(rendered))
}

func TestRender_RepeatedNameReplacedEverywhere(t *testing.T) {
	t.Parallel()

	rendered := template.Render("{x}-{x}-{x}", map[string]string{"x": "ok"})
	assert.Equal(t, "ok-ok-ok", rendered)
}

func TestRender_ValuesAreNotRescanned(t *testing.T) {
	t.Parallel()

	rendered := template.Render("{a} {b}", map[string]string{"a": "{b}", "b": "dos"})
	assert.Equal(t, "{b} dos", rendered)
}

func TestRender_RegexMetacharactersInValues(t *testing.T) {
	t.Parallel()

	rendered := template.Render("Llama al {telefono}", map[string]string{"telefono": "$1 (+56) 9*"})
	assert.Equal(t, "Llama al $1 (+56) 9*", rendered)
}

func TestCatalog_DeclaresEveryPlaceholder(t *testing.T) {
	t.Parallel()

	templates := template.All()
	require.Len(t, templates, 13)

	for _, tmpl := range templates {
		require.NoError(t, tmpl.Validate(), tmpl.ID)
		assert.NotEmpty(t, template.ByCategory(tmpl.Category))
	}

	total := 0
	for _, category := range template.Categories() {
		total += len(template.ByCategory(category))
	}

	assert.Equal(t, len(templates), total)
	assert.Equal(t, "Cierres", template.Closing.Label())
}

func TestValidate_RejectsUndeclared(t *testing.T) {
	t.Parallel()

	tmpl := template.Template{ID: "bad", Pattern: "{radio_name} {extra}", Variables: []string{"radio_name"}}
	require.ErrorIs(t, tmpl.Validate(), template.ErrUndeclaredVariable)
}

func TestGreeting(t *testing.T) {
	t.Parallel()

	day := func(hour int) time.Time { return time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC) }

	assert.Equal(t, "Buenas noches", template.Greeting(day(5)))
	assert.Equal(t, "Buenos días", template.Greeting(day(6)))
	assert.Equal(t, "Buenas tardes", template.Greeting(day(12)))
	assert.Equal(t, "Buenas noches", template.Greeting(day(18)))
}

func TestFill_RestrictsToDeclaredAndPrefersUserValues(t *testing.T) {
	t.Parallel()

	tmpl, ok := template.ByID("id_3")
	require.True(t, ok)

	common := template.CommonVariables(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), "", "")
	filled := tmpl.Fill(map[string]string{"radio_name": "Radio Norte"}, common)

	assert.Equal(t, map[string]string{"ciudad": "Santiago", "radio_name": "Radio Norte"}, filled)
	assert.Equal(t, "Desde Santiago, Radio Norte conecta corazones y comunidades.", tmpl.Render(filled))
}
