package template

var catalog = []Template{
	{
		ID:          "jingle_1",
		Name:        "Bienvenida Estándar",
		Category:    Jingle,
		Pattern:     "¡Buenas {tiempo}, estás escuchando {radio_name}! La radio que te acompaña todo el día.",
		Variables:   []string{"tiempo", "radio_name"},
		Description: "Jingle de bienvenida clásico para cualquier hora",
	},
	{
		ID:          "jingle_2",
		Name:        "Bienvenida Energética",
		Category:    Jingle,
		Pattern:     "¡Hola! Aquí {radio_name}, donde la música no para y la energía nunca se acaba.",
		Variables:   []string{"radio_name"},
		Description: "Jingle dinámico y enérgico",
	},
	{
		ID:          "jingle_3",
		Name:        "Bienvenida Nocturna",
		Category:    Jingle,
		Pattern:     "Buenas noches desde {radio_name}, la compañía perfecta para estos momentos.",
		Variables:   []string{"radio_name"},
		Description: "Jingle suave para programación nocturna",
	},
	{
		ID:          "spot_1",
		Name:        "Promoción de Evento",
		Category:    Spot,
		Pattern:     "No te pierdas {evento} este {fecha} en {lugar}. ¡Solo en {radio_name}!",
		Variables:   []string{"evento", "fecha", "lugar", "radio_name"},
		Description: "Spot para promocionar eventos",
	},
	{
		ID:          "spot_2",
		Name:        "Promoción Comercial",
		Category:    Spot,
		Pattern:     "{marca} te invita a {promocion}. ¡Aprovecha esta oportunidad única!",
		Variables:   []string{"marca", "promocion"},
		Description: "Spot para promociones comerciales",
	},
	{
		ID:          "spot_3",
		Name:        "Llamada a la Acción",
		Category:    Spot,
		Pattern:     "Llama ahora al {telefono} y participa en {concurso}. ¡Tú puedes ser el ganador!",
		Variables:   []string{"telefono", "concurso"},
		Description: "Spot para concursos y participación",
	},
	{
		ID:          "id_1",
		Name:        "Identificación Clásica",
		Category:    Identification,
		Pattern:     "Este es el sonido de {radio_name}, la radio que te entiende.",
		Variables:   []string{"radio_name"},
		Description: "Identificación elegante y profesional",
	},
	{
		ID:          "id_2",
		Name:        "Identificación Musical",
		Category:    Identification,
		Pattern:     "{radio_name}, donde cada canción cuenta una historia.",
		Variables:   []string{"radio_name"},
		Description: "Identificación con enfoque musical",
	},
	{
		ID:          "id_3",
		Name:        "Identificación Comunitaria",
		Category:    Identification,
		Pattern:     "Desde {ciudad}, {radio_name} conecta corazones y comunidades.",
		Variables:   []string{"ciudad", "radio_name"},
		Description: "Identificación para radios comunitarias",
	},
	{
		ID:          "trans_1",
		Name:        "Transición Musical",
		Category:    Transition,
		Pattern:     "Y así suena {radio_name}, continuamos con más música para ti.",
		Variables:   []string{"radio_name"},
		Description: "Transición entre canciones",
	},
	{
		ID:          "trans_2",
		Name:        "Transición de Programa",
		Category:    Transition,
		Pattern:     "Ahora en {radio_name}, llega el momento de {programa}. No te lo pierdas.",
		Variables:   []string{"radio_name", "programa"},
		Description: "Transición entre programas",
	},
	{
		ID:          "close_1",
		Name:        "Cierre Estándar",
		Category:    Closing,
		Pattern:     "Esto ha sido todo por hoy en {radio_name}. ¡Hasta la próxima!",
		Variables:   []string{"radio_name"},
		Description: "Cierre clásico de programa",
	},
	{
		ID:          "close_2",
		Name:        "Cierre Nocturno",
		Category:    Closing,
		Pattern:     "Se hace de noche y {radio_name} sigue contigo. Que descanses.",
		Variables:   []string{"radio_name"},
		Description: "Cierre suave para programación nocturna",
	},
}

// All returns a copy of the catalog.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)

	return out
}

// ByID looks up a template.
func ByID(id string) (Template, bool) {
	for _, tmpl := range catalog {
		if tmpl.ID == id {
			return tmpl, true
		}
	}

	return Template{}, false
}

// ByCategory returns the templates of one category in catalog order.
func ByCategory(category Category) []Template {
	var out []Template

	for _, tmpl := range catalog {
		if tmpl.Category == category {
			out = append(out, tmpl)
		}
	}

	return out
}
