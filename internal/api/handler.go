// Package api exposes the studio over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/template"
	"github.com/book-expert/voice-studio/internal/voice"
	"github.com/gin-gonic/gin"
)

// Handler serves the studio routes.
type Handler struct {
	studio    *studio.Studio
	radioName string
	city      string
	metrics   http.Handler
	log       *logger.Logger
}

// Options configure a Handler.
type Options struct {
	RadioName string
	City      string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewHandler creates the HTTP handler.
func NewHandler(pipeline *studio.Studio, opts Options, log *logger.Logger) *Handler {
	return &Handler{
		studio:    pipeline,
		radioName: opts.RadioName,
		city:      opts.City,
		metrics:   opts.Metrics,
		log:       log,
	}
}

// -- Request/Response Structs --

type generateRequest struct {
	Text    string      `json:"text"`
	VoiceID voice.ID    `json:"voice_id"`
	Style   voice.Style `json:"style"`
	Speed   float64     `json:"speed"`
	Pitch   int         `json:"pitch"`
}

type renderRequest struct {
	Variables map[string]string `json:"variables"`
	RadioName string            `json:"radio_name"`
	City      string            `json:"city"`
}

type templateGenerateRequest struct {
	renderRequest

	VoiceID voice.ID    `json:"voice_id"`
	Style   voice.Style `json:"style"`
	Speed   float64     `json:"speed"`
	Pitch   int         `json:"pitch"`
}

type renderResponse struct {
	TemplateID string   `json:"template_id"`
	Text       string   `json:"text"`
	Unresolved []string `json:"unresolved"`
}

type itemResponse struct {
	history.Item

	FileName string `json:"file_name"`
	AudioURL string `json:"audio_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Loading bool   `json:"loading"`
	History int    `json:"history"`
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.HandleHealth)
	router.GET("/voices", h.HandleVoices)
	router.GET("/styles", h.HandleStyles)
	router.GET("/templates", h.HandleTemplates)
	router.POST("/templates/:id/render", h.HandleRenderTemplate)
	router.POST("/templates/:id/generate", h.HandleGenerateTemplate)
	router.POST("/generate", h.HandleGenerate)
	router.GET("/history", h.HandleHistory)
	router.GET("/history/:id/audio", h.HandleAudio)
	router.DELETE("/history/:id", h.HandleDelete)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	return router
}

// -- Handlers --

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Loading: h.studio.Loading(),
		History: h.studio.History().Len(),
	})
}

func (h *Handler) HandleVoices(c *gin.Context) {
	gender := voice.Gender(c.Query("gender"))
	if gender != "" {
		c.JSON(http.StatusOK, voice.ByGender(gender))

		return
	}

	c.JSON(http.StatusOK, voice.Catalog())
}

func (h *Handler) HandleStyles(c *gin.Context) {
	c.JSON(http.StatusOK, voice.Styles())
}

func (h *Handler) HandleTemplates(c *gin.Context) {
	category := template.Category(c.Query("category"))
	if category != "" {
		c.JSON(http.StatusOK, template.ByCategory(category))

		return
	}

	c.JSON(http.StatusOK, template.All())
}

func (h *Handler) HandleRenderTemplate(c *gin.Context) {
	var req renderRequest

	err := bindOptionalJSON(c, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	id := c.Param("id")

	rendered, err := h.studio.RenderTemplate(id, req.Variables, h.orRadio(req.RadioName), h.orCity(req.City))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})

		return
	}

	c.JSON(http.StatusOK, renderResponse{
		TemplateID: id,
		Text:       rendered,
		Unresolved: template.Unresolved(rendered),
	})
}

func (h *Handler) HandleGenerate(c *gin.Context) {
	var req generateRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	params := voice.GenerationParams{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Style:   req.Style,
		Speed:   req.Speed,
		Pitch:   req.Pitch,
	}.WithDefaults()

	item, err := h.studio.Generate(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, h.itemResponse(item))
}

func (h *Handler) HandleGenerateTemplate(c *gin.Context) {
	var req templateGenerateRequest

	err := bindOptionalJSON(c, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	item, err := h.studio.GenerateTemplate(c.Request.Context(), studio.TemplateRequest{
		TemplateID: c.Param("id"),
		Variables:  req.Variables,
		RadioName:  h.orRadio(req.RadioName),
		City:       h.orCity(req.City),
		Voice: voice.GenerationParams{
			VoiceID: req.VoiceID,
			Style:   req.Style,
			Speed:   req.Speed,
			Pitch:   req.Pitch,
		}.WithDefaults(),
	})
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, h.itemResponse(item))
}

func (h *Handler) HandleHistory(c *gin.Context) {
	items := h.studio.History().List()

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, h.itemResponse(item))
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) HandleAudio(c *gin.Context) {
	item, data, err := h.studio.Audio(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.studio.FileName(item)))
	c.Data(http.StatusOK, h.studio.Format().ContentType(), data)
}

func (h *Handler) HandleDelete(c *gin.Context) {
	err := h.studio.History().Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// -- Helpers --

func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := http.StatusBadGateway, studio.UserMessage(err)

	switch {
	case errors.Is(err, studio.ErrGenerationInProgress):
		status = http.StatusConflict
	case errors.Is(err, voice.ErrEmptyText),
		errors.Is(err, voice.ErrSpeedRange),
		errors.Is(err, voice.ErrPitchRange),
		errors.Is(err, voice.ErrUnknownStyle):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, studio.ErrUnknownTemplate),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, objectstore.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	default:
		h.log.Error("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.JSON(status, errorResponse{Error: message})
}

func (h *Handler) itemResponse(item history.Item) itemResponse {
	return itemResponse{
		Item:     item,
		FileName: h.studio.FileName(item),
		AudioURL: "/history/" + item.ID + "/audio",
	}
}

func (h *Handler) orRadio(name string) string {
	if name == "" {
		return h.radioName
	}

	return name
}

func (h *Handler) orCity(city string) string {
	if city == "" {
		return h.city
	}

	return city
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, target any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}

	return c.ShouldBindJSON(target)
}
