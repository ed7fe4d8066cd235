package callflow

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Newrona-pi/AUTO-Call/internal/telephony"
	"github.com/Newrona-pi/AUTO-Call/pkg/logger"
)

// Handler adapts the engine to the Twilio webhook surface. It converts forms,
// delegates to the engine, and writes TwiML.
//
// A webhook that fails mid-call must still answer with a spoken document: an
// HTTP error here would drop the call on the respondent, so internal failures
// render the generic error prompt instead of a 5xx.
type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler { return &Handler{Engine: engine} }

// Register mounts the webhook routes. They are unauthenticated by design:
// Twilio is the only expected caller and carries no bearer credentials.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/twilio")
	g.POST("/voice", h.Voice)
	g.POST("/record_callback", h.RecordCallback)
	g.POST("/message_record", h.MessageRecord)
	g.POST("/message_confirm", h.MessageConfirm)
	g.POST("/transcription_callback", h.TranscriptionCallback)
}

func (h *Handler) Voice(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseVoiceForm(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	resp, err := h.Engine.CallStart(c.Request.Context(), form)
	if err != nil {
		log.Error("call start failed", "call_sid", form.CallSID, "err", err)
		h.renderError(c)
		return
	}
	h.render(c, resp)
}

func (h *Handler) RecordCallback(c *gin.Context) {
	log := logger.FromGin(c)

	scenarioID := c.Query("scenario_id")
	questionID := c.Query("q_curr")

	form, err := telephony.ParseRecordingForm(c.Request)
	if err != nil {
		log.Warn("recording webhook parse failed", "err", err)
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	resp, err := h.Engine.RecordReceived(c.Request.Context(), scenarioID, questionID, form)
	if err != nil {
		log.Error("record callback failed", "call_sid", form.CallSID, "err", err)
		h.renderError(c)
		return
	}
	h.render(c, resp)
}

func (h *Handler) MessageRecord(c *gin.Context) {
	log := logger.FromGin(c)

	scenarioID := c.Query("scenario_id")

	form, err := telephony.ParseRecordingForm(c.Request)
	if err != nil {
		log.Warn("message webhook parse failed", "err", err)
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	resp, err := h.Engine.MessageRecord(c.Request.Context(), scenarioID, form)
	if err != nil {
		log.Error("message record failed", "call_sid", form.CallSID, "err", err)
		h.renderError(c)
		return
	}
	h.render(c, resp)
}

func (h *Handler) MessageConfirm(c *gin.Context) {
	log := logger.FromGin(c)

	scenarioID := c.Query("scenario_id")

	digits, err := telephony.ParseDigits(c.Request, "2")
	if err != nil {
		log.Warn("confirm webhook parse failed", "err", err)
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	resp, err := h.Engine.MessageConfirm(c.Request.Context(), scenarioID, digits)
	if err != nil {
		log.Error("message confirm failed", "err", err)
		h.renderError(c)
		return
	}
	h.render(c, resp)
}

// TranscriptionCallback is the platform's native transcription sink. Native
// transcription is never requested on our Record verbs, so this only logs
// whatever arrives and acknowledges it.
func (h *Handler) TranscriptionCallback(c *gin.Context) {
	log := logger.FromGin(c)

	_ = c.Request.ParseForm()
	log.Info("native transcription received",
		"recording_sid", c.Request.PostFormValue("RecordingSid"),
		"text", c.Request.PostFormValue("TranscriptionText"),
	)
	c.String(http.StatusOK, "OK")
}

func (h *Handler) render(c *gin.Context, resp *telephony.Response) {
	xml, err := resp.Render()
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		h.renderError(c)
		return
	}
	c.Data(http.StatusOK, telephony.ContentType, []byte(xml))
}

func (h *Handler) renderError(c *gin.Context) {
	var resp telephony.Response
	resp.SayText(PromptError, h.Engine.settings.Language)
	xml, err := resp.Render()
	if err != nil {
		c.String(http.StatusInternalServerError, "error")
		return
	}
	c.Data(http.StatusOK, telephony.ContentType, []byte(xml))
}
