package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Newrona-pi/AUTO-Call/internal/auth"
	"github.com/Newrona-pi/AUTO-Call/internal/calls"
	"github.com/Newrona-pi/AUTO-Call/internal/reporting"
	"github.com/Newrona-pi/AUTO-Call/internal/survey"
	"github.com/Newrona-pi/AUTO-Call/pkg/logger"
)

// Handlers groups the operator-console HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth    *auth.Manager
	Surveys survey.Repository
	Ledger  calls.Ledger
	Reports *reporting.Service
}

const defaultListLimit = 100

// --- Auth ---

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// Token exchanges the static admin API key for a short-lived access token.
func (h Handlers) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tok, err := h.Auth.ExchangeAPIKey(time.Now(), req.APIKey)
	if err != nil {
		if errors.Is(err, auth.ErrBadAPIKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   int(h.Auth.AccessTTL().Seconds()),
	})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	f := calls.ListCallsFilter{Limit: defaultListLimit}

	var err error
	if f.From, err = parseTimeParam(c, "from"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	if f.To, err = parseTimeParam(c, "to"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..1000"})
			return
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "offset must be >= 0"})
			return
		}
		f.Offset = n
	}

	rows, err := h.Ledger.ListCalls(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("list calls failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// GetCall returns one call with its answers and messages.
func (h Handlers) GetCall(c *gin.Context) {
	callSID := c.Param("call_sid")

	call, err := h.Ledger.GetCall(c.Request.Context(), callSID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		logger.FromGin(c).Error("get call failed", "call_sid", callSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	answers, err := h.Ledger.ListAnswersByCall(c.Request.Context(), callSID)
	if err != nil {
		logger.FromGin(c).Error("list answers failed", "call_sid", callSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	messages, err := h.Ledger.ListMessagesByCall(c.Request.Context(), callSID)
	if err != nil {
		logger.FromGin(c).Error("list messages failed", "call_sid", callSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"call": call, "answers": answers, "messages": messages})
}

// --- Scenarios ---

func (h Handlers) ListScenarios(c *gin.Context) {
	rows, err := h.Surveys.ListScenarios(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list scenarios failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": rows})
}

// GetScenario returns one scenario with its questions and ending guidance.
func (h Handlers) GetScenario(c *gin.Context) {
	id := c.Param("scenario_id")

	sc, err := h.Surveys.GetScenario(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "scenario not found"})
			return
		}
		logger.FromGin(c).Error("get scenario failed", "scenario_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	questions, err := h.Surveys.ListQuestions(c.Request.Context(), id)
	if err != nil {
		logger.FromGin(c).Error("list questions failed", "scenario_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	guidance, err := h.Surveys.ListEndingGuidance(c.Request.Context(), id)
	if err != nil {
		logger.FromGin(c).Error("list ending guidance failed", "scenario_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenario": sc, "questions": questions, "ending_guidance": guidance})
}

// --- Transcription logs ---

func (h Handlers) ListTranscriptionLogs(c *gin.Context) {
	answerID := c.Query("answer_id")

	rows, err := h.Ledger.ListTranscriptionLogs(c.Request.Context(), answerID)
	if err != nil {
		logger.FromGin(c).Error("list transcription logs failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": rows})
}

// --- Reports ---

func (h Handlers) CallsSummary(c *gin.Context) {
	from, err := parseTimeParam(c, "from")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to are required, from < to"})
			return
		}
		logger.FromGin(c).Error("calls summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func parseTimeParam(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
