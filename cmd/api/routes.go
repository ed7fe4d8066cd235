package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Newrona-pi/AUTO-Call/internal/auth"
	"github.com/Newrona-pi/AUTO-Call/internal/callflow"
	"github.com/Newrona-pi/AUTO-Call/internal/calls"
	"github.com/Newrona-pi/AUTO-Call/internal/httpapi"
	"github.com/Newrona-pi/AUTO-Call/internal/reporting"
	"github.com/Newrona-pi/AUTO-Call/internal/survey"
	"github.com/Newrona-pi/AUTO-Call/pkg/utils"
)

type deps struct {
	db        *sql.DB
	auth      *auth.Manager
	engine    *callflow.Engine
	surveys   survey.Repository
	ledger    calls.Ledger
	reporting *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), d.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Twilio webhooks (public).
	// NOTE: should be protected by Twilio signature validation in production.
	callflow.NewHandler(d.engine).Register(r)

	h := httpapi.Handlers{
		Auth:    d.auth,
		Surveys: d.surveys,
		Ledger:  d.ledger,
		Reports: d.reporting,
	}

	r.POST("/v1/auth/token", h.Token)

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	{
		v1.GET("/calls", h.ListCalls)
		v1.GET("/calls/:call_sid", h.GetCall)
		v1.GET("/scenarios", h.ListScenarios)
		v1.GET("/scenarios/:scenario_id", h.GetScenario)
		v1.GET("/transcription-logs", h.ListTranscriptionLogs)
		v1.GET("/reports/calls-summary", h.CallsSummary)
	}
}
