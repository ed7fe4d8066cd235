package callflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
	"github.com/Newrona-pi/AUTO-Call/internal/routing"
	"github.com/Newrona-pi/AUTO-Call/internal/survey"
	"github.com/Newrona-pi/AUTO-Call/internal/telephony"
	"github.com/Newrona-pi/AUTO-Call/pkg/logger"
)

// CallRecorder starts a whole-call recording on the telephony platform.
// Failure is non-fatal to the call flow.
type CallRecorder interface {
	StartCallRecording(ctx context.Context, callSID string) (string, error)
}

// Scheduler launches detached transcription jobs. Implementations must
// return without waiting for the job.
type Scheduler interface {
	ScheduleAnswer(ctx context.Context, answerID, recordingSID string)
	ScheduleMessage(ctx context.Context, messageID, recordingSID string)
}

// Settings tunes the spoken flow. Zero values get the platform defaults.
type Settings struct {
	// Language is the TTS language attribute on every Say verb.
	Language string

	MaxRecordingSeconds   int
	MessageSilenceTimeout int
	GatherTimeoutSeconds  int
}

func (s Settings) withDefaults() Settings {
	if s.Language == "" {
		s.Language = "ja-JP"
	}
	if s.MaxRecordingSeconds <= 0 {
		s.MaxRecordingSeconds = 180
	}
	if s.MessageSilenceTimeout <= 0 {
		s.MessageSilenceTimeout = 10
	}
	if s.GatherTimeoutSeconds <= 0 {
		s.GatherTimeoutSeconds = 10
	}
	return s
}

// Engine is the survey call-flow state machine. Each method corresponds to
// one webhook and returns the markup document for the platform to execute.
//
// State between callbacks is carried entirely in the action URLs of the
// instructions the engine emits; every method is a pure function of its
// parameters and database state, so concurrent calls share nothing in
// process.
type Engine struct {
	surveys   survey.Repository
	ledger    calls.Ledger
	resolver  *routing.Resolver
	recorder  CallRecorder
	scheduler Scheduler
	settings  Settings

	now func() time.Time
}

func NewEngine(surveys survey.Repository, ledger calls.Ledger, resolver *routing.Resolver, recorder CallRecorder, scheduler Scheduler, settings Settings) *Engine {
	return &Engine{
		surveys:   surveys,
		ledger:    ledger,
		resolver:  resolver,
		recorder:  recorder,
		scheduler: scheduler,
		settings:  settings.withDefaults(),
		now:       time.Now,
	}
}

// CallStart handles the initial voice webhook: resolves the scenario for the
// dialed number, records the call row, starts the whole-call recording, and
// opens the script.
func (e *Engine) CallStart(ctx context.Context, form telephony.VoiceForm) (*telephony.Response, error) {
	log := logger.From(ctx).With("call_sid", form.CallSID, "to", form.To)

	route, err := e.resolver.Resolve(ctx, form.To)
	if err != nil && !errors.Is(err, routing.ErrNoRoute) {
		return nil, err
	}

	// Whole-call recording is best-effort; the survey runs either way.
	recordingSID := ""
	if e.recorder != nil {
		sid, err := e.recorder.StartCallRecording(ctx, form.CallSID)
		if err != nil {
			log.Warn("whole-call recording not started", "err", err)
		} else {
			recordingSID = sid
		}
	}

	now := e.now().UTC()
	call := calls.Call{
		CallSID:      form.CallSID,
		From:         form.From,
		To:           form.To,
		ScenarioID:   route.Scenario.ID,
		Status:       calls.CallStatusInProgress,
		RecordingSID: recordingSID,
		StartedAt:    now,
		CreatedAt:    now,
	}
	if err := e.ledger.CreateCall(ctx, call); err != nil {
		return nil, err
	}

	var resp telephony.Response
	if !route.InService() {
		log.Info("dialed number not in service")
		resp.SayText(PromptNotInService, e.settings.Language)
		return &resp, nil
	}

	sc := route.Scenario
	if sc.GreetingText != "" {
		resp.SayText(sc.GreetingText, e.settings.Language)
	}
	if sc.DisclaimerText != "" {
		resp.SayText(sc.DisclaimerText, e.settings.Language)
	}
	resp.SayText(sc.GuidanceText(), e.settings.Language)
	resp.PauseFor("1.5")

	first, err := e.surveys.FirstActiveQuestion(ctx, sc.ID)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			// No questions: read the ending guidance and stop.
			return &resp, e.appendNoQuestionsEnding(ctx, &resp, sc.ID)
		}
		return nil, err
	}

	e.askQuestion(&resp, sc.ID, first)
	return &resp, nil
}

// RecordReceived handles a finished question recording: persists the answer,
// schedules its transcription, and asks the next question or moves on to the
// free-form message.
func (e *Engine) RecordReceived(ctx context.Context, scenarioID, questionID string, form telephony.RecordingForm) (*telephony.Response, error) {
	log := logger.From(ctx).With("call_sid", form.CallSID, "question_id", questionID)

	var resp telephony.Response

	q, err := e.surveys.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			// Should not happen: the question id came from our own action URL.
			log.Error("recording callback for unknown question")
			resp.SayText(PromptError, e.settings.Language)
			return &resp, nil
		}
		return nil, err
	}

	answer := calls.Answer{
		ID:                 uuid.NewString(),
		CallSID:            form.CallSID,
		QuestionID:         q.ID,
		QuestionSortAtCall: q.SortOrder,
		AnswerType:         calls.AnswerTypeRecording,
		RecordingSID:       form.RecordingSID,
		RecordingURL:       form.RecordingURL,
		StorageStatus:      calls.StorageStatusPending,
		TranscriptStatus:   calls.TranscriptProcessing,
		CreatedAt:          e.now().UTC(),
	}
	if err := e.ledger.CreateAnswer(ctx, answer); err != nil {
		return nil, err
	}
	e.scheduler.ScheduleAnswer(ctx, answer.ID, form.RecordingSID)

	next, err := e.surveys.NextActiveQuestion(ctx, scenarioID, q.SortOrder)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			e.askMessage(&resp, scenarioID)
			return &resp, nil
		}
		return nil, err
	}

	e.askQuestion(&resp, scenarioID, next)
	return &resp, nil
}

// MessageRecord handles a finished free-form message recording: persists the
// message with a placeholder transcript, schedules its transcription, and
// offers to record another.
func (e *Engine) MessageRecord(ctx context.Context, scenarioID string, form telephony.RecordingForm) (*telephony.Response, error) {
	msg := calls.Message{
		ID:             uuid.NewString(),
		CallSID:        form.CallSID,
		RecordingSID:   form.RecordingSID,
		RecordingURL:   form.RecordingURL,
		TranscriptText: MessagePlaceholder,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.ledger.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	e.scheduler.ScheduleMessage(ctx, msg.ID, form.RecordingSID)

	confirmURL := fmt.Sprintf("/twilio/message_confirm?scenario_id=%s", url.QueryEscape(scenarioID))

	var resp telephony.Response
	resp.SayText(PromptMessageAccepted, e.settings.Language)
	resp.Append(telephony.Gather{
		Action:    confirmURL,
		NumDigits: 1,
		Timeout:   e.settings.GatherTimeoutSeconds,
		Say:       &telephony.Say{Language: e.settings.Language, Text: PromptMessageConfirm},
	})
	// Gather only fires on an actual key press; silence falls through to this
	// redirect, which means "done".
	resp.Append(telephony.Redirect{URL: confirmURL + "&Digits=2"})
	return &resp, nil
}

// MessageConfirm handles the single-digit choice after a message: "1" loops
// back to another recording, anything else closes the call.
func (e *Engine) MessageConfirm(ctx context.Context, scenarioID, digits string) (*telephony.Response, error) {
	var resp telephony.Response

	if digits == "1" {
		e.askMessage(&resp, scenarioID)
		return &resp, nil
	}

	guidance, err := e.surveys.ListEndingGuidance(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if len(guidance) > 0 {
		for _, g := range guidance {
			resp.SayText(g.Text, e.settings.Language)
			resp.PauseFor("1")
		}
	} else {
		resp.SayText(PromptClosingFallback, e.settings.Language)
	}
	resp.SayText(PromptGoodbye, e.settings.Language)
	resp.Append(telephony.Hangup{})
	return &resp, nil
}

func (e *Engine) askQuestion(resp *telephony.Response, scenarioID string, q survey.Question) {
	resp.SayText(q.Text, e.settings.Language)
	resp.Append(telephony.Record{
		Action: fmt.Sprintf("/twilio/record_callback?scenario_id=%s&q_curr=%s",
			url.QueryEscape(scenarioID), url.QueryEscape(q.ID)),
		FinishOnKey: "#",
		// No silence timeout: the respondent decides when the answer is done.
		Timeout:   0,
		MaxLength: e.settings.MaxRecordingSeconds,
	})
}

func (e *Engine) askMessage(resp *telephony.Response, scenarioID string) {
	resp.SayText(PromptMessageInvite, e.settings.Language)
	resp.Append(telephony.Record{
		Action:      fmt.Sprintf("/twilio/message_record?scenario_id=%s", url.QueryEscape(scenarioID)),
		FinishOnKey: "#",
		// Unlike questions, silence here means "nothing to add".
		Timeout:   e.settings.MessageSilenceTimeout,
		MaxLength: e.settings.MaxRecordingSeconds,
	})
}

func (e *Engine) appendNoQuestionsEnding(ctx context.Context, resp *telephony.Response, scenarioID string) error {
	guidance, err := e.surveys.ListEndingGuidance(ctx, scenarioID)
	if err != nil {
		return err
	}
	if len(guidance) == 0 {
		resp.SayText(PromptNoQuestions, e.settings.Language)
		return nil
	}
	for _, g := range guidance {
		resp.SayText(g.Text, e.settings.Language)
		resp.PauseFor("1")
	}
	return nil
}
