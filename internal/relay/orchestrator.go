package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/cache/redis"
	"github.com/eroland11241988/insightlm/internal/metrics"
	"github.com/eroland11241988/insightlm/pkg/config"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

const (
	transportErrorText = "Sorry, the chat service returned an error (status %d). Please try again in a moment."
	semanticErrorText  = "Sorry, the chat workflow encountered an internal error while answering. Please verify the workflow configuration or try again."
	genericErrorText   = "Sorry, a technical error occurred while processing your message. Please try again."
)

// Request is the inbound relay request, captured once at the boundary and
// passed through every stage.
type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
}

// Orchestrator runs the relay lifecycle for one request: validate, check
// configuration, gate on eligibility, record the human message, dispatch to
// the external workflow, classify, and translate everything into a tagged
// Result. It holds no per-request state; every dependency is an external
// collaborator invoked synchronously.
type Orchestrator struct {
	cfg        *config.Config
	checker    *Checker
	recorder   *Recorder
	dispatcher *Dispatcher
	counters   *redis.Client
}

func NewOrchestrator(cfg *config.Config, checker *Checker, recorder *Recorder, dispatcher *Dispatcher, counters *redis.Client) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		checker:    checker,
		recorder:   recorder,
		dispatcher: dispatcher,
		counters:   counters,
	}
}

// Relay never lets a fault escape: any panic below degrades to an unexpected
// error result with a best-effort error message appended to the transcript,
// using the request captured at the boundary.
func (o *Orchestrator) Relay(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Relay recovered from panic",
				zap.Any("panic", r),
				zap.String("session_id", req.SessionID),
			)
			o.appendAssistantError(ctx, req.SessionID, genericErrorText, map[string]interface{}{
				"error":        true,
				"errorMessage": fmt.Sprintf("%v", r),
			})
			res = unexpectedResult(fmt.Sprintf("%v", r))
		}
		o.observe(ctx, res)
	}()

	return o.relay(ctx, req)
}

func (o *Orchestrator) relay(ctx context.Context, req Request) Result {
	fields := map[string]bool{
		"session_id": req.SessionID != "",
		"message":    req.Message != "",
	}
	if !fields["session_id"] || !fields["message"] {
		return validationResult(fields)
	}

	if o.cfg.Webhook.URL == "" {
		return configurationResult("webhook.url")
	}
	if o.cfg.Webhook.AuthToken == "" {
		return configurationResult("webhook.authToken")
	}

	elig, err := o.checker.Check(ctx, req.SessionID)
	if err != nil {
		if !elig.Exists {
			logger.Warn("Notebook lookup failed",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
			return notFoundResult(err.Error())
		}
		// Notebook confirmed, but the source read faulted. That is a
		// storage fault, not a confirmed ineligibility.
		o.appendAssistantError(ctx, req.SessionID, genericErrorText, map[string]interface{}{
			"error":        true,
			"errorMessage": err.Error(),
		})
		return unexpectedResult(err.Error())
	}
	if !elig.HasCompletedSource {
		return ineligibleResult()
	}

	if err := o.recorder.SaveHuman(ctx, req.SessionID, req.Message); err != nil {
		// Non-critical write: the relay continues toward dispatch.
		logger.Warn("Failed to save human message",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		metrics.HistoryWriteFailures.WithLabelValues("human").Inc()
	}

	start := time.Now()
	outcome, err := o.dispatcher.Dispatch(ctx, req.SessionID, req.Message, req.UserID)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.appendAssistantError(ctx, req.SessionID, genericErrorText, map[string]interface{}{
			"error":        true,
			"errorMessage": err.Error(),
		})
		return unexpectedResult(err.Error())
	}

	switch outcome.Class {
	case OutcomeTransportFailure:
		o.appendAssistantError(ctx, req.SessionID,
			fmt.Sprintf(transportErrorText, outcome.StatusCode),
			map[string]interface{}{
				"error":  true,
				"status": outcome.StatusCode,
			})
		return Result{
			Kind:       KindTransport,
			Error:      fmt.Sprintf("Chat service returned status %d", outcome.StatusCode),
			Details:    outcome.Body,
			Suggestion: "Check that the webhook endpoint is reachable and healthy",
		}

	case OutcomeSemanticFailure:
		o.appendAssistantError(ctx, req.SessionID, semanticErrorText, map[string]interface{}{
			"error":        true,
			"n8n_response": outcome.Body,
		})
		return Result{
			Kind:       KindSemantic,
			Error:      "Chat workflow reported an error",
			Details:    outcome.Body,
			Suggestion: "Inspect the workflow execution logs",
		}

	default:
		logger.Info("Message relayed",
			zap.String("session_id", req.SessionID),
			zap.Int("status", outcome.StatusCode),
		)
		return successResult(outcome.Body)
	}
}

// appendAssistantError is the compensating write on failure paths. Its own
// failure is swallowed; the response being constructed is already decided.
func (o *Orchestrator) appendAssistantError(ctx context.Context, sessionID, text string, metadata map[string]interface{}) {
	if sessionID == "" {
		return
	}

	if err := o.recorder.SaveAssistantError(ctx, sessionID, text, metadata); err != nil {
		logger.Warn("Failed to append assistant error message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		metrics.HistoryWriteFailures.WithLabelValues("ai").Inc()
	}
}

func (o *Orchestrator) observe(ctx context.Context, res Result) {
	metrics.RelayTotal.WithLabelValues(res.Kind.String()).Inc()
	o.counters.IncrementOutcome(ctx, res.Kind.String())
}
