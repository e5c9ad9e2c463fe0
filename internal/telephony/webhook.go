package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mikhlas911/medizap-ai/internal/calllog"
	"github.com/mikhlas911/medizap-ai/internal/conversation"
	"github.com/mikhlas911/medizap-ai/internal/directory"
	"github.com/mikhlas911/medizap-ai/internal/observability/metrics"
	"github.com/mikhlas911/medizap-ai/internal/session"
	"github.com/mikhlas911/medizap-ai/pkg/logging"
)

var voiceTracer = otel.Tracer("medizap.internal.telephony.voice")

// ClinicResolver maps a called phone number to its clinic.
type ClinicResolver interface {
	ClinicByNumber(ctx context.Context, phone string) (*directory.Clinic, error)
}

// TurnAuditor records per-turn transcripts and patches call durations.
// Optional; a nil auditor skips both writes.
type TurnAuditor interface {
	AppendTurn(ctx context.Context, e calllog.TurnEntry) error
	SetDuration(ctx context.Context, callSID string, seconds int) error
}

// Handler handles Twilio voice webhook requests.
type Handler struct {
	authToken string
	clinics   ClinicResolver
	engine    *conversation.Engine
	sessions  session.Store
	audit     TurnAuditor
	metrics   *metrics.CallMetrics
	logger    *logging.Logger
	render    RenderConfig
}

// HandlerConfig configures a voice webhook Handler.
type HandlerConfig struct {
	// AuthToken is the Twilio auth token; empty disables signature checks.
	AuthToken string
	Clinics   ClinicResolver
	Engine    *conversation.Engine
	Sessions  session.Store
	Audit     TurnAuditor
	Metrics   *metrics.CallMetrics
	Logger    *logging.Logger
	Render    RenderConfig
}

// NewHandler creates a voice webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Clinics == nil {
		panic("telephony: clinic resolver required")
	}
	if cfg.Engine == nil {
		panic("telephony: conversation engine required")
	}
	if cfg.Sessions == nil {
		panic("telephony: session store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		authToken: cfg.AuthToken,
		clinics:   cfg.Clinics,
		engine:    cfg.Engine,
		sessions:  cfg.Sessions,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		render:    cfg.Render,
	}
}

const msgUnknownNumber = "I'm sorry, this number is not configured for appointment scheduling. Please contact the clinic directly. Goodbye."

// VoiceWebhook handles POST /webhooks/twilio/voice requests. Twilio posts
// one form per dialogue turn plus a final status callback when the call
// ends; both land here.
func (h *Handler) VoiceWebhook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, span := voiceTracer.Start(r.Context(), "telephony.twilio.voice")
	defer span.End()

	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature")
			span.RecordError(errors.New("invalid twilio signature"))
			h.metrics.ObserveWebhookLatency("unauthorized", time.Since(started).Seconds())
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := ParseVoiceWebhook(r)
	if err != nil {
		// A malformed request never creates a session.
		h.logger.Error("failed to parse voice webhook", "error", err)
		span.RecordError(err)
		h.metrics.ObserveWebhookLatency("bad_request", time.Since(started).Seconds())
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("medizap.twilio.call_sid", webhook.CallSID),
		attribute.String("medizap.twilio.from", webhook.From),
		attribute.String("medizap.twilio.to", webhook.To),
		attribute.String("medizap.twilio.call_status", webhook.CallStatus),
	)
	log := h.logger.WithCall(webhook.CallSID)

	if webhook.CallStatus == "completed" {
		h.completeCall(ctx, webhook, log)
		h.metrics.ObserveWebhookLatency("completed", time.Since(started).Seconds())
		h.writeTwiML(w, `<?xml version="1.0" encoding="UTF-8"?><Response/>`)
		return
	}

	clinic, err := h.clinics.ClinicByNumber(ctx, webhook.To)
	if err != nil {
		if errors.Is(err, directory.ErrClinicNotFound) {
			log.Warn("call to unconfigured number", "to", webhook.To)
		} else {
			log.Error("clinic lookup failed", "error", err, "to", webhook.To)
			span.RecordError(err)
		}
		h.metrics.ObserveWebhookLatency("unknown_number", time.Since(started).Seconds())
		h.respond(w, log, conversation.Reply{Text: msgUnknownNumber, Action: conversation.ActionHangup})
		return
	}

	sess, created, err := h.sessions.GetOrCreate(ctx, webhook.CallSID)
	if err != nil {
		log.Error("session load failed", "error", err)
		span.RecordError(err)
		h.metrics.ObserveWebhookLatency("error", time.Since(started).Seconds())
		h.respondTransfer(w, log)
		return
	}
	if created {
		sess.ClinicID = clinic.ID.String()
		sess.CallerPhone = webhook.From
		log.Info("call started", "clinic_id", clinic.ID, "from", webhook.From)
	}

	reply, next := h.engine.Turn(ctx, conversation.TurnInput{
		CallSID:     webhook.CallSID,
		ClinicID:    clinic.ID,
		ClinicName:  clinic.Name,
		CallerPhone: webhook.From,
		Transcript:  webhook.SpeechResult,
	}, sess.State)

	priorStep := sess.State.Step
	sess.State = next
	if err := h.sessions.Save(ctx, sess); err != nil {
		log.Error("session save failed", "error", err)
		span.RecordError(err)
		h.metrics.ObserveWebhookLatency("error", time.Since(started).Seconds())
		h.respondTransfer(w, log)
		return
	}

	h.appendTurn(ctx, clinic, webhook, priorStep, reply, log)
	h.metrics.ObserveTurn(string(priorStep), string(reply.Action))
	switch reply.Action {
	case conversation.ActionTransfer:
		h.metrics.ObserveCall("transferred")
	case conversation.ActionHangup:
		h.metrics.ObserveCall("finished")
	}
	h.metrics.ObserveWebhookLatency("ok", time.Since(started).Seconds())

	h.respond(w, log, reply)
}

// completeCall tears down the session and patches the call log with the
// final duration. Duplicate status callbacks find no session and do nothing.
func (h *Handler) completeCall(ctx context.Context, webhook *VoiceWebhookRequest, log *logging.Logger) {
	elapsed, found, err := h.sessions.Complete(ctx, webhook.CallSID)
	if err != nil {
		log.Error("session completion failed", "error", err)
		return
	}
	if !found {
		return
	}
	seconds := int(elapsed / time.Second)
	log.Info("call completed", "duration_seconds", seconds)
	if h.audit == nil {
		return
	}
	if err := h.audit.SetDuration(ctx, webhook.CallSID, seconds); err != nil {
		log.Warn("duration patch failed", "error", err)
	}
}

// appendTurn records one utterance/reply pair. Best effort; the reply goes
// out regardless.
func (h *Handler) appendTurn(ctx context.Context, clinic *directory.Clinic, webhook *VoiceWebhookRequest, step conversation.Step, reply conversation.Reply, log *logging.Logger) {
	if h.audit == nil {
		return
	}
	err := h.audit.AppendTurn(ctx, calllog.TurnEntry{
		ClinicID:      clinic.ID,
		CallSID:       webhook.CallSID,
		CallerPhone:   webhook.From,
		Step:          string(step),
		UserInput:     webhook.SpeechResult,
		AgentResponse: reply.Text,
	})
	if err != nil {
		log.Warn("turn log append failed", "error", err)
	}
}

func (h *Handler) respondTransfer(w http.ResponseWriter, log *logging.Logger) {
	h.respond(w, log, conversation.Reply{
		Text:   "I'm sorry, I'm experiencing technical difficulties. Please hold while I transfer you to our staff.",
		Action: conversation.ActionTransfer,
	})
}

func (h *Handler) respond(w http.ResponseWriter, log *logging.Logger, reply conversation.Reply) {
	markup, err := RenderTwiML(reply, h.render)
	if err != nil {
		log.Error("twiml render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.writeTwiML(w, markup)
}

func (h *Handler) writeTwiML(w http.ResponseWriter, markup string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, markup)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
