package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts classified inbound messages by intent.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagegenie_messages_total",
		Help: "Inbound messages by classified intent",
	}, []string{"intent"})

	// GenerationsTotal counts generation attempts by outcome.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagegenie_generations_total",
		Help: "Generation attempts by outcome",
	}, []string{"outcome"})

	// SendFailuresTotal counts outbound messages the transport failed to
	// deliver. Failed sends never roll back a committed debit.
	SendFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagegenie_send_failures_total",
		Help: "Outbound WhatsApp messages that failed to send",
	})

	// WebhookEventsTotal counts inbound webhook deliveries by result.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagegenie_webhook_events_total",
		Help: "Inbound webhook deliveries by processing result",
	}, []string{"result"})
)

// Generation outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_tokens"
	OutcomeError        = "error"
)
