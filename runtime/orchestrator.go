package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/moderation"
	"campus-chat/runtime/workers"
	"campus-chat/services"
)

//go:embed censored/*
var censoredFolder embed.FS

// Orchestrator wires the broadcast pipeline: it owns the domain-event
// channel feeding the fanout worker, spawns one supervised session worker
// per connection, and carries the moderation setup.
type Orchestrator struct {
	log         *slog.Logger
	supervisor  contract.ISupervisor
	registry    contract.IRegistry
	chat        services.IChatService
	membership  services.IMembershipService
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, chat services.IChatService,
	membership services.IMembershipService,
	bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		chat:        chat,
		membership:  membership,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Add registers permanent sinks delivered on every event, room membership
// notwithstanding.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.sinks = append(o.sinks, sinks...)
}

// Publish enqueues an event for broadcast. The channel is buffered; when
// fan-out cannot keep up the event is dropped rather than blocking the
// publishing session.
func (o *Orchestrator) Publish(evt event.DomainEvent) {
	select {
	case o.events <- evt:
	default:
		o.log.Warn(fmt.Sprintf("Event channel full for room %s, dropping event", evt.GroupID()))
	}
}

// StartSession spawns the supervised per-connection actor consuming the
// given command channel. The session stops when ctx is canceled or the
// channel closes.
func (o *Orchestrator) StartSession(ctx context.Context, userID, username string,
	commands <-chan domain.Command, own contract.EventSink) {
	session := workers.NewSessionWorker(o.log, userID, username,
		commands, own, o.Publish, o.chat, o.membership)
	o.supervisor.Start(ctx, session)
}

// Start registers the fanout worker and launches the supervision loop.
func (o *Orchestrator) Start(ctx context.Context) {
	fanout := workers.NewEventFanout(o.log, o.registry, o.events, o.sinkTimeout).
		Add(o.sinks...)
	o.supervisor.Add(fanout)

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
}

// Stop initiates a graceful shutdown: the supervision context is canceled
// and workers drain out.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// LoadModerator builds the censoring automaton from the embedded
// per-language word lists.
func LoadModerator(log *slog.Logger, charReplacement rune) (*moderation.Moderator, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return nil, err
	}
	return &moderator, nil
}
