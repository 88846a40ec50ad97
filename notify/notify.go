// Package notify delivers injury-report notifications to the email trigger.
// Delivery is fire-and-forget: Notify never blocks the request and failures
// are only logged.
package notify

import (
	"context"
	"time"

	"precisionpulse/config"
	"precisionpulse/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	InjuryReportDraft     EventType = "draft"
	InjuryReportSubmitted EventType = "submitted"
)

// Event is the payload handed to every sender.
type Event struct {
	Type          EventType           `json:"type"`
	ReportID      uuid.UUID           `json:"reportId"`
	Building      models.Building     `json:"building"`
	Shift         models.Shift        `json:"shift"`
	WorkDate      string              `json:"workDate"`
	EmployeeName  string              `json:"employeeName"`
	Status        models.InjuryStatus `json:"status"`
	ReporterEmail string              `json:"reporterEmail"`
	At            time.Time           `json:"at"`
}

// EventFor builds the event for report.
func EventFor(eventType EventType, report *models.InjuryReport) Event {
	return Event{
		Type:          eventType,
		ReportID:      report.ID,
		Building:      report.Building,
		Shift:         report.Shift,
		WorkDate:      report.WorkDate,
		EmployeeName:  report.EmployeeName,
		Status:        report.Status,
		ReporterEmail: report.CreatedByEmail,
		At:            time.Now().UTC(),
	}
}

// Sender delivers one event synchronously.
type Sender interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

// Dispatcher queues events and hands them to a Sender from one background
// goroutine. Events are dropped, with a warning, when the queue is full.
type Dispatcher struct {
	sender    Sender
	events    chan Event
	logger    *zap.Logger
	timeout   time.Duration
	closeChan chan struct{}
	done      chan struct{}
}

func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sender:    sender,
		events:    make(chan Event, 1000),
		logger:    logger.Named("notify"),
		timeout:   10 * time.Second,
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go d.eventLoop()
	return d
}

func (d *Dispatcher) Notify(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(ev.Type)),
			zap.String("report_id", ev.ReportID.String()),
		)
	}
}

func (d *Dispatcher) eventLoop() {
	defer close(d.done)
	for {
		select {
		case ev := <-d.events:
			d.send(ev)
		case <-d.closeChan:
			for {
				select {
				case ev := <-d.events:
					d.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) send(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, ev); err != nil {
		d.logger.Error("failed to deliver notification",
			zap.Error(err),
			zap.String("event_type", string(ev.Type)),
			zap.String("report_id", ev.ReportID.String()),
		)
	}
}

// Close drains queued events and closes the sender.
func (d *Dispatcher) Close() {
	close(d.closeChan)
	<-d.done
	if err := d.sender.Close(); err != nil {
		d.logger.Error("failed to close notification sender", zap.Error(err))
	}
}

// Log only writes the event to the log; it is the default sender when no
// email trigger is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.Named("notify_log")}
}

func (l *Log) Send(_ context.Context, ev Event) error {
	l.logger.Info("injury report notification",
		zap.String("event_type", string(ev.Type)),
		zap.String("report_id", ev.ReportID.String()),
		zap.String("building", string(ev.Building)),
		zap.String("status", string(ev.Status)),
	)
	return nil
}

func (l *Log) Close() error {
	return nil
}

// NewSender picks the sender named by cfg.NotifyDriver.
func NewSender(cfg *config.Config, logger *zap.Logger) (Sender, error) {
	switch cfg.NotifyDriver {
	case "http":
		return NewHTTP(cfg.NotifyURL, cfg.NotifyAPIKey, logger), nil
	case "kafka":
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case "rabbitmq":
		return NewRabbitMQ(cfg.AMQPURL, cfg.AMQPQueue, logger), nil
	}
	return NewLog(logger), nil
}
