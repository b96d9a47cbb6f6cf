package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/you/tradeauth/domain"
)

// DispatcherConfig controls delivery buffering
type DispatcherConfig struct {
	Workers     int
	BufferSize  int
	SendTimeout time.Duration
}

// Dispatcher delivers OTP messages on background workers so that issuing a
// code never waits on an SMS or SMTP provider. A full buffer drops the
// delivery; the caller can always request a new code.
type Dispatcher struct {
	sms     domain.SMSSender
	email   domain.EmailSender
	logger  *slog.Logger
	timeout time.Duration

	ch        chan queued
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

type queued struct {
	ctx      context.Context
	delivery domain.Delivery
}

// NewDispatcher starts the delivery workers
func NewDispatcher(cfg DispatcherConfig, sms domain.SMSSender, email domain.EmailSender, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		sms:     sms,
		email:   email,
		logger:  logger,
		timeout: cfg.SendTimeout,
		ch:      make(chan queued, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case q := <-d.ch:
			d.deliver(q)
		case <-d.done:
			for {
				select {
				case q := <-d.ch:
					d.deliver(q)
				default:
					return
				}
			}
		}
	}
}

// Dispatch implements domain.DeliveryDispatcher. The request context is
// detached so a finished HTTP request does not cancel the send.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery domain.Delivery) {
	if d == nil || d.closed.Load() {
		return
	}

	select {
	case d.ch <- queued{ctx: context.WithoutCancel(ctx), delivery: delivery}:
	case <-d.done:
	default:
		d.dropped.Add(1)
		d.logger.WarnContext(ctx, "otp delivery dropped, queue full",
			"channel", delivery.Channel, "destination", delivery.Destination)
	}
}

func (d *Dispatcher) deliver(q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, d.timeout)
	defer cancel()

	var err error
	switch q.delivery.Channel {
	case domain.ChannelEmail:
		err = d.email.SendEmail(ctx, q.delivery.Destination, EmailSubject, FormatMessage(q.delivery))
	case domain.ChannelSMS:
		err = d.sms.SendSMS(ctx, q.delivery.Destination, FormatMessage(q.delivery))
	default:
		err = fmt.Errorf("unknown delivery channel %q", q.delivery.Channel)
	}

	if err != nil {
		d.logger.ErrorContext(ctx, "otp delivery failed",
			"channel", q.delivery.Channel, "destination", q.delivery.Destination, "error", err)
		return
	}
	d.logger.DebugContext(ctx, "otp delivered", "channel", q.delivery.Channel, "destination", q.delivery.Destination)
}

// Close stops accepting deliveries and waits for queued ones to finish
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many deliveries were discarded on a full queue
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// EmailSubject is the subject line of OTP emails
const EmailSubject = "Your verification code"

// FormatMessage renders the OTP text shared by SMS and email
func FormatMessage(delivery domain.Delivery) string {
	minutes := int(math.Ceil(delivery.ExpiresIn.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", delivery.Code, minutes)
}
