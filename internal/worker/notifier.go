package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/email"
	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/messaging"
)

// Notifier subscribes to the scheduler's domain events and mails the people
// affected. Delivery here is best-effort on top of the outbox's
// at-least-once publishing; a failed mail is logged, never retried into the
// booking path.
type Notifier struct {
	broker messaging.Broker
	users  repository.UserRepository
	slots  repository.SlotTemplateRepository
	email  email.Service
	logger *logger.Logger
}

func NewNotifier(
	broker messaging.Broker,
	users repository.UserRepository,
	slots repository.SlotTemplateRepository,
	email email.Service,
	logger *logger.Logger,
) *Notifier {
	return &Notifier{
		broker: broker,
		users:  users,
		slots:  slots,
		email:  email,
		logger: logger,
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (n *Notifier) Start(ctx context.Context) error {
	channels := []string{
		model.EventBookingCommitted,
		model.EventSlotApproved,
		model.EventSlotRejected,
	}

	for _, channel := range channels {
		msgs, err := n.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		go n.consume(ctx, channel, msgs)
	}

	n.logger.Info("notifier started", "channels", channels)
	<-ctx.Done()
	return nil
}

func (n *Notifier) consume(ctx context.Context, channel string, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			if err := n.handle(ctx, channel, raw); err != nil {
				n.logger.Error(err, "failed to handle event", "channel", channel)
			}
		}
	}
}

func (n *Notifier) handle(ctx context.Context, channel string, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	switch channel {
	case model.EventBookingCommitted:
		var booking model.Booking
		if err := json.Unmarshal(env.Payload, &booking); err != nil {
			return fmt.Errorf("failed to decode booking: %w", err)
		}
		return n.notifyBooking(ctx, &booking)
	case model.EventSlotApproved, model.EventSlotRejected:
		var slot model.SlotTemplate
		if err := json.Unmarshal(env.Payload, &slot); err != nil {
			return fmt.Errorf("failed to decode slot template: %w", err)
		}
		return n.notifySlotDecision(ctx, &slot)
	}
	return nil
}

func (n *Notifier) notifyBooking(ctx context.Context, booking *model.Booking) error {
	slot, err := n.slots.Get(ctx, booking.SlotTemplateID)
	if err != nil {
		return err
	}

	date := booking.Date.Format("Monday, 2 Jan 2006")

	n.sendTo(ctx, booking.PatientID, "Booking confirmed",
		fmt.Sprintf("Your appointment on %s (%s) is confirmed.", date, slot.TimeSlot))
	n.sendTo(ctx, slot.DoctorID, "New booking",
		fmt.Sprintf("A patient booked your %s window on %s.", slot.TimeSlot, date))
	return nil
}

func (n *Notifier) notifySlotDecision(ctx context.Context, slot *model.SlotTemplate) error {
	subject := "Slot request approved"
	body := fmt.Sprintf("Your recurring %s slot on weekday %d is now open for booking.", slot.TimeSlot, slot.DayOfWeek)
	if slot.Status == model.SlotStatusRejected {
		subject = "Slot request rejected"
		reason := ""
		if slot.RejectReason != nil {
			reason = *slot.RejectReason
		}
		body = fmt.Sprintf("Your recurring %s slot request on weekday %d was rejected: %s", slot.TimeSlot, slot.DayOfWeek, reason)
	}

	n.sendTo(ctx, slot.DoctorID, subject, body)
	return nil
}

func (n *Notifier) sendTo(ctx context.Context, userID uuid.UUID, subject, body string) {
	user, err := n.users.Get(ctx, userID)
	if err != nil {
		n.logger.Error(err, "failed to look up recipient", "user_id", userID.String())
		return
	}
	if err := n.email.Send(user.Email, subject, body); err != nil {
		n.logger.Error(err, "failed to send email", "user_id", userID.String())
	}
}
