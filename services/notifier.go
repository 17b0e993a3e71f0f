package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"amtrak-price-tracker/config"
	"amtrak-price-tracker/models"
	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

// Sink delivers user notifications. Delivery is fire-and-forget: failures are
// logged by the sink and never returned.
type Sink interface {
	Notify(ctx context.Context, kind models.NotificationKind, trip *models.Trip, nc models.NotificationContext)
}

// Message renders the title and body shown for a notification
func Message(kind models.NotificationKind, trip *models.Trip, nc models.NotificationContext) (string, string) {
	date, err := models.FormatTravelDate(trip.TravelDate)
	if err != nil {
		date = trip.TravelDate
	}
	train := "Your train"
	if trip.TrainNumber != "" {
		train = "Train " + trip.TrainNumber
	}

	switch kind {
	case models.NotifyPriceDrop:
		title := fmt.Sprintf("Price drop: %s", trip.Route())
		body := fmt.Sprintf("%s on %s is now $%.2f (you paid $%.2f). You could save $%.2f.",
			train, date, nc.CurrentPrice, trip.PricePaid, nc.Savings)
		return title, body
	case models.NotifyTrainNotFound:
		title := fmt.Sprintf("Train not found: %s", trip.Route())
		body := fmt.Sprintf("%s was not in the results for %s. Tracking the lowest fare on the route ($%.2f) instead.",
			train, date, nc.CurrentPrice)
		return title, body
	default:
		return string(kind), trip.Route()
	}
}

// LogSink writes notifications to the log when notifications are enabled
type LogSink struct {
	settings storage.SettingsStore
	logger   *utils.Logger
}

// NewLogSink creates a sink gated by Settings.NotificationsEnabled
func NewLogSink(settings storage.SettingsStore, logger *utils.Logger) *LogSink {
	return &LogSink{settings: settings, logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, kind models.NotificationKind, trip *models.Trip, nc models.NotificationContext) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("Could not read settings for notification: %v", err)
		return
	}
	if !st.NotificationsEnabled {
		return
	}
	title, body := Message(kind, trip, nc)
	s.logger.Info("🔔 %s | %s", title, body)
}

// sendFunc matches (*email.Email).Send so delivery can be faked in tests
type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

// EmailSink mails notifications to the address in settings
type EmailSink struct {
	smtp     config.SMTPConfig
	settings storage.SettingsStore
	logger   *utils.Logger
	send     sendFunc
}

// NewEmailSink creates a sink sending through the configured SMTP server
func NewEmailSink(cfg config.SMTPConfig, settings storage.SettingsStore, logger *utils.Logger) *EmailSink {
	return &EmailSink{smtp: cfg, settings: settings, logger: logger, send: sendMail}
}

func (s *EmailSink) Notify(ctx context.Context, kind models.NotificationKind, trip *models.Trip, nc models.NotificationContext) {
	ctx, span := tracer.Start(ctx, "EmailSink.Notify")
	defer span.End()

	st, err := s.settings.Get(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Could not read settings for email: %v", err)
		return
	}
	if !st.EmailEnabled || strings.TrimSpace(st.EmailAddress) == "" {
		return
	}
	if s.smtp.Server == "" {
		s.logger.Debug("Email enabled but no SMTP server configured, skipping")
		return
	}

	title, body := Message(kind, trip, nc)
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Fare Tracker <%s>", s.smtp.EmailAddress)
	mail.To = []string{strings.TrimSpace(st.EmailAddress)}
	mail.Subject = title
	mail.Text = []byte(body + "\n")

	addr := fmt.Sprintf("%s:%d", s.smtp.Server, s.smtp.Port)
	err = s.send(mail, addr, smtp.PlainAuth("", s.smtp.EmailAddress, s.smtp.Password, s.smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		s.logger.Error("Failed to email %s notification for %s: %v", kind, trip.Route(), err)
		return
	}
	s.logger.Debug("Emailed %s notification to %s", kind, st.EmailAddress)
}

// MultiSink fans a notification out to several sinks
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, kind models.NotificationKind, trip *models.Trip, nc models.NotificationContext) {
	for _, s := range m {
		s.Notify(ctx, kind, trip, nc)
	}
}
