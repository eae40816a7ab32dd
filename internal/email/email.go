package email

import (
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/carebridge/booking-api/internal/config"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/pkg/circuitbreaker"
)

// Service sends transactional mail. Callers treat failures as
// best-effort: a booking never fails because its confirmation mail did.
type Service interface {
	SendBookingConfirmation(to string, appt *model.Appointment) error
	SendIntegratedBookingConfirmation(to string, home, video *model.Appointment) error
	SendAppointmentActioned(to string, appt *model.Appointment) error
	SendProviderModerated(to, providerName string, status model.ApprovalStatus) error
}

type smtpService struct {
	dialer  *gomail.Dialer
	from    string
	breaker *circuitbreaker.CircuitBreaker
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

// send goes through a circuit breaker so a dead SMTP relay does not make
// every request wait out a dial timeout.
func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendBookingConfirmation(to string, appt *model.Appointment) error {
	body := fmt.Sprintf(
		"<p>Your %s appointment is booked for %s.</p><p>It is pending provider approval.</p>",
		appt.Service,
		appt.AppointmentTime.Format(time.RFC1123),
	)
	return s.send(to, "Appointment booked", body)
}

func (s *smtpService) SendIntegratedBookingConfirmation(to string, home, video *model.Appointment) error {
	body := fmt.Sprintf(
		"<p>Your integrated care booking is confirmed.</p>"+
			"<p>Home care visit: %s</p><p>Video consultation: %s</p>",
		home.AppointmentTime.Format(time.RFC1123),
		video.AppointmentTime.Format(time.RFC1123),
	)
	return s.send(to, "Integrated care booked", body)
}

func (s *smtpService) SendAppointmentActioned(to string, appt *model.Appointment) error {
	body := fmt.Sprintf(
		"<p>Your %s appointment on %s is now %s.</p>",
		appt.Service,
		appt.AppointmentTime.Format(time.RFC1123),
		appt.Status,
	)
	return s.send(to, fmt.Sprintf("Appointment %s", appt.Status), body)
}

func (s *smtpService) SendProviderModerated(to, providerName string, status model.ApprovalStatus) error {
	var body string
	switch status {
	case model.ApprovalStatusApproved:
		body = fmt.Sprintf("<p>Hi %s, your provider application has been approved. You can now receive bookings.</p>", providerName)
	case model.ApprovalStatusRejected:
		body = fmt.Sprintf("<p>Hi %s, your provider application was not approved. Contact support for details.</p>", providerName)
	default:
		body = fmt.Sprintf("<p>Hi %s, your provider application status is now %s.</p>", providerName, status)
	}
	return s.send(to, "Provider application update", body)
}
