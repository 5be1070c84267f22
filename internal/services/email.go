package services

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/spacebook-api/internal/config"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/wneessen/go-mail"
)

var decisionTemplate = template.Must(template.New("decision").Parse(`<html>
<body>
	<h2>Your reservation was {{.Status}}</h2>
	<p>Hi {{.Organizer}},</p>
	<p>Your reservation <strong>{{.Name}}</strong> in <strong>{{.Space}}</strong>
	from {{.StartsAt}} to {{.EndsAt}} has been <strong>{{.Status}}</strong>.</p>
	{{if .URL}}<p><a href="{{.URL}}">View reservation</a></p>{{end}}
</body>
</html>`))

type EmailService struct {
	cfg     config.SMTPConfig
	baseURL string
	loc     *time.Location
}

func NewEmailService(cfg config.SMTPConfig, baseURL string, loc *time.Location) *EmailService {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailService{cfg: cfg, baseURL: baseURL, loc: loc}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) client() (*mail.Client, error) {
	port, err := strconv.Atoi(s.cfg.Port)
	if err != nil {
		port = 587
	}
	return mail.NewClient(s.cfg.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
}

func (s *EmailService) send(ctx context.Context, msg *mail.Msg) error {
	c, err := s.client()
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// DecisionMessage builds the notice telling the organizer that their
// reservation was approved or rejected.
func (s *EmailService) DecisionMessage(r *models.Reservation, organizer *models.User, space *models.Space) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat("Spacebook", s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(organizer.Name, organizer.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Reservation %s: %s", r.Status, r.Name))

	body, err := s.renderDecision(r, organizer, space)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (s *EmailService) renderDecision(r *models.Reservation, organizer *models.User, space *models.Space) (string, error) {
	data := struct {
		Status, Organizer, Name, Space, StartsAt, EndsAt, URL string
	}{
		Status:    r.Status.String(),
		Organizer: organizer.Name,
		Name:      r.Name,
		Space:     space.Name,
		StartsAt:  r.StartsAt.In(s.loc).Format("Mon Jan 2 2006 15:04"),
		EndsAt:    r.EndsAt.In(s.loc).Format("15:04 MST"),
	}
	if s.baseURL != "" {
		data.URL = fmt.Sprintf("%s/reservations/%s", s.baseURL, r.ID)
	}

	var buf strings.Builder
	if err := decisionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render mail body: %w", err)
	}
	return buf.String(), nil
}

// SendReservationDecision is a no-op when SMTP is not configured.
func (s *EmailService) SendReservationDecision(ctx context.Context, r *models.Reservation, organizer *models.User, space *models.Space) error {
	if !s.IsConfigured() {
		return nil
	}
	msg, err := s.DecisionMessage(r, organizer, space)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}
