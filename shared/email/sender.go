package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/flyability"
)

//go:embed templates/advisory.html
var advisoryTemplate string

const maxReasonsPerDay = 3

var tmpl = template.Must(template.New("advisory").Funcs(template.FuncMap{
	"lightClass":    lightClass,
	"severityClass": severityClass,
	"topReasons":    topReasons,
	"hourOf":        hourOf,
	"deref":         func(v *float64) float64 { return *v },
}).Parse(advisoryTemplate))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendAdvisory emails the advisory. Advisories without a flyable day are
// not sent.
func (s *Sender) SendAdvisory(advisory *models.FlightAdvisory) error {
	if advisory == nil {
		return fmt.Errorf("advisory cannot be nil")
	}

	days := advisory.FlyableDays()
	if len(days) == 0 {
		return nil
	}

	body, err := generateEmailBody(advisory)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(Subject(advisory), body)
}

// Subject names the site and the first flyable day.
func Subject(advisory *models.FlightAdvisory) string {
	days := advisory.FlyableDays()
	if len(days) == 0 {
		return fmt.Sprintf("Flight advisory for %s", advisory.Location.Name)
	}
	first := days[0]
	window := ""
	if first.BestWindow != nil {
		window = " " + first.BestWindow.String()
	}
	if len(days) == 1 {
		return fmt.Sprintf("Flyable day at %s: %s%s", advisory.Location.Name, first.Date, window)
	}
	return fmt.Sprintf("%d flyable days at %s, next %s%s", len(days), advisory.Location.Name, first.Date, window)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, s.config.FromEmail, to, msg)
}

func generateEmailBody(advisory *models.FlightAdvisory) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, advisory); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func lightClass(s flyability.Score) string {
	switch s {
	case flyability.Go:
		return "go"
	case flyability.Caution:
		return "caution"
	case flyability.NoGo:
		return "nogo"
	}
	return ""
}

func severityClass(s flyability.Severity) string {
	switch s {
	case flyability.SeverityRed:
		return "nogo"
	case flyability.SeverityYellow:
		return "caution"
	}
	return "go"
}

func topReasons(hints []flyability.ReasonHint) []flyability.ReasonHint {
	if len(hints) > maxReasonsPerDay {
		return hints[:maxReasonsPerDay]
	}
	return hints
}

// hourOf trims an hour key down to "15:00".
func hourOf(key string) string {
	if len(key) < len(flyability.TimeLayout) {
		return key
	}
	return key[11:]
}
