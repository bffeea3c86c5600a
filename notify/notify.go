package notify

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
	"gopkg.in/gomail.v2"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/kev"
)

// Mailer delivers one notification email per run covering the whole batch,
// never one email per record.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	dial     func() (gomail.SendCloser, error)
}

type option func(*Mailer)

func WithAuth(username, password string) option {
	return func(m *Mailer) {
		m.username = username
		m.password = password
	}
}

func WithFrom(from string) option {
	return func(m *Mailer) { m.from = from }
}

func WithTo(to []string) option {
	return func(m *Mailer) { m.to = to }
}

// WithDialFunc overrides the SMTP dialer. Tests use it to capture messages.
func WithDialFunc(dial func() (gomail.SendCloser, error)) option {
	return func(m *Mailer) { m.dial = dial }
}

func NewMailer(host string, port int, opts ...option) *Mailer {
	m := &Mailer{
		host: host,
		port: port,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.dial == nil {
		m.dial = func() (gomail.SendCloser, error) {
			return gomail.NewDialer(m.host, m.port, m.username, m.password).Dial()
		}
	}
	return m
}

// Send transmits the batch as a single plain-text message. An empty batch
// sends nothing.
func (m *Mailer) Send(vulns []kev.Vulnerability) error {
	if len(vulns) == 0 {
		return nil
	}
	if m.from == "" || len(m.to) == 0 {
		return xerrors.New("mail sender and recipients must be configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", Subject(vulns))
	msg.SetBody("text/plain", RenderBody(vulns))

	sc, err := m.dial()
	if err != nil {
		return xerrors.Errorf("unable to dial SMTP server %s:%d: %w", m.host, m.port, err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, msg); err != nil {
		return xerrors.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// Subject summarizes the batch: count plus the CVE identifiers.
func Subject(vulns []kev.Vulnerability) string {
	ids := lo.Map(vulns, func(v kev.Vulnerability, _ int) string {
		return v.CveID
	})
	return fmt.Sprintf("[KEV] %d new known exploited vulnerabilities: %s", len(vulns), strings.Join(ids, ", "))
}

// RenderBody renders the batch as the plain-text message body, one block
// per record in the order given.
func RenderBody(vulns []kev.Vulnerability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new entries in the CISA Known Exploited Vulnerabilities Catalog match your vendor terms.\n", len(vulns))
	for _, v := range vulns {
		fmt.Fprintf(&b, "\n%s: %s\n", v.CveID, v.VulnerabilityName)
		fmt.Fprintf(&b, "  Vendor:  %s\n", v.VendorProject)
		fmt.Fprintf(&b, "  Product: %s\n", v.Product)
		fmt.Fprintf(&b, "  Added:   %s\n", v.DateAdded.Format("2006-01-02"))
		if v.DueDate != nil {
			fmt.Fprintf(&b, "  Due:     %s\n", v.DueDate.Format("2006-01-02"))
		}
		if v.RequiredAction != "" {
			fmt.Fprintf(&b, "  Action:  %s\n", v.RequiredAction)
		}
		if v.ShortDescription != "" {
			fmt.Fprintf(&b, "  %s\n", v.ShortDescription)
		}
	}
	return b.String()
}
