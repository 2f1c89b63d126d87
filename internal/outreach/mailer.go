package outreach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/types"
)

// DefaultSMTPPort is the STARTTLS submission port.
const DefaultSMTPPort = 587

// Provider names a mail provider with known SMTP settings.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
	ProviderOther   Provider = "other"
)

// Account holds SMTP credentials and the sender identity.
type Account struct {
	SMTPServer string
	SMTPPort   int
	Email      string
	Password   string
	SenderName string
	EnableSSL  bool
	Provider   Provider
}

// ProviderDefaults returns the SMTP settings known for provider.
func ProviderDefaults(provider Provider) Account {
	switch Provider(strings.ToLower(string(provider))) {
	case ProviderGmail:
		return Account{SMTPServer: "smtp.gmail.com", SMTPPort: DefaultSMTPPort, EnableSSL: true, Provider: ProviderGmail}
	case ProviderOutlook:
		return Account{SMTPServer: "smtp-mail.outlook.com", SMTPPort: DefaultSMTPPort, EnableSSL: true, Provider: ProviderOutlook}
	}
	return Account{SMTPPort: DefaultSMTPPort, EnableSSL: true, Provider: ProviderOther}
}

// WithProviderDefaults fills unset SMTP fields from the provider's defaults.
func (a Account) WithProviderDefaults() Account {
	d := ProviderDefaults(a.Provider)
	if a.SMTPServer == "" {
		a.SMTPServer = d.SMTPServer
	}
	if a.SMTPPort == 0 {
		a.SMTPPort = d.SMTPPort
	}
	if a.Provider == "" {
		a.Provider = d.Provider
	}
	return a
}

// CanSend reports whether the account has everything SMTP delivery needs.
func (a Account) CanSend() error {
	var missing []string
	if a.SMTPServer == "" {
		missing = append(missing, "smtp server")
	}
	if a.SMTPPort <= 0 {
		missing = append(missing, "smtp port")
	}
	if a.Email == "" {
		missing = append(missing, "email")
	}
	if a.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("email account incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Sender transmits prepared messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Delivery describes a completed draft or send.
type Delivery struct {
	Mode      types.EmailMode
	Recipient string
	Subject   string
	DraftPath string
}

// Mailer drafts or sends outreach for postings.
type Mailer struct {
	account   Account
	composer  Composer
	draftsDir string
	sender    Sender
	now       func() time.Time
	log       *zap.SugaredLogger
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSender replaces the SMTP client built from the account.
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// WithClock sets the clock used for draft file names.
func WithClock(now func() time.Time) Option {
	return func(m *Mailer) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Mailer) { m.log = logging.OrNop(l) }
}

// NewMailer returns a mailer writing drafts under draftsDir.
func NewMailer(account Account, draftsDir string, opts ...Option) *Mailer {
	account = account.WithProviderDefaults()
	m := &Mailer{
		account:   account,
		composer:  Composer{SenderName: account.SenderName, SenderEmail: account.Email},
		draftsDir: draftsDir,
		now:       time.Now,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliver composes the outreach message for posting and drafts or sends it
// according to the profile's email mode.
func (m *Mailer) Deliver(ctx context.Context, posting *types.Posting, profile *types.UserProfile) (Delivery, error) {
	mode := types.EmailModeDraft
	if profile != nil && profile.EmailMode != "" {
		mode = profile.EmailMode
	}
	d := Delivery{Mode: mode, Recipient: posting.ContactEmail}
	if posting.ContactEmail == "" {
		return d, &DeliveryError{Mode: string(mode), Message: "posting has no contact email"}
	}

	composed, err := m.composer.Compose(posting, profile)
	if err != nil {
		return d, &DeliveryError{Mode: string(mode), Recipient: d.Recipient, Message: "failed to compose", Cause: err}
	}
	d.Subject = composed.Subject

	msg, err := m.build(composed)
	if err != nil {
		return d, &DeliveryError{Mode: string(mode), Recipient: d.Recipient, Message: "failed to build message", Cause: err}
	}

	log := m.log.With(logging.FieldCompany, posting.Company, logging.FieldTitle, posting.Title)
	switch mode {
	case types.EmailModeSend:
		if err := m.send(ctx, msg); err != nil {
			return d, &DeliveryError{Mode: string(mode), Recipient: d.Recipient, Message: "smtp delivery failed", Cause: err}
		}
		log.Infow("Email sent", "to", d.Recipient)
	default:
		path, err := m.draft(msg, posting)
		if err != nil {
			return d, &DeliveryError{Mode: string(mode), Recipient: d.Recipient, Message: "failed to save draft", Cause: err}
		}
		d.DraftPath = path
		log.Infow("Email draft saved", "path", path)
	}
	return d, nil
}

func (m *Mailer) build(c *Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if c.From != "" {
		if err := msg.FromFormat(c.FromName, c.From); err != nil {
			return nil, fmt.Errorf("invalid sender: %w", err)
		}
	}
	if err := msg.To(c.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(c.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, c.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, c.HTML)

	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); err == nil {
			msg.AttachFile(c.Resume)
		} else {
			m.log.Warnw("CV file not found", "path", c.Resume)
		}
	}
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, msg *mail.Msg) error {
	if err := m.account.CanSend(); err != nil {
		return err
	}
	sender := m.sender
	if sender == nil {
		client, err := m.client()
		if err != nil {
			return err
		}
		sender = client
	}
	return sender.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) client() (*mail.Client, error) {
	policy := mail.NoTLS
	if m.account.EnableSSL {
		policy = mail.TLSMandatory
	}
	return mail.NewClient(m.account.SMTPServer,
		mail.WithPort(m.account.SMTPPort),
		mail.WithTLSPolicy(policy),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.account.Email),
		mail.WithPassword(m.account.Password),
	)
}

func (m *Mailer) draft(msg *mail.Msg, posting *types.Posting) (string, error) {
	if err := os.MkdirAll(m.draftsDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(m.draftsDir, DraftFileName(posting, m.now()))
	if err := msg.WriteToFile(path); err != nil {
		return "", err
	}
	return path, nil
}

var draftNameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// DraftFileName returns "{Company}_{Title}_{yyyyMMdd_HHmmss}.eml" with
// spaces and path separators replaced by underscores.
func DraftFileName(posting *types.Posting, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.eml", posting.Company, posting.Title, at.Format("20060102_150405"))
	return draftNameReplacer.Replace(name)
}
