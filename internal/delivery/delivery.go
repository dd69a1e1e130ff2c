/*
Package delivery transmits a composed message over an authenticated STARTTLS
SMTP session.

A session moves through Disconnected, Connected, Encrypted, Authenticated,
Sent and Closed. A failure in any state ends the attempt with a categorized
Outcome; there are no retries and the connection is always closed before
Deliver returns.
*/
package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// Defaults for the Gmail relay.
const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultTimeout = 30 * time.Second
)

// State is a step of the SMTP session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateEncrypted
	StateAuthenticated
	StateSent
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateEncrypted:
		return "encrypted"
	case StateAuthenticated:
		return "authenticated"
	case StateSent:
		return "sent"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Category classifies a failed delivery.
type Category string

const (
	CategoryNone         Category = ""
	CategoryAuth         Category = "auth"
	CategoryRecipient    Category = "recipient"
	CategoryDisconnected Category = "disconnected"
	CategoryTransport    Category = "transport"
)

// Hint returns operator guidance for a failure category.
func (c Category) Hint() string {
	switch c {
	case CategoryAuth:
		return "Check your Gmail App Password: https://support.google.com/accounts/answer/185833"
	case CategoryRecipient:
		return "The server refused a recipient address; check the recipient and BCC emails"
	case CategoryDisconnected:
		return "The server closed the connection unexpectedly; check your network and try again"
	case CategoryTransport:
		return "Check your network connection and SMTP settings"
	default:
		return ""
	}
}

// Outcome is the terminal result of one delivery attempt.
type Outcome struct {
	Success  bool
	Category Category
	// State is the last state reached before the session was closed.
	State State
	Err   string
}

// Error renders the outcome as "<category>: <detail>".
func (o Outcome) Error() string {
	if o.Success {
		return ""
	}
	if o.Err == "" {
		return string(o.Category)
	}
	return fmt.Sprintf("%s: %s", o.Category, o.Err)
}

// Message is what the client needs from a composed email.
type Message interface {
	Recipients() []string
	WriteTo(w io.Writer) (int64, error)
}

// Config holds the relay address and credentials.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	// TLSConfig overrides the STARTTLS configuration. ServerName defaults to Host.
	TLSConfig *tls.Config
}

func (c Config) addr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) tlsConfig() *tls.Config {
	if c.TLSConfig != nil {
		return c.TLSConfig.Clone()
	}
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

// Client sends messages through one relay.
type Client struct {
	cfg Config
}

// New creates a delivery client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}
}

// Deliver sends msg from the envelope sender to every recipient of msg.
func (c *Client) Deliver(ctx context.Context, from string, msg Message) Outcome {
	rcpts := Envelope(msg.Recipients())
	if len(rcpts) == 0 {
		return Outcome{Category: CategoryRecipient, Err: "no valid recipients found"}
	}

	s := &session{cfg: c.cfg}
	defer s.close()

	steps := []struct {
		name     string
		category Category
		run      func() error
	}{
		{"connect", CategoryTransport, func() error { return s.connect(ctx) }},
		{"starttls", CategoryTransport, s.starttls},
		{"auth", CategoryAuth, s.auth},
		{"mail", CategoryTransport, func() error { return s.client.Mail(from) }},
		{"rcpt", CategoryRecipient, func() error {
			for _, r := range rcpts {
				if err := s.client.Rcpt(r); err != nil {
					return fmt.Errorf("%s: %w", r, err)
				}
			}
			return nil
		}},
		{"data", CategoryTransport, func() error { return s.data(msg) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			category := classify(err, step.category)
			log.Debug("SMTP step failed", "step", step.name, "state", s.state, "category", category, "error", err)
			return Outcome{Category: category, State: s.state, Err: err.Error()}
		}
	}

	s.quit()
	log.Debug("Message delivered", "recipients", len(rcpts))
	return Outcome{Success: true, State: StateSent}
}

// Verify connects, upgrades to TLS and authenticates without sending anything.
func (c *Client) Verify(ctx context.Context) Outcome {
	s := &session{cfg: c.cfg}
	defer s.close()

	if err := s.connect(ctx); err != nil {
		return Outcome{Category: classify(err, CategoryTransport), State: s.state, Err: err.Error()}
	}
	if err := s.starttls(); err != nil {
		return Outcome{Category: classify(err, CategoryTransport), State: s.state, Err: err.Error()}
	}
	if err := s.auth(); err != nil {
		return Outcome{Category: classify(err, CategoryAuth), State: s.state, Err: err.Error()}
	}
	s.quit()
	return Outcome{Success: true, State: StateAuthenticated}
}

// Envelope trims and deduplicates recipient addresses. Duplicates are found
// case-insensitively and the first spelling is kept, since local parts may
// be case-sensitive.
func Envelope(addrs []string) []string {
	trimmed := lo.Compact(lo.Map(addrs, func(a string, _ int) string {
		return strings.TrimSpace(a)
	}))
	return lo.UniqBy(trimmed, strings.ToLower)
}

type session struct {
	cfg    Config
	conn   net.Conn
	client *smtp.Client
	state  State
}

func (s *session) connect(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.cfg.addr(), err)
	}
	// The whole session shares one deadline.
	_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	s.conn = conn

	host, _, _ := net.SplitHostPort(s.cfg.addr())
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	s.client = client
	s.state = StateConnected
	return nil
}

func (s *session) starttls() error {
	if ok, _ := s.client.Extension("STARTTLS"); !ok {
		return errors.New("server does not support STARTTLS")
	}
	if err := s.client.StartTLS(s.cfg.tlsConfig()); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}
	s.state = StateEncrypted
	return nil
}

func (s *session) auth() error {
	host, _, _ := net.SplitHostPort(s.cfg.addr())
	if err := s.client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	s.state = StateAuthenticated
	return nil
}

func (s *session) data(msg Message) error {
	w, err := s.client.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	s.state = StateSent
	return nil
}

func (s *session) quit() {
	if s.client == nil {
		return
	}
	if err := s.client.Quit(); err != nil {
		log.Debug("SMTP quit failed", "error", err)
	}
	s.client = nil
	s.conn = nil
}

func (s *session) close() {
	if s.client != nil {
		_ = s.client.Close()
	} else if s.conn != nil {
		_ = s.conn.Close()
	}
	s.client = nil
	s.conn = nil
}

// classify maps an SMTP or network error to a category, falling back to the
// category of the step that failed.
func classify(err error, fallback Category) Category {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return CategoryDisconnected
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 421:
			return CategoryDisconnected
		case 530, 534, 535:
			return CategoryAuth
		}
	}
	return fallback
}
