package zeen

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds account and token options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	// GetTokenExpiration is the session token duration in hours
	GetTokenExpiration() int
	// GetExtendedTokenDuration is the "remember me" session duration in hours
	GetExtendedTokenDuration() int
	// GetActionTokenExpiration is the default confirm/reset/change-email
	// token duration in seconds
	GetActionTokenExpiration() int
	GetAdminEmail() string
}

// Notifier delivers account emails. Implementations own the transport.
type Notifier interface {
	SendConfirmation(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
	SendEmailChange(ctx context.Context, user *User, newEmail, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ZEEN "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ZEEN "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ZEEN "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ZEEN "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

// LogNotifier writes account links to the logger instead of sending email.
type LogNotifier struct {
	Logger        Logger
	BaseURL       string
	SubjectPrefix string
	Sender        string
}

// NewLogNotifier returns a Notifier suitable for development
func NewLogNotifier(logger Logger, baseURL string) *LogNotifier {
	return &LogNotifier{Logger: normalizeLogger(logger), BaseURL: baseURL}
}

// WithSubjectPrefix sets the text put in front of every subject, e.g. "[Zeen]"
func (n *LogNotifier) WithSubjectPrefix(prefix string) *LogNotifier {
	n.SubjectPrefix = strings.TrimSpace(prefix)
	return n
}

// WithSender sets the From address
func (n *LogNotifier) WithSender(sender string) *LogNotifier {
	n.Sender = strings.TrimSpace(sender)
	return n
}

func (n *LogNotifier) SendConfirmation(_ context.Context, user *User, token string) error {
	n.print(user.Email, "Confirm Your Account", "/auth/confirm/"+token)
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user *User, token string) error {
	n.print(user.Email, "Reset Your Password", "/auth/reset/"+token)
	return nil
}

func (n *LogNotifier) SendEmailChange(_ context.Context, _ *User, newEmail, token string) error {
	n.print(newEmail, "Confirm your email address", "/auth/change-email/"+token)
	return nil
}

// Subject returns subject with the configured prefix
func (n *LogNotifier) Subject(subject string) string {
	if n.SubjectPrefix == "" {
		return subject
	}
	return n.SubjectPrefix + " " + subject
}

func (n *LogNotifier) print(to, subject, path string) {
	normalizeLogger(n.Logger).Info("email notification from=%q to=%s subject=%q link=%s%s",
		n.Sender, to, n.Subject(subject), n.BaseURL, path)
}
