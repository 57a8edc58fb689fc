package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/pipeline"
	"github.com/gottmail/toneguard/internal/store"
	"go.uber.org/zap"
)

// SMTPFilter receives mail in the content-filter position, runs it
// through the protection pipeline, and relays the transformed message to
// the downstream hop.
type SMTPFilter struct {
	orchestrator      *pipeline.Orchestrator
	logger            *zap.Logger
	listenAddr        string
	server            *smtp.Server
	actionHeader      string
	scoreHeader       string
	reasonHeader      string
	downstreamAddr    string
	downstreamPort    int
	downstreamEnabled bool
	processTimeout    time.Duration
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	orchestrator *pipeline.Orchestrator,
	logger *zap.Logger,
	listenAddr string,
	actionHeader string,
	scoreHeader string,
	reasonHeader string,
	downstreamAddr string,
	downstreamPort int,
	downstreamEnabled bool,
	processTimeout time.Duration,
) *SMTPFilter {
	return &SMTPFilter{
		orchestrator:      orchestrator,
		logger:            logger,
		listenAddr:        listenAddr,
		actionHeader:      actionHeader,
		scoreHeader:       scoreHeader,
		reasonHeader:      reasonHeader,
		downstreamAddr:    downstreamAddr,
		downstreamPort:    downstreamPort,
		downstreamEnabled: downstreamEnabled,
		processTimeout:    processTimeout,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessMessage runs a single message through the pipeline. Used for
// testing and direct calls.
func (f *SMTPFilter) ProcessMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.ProtectionResult, error) {
	return f.orchestrator.Process(ctx, msg)
}

// sendDownstream relays the processed message to the next hop
func (f *SMTPFilter) sendDownstream(sender string, recipients []string, messageData []byte) error {
	addr := fmt.Sprintf("%s:%d", f.downstreamAddr, f.downstreamPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to downstream: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(messageData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_, _ string) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the message data
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(parsed)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	msg := &core.EphemeralMessage{
		ID:         messageID(parsed),
		Sender:     s.sender,
		Recipients: s.recipients,
		Subject:    parsed.Header.Get("Subject"),
		BodyText:   textContent,
	}
	if len(s.recipients) > 0 {
		msg.OwnerContext = s.recipients[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.filter.processTimeout)
	defer cancel()

	result, err := s.filter.orchestrator.Process(ctx, msg)
	if err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			// Backpressure: the upstream MTA queues and retries
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 3, 2},
				Message:      "Processing capacity exceeded, try again later",
			}
		}
		s.filter.logger.Error("Failed to process message",
			zap.Error(err),
			zap.String("message_id", msg.ID))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary processing failure",
		}
	}

	if !result.ShouldForward {
		s.filter.logger.Info("Blocking message",
			zap.String("message_id", msg.ID),
			zap.String("processing_id", result.ProcessingID),
			zap.Float64("score", result.ToxicityScore))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Message blocked (score: %.2f)", result.ToxicityScore),
		}
	}

	outgoing := s.rebuildMessage(parsed, rawData, result)

	if s.filter.downstreamEnabled {
		if err := s.filter.sendDownstream(s.sender, s.recipients, outgoing); err != nil {
			s.filter.logger.Error("Failed to relay message downstream",
				zap.Error(err),
				zap.String("message_id", msg.ID))
			return err
		}
	} else {
		s.filter.logger.Warn("Downstream relay disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Relayed message",
		zap.String("message_id", msg.ID),
		zap.String("processing_id", result.ProcessingID),
		zap.String("action", string(result.Action)),
		zap.Float64("score", result.ToxicityScore))

	return nil
}

// rebuildMessage writes the annotated headers and the decided body. A
// forward_clean action keeps the original body bytes (MIME parts and
// attachments intact); every other forwarding action replaces the body
// with the transformed plain text.
func (s *smtpSession) rebuildMessage(parsed *mail.Message, rawData []byte, result *core.ProtectionResult) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %s\r\n", s.filter.actionHeader, result.Action)
	fmt.Fprintf(&out, "%s: %.4f\r\n", s.filter.scoreHeader, result.ToxicityScore)
	fmt.Fprintf(&out, "%s: %s\r\n", s.filter.reasonHeader, sanitizeHeaderValue(result.Reasoning))

	replaceBody := result.Action != core.ActionForwardClean

	for key, values := range parsed.Header {
		if replaceBody && (strings.EqualFold(key, "Content-Type") || strings.EqualFold(key, "Content-Transfer-Encoding")) {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}

	if replaceBody {
		fmt.Fprintf(&out, "Content-Type: text/plain; charset=utf-8\r\n")
		fmt.Fprintf(&out, "\r\n")
		out.WriteString(result.ProcessedContent)
		out.WriteString("\r\n")
		return out.Bytes()
	}

	fmt.Fprintf(&out, "\r\n")
	out.Write(originalBody(rawData, parsed))
	return out.Bytes()
}

// originalBody returns the raw body bytes following the header block.
func originalBody(rawData []byte, parsed *mail.Message) []byte {
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		return rawData[idx+4:]
	}
	if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		return rawData[idx+2:]
	}
	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return nil
	}
	return body
}

// messageID uses the transport Message-Id when present so duplicate
// deliveries share an identity, otherwise generates one.
func messageID(parsed *mail.Message) string {
	if id := strings.Trim(parsed.Header.Get("Message-Id"), "<> \t"); id != "" {
		return id
	}
	return uuid.NewString()
}

func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
