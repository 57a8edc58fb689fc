package trusted

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender is trusted enough to bypass analysis
// entirely. Mail from trusted senders or domains forwards clean without
// ever entering the holding area.
type Checker struct {
	senders map[string]struct{}
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new trusted-sender checker
func NewChecker(senders, domains []string, logger *zap.Logger) *Checker {
	c := &Checker{
		senders: make(map[string]struct{}, len(senders)),
		domains: make(map[string]struct{}, len(domains)),
		logger:  logger,
	}
	for _, s := range senders {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			c.senders[s] = struct{}{}
		}
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			c.domains[d] = struct{}{}
		}
	}

	if (len(c.senders) > 0 || len(c.domains) > 0) && logger != nil {
		logger.Info("Initialized trusted-sender checker",
			zap.Int("senders", len(c.senders)),
			zap.Int("domains", len(c.domains)))
	}
	return c
}

// IsTrusted checks the sender address and its domain against the
// configured lists.
func (c *Checker) IsTrusted(from string) bool {
	addr := strings.ToLower(strings.TrimSpace(from))
	if _, ok := c.senders[addr]; ok {
		return true
	}

	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return false
	}
	if _, ok := c.domains[parts[1]]; ok {
		if c.logger != nil {
			c.logger.Debug("Sender domain is trusted", zap.String("domain", parts[1]))
		}
		return true
	}
	return false
}
