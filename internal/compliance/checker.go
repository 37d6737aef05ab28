package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

// Policy decides the outcome when the watchlist cannot be loaded.
type Policy string

const (
	PolicyFail    Policy = "fail"
	PolicyFlag    Policy = "flag"
	PolicyApprove Policy = "approve"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyFail, nil
	case PolicyFail, PolicyFlag, PolicyApprove:
		return p, nil
	default:
		return "", fmt.Errorf("unknown watchlist unavailable policy %q", s)
	}
}

// Checker matches a name against the watchlist, loading it fresh on every call.
type Checker struct {
	source  Source
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Checker)

func WithPolicy(p Policy) Option { return func(c *Checker) { c.policy = p } }

func WithTimeout(d time.Duration) Option { return func(c *Checker) { c.timeout = d } }

func WithLogger(l *slog.Logger) Option { return func(c *Checker) { c.logger = l } }

func NewChecker(source Source, opts ...Option) *Checker {
	c := &Checker{source: source, policy: PolicyFail}
	for _, o := range opts {
		o(c)
	}
	c.logger = common.LoggerOr(c.logger)
	return c
}

// Describe names the watchlist source.
func (c *Checker) Describe() string { return c.source.Describe() }

// Normalize is the comparison form of a name: trimmed and lower-cased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Entries loads and normalizes the watchlist, dropping blank entries.
func (c *Checker) Entries(ctx context.Context) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if n := Normalize(r); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

// Check returns Flagged when the normalized name equals a watchlist entry,
// Approved otherwise. Load failures follow the configured Policy.
func (c *Checker) Check(ctx context.Context, name string) (constants.ComplianceStatus, error) {
	start := time.Now()
	attrs := append(common.LogAttrs(ctx), "source", c.source.Describe())

	entries, err := c.Entries(ctx)
	if err != nil {
		switch c.policy {
		case PolicyFlag:
			c.logger.Warn("compliance.check.unavailable", append(attrs, "policy", string(c.policy), "outcome", constants.ComplianceFlagged, "error", err)...)
			return constants.ComplianceFlagged, nil
		case PolicyApprove:
			c.logger.Warn("compliance.check.unavailable", append(attrs, "policy", string(c.policy), "outcome", constants.ComplianceApproved, "error", err)...)
			return constants.ComplianceApproved, nil
		default:
			c.logger.Error("compliance.check.unavailable", append(attrs, "policy", string(PolicyFail), "error", err)...)
			return "", common.NewAppError(common.CodeWatchlistUnavailable, common.MsgWatchlistUnavailable, err)
		}
	}

	target := Normalize(name)
	status := constants.ComplianceApproved
	for _, e := range entries {
		if e == target {
			status = constants.ComplianceFlagged
			break
		}
	}

	event := "compliance.check.approved"
	if status == constants.ComplianceFlagged {
		event = "compliance.check.flagged"
	}
	c.logger.Info(event, append(attrs, "entries", len(entries), "elapsed_ms", time.Since(start).Milliseconds())...)
	return status, nil
}
