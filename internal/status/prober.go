// Package status implements the display-only liveness probe for the bot: a
// single check against the bot's HTTP surface, an HTML page and a JSON view.
package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/logging"
)

// State is the outcome of one check.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// Result describes one completed check.
type Result struct {
	State     State     `json:"state"`
	CheckedAt time.Time `json:"checked_at"`
	Detail    string    `json:"detail"`
	Target    string    `json:"target"`
}

// Online reports whether the bot answered with a success status.
func (r Result) Online() bool {
	return r.State == StateOnline
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// now is overridable for tests.
var now = func() time.Time {
	return time.Now().UTC()
}

// Prober checks a single target URL.
type Prober struct {
	target  string
	client  httpDoer
	timeout time.Duration
	logger  *logrus.Entry
}

// NewProber constructs a Prober. A nil client gets a default http.Client.
func NewProber(target string, timeout time.Duration, client httpDoer, logger *logrus.Entry) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Prober{
		target:  strings.TrimSpace(target),
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Check issues one GET to the target. A 2xx answer is online; any other
// status, transport failure, or timeout is offline. It always returns a
// resolved Result.
func (p *Prober) Check(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	result := p.check(ctx)
	result.CheckedAt = now()
	result.Target = p.target

	p.logger.WithFields(logging.Fields{
		"event":  "status_checked",
		"target": p.target,
		"state":  result.State,
		"detail": result.Detail,
	}).Info("status check complete")

	return result
}

func (p *Prober) check(ctx context.Context) Result {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return offline(fmt.Sprintf("build request: %v", err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return offline("timed out")
		}
		return offline(err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return offline(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	return Result{State: StateOnline, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
}

func offline(detail string) Result {
	return Result{State: StateOffline, Detail: detail}
}
