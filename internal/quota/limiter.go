package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/virajbhatt/cardintel/constants"
)

// LedgerReader is the aggregate read surface the limiter needs. The full
// repository implements it; tests supply fakes.
type LedgerReader interface {
	MonthlyUnits(ctx context.Context, kind constants.ServiceKind, since time.Time) (int, error)
	HourlyAttempts(ctx context.Context, requesterID string, kind constants.ServiceKind, since time.Time) (count int, oldest time.Time, err error)
}

type Config struct {
	MonthlyCap     int           // hard ceiling, reported in decisions
	MonthlyBlockAt int           // blocking threshold, evaluated against prior usage only
	HourlyCap      int           // per-requester attempts in the sliding window
	HourlyWindow   time.Duration // sliding, not fixed-bucket
}

// MonthlyState describes the calendar-month window at decision time.
type MonthlyState struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	Percent   int `json:"percent"`
}

// HourlyState describes the trailing-hour window at decision time.
type HourlyState struct {
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// Decision is the ephemeral, per-request rate-limit verdict.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  string       `json:"reason,omitempty"`
	Monthly MonthlyState `json:"monthly"`
	Hourly  HourlyState  `json:"hourly"`
}

type Limiter struct {
	cfg    Config
	ledger LedgerReader
	log    *slog.Logger
	now    func() time.Time
}

func NewLimiter(cfg Config, ledger LedgerReader, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MonthlyCap <= 0 {
		cfg.MonthlyCap = constants.MonthlyUnitCap
	}
	if cfg.MonthlyBlockAt <= 0 {
		cfg.MonthlyBlockAt = constants.MonthlyBlockThreshold
	}
	if cfg.HourlyCap <= 0 {
		cfg.HourlyCap = constants.HourlyAttemptCap
	}
	if cfg.HourlyWindow <= 0 {
		cfg.HourlyWindow = constants.HourlyWindow
	}
	return &Limiter{cfg: cfg, ledger: ledger, log: logger, now: time.Now}
}

// UnitsFor is the quota cost of one extraction: one unit per supplied side.
func UnitsFor(hasBack bool) int {
	if hasBack {
		return 2
	}
	return 1
}

// CheckAllLimits decides whether a new extraction may proceed for the
// requester, under both windows. The monthly gate trips once PRIOR usage has
// reached the blocking threshold; the cost of the request being checked is
// not added first, so usage can land between the threshold and the hard cap.
//
// Fail-open policy: if either ledger read fails, the request is allowed with
// zero usage reported and the failure is logged at Error. A persistence
// outage must not take extraction down with it.
func (l *Limiter) CheckAllLimits(ctx context.Context, requesterID string) Decision {
	now := l.now()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthlyUsed, err := l.ledger.MonthlyUnits(ctx, constants.ServiceTextExtraction, monthStart)
	if err != nil {
		l.log.Error("quota.fail_open", "window", "monthly", "requester_id", requesterID, "error", err)
		return l.openDecision()
	}

	hourStart := now.Add(-l.cfg.HourlyWindow)
	hourlyUsed, oldest, err := l.ledger.HourlyAttempts(ctx, requesterID, constants.ServiceTextExtraction, hourStart)
	if err != nil {
		l.log.Error("quota.fail_open", "window", "hourly", "requester_id", requesterID, "error", err)
		return l.openDecision()
	}

	d := Decision{
		Allowed: true,
		Monthly: MonthlyState{
			Used:      monthlyUsed,
			Limit:     l.cfg.MonthlyCap,
			Remaining: max(l.cfg.MonthlyCap-monthlyUsed, 0),
			Percent:   monthlyUsed * 100 / l.cfg.MonthlyCap,
		},
		Hourly: HourlyState{
			Used:      hourlyUsed,
			Limit:     l.cfg.HourlyCap,
			Remaining: max(l.cfg.HourlyCap-hourlyUsed, 0),
		},
	}
	if hourlyUsed > 0 {
		resetAt := oldest.Add(l.cfg.HourlyWindow)
		d.Hourly.ResetAt = &resetAt
	}

	monthlyBlocked := monthlyUsed >= l.cfg.MonthlyBlockAt
	hourlyBlocked := hourlyUsed >= l.cfg.HourlyCap

	switch {
	case monthlyBlocked:
		d.Allowed = false
		d.Reason = fmt.Sprintf("monthly extraction quota reached (%d of %d units used)", monthlyUsed, l.cfg.MonthlyCap)
	case hourlyBlocked:
		d.Allowed = false
		reset := "within the hour"
		if d.Hourly.ResetAt != nil {
			reset = d.Hourly.ResetAt.Format(time.Kitchen)
		}
		d.Reason = fmt.Sprintf("hourly extraction limit reached (%d of %d); retry after %s", hourlyUsed, l.cfg.HourlyCap, reset)
	}

	l.log.Info("quota.decision",
		"requester_id", requesterID,
		"allowed", d.Allowed,
		"monthly_used", monthlyUsed,
		"hourly_used", hourlyUsed,
		"reason", d.Reason,
	)
	return d
}

func (l *Limiter) openDecision() Decision {
	return Decision{
		Allowed: true,
		Monthly: MonthlyState{Used: 0, Limit: l.cfg.MonthlyCap, Remaining: l.cfg.MonthlyCap},
		Hourly:  HourlyState{Used: 0, Limit: l.cfg.HourlyCap, Remaining: l.cfg.HourlyCap},
	}
}
