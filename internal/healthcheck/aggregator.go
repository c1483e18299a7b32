package healthcheck

import (
	"context"
	"log/slog"
	"sync"
)

// Report is the aggregated health of every registered checker.
type Report struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// Healthy reports whether no check failed. Warnings still count as healthy.
func (r Report) Healthy() bool {
	return r.Status != StatusError
}

// Aggregator runs checkers concurrently and folds their results.
type Aggregator struct {
	checkers []Checker
	logger   *slog.Logger
}

// NewAggregator creates an aggregator. Nil checkers are ignored.
func NewAggregator(log *slog.Logger, checkers ...Checker) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	kept := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Aggregator{
		checkers: kept,
		logger:   log.With(slog.String("service", "healthcheck")),
	}
}

// Run evaluates all checkers. Results keep registration order.
func (a *Aggregator) Run(ctx context.Context) Report {
	if a == nil || len(a.checkers) == 0 {
		return Report{Status: StatusUnknown, Checks: []CheckResult{}}
	}
	perChecker := make([][]CheckResult, len(a.checkers))
	var wg sync.WaitGroup
	for idx, checker := range a.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perChecker[idx] = checker.ListChecks(ctx)
		}()
	}
	wg.Wait()

	report := Report{Status: StatusOK, Checks: make([]CheckResult, 0, len(a.checkers))}
	for _, items := range perChecker {
		for _, item := range items {
			report.Checks = append(report.Checks, item)
			report.Status = worst(report.Status, item.Status)
		}
	}
	if report.Status == StatusError {
		a.logger.Warn("health check failed", slog.Int("checks", len(report.Checks)))
	}
	return report
}

func worst(current, next string) string {
	if rank(next) > rank(current) {
		return next
	}
	return current
}

func rank(status string) int {
	switch status {
	case StatusError:
		return 3
	case StatusWarn:
		return 2
	case StatusUnknown:
		return 1
	default:
		return 0
	}
}
