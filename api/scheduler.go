/*
scheduler.go - Scheduled weekly region refresh

PURPOSE:
  Periodically computes the last complete workweek's Pareto report for each
  configured region. Each run lands in the run log and updates the NBOT
  gauges, so dashboards scraping /metrics see fresh numbers without anyone
  calling the API.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Regions are refreshed concurrently, at most MaxParallel at a time
  - A region with no data is logged and skipped; it does not fail the others
  - Nothing is cached: the report is discarded once its run is recorded

CONFIGURATION:
  - Interval:    How often to refresh (REFRESH_INTERVAL, default 24h)
  - Regions:     Which regions (REFRESH_REGIONS); none disables the scheduler
  - WeekAnchor:  Any date on which workweeks start (WEEK_ANCHOR, default 2024-01-01, a Monday)

USAGE:
  scheduler := NewRefreshScheduler(svc, []string{"West", "East"}, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - report/service.go: Run
  - metrics/metrics.go: nbot_total_ot_hours, nbot_pareto_sites
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/report"
)

// DefaultWeekAnchor is a Monday; workweeks run Monday through Sunday.
var DefaultWeekAnchor = generic.NewTimePoint(2024, time.January, 1)

// RefreshResult is the outcome of one region's refresh.
type RefreshResult struct {
	Region string
	RunID  string
	Err    error
}

// RefreshScheduler runs region reports on an interval.
type RefreshScheduler struct {
	Service     *report.Service
	Regions     []string
	Interval    time.Duration
	WeekAnchor  generic.TimePoint
	MaxParallel int
	Enabled     bool
	Logger      *slog.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefreshScheduler creates a new scheduler. It is disabled when regions is empty.
func NewRefreshScheduler(svc *report.Service, regions []string, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		Service:     svc,
		Regions:     regions,
		Interval:    24 * time.Hour,
		WeekAnchor:  DefaultWeekAnchor,
		MaxParallel: 4,
		Enabled:     len(regions) > 0,
		Logger:      logger.With("component", "refresh_scheduler"),
		now:         time.Now,
	}
}

// Start begins the scheduler.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("started", "interval", rs.Interval, "regions", rs.Regions)
}

// Stop stops the scheduler and waits for an in-flight refresh.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("stopped")
	}
}

func (rs *RefreshScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	rs.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			rs.refresh(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow refreshes every region immediately and returns per-region results.
func (rs *RefreshScheduler) RunNow(ctx context.Context) []RefreshResult {
	return rs.refresh(ctx)
}

// Period returns the workweek the next refresh will report on.
func (rs *RefreshScheduler) Period() generic.Period {
	return generic.PreviousWeek(generic.DayOf(rs.now()), rs.WeekAnchor)
}

// GetNextRunTime returns when the next scheduled refresh will occur.
func (rs *RefreshScheduler) GetNextRunTime() time.Time {
	return rs.now().Add(rs.Interval)
}

func (rs *RefreshScheduler) refresh(ctx context.Context) []RefreshResult {
	period := rs.Period()
	results := make([]RefreshResult, len(rs.Regions))

	g, gCtx := errgroup.WithContext(ctx)
	if rs.MaxParallel > 0 {
		g.SetLimit(rs.MaxParallel)
	}
	for i, region := range rs.Regions {
		i, region := i, region
		g.Go(func() error {
			results[i] = rs.refreshRegion(gCtx, region, period)
			// Regions are independent; one failure never cancels the rest.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	rs.Logger.Info("refresh complete", "period", period.String(), "regions", len(results), "failed", failed)
	return results
}

func (rs *RefreshScheduler) refreshRegion(ctx context.Context, region string, period generic.Period) RefreshResult {
	res := RefreshResult{Region: region}
	rep, err := rs.Service.Run(ctx, report.Request{
		Mode:    report.ModeRegion,
		Region:  region,
		Period:  period,
		Trigger: "scheduler",
	})
	if err != nil {
		res.Err = err
		if generic.IsNotFound(err) {
			rs.Logger.Info("no shifts for region", "region", region, "period", period.String())
		} else {
			rs.Logger.Error("region refresh failed", "region", region, "error", err)
		}
		return res
	}
	res.RunID = rep.RunID
	return res
}
