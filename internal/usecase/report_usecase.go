package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haninge-digit/zeebe-report/internal/domain"
	"github.com/haninge-digit/zeebe-report/internal/infra/logger"
	"github.com/haninge-digit/zeebe-report/internal/ports"
)

// ReportOptions controls which periods are mailed
type ReportOptions struct {
	Title    string
	Dispatch map[domain.PeriodKind]bool

	// WeekNumbering numbers weekly headers; empty means ISO weeks
	WeekNumbering domain.WeekNumbering

	// DryRun renders every period but sends nothing
	DryRun bool
}

// PeriodOutcome is the result of one report period
type PeriodOutcome struct {
	Period      domain.Period
	Totals      domain.ProcessTotals
	HTML        string
	Dispatched  bool
	DeliveryErr error
}

// ReportUseCase drives query, aggregation, rendering and delivery for
// every report period that applies to a given day
type ReportUseCase struct {
	index     ports.IndexQuerier
	renderer  ports.ReportRenderer
	mailer    ports.Mailer
	previewer ports.Previewer
	opts      ReportOptions
	logger    logger.Logger
	newRunID  func() string
}

// NewReportUseCase creates a new report use case. previewer may be nil.
func NewReportUseCase(
	index ports.IndexQuerier,
	renderer ports.ReportRenderer,
	mailer ports.Mailer,
	previewer ports.Previewer,
	opts ReportOptions,
	log logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		index:     index,
		renderer:  renderer,
		mailer:    mailer,
		previewer: previewer,
		opts:      opts,
		logger:    log,
		newRunID:  func() string { return uuid.New().String() },
	}
}

// Run produces the reports for today. Search and render failures abort the
// run and are returned; delivery failures are logged, recorded in the
// outcome and the run continues with the next period.
func (u *ReportUseCase) Run(ctx context.Context, today time.Time) ([]PeriodOutcome, error) {
	ctx = logger.WithRunID(ctx, u.newRunID())
	start := time.Now()

	if err := u.index.Ping(ctx); err != nil {
		u.logger.Error(ctx, "Search backend is not reachable", err, nil)
		return nil, err
	}

	periods := domain.PeriodsWithNumbering(today, u.opts.Title, u.opts.WeekNumbering)
	u.logger.Info(ctx, "Starting report run", map[string]interface{}{
		"today":   today.Format(domain.DateLayout),
		"periods": len(periods),
		"dry_run": u.opts.DryRun,
	})

	outcomes := make([]PeriodOutcome, 0, len(periods))
	for _, period := range periods {
		outcome, err := u.runPeriod(ctx, period)
		if err != nil {
			u.logger.Error(ctx, "Report run aborted", err, map[string]interface{}{"period": period.Kind})
			return outcomes, fmt.Errorf("%s report: %w", period.Kind, err)
		}
		outcomes = append(outcomes, outcome)
	}

	logger.LogPerformance(ctx, u.logger, "report run", time.Since(start), nil)
	return outcomes, nil
}

func (u *ReportUseCase) runPeriod(ctx context.Context, period domain.Period) (PeriodOutcome, error) {
	log := u.logger.WithFields(map[string]interface{}{
		"period": period.Kind,
		"header": period.Header,
	})

	dates := period.Dates()
	data, err := u.index.CollectPeriod(ctx, dates)
	if err != nil {
		return PeriodOutcome{}, err
	}
	totals := data.Totals()
	log.Debug(ctx, "Aggregated period", map[string]interface{}{
		"days":      len(dates),
		"processes": len(totals),
		"instances": totals.Sum(),
	})

	html, err := u.renderer.Render(domain.ReportContext{Header: period.Header, Totals: totals})
	if err != nil {
		return PeriodOutcome{}, err
	}

	outcome := PeriodOutcome{Period: period, Totals: totals, HTML: html}

	if u.previewer != nil {
		if err := u.previewer.Preview(period, data, totals); err != nil {
			log.Warn(ctx, "Could not print preview", map[string]interface{}{"error": err.Error()})
		}
	}

	switch {
	case u.opts.DryRun:
		log.Info(ctx, "Dry run, report not sent", nil)
	case !u.opts.Dispatch[period.Kind]:
		log.Info(ctx, "Dispatch disabled for period, report not sent", nil)
	default:
		if err := u.mailer.Send(ctx, period.Header, html); err != nil {
			if !domain.IsDeliveryError(err) {
				err = domain.ErrMailTransport(err)
			}
			outcome.DeliveryErr = err
			log.Error(ctx, "Report generated but not delivered", err, map[string]interface{}{
				"code": domain.ErrorCodeOf(err),
			})
			break
		}
		outcome.Dispatched = true
	}

	return outcome, nil
}
