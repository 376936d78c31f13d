package ports

import (
	"context"

	"github.com/haninge-digit/zeebe-report/internal/domain"
)

// Mailer delivers a rendered report.
//
// Implementations return a *domain.AppError from the MAIL_* family on
// failure and never panic; the caller decides whether to continue.
type Mailer interface {
	// Send delivers html with the given subject to the configured recipient
	Send(ctx context.Context, subject, html string) error
}

// ReportRenderer turns a report context into an HTML document
type ReportRenderer interface {
	// Render must not modify rc.Totals and must be deterministic
	Render(rc domain.ReportContext) (string, error)
}

// Previewer shows a computed report on a console
type Previewer interface {
	Preview(period domain.Period, data domain.PeriodData, totals domain.ProcessTotals) error
}
