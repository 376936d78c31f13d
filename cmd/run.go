package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/haninge-digit/zeebe-report/internal/adapter/console"
	"github.com/haninge-digit/zeebe-report/internal/adapter/mail"
	"github.com/haninge-digit/zeebe-report/internal/adapter/render"
	"github.com/haninge-digit/zeebe-report/internal/adapter/search"
	"github.com/haninge-digit/zeebe-report/internal/config"
	"github.com/haninge-digit/zeebe-report/internal/domain"
	"github.com/haninge-digit/zeebe-report/internal/infra/logger"
	"github.com/haninge-digit/zeebe-report/internal/ports"
	"github.com/haninge-digit/zeebe-report/internal/usecase"
)

// runFlags holds the flags of the run command
type runFlags struct {
	today   string
	dryRun  bool
	preview bool
	envFile string
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce and mail the reports that apply to today.",
	Long: `Run queries one Elasticsearch index per day, totals the started process
instances per BPMN process and mails an HTML report for every period that
applies: monthly on the 1st, weekly on Mondays and daily on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runReports(ctx, runOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.today, "today", "", "report as if run on this date (YYYY-MM-DD), defaults to the local date")
	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false, "render the reports but do not send them")
	runCmd.Flags().BoolVar(&runOpts.preview, "preview", false, "print a summary of every report to stdout")
	runCmd.Flags().StringVar(&runOpts.envFile, "env-file", "", "load environment variables from this file")
}

// runReports wires the adapters from configuration and runs the report use case
func runReports(ctx context.Context, flags runFlags, stdout, stderr io.Writer) error {
	today, err := resolveToday(flags.today, time.Now())
	if err != nil {
		return err
	}

	var envFiles []string
	if flags.envFile != "" {
		envFiles = append(envFiles, flags.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	log := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "zeebe-report",
		Output:      stderr,
	})

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "Invalid configuration", err, nil)
		return err
	}
	if !cfg.HasMailCredentials() && !flags.dryRun {
		log.Warn(ctx, "Azure AD credentials are not set, reports cannot be delivered", nil)
	}

	index, err := search.NewElasticIndex(cfg.Search, log)
	if err != nil {
		return err
	}
	renderer, err := render.NewPongoRenderer(cfg.Template)
	if err != nil {
		log.Error(ctx, "Could not load report template", err, map[string]interface{}{"template": cfg.Template.Name})
		return err
	}
	mailer := mail.NewGraphMailer(cfg.Mail, log)
	weeks, err := domain.ParseWeekNumbering(cfg.Report.WeekNumbering)
	if err != nil {
		return domain.ErrConfiguration(err.Error())
	}

	var previewer ports.Previewer
	if flags.preview {
		previewer = console.NewPreviewer(stdout, !color.NoColor)
	}

	uc := usecase.NewReportUseCase(index, renderer, mailer, previewer, usecase.ReportOptions{
		Title: cfg.Report.Title,
		Dispatch: map[domain.PeriodKind]bool{
			domain.PeriodDaily:   cfg.DispatchEnabled(domain.PeriodDaily),
			domain.PeriodWeekly:  cfg.DispatchEnabled(domain.PeriodWeekly),
			domain.PeriodMonthly: cfg.DispatchEnabled(domain.PeriodMonthly),
		},
		WeekNumbering: weeks,
		DryRun:        flags.dryRun,
	}, log)

	outcomes, err := uc.Run(ctx, today)
	if err != nil {
		return err
	}

	sent := 0
	for _, o := range outcomes {
		if o.Dispatched {
			sent++
		}
	}
	log.Info(ctx, "Report run finished", map[string]interface{}{
		"today":   today.Format(domain.DateLayout),
		"reports": len(outcomes),
		"sent":    sent,
	})
	return nil
}

// resolveToday parses the --today flag, falling back to the calendar date of now
func resolveToday(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := domain.ParseDay(flag)
	if err != nil {
		return time.Time{}, domain.ErrConfiguration(err.Error())
	}
	return t, nil
}
