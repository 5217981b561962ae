package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/predictive-punter/internal/health"
	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/scheduler"
)

// openReport returns the report destination and the writer logs should use
// so they never interleave with a report on stdout
func openReport(path string) (report io.WriteCloser, logs io.Writer, err error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, os.Stderr, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report: %w", err)
	}
	return file, os.Stdout, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func runDates(cmd *cobra.Command, command string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	from, to, err := parseDateRange(fromDate, toDate, time.Now().UTC())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var reportOut io.WriteCloser = nopCloser{io.Discard}
	logOut := io.Writer(os.Stdout)
	if command == commandPredict {
		reportOut, logOut, err = openReport(outputPath)
		if err != nil {
			return err
		}
	}
	defer reportOut.Close()

	a, err := newApp(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer a.close()

	visitor, err := a.visitor(command, reportOut)
	if err != nil {
		return err
	}

	a.logger.WithFields(logrus.Fields{
		"command": command,
		"from":    from.Format(dateLayout),
		"to":      to.Format(dateLayout),
	}).Info("Processing dates")

	return a.processor(visitor).ProcessDates(ctx, from, to)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reportOut, logOut, err := openReport(outputPath)
	if err != nil {
		return err
	}
	defer reportOut.Close()

	a, err := newApp(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	defer a.close()

	serverCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        cfg.Health.Port,
		Logger:      a.logger,
	}
	if cfg.Metrics.Enabled {
		serverCfg.MetricsPath = cfg.Metrics.Path
		serverCfg.Metrics = metrics.Handler()
	}
	if a.db != nil {
		serverCfg.Store = a.db
	}
	server := health.NewServer(serverCfg)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		command := cfg.Scheduler.Command
		if command == "" {
			command = commandPredict
		}
		visitor, err := a.visitor(command, reportOut)
		if err != nil {
			return err
		}
		processor := a.processor(visitor)

		sched = scheduler.NewScheduler(a.logger)
		err = sched.ScheduleDaily(cfg.Scheduler.Cron, command, func(ctx context.Context, date time.Time) error {
			err := processor.ProcessDate(ctx, date)
			server.RecordProcessed(date, err)
			return err
		})
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	server.SetReady(true)
	<-ctx.Done()

	server.SetReady(false)
	if sched != nil {
		if err := sched.Stop(); err != nil {
			a.logger.WithError(err).Warn("Scheduler did not stop cleanly")
		}
	}
	return server.Shutdown()
}
