package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/logger"
	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
)

const dateLayout = "2006-01-02"

const defaultQueueSize = 64

// Clearer is a session cache dropped at date boundaries
type Clearer interface {
	Clear()
}

// Options configures the processing harness
type Options struct {
	Workers       int
	QueueSize     int
	SubmitRetries int
	SubmitBackoff time.Duration
	BackupEnabled bool
}

// Processor processes dates one at a time. Each date is a unit of work:
// it is backed up when it succeeds and restored from the last backup when
// it fails.
type Processor struct {
	races   repository.RaceRepository
	backup  repository.Backuper
	visitor Visitor
	caches  []Clearer
	opts    Options
	logger  *logger.ProcessingLogger
	audit   *logger.AuditLogger
}

// NewProcessor creates a processor. caches are cleared before every date.
func NewProcessor(races repository.RaceRepository, backup repository.Backuper, visitor Visitor, opts Options, log *logrus.Logger, caches ...Clearer) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if visitor == nil {
		visitor = NopVisitor{}
	}
	return &Processor{
		races:   races,
		backup:  backup,
		visitor: visitor,
		caches:  caches,
		opts:    opts,
		logger:  logger.NewProcessingLogger(log),
		audit:   logger.NewAuditLogger(log),
	}
}

// ProcessDates processes every day from from to to inclusive. A failed date
// does not stop later dates; all failures are returned joined.
func (p *Processor) ProcessDates(ctx context.Context, from, to time.Time) error {
	var errs []error
	for date := truncateDay(from); !date.After(truncateDay(to)); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.ProcessDate(ctx, date); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessDate processes every meet on the date
func (p *Processor) ProcessDate(ctx context.Context, date time.Time) error {
	start := time.Now()
	id := date.Format(dateLayout)

	for _, c := range p.caches {
		c.Clear()
	}
	p.logger.LogUnitStarted("date", id)

	if err := p.processDate(ctx, date); err != nil {
		p.logger.LogUnitFailed("date", id, err)
		metrics.RecordDateProcessed("failed", time.Since(start).Seconds())

		if p.opts.BackupEnabled && p.backup != nil {
			if restoreErr := p.backup.Restore(context.WithoutCancel(ctx)); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("restore failed: %w", restoreErr))
			} else {
				p.audit.LogRestore(date, err)
			}
		}
		return fmt.Errorf("processing %s: %w", id, err)
	}

	if p.opts.BackupEnabled && p.backup != nil {
		if err := p.backup.Backup(ctx); err != nil {
			metrics.RecordDateProcessed("failed", time.Since(start).Seconds())
			return fmt.Errorf("backing up %s: %w", id, err)
		}
		p.audit.LogBackup(date)
	}

	metrics.RecordDateProcessed("success", time.Since(start).Seconds())
	p.logger.LogUnitFinished("date", id, time.Since(start))
	return nil
}

func (p *Processor) processDate(ctx context.Context, date time.Time) error {
	if err := p.visitor.PreProcessDate(ctx, date); err != nil {
		return err
	}

	meets, err := p.races.GetMeetsByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to get meets: %w", err)
	}
	if err := runAll(ctx, "meet", p.poolOptions(), p.logger, meets, p.processMeet); err != nil {
		return err
	}

	return p.visitor.PostProcessDate(ctx, date)
}

func (p *Processor) processMeet(ctx context.Context, meet *models.Meet) error {
	if err := runAll(ctx, "race", p.poolOptions(), p.logger, meet.Races, p.processRace); err != nil {
		return fmt.Errorf("meet %s at %s: %w", meet.ID, meet.Track, err)
	}
	return p.visitor.PostProcessMeet(ctx, meet)
}

func (p *Processor) processRace(ctx context.Context, race *models.Race) error {
	if err := runAll(ctx, "runner", p.poolOptions(), p.logger, race.Runners, p.visitor.PostProcessRunner); err != nil {
		return fmt.Errorf("race %d: %w", race.Number, err)
	}
	if err := p.visitor.PostProcessRace(ctx, race); err != nil {
		return fmt.Errorf("race %d: %w", race.Number, err)
	}
	return nil
}

func (p *Processor) poolOptions() poolOptions {
	return poolOptions{
		workers:   p.opts.Workers,
		queueSize: p.opts.QueueSize,
		retries:   p.opts.SubmitRetries,
		backoff:   p.opts.SubmitBackoff,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
