// Package processing walks dates, meets, races and runners on bounded worker
// pools and hands each unit to a command's Visitor.
package processing

import (
	"context"
	"time"

	"github.com/yourusername/predictive-punter/internal/models"
)

// Visitor receives lifecycle callbacks while a date is processed. Embed
// NopVisitor to implement only the callbacks a command needs.
type Visitor interface {
	PreProcessDate(ctx context.Context, date time.Time) error
	PostProcessDate(ctx context.Context, date time.Time) error
	PostProcessMeet(ctx context.Context, meet *models.Meet) error
	PostProcessRace(ctx context.Context, race *models.Race) error
	PostProcessRunner(ctx context.Context, runner *models.Runner) error
}

// NopVisitor implements Visitor with callbacks that do nothing
type NopVisitor struct{}

func (NopVisitor) PreProcessDate(ctx context.Context, date time.Time) error { return nil }

func (NopVisitor) PostProcessDate(ctx context.Context, date time.Time) error { return nil }

func (NopVisitor) PostProcessMeet(ctx context.Context, meet *models.Meet) error { return nil }

func (NopVisitor) PostProcessRace(ctx context.Context, race *models.Race) error { return nil }

func (NopVisitor) PostProcessRunner(ctx context.Context, runner *models.Runner) error { return nil }
