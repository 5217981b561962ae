package processing

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/prediction"
)

const (
	reportConsensus = "consensus"
	reportMulti     = "multi"
)

var reportHeader = []string{
	"Date", "Track", "Race", "Start Time", "Bet Type",
	"1st", "2nd", "3rd", "4th",
	"Minimum Dividend", "ROI", "Score",
}

// ReportWriter writes predictions as CSV rows. It is safe for concurrent use.
type ReportWriter struct {
	mu     sync.Mutex
	writer *csv.Writer
}

// NewReportWriter writes the header row and returns the writer
func NewReportWriter(w io.Writer) (*ReportWriter, error) {
	r := &ReportWriter{writer: csv.NewWriter(w)}
	if err := r.write(reportHeader); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteConsensus writes a race's consensus prediction
func (r *ReportWriter) WriteConsensus(race *models.Race, p *models.Prediction) error {
	row := raceColumns(race, reportConsensus)
	row = append(row, pickColumns(p.Picks)...)
	row = append(row, "", "", formatDecimal(p.Score, 4))
	return r.write(row)
}

// WriteBestBets writes one row per recommended bet type and a multi row when
// any win predictor was recommended
func (r *ReportWriter) WriteBestBets(best *prediction.BestBets) error {
	for _, betType := range models.BetTypes {
		rec := best.Get(betType)
		if rec == nil {
			continue
		}
		row := raceColumns(best.Race, string(betType))
		row = append(row, pickColumns(rec.Picks)...)
		row = append(row,
			formatDecimal(rec.MinimumDividend, 2),
			formatDecimal(rec.ROI, 2),
			formatDecimal(rec.Prediction.Score, 4),
		)
		if err := r.write(row); err != nil {
			return err
		}
	}

	if len(best.Multi) == 0 {
		return nil
	}
	row := raceColumns(best.Race, reportMulti)
	row = append(row, pickColumns([][]int{best.Multi})...)
	row = append(row, "", "", "")
	return r.write(row)
}

func (r *ReportWriter) write(row []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.Write(row); err != nil {
		return err
	}
	r.writer.Flush()
	return r.writer.Error()
}

func raceColumns(race *models.Race, betType string) []string {
	track := ""
	if race.Meet != nil {
		track = race.Meet.Track
	}
	return []string{
		race.MeetDate().Format(dateLayout),
		track,
		strconv.Itoa(race.Number),
		race.StartTime.Format("15:04"),
		betType,
	}
}

// pickColumns always returns one column per place; ties share a column
func pickColumns(picks [][]int) []string {
	columns := make([]string, models.MaxPlaces)
	for place := 0; place < models.MaxPlaces && place < len(picks); place++ {
		numbers := make([]string, len(picks[place]))
		for i, number := range picks[place] {
			numbers[i] = strconv.Itoa(number)
		}
		columns[place] = strings.Join(numbers, ",")
	}
	return columns
}

func formatDecimal(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
