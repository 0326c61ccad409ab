package normalization

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/observability"
	"trade-journal-lab/internal/storage"
)

// ImportReport is the outcome of one import batch.
// Partial success is normal: accepted trades are persisted even when
// other records are rejected.
type ImportReport struct {
	BatchID    string          `json:"batch_id"`
	Source     string          `json:"source"`
	Total      int             `json:"total"`
	Accepted   int             `json:"accepted"`
	Rejections []Rejection     `json:"rejections"`
	Warnings   map[Warning]int `json:"warnings,omitempty"`
}

// Ingester normalizes raw tables into the trade store and loads them back.
type Ingester struct {
	normalizer *Normalizer
	trades     storage.TradeStore
	batches    storage.ImportBatchStore // optional
	logger     *zap.Logger
	now        func() time.Time
	newBatchID func() string
}

// NewIngester creates a new ingester. batches may be nil.
func NewIngester(
	normalizer *Normalizer,
	trades storage.TradeStore,
	batches storage.ImportBatchStore,
	logger *zap.Logger,
) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		normalizer: normalizer,
		trades:     trades,
		batches:    batches,
		logger:     logger.Named("ingest"),
		now:        time.Now,
		newBatchID: func() string { return uuid.NewString() },
	}
}

// WithClock sets a custom clock function (for testing).
func (i *Ingester) WithClock(now func() time.Time) *Ingester {
	i.now = now
	return i
}

// WithBatchIDs sets a custom batch id generator (for testing).
func (i *Ingester) WithBatchIDs(gen func() string) *Ingester {
	i.newBatchID = gen
	return i
}

// ImportTable parses r as a delimited table and imports every valid row.
// source names the upload (typically the file name).
func (i *Ingester) ImportTable(ctx context.Context, source string, r io.Reader) (*ImportReport, error) {
	raws, err := ParseTable(r)
	if err != nil {
		observability.RecordImport("error", 0, 0)
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return i.ImportRecords(ctx, source, raws)
}

// ImportRecords normalizes raws and persists the accepted trades in one bulk insert.
func (i *Ingester) ImportRecords(ctx context.Context, source string, raws []RawRecord) (*ImportReport, error) {
	start := i.now()
	report := &ImportReport{
		BatchID:  i.newBatchID(),
		Source:   source,
		Total:    len(raws),
		Warnings: make(map[Warning]int),
	}

	accepted := make([]*domain.Trade, 0, len(raws))
	origin := make(map[*domain.Trade]RawRecord, len(raws))
	for _, raw := range raws {
		raw.BatchID = report.BatchID
		res := i.normalizer.Normalize(raw)
		if !res.OK() {
			report.Rejections = append(report.Rejections, *res.Rejection)
			continue
		}
		for _, w := range res.Warnings {
			report.Warnings[w]++
			observability.RecordWarning(string(w))
		}
		accepted = append(accepted, res.Trade)
		origin[res.Trade] = raw
	}

	existing, err := i.trades.ExistingTickets(ctx, tradeIDs(accepted))
	if err != nil {
		observability.RecordImport("error", i.now().Sub(start).Seconds(), 0)
		return nil, fmt.Errorf("check existing tickets: %w", err)
	}
	unique, dups := splitDuplicates(accepted, existing)
	for _, d := range dups {
		report.Rejections = append(report.Rejections, Rejection{
			Source: origin[d].Source,
			Line:   origin[d].Line,
			Ticket: d.ID,
			Reason: ReasonDuplicateID,
			Field:  FieldTicket,
		})
	}

	rows := make([]*domain.TradeRow, len(unique))
	for j, t := range unique {
		rows[j] = domain.RowFromTrade(t)
	}
	if err := i.trades.InsertBulk(ctx, rows); err != nil {
		observability.RecordImport("error", i.now().Sub(start).Seconds(), 0)
		return nil, fmt.Errorf("insert trades: %w", err)
	}
	report.Accepted = len(unique)

	for _, rej := range report.Rejections {
		observability.RecordRejected(string(rej.Reason))
	}
	observability.RecordAccepted(report.Accepted)

	finished := i.now()
	if i.batches != nil {
		batch := &domain.ImportBatch{
			BatchID:    report.BatchID,
			Source:     source,
			Accepted:   report.Accepted,
			Rejected:   len(report.Rejections),
			Warnings:   warningCount(report.Warnings),
			ImportedAt: finished.UTC(),
		}
		if err := i.batches.Record(ctx, batch); err != nil {
			return report, fmt.Errorf("record batch: %w", err)
		}
	}

	observability.RecordImport("ok", finished.Sub(start).Seconds(), finished.Unix())
	i.logger.Info("import finished",
		zap.String("batch_id", report.BatchID),
		zap.String("source", source),
		zap.Int("total", report.Total),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejections)),
	)
	return report, nil
}

// Load reads every persisted row back through the normalizer.
// Rows that no longer validate are returned as rejections rather than failing the load.
func (i *Ingester) Load(ctx context.Context) ([]*domain.Trade, []Rejection, error) {
	rows, err := i.trades.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load trades: %w", err)
	}

	trades := make([]*domain.Trade, 0, len(rows))
	var rejections []Rejection
	for n, row := range rows {
		res := i.normalizer.Normalize(FromRow(row, n+1))
		if !res.OK() {
			rejections = append(rejections, *res.Rejection)
			continue
		}
		trades = append(trades, res.Trade)
	}

	observability.UpdateTradesLoaded(len(trades))
	if len(rejections) > 0 {
		i.logger.Warn("persisted rows rejected on load", zap.Int("count", len(rejections)))
	}
	return trades, rejections, nil
}

// Trades implements metrics.TradeSource over the persisted store.
func (i *Ingester) Trades(ctx context.Context) ([]*domain.Trade, error) {
	trades, _, err := i.Load(ctx)
	return trades, err
}

func tradeIDs(trades []*domain.Trade) []string {
	ids := make([]string, len(trades))
	for j, t := range trades {
		ids[j] = t.ID
	}
	return ids
}

func warningCount(w map[Warning]int) int {
	n := 0
	for _, c := range w {
		n += c
	}
	return n
}
