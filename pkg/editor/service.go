// Package editor is the application service behind the fitedit commands. It
// keeps FIT files in a storage.Store and applies the codec, repair and merge
// operations to them.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/fitedit/pkg/codec"
	"github.com/ssargent/fitedit/pkg/merge"
	"github.com/ssargent/fitedit/pkg/metrics"
	"github.com/ssargent/fitedit/pkg/recording"
	"github.com/ssargent/fitedit/pkg/repair"
	"github.com/ssargent/fitedit/pkg/storage"
)

// maxParallelLoads bounds the number of files decoded at once by Merge.
const maxParallelLoads = 4

// ErrNoIDs is returned by operations that need at least one activity id.
var ErrNoIDs = errors.New("editor: no activity ids given")

// ServiceConfig holds configuration for the editor service
type ServiceConfig struct {
	SkipCorrupt bool
	ChunkSize   int
	MaxSpeed    float64
	// Progress receives decode progress for every file read.
	Progress codec.ProgressFunc
}

// Service applies editor operations to stored activities.
type Service struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	config  ServiceConfig
}

// NewService creates a service on store. A nil metrics or logger disables
// them.
func NewService(store storage.Store, m *metrics.Metrics, logger *slog.Logger, config ServiceConfig) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, metrics: m, logger: logger, config: config}
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) repairOptions() repair.Options {
	return repair.Options{MaxSpeed: s.config.MaxSpeed, Logger: s.logger}
}

// observe records the outcome of an operation started at start.
func (s *Service) observe(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
		return
	}
	s.logger.Debug("operation done", "operation", op, "duration", time.Since(start))
}

func (s *Service) decodeOptions() []codec.Option {
	opts := []codec.Option{codec.WithLogger(s.logger), codec.WithChunkSize(s.config.ChunkSize)}
	if s.config.SkipCorrupt {
		opts = append(opts, codec.WithSkipCorrupt())
	}
	if s.config.Progress != nil {
		opts = append(opts, codec.WithProgress(s.config.Progress))
	}
	return opts
}

// drain decodes d chunk by chunk until it is done or ctx ends.
func (s *Service) drain(ctx context.Context, d *codec.Decoder) error {
	var (
		p   codec.Progress
		err error
	)
	for !p.Done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p, err = d.DecodeSome(s.config.ChunkSize); err != nil {
			return err
		}
	}
	if s.metrics != nil {
		s.metrics.RecordDecode(p.Messages, p.Skipped, p.Degraded)
	}
	if p.Degraded {
		s.logger.Warn("decoded in degraded mode", "messages", p.Messages)
	}
	return nil
}

// Decode decodes the first FIT file of r with the service's decode settings.
func (s *Service) Decode(ctx context.Context, r io.Reader) (*recording.Recording, error) {
	d, err := codec.NewDecoder(r, s.decodeOptions()...)
	if err != nil {
		return nil, err
	}
	if err := s.drain(ctx, d); err != nil {
		return nil, err
	}
	return d.Recording(), nil
}

// DecodeAll decodes every FIT file of a concatenated stream.
func (s *Service) DecodeAll(ctx context.Context, r io.Reader) ([]*recording.Recording, error) {
	d, err := codec.NewDecoder(r, s.decodeOptions()...)
	if err != nil {
		return nil, err
	}
	var recs []*recording.Recording
	for ; d != nil; d = d.Next() {
		if err := s.drain(ctx, d); err != nil {
			return nil, fmt.Errorf("file %d: %w", len(recs)+1, err)
		}
		recs = append(recs, d.Recording())
	}
	return recs, nil
}

// Load decodes the stored activity id.
func (s *Service) Load(ctx context.Context, id ksuid.KSUID) (*recording.Recording, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.Decode(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return rec, nil
}

func (s *Service) save(ctx context.Context, rec *recording.Recording) (ksuid.KSUID, error) {
	data, err := codec.Marshal(rec)
	if err != nil {
		return ksuid.Nil, err
	}
	id, err := s.store.Put(ctx, data)
	if err != nil {
		return ksuid.Nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordStored(len(data))
	}
	return id, nil
}

// Import decodes r, repairs its cumulative distance and stores it. A stream
// of concatenated files is merged into one activity.
func (s *Service) Import(ctx context.Context, r io.Reader) (id ksuid.KSUID, err error) {
	defer func(start time.Time) { s.observe("import", start, err) }(time.Now())

	recs, err := s.DecodeAll(ctx, r)
	if err != nil {
		return ksuid.Nil, err
	}
	rec := recs[0]
	if len(recs) > 1 {
		s.logger.Info("merging concatenated files", "files", len(recs))
		if rec, err = merge.Merge(recs...); err != nil {
			return ksuid.Nil, err
		}
	}
	if n := repair.RepairDistanceByTime(rec.Records()); n > 0 {
		s.logger.Info("repaired cumulative distance", "samples", n)
		if s.metrics != nil {
			s.metrics.RecordRepair(0, n, nil, 0)
		}
	}
	id, err = s.save(ctx, rec)
	if err != nil {
		return ksuid.Nil, err
	}
	s.logger.Info("imported activity", "id", id, "files", len(recs), "messages", rec.MessageCount())
	return id, nil
}

// Export writes the stored bytes of id to w.
func (s *Service) Export(ctx context.Context, id ksuid.KSUID, w io.Writer) (err error) {
	defer func(start time.Time) { s.observe("export", start, err) }(time.Now())

	data, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export %s: %w", id, err)
	}
	return nil
}

// Repair applies strategy to the stored activity id and replaces it with
// the result.
func (s *Service) Repair(ctx context.Context, id ksuid.KSUID, strategy repair.Strategy) (report *repair.Report, err error) {
	defer func(start time.Time) { s.observe("repair", start, err) }(time.Now())

	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	out, report, err := repair.Run(strategy, rec, s.repairOptions())
	if err != nil {
		return nil, fmt.Errorf("repair %s: %w", id, err)
	}
	data, err := codec.Marshal(out)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, id, data); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordRepair(report.Filtered, report.DistanceAdjusted, report.Synthesized, len(report.Unresolved))
		s.metrics.RecordStored(len(data))
	}
	if len(report.Unresolved) > 0 {
		s.logger.Warn("sessions left unmatched", "id", id, "sessions", report.Unresolved)
	}
	s.logger.Info("repaired activity", "id", id, "report", report)
	return report, nil
}

// loadAll decodes ids concurrently, keeping their order.
func (s *Service) loadAll(ctx context.Context, ids []ksuid.KSUID) ([]*recording.Recording, error) {
	recs := make([]*recording.Recording, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := s.Load(ctx, id)
			if err != nil {
				return err
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Merge combines the stored activities ids into a new activity.
func (s *Service) Merge(ctx context.Context, ids ...ksuid.KSUID) (id ksuid.KSUID, err error) {
	defer func(start time.Time) { s.observe("merge", start, err) }(time.Now())

	if len(ids) < 2 {
		return ksuid.Nil, merge.ErrTooFewInputs
	}
	recs, err := s.loadAll(ctx, ids)
	if err != nil {
		return ksuid.Nil, err
	}
	merged, err := merge.Merge(recs...)
	if err != nil {
		return ksuid.Nil, err
	}
	id, err = s.save(ctx, merged)
	if err != nil {
		return ksuid.Nil, err
	}
	s.logger.Info("merged activities", "inputs", len(ids), "id", id)
	return id, nil
}

func (s *Service) saveAll(ctx context.Context, recs []*recording.Recording) ([]ksuid.KSUID, error) {
	ids := make([]ksuid.KSUID, 0, len(recs))
	for _, rec := range recs {
		id, err := s.save(ctx, rec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SplitAt splits the stored activity id at t and stores both halves.
func (s *Service) SplitAt(ctx context.Context, id ksuid.KSUID, t time.Time) (ids []ksuid.KSUID, err error) {
	defer func(start time.Time) { s.observe("split", start, err) }(time.Now())

	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	before, after, err := merge.SplitAt(rec, t, s.repairOptions())
	if err != nil {
		return nil, err
	}
	return s.saveAll(ctx, []*recording.Recording{before, after})
}

// SplitByLap stores one new activity per lap of the stored activity id.
func (s *Service) SplitByLap(ctx context.Context, id ksuid.KSUID) (ids []ksuid.KSUID, err error) {
	defer func(start time.Time) { s.observe("split_laps", start, err) }(time.Now())

	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	pieces, err := merge.SplitByLap(rec, s.repairOptions())
	if err != nil {
		return nil, err
	}
	return s.saveAll(ctx, pieces)
}

// Upload hands the stored bytes of id to u.
func (s *Service) Upload(ctx context.Context, id ksuid.KSUID, u Uploader) (err error) {
	defer func(start time.Time) { s.observe("upload", start, err) }(time.Now())

	data, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := u.Upload(ctx, id.String()+".fit", bytes.NewReader(data), FormatFIT); err != nil {
		return fmt.Errorf("upload %s: %w", id, err)
	}
	return nil
}

// List returns the stored activities, oldest first.
func (s *Service) List(ctx context.Context) ([]storage.Entry, error) {
	return s.store.List(ctx)
}

// Delete removes the stored activities ids.
func (s *Service) Delete(ctx context.Context, ids ...ksuid.KSUID) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())

	if len(ids) == 0 {
		return ErrNoIDs
	}
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
