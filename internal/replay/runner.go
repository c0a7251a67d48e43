package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leveragePool/internal/model"
	"leveragePool/internal/pool"
	"leveragePool/internal/storage"
)

var (
	ErrNilPool    = errors.New("pool is nil")
	ErrNilJournal = errors.New("journal is nil")
)

// triggerNamespace seeds ids of triggers that arrive without one, so a
// replayed line always gets the same id.
var triggerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("leveragePool/trigger"))

// Config holds runtime settings for a replay.
type Config struct {
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// WindowSink receives the hourly price buckets after every batch.
type WindowSink interface {
	UpsertPriceWindows(ctx context.Context, address common.Address, buckets []model.PriceBucket) error
}

// Sinks are the outputs of a replay. Only Journal is required.
type Sinks struct {
	Journal   storage.Journal
	Snapshots storage.SnapshotStore
	State     StateStore
	Windows   WindowSink
}

// Summary counts what a replay did.
type Summary struct {
	Lines    uint64 `json:"lines"`
	Skipped  uint64 `json:"skipped"`
	Accepted uint64 `json:"accepted"`
	Bounced  uint64 `json:"bounced"`
	Invalid  uint64 `json:"invalid"`
}

// Runner feeds triggers to a pool in input order.
type Runner struct {
	cfg    Config
	pool   *pool.Pool
	sinks  Sinks
	writer sinkWriter
	logger *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, p *pool.Pool, sinks Sinks, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, pool: p, sinks: sinks, writer: newSinkWriter(cfg, logger), logger: logger}
}

// Run executes every trigger of a JSONL input that is past the checkpoint.
// After each batch the responses are journaled, then the snapshot, the price
// windows and the checkpoint are saved in that order.
func (r *Runner) Run(ctx context.Context, input io.Reader) (Summary, error) {
	var sum Summary
	if r.pool == nil {
		return sum, ErrNilPool
	}
	if r.sinks.Journal == nil {
		return sum, ErrNilJournal
	}
	if r.cfg.BatchSize == 0 {
		return sum, ErrZeroBatchSize
	}

	lines, err := readLines(input)
	if err != nil {
		return sum, err
	}
	sum.Lines = uint64(len(lines))

	from := uint64(1)
	if r.sinks.State != nil {
		last, ok, err := r.sinks.State.Load(ctx)
		if err != nil {
			return sum, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			from = last + 1
			sum.Skipped = min(last, sum.Lines)
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}
	if from > sum.Lines {
		r.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("lines", sum.Lines))
		return sum, nil
	}

	ranges, err := SplitRange(from, sum.Lines, r.cfg.BatchSize)
	if err != nil {
		return sum, err
	}

	var lastTs int64
	for _, lr := range ranges {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		responses := make([]model.Response, 0, lr.To-lr.From+1)
		for n := lr.From; n <= lr.To; n++ {
			raw := lines[n-1]
			if len(raw) == 0 {
				continue
			}
			trig, err := parseTrigger(raw, lastTs)
			if err != nil {
				sum.Invalid++
				r.logger.Warn("invalid trigger", zap.Uint64("line", n), zap.Error(err))
				responses = append(responses, model.Response{
					TriggerID: lineID(raw),
					Bounced:   true,
					Error:     err.Error(),
				})
				continue
			}
			lastTs = trig.Ts

			resp := r.pool.Handle(trig)
			if resp.Bounced {
				sum.Bounced++
			} else {
				sum.Accepted++
			}
			responses = append(responses, resp)
		}

		if err := r.flush(ctx, lr, responses); err != nil {
			return sum, err
		}
		r.logger.Info("batch complete",
			zap.Uint64("from", lr.From),
			zap.Uint64("to", lr.To),
			zap.Int("responses", len(responses)),
		)
	}

	r.logger.Info("replay complete",
		zap.Uint64("lines", sum.Lines),
		zap.Uint64("skipped", sum.Skipped),
		zap.Uint64("accepted", sum.Accepted),
		zap.Uint64("bounced", sum.Bounced),
		zap.Uint64("invalid", sum.Invalid),
	)
	return sum, nil
}

func (r *Runner) flush(ctx context.Context, lr LineRange, responses []model.Response) error {
	if err := r.writer.write(ctx, "journal", lr, func(ctx context.Context) error {
		return r.sinks.Journal.PutResponses(ctx, responses)
	}); err != nil {
		return err
	}

	state := r.pool.State()
	if r.sinks.Snapshots != nil {
		if err := r.writer.write(ctx, "snapshot", lr, func(ctx context.Context) error {
			return r.sinks.Snapshots.SaveSnapshot(ctx, state)
		}); err != nil {
			return err
		}
	}
	if r.sinks.Windows != nil {
		buckets := windowBuckets(state.Recent)
		if err := r.writer.write(ctx, "price windows", lr, func(ctx context.Context) error {
			return r.sinks.Windows.UpsertPriceWindows(ctx, state.Address, buckets)
		}); err != nil {
			return err
		}
	}
	if r.sinks.State != nil {
		if err := r.writer.write(ctx, "checkpoint", lr, func(ctx context.Context) error {
			return r.sinks.State.Save(ctx, lr.To)
		}); err != nil {
			return err
		}
	}
	return nil
}

func windowBuckets(recent model.Recent) []model.PriceBucket {
	out := make([]model.PriceBucket, 0, 2)
	for _, b := range []*model.PriceBucket{recent.Prev, recent.Current} {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// readLines returns every physical line, blank ones as nil, so that line
// numbers stay stable across runs.
func readLines(input io.Reader) ([][]byte, error) {
	scanner := bufio.NewScanner(input)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lines [][]byte
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			lines = append(lines, nil)
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return lines, nil
}

// parseTrigger decodes one input line. A missing id is derived from the
// line, a missing ts repeats the previous trigger's.
func parseTrigger(raw []byte, prevTs int64) (model.Trigger, error) {
	var trig model.Trigger
	if err := json.Unmarshal(raw, &trig); err != nil {
		return model.Trigger{}, fmt.Errorf("parse trigger: %w", err)
	}
	if trig.ID == "" {
		trig.ID = lineID(raw)
	}
	if trig.Ts == 0 {
		trig.Ts = prevTs
	}
	return trig, nil
}

func lineID(raw []byte) string {
	return uuid.NewSHA1(triggerNamespace, raw).String()
}
