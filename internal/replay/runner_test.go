package replay

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
	"leveragePool/internal/pool"
	"leveragePool/internal/storage"
)

var poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")

type memJournal struct {
	responses []model.Response
	failures  int
}

func (j *memJournal) PutResponses(_ context.Context, responses []model.Response) error {
	if j.failures > 0 {
		j.failures--
		return errors.New("temporary failure")
	}
	j.responses = append(j.responses, responses...)
	return nil
}

type memWindows struct {
	buckets []model.PriceBucket
}

func (w *memWindows) UpsertPriceWindows(_ context.Context, _ common.Address, buckets []model.PriceBucket) error {
	w.buckets = append(w.buckets, buckets...)
	return nil
}

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	params := model.DefaultParams()
	params.BaseInterestRate = 0
	p, err := pool.New(pool.NewState(poolAddr, "base", "0xusd", params, ""), pool.Options{})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return p
}

const triggers = `{"id":"dep","address":"0x00000000000000000000000000000000000a11ce","ts":1700000000,"payments":{"base":1000000000,"0xusd":100000000000},"data":{"buy_shares":1}}

{"address":"0x0000000000000000000000000000000000000b0b","ts":1700000060,"payments":{"0xusd":10000000000},"data":{"final_price":120}}
not json
{"id":"bad","address":"0x0000000000000000000000000000000000000b0b","payments":{"0xusd":10},"data":{"nonsense":1}}
`

func TestRunnerReplaysAndResumes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	journal := &memJournal{failures: 1}
	windows := &memWindows{}
	snapshots := &storage.FileSnapshotStore{Path: filepath.Join(dir, "snapshot.json")}
	checkpoint := &FileStateStore{Path: filepath.Join(dir, "checkpoint.json"), Pool: poolAddr}

	p := newPool(t)
	runner := NewRunner(Config{BatchSize: 2, MaxRetries: 2, RetryBackoff: 1}, p, Sinks{
		Journal:   journal,
		Snapshots: snapshots,
		State:     checkpoint,
		Windows:   windows,
	}, nil)

	sum, err := runner.Run(ctx, strings.NewReader(triggers))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Lines != 5 || sum.Accepted != 2 || sum.Bounced != 1 || sum.Invalid != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(journal.responses) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(journal.responses))
	}
	if journal.responses[0].TriggerID != "dep" {
		t.Fatalf("trigger id not kept: %q", journal.responses[0].TriggerID)
	}
	if id := journal.responses[1].TriggerID; id == "" {
		t.Fatalf("missing trigger id was not derived")
	}
	if bad := journal.responses[3]; !bad.Bounced || bad.Ts != 1700000060 {
		t.Fatalf("expected bounce at previous ts, got %+v", bad)
	}
	if len(windows.buckets) == 0 {
		t.Fatalf("price windows were not written")
	}

	line, ok, err := checkpoint.Load(ctx)
	if err != nil || !ok || line != 5 {
		t.Fatalf("checkpoint: line=%d ok=%v err=%v", line, ok, err)
	}
	saved, ok, err := snapshots.LoadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("snapshot: ok=%v err=%v", ok, err)
	}
	if saved.Balances != p.State().Balances {
		t.Fatalf("snapshot is stale: %+v", saved.Balances)
	}

	// a second run over the same input finds nothing to do
	again := &memJournal{}
	resumed, err := pool.New(saved, pool.Options{})
	if err != nil {
		t.Fatalf("restore pool: %v", err)
	}
	sum, err = NewRunner(Config{BatchSize: 2}, resumed, Sinks{Journal: again, State: checkpoint}, nil).
		Run(ctx, strings.NewReader(triggers))
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if sum.Skipped != 5 || len(again.responses) != 0 {
		t.Fatalf("expected full skip, got %+v and %d responses", sum, len(again.responses))
	}
}

func TestRunnerStopsWhenJournalKeepsFailing(t *testing.T) {
	ctx := context.Background()
	checkpoint := &FileStateStore{Path: filepath.Join(t.TempDir(), "checkpoint.json"), Pool: poolAddr}
	journal := &memJournal{failures: 10}
	_, err := NewRunner(Config{BatchSize: 2, MaxRetries: 1, RetryBackoff: 1}, newPool(t), Sinks{
		Journal: journal,
		State:   checkpoint,
	}, nil).Run(ctx, strings.NewReader(triggers))
	if err == nil || !strings.Contains(err.Error(), "journal lines 1-2 after 2 attempts") {
		t.Fatalf("expected journal failure, got %v", err)
	}
	if _, ok, _ := checkpoint.Load(ctx); ok {
		t.Fatalf("checkpoint must not advance past an unwritten batch")
	}
}

func TestCheckpointRefusesOtherPool(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := (&FileStateStore{Path: path, Pool: poolAddr}).Save(ctx, 9); err != nil {
		t.Fatalf("save: %v", err)
	}
	other := &FileStateStore{Path: path, Pool: common.HexToAddress("0xbb")}
	if _, _, err := other.Load(ctx); !errors.Is(err, ErrForeignCheckpoint) {
		t.Fatalf("expected ErrForeignCheckpoint, got %v", err)
	}
}

func TestRunnerDerivesStableIDs(t *testing.T) {
	line := []byte(`{"address":"0x0000000000000000000000000000000000000b0b","data":{"withdraw":1}}`)
	a, err := parseTrigger(line, 7)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, _ := parseTrigger(line, 7)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("ids differ: %q %q", a.ID, b.ID)
	}
	if a.Ts != 7 {
		t.Fatalf("ts not inherited: %d", a.Ts)
	}
}

func TestRunnerRequiresJournal(t *testing.T) {
	_, err := NewRunner(Config{BatchSize: 1}, newPool(t), Sinks{}, nil).Run(context.Background(), strings.NewReader(""))
	if !errors.Is(err, ErrNilJournal) {
		t.Fatalf("expected ErrNilJournal, got %v", err)
	}
}
