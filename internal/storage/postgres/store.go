package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"leveragePool/internal/model"
)

var (
	ErrDSNRequired  = errors.New("pg dsn is required")
	ErrNameRequired = errors.New("state name required")
)

// Store provides Postgres persistence for pool snapshots, responses and
// price windows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveSnapshot upserts the full state of a pool. Balances are duplicated
// into NUMERIC columns so they can be queried without decoding the JSON.
func (s *Store) SaveSnapshot(ctx context.Context, state model.PoolState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, x_asset, y_asset, x, y, xn, yn, profit_x, profit_y,
			linear_shares, issued_shares, coef, last_ts, state, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			x_asset = EXCLUDED.x_asset,
			y_asset = EXCLUDED.y_asset,
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			xn = EXCLUDED.xn,
			yn = EXCLUDED.yn,
			profit_x = EXCLUDED.profit_x,
			profit_y = EXCLUDED.profit_y,
			linear_shares = EXCLUDED.linear_shares,
			issued_shares = EXCLUDED.issued_shares,
			coef = EXCLUDED.coef,
			last_ts = EXCLUDED.last_ts,
			state = EXCLUDED.state,
			updated_at = now()
	`,
		state.Address.Hex(),
		string(state.XAsset),
		string(state.YAsset),
		decimal.NewFromFloat(state.Balances.X),
		decimal.NewFromFloat(state.Balances.Y),
		decimal.NewFromFloat(state.Balances.Xn),
		decimal.NewFromFloat(state.Balances.Yn),
		decimal.NewFromFloat(state.Profits.X),
		decimal.NewFromFloat(state.Profits.Y),
		state.Shares.Linear,
		state.Shares.Issued,
		decimal.NewFromFloat(state.Shares.Coef),
		state.Recent.LastTs,
		data,
	)
	return err
}

// LoadSnapshot returns the stored state of a pool.
func (s *Store) LoadSnapshot(ctx context.Context, address common.Address) (model.PoolState, bool, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT state FROM pool_snapshots WHERE pool_address=$1`, address.Hex())
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolState{}, false, nil
		}
		return model.PoolState{}, false, err
	}
	var state model.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.PoolState{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return state, true, nil
}

// PutResponses inserts or updates trigger responses of a pool.
func (s *Store) PutResponses(ctx context.Context, address common.Address, responses []model.Response) error {
	if len(responses) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range responses {
		vars, err := json.Marshal(r.Vars)
		if err != nil {
			return fmt.Errorf("marshal vars of %s: %w", r.TriggerID, err)
		}
		payments, err := json.Marshal(r.Payments)
		if err != nil {
			return fmt.Errorf("marshal payments of %s: %w", r.TriggerID, err)
		}
		batch.Queue(`
			INSERT INTO pool_responses (
				pool_address, trigger_id, sender, ts, bounced, error, vars, payments, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
			ON CONFLICT (pool_address, trigger_id)
			DO UPDATE SET
				sender = EXCLUDED.sender,
				ts = EXCLUDED.ts,
				bounced = EXCLUDED.bounced,
				error = EXCLUDED.error,
				vars = EXCLUDED.vars,
				payments = EXCLUDED.payments
		`,
			address.Hex(),
			r.TriggerID,
			r.Address.Hex(),
			r.Ts,
			r.Bounced,
			r.Error,
			vars,
			payments,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range responses {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPriceWindows stores the hourly price buckets of a pool. A bucket
// that is still open is widened on every upsert.
func (s *Store) UpsertPriceWindows(ctx context.Context, address common.Address, buckets []model.PriceBucket) error {
	if len(buckets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range buckets {
		batch.Queue(`
			INSERT INTO pool_price_windows (
				pool_address, start_ts, pmin, pmax, updated_at
			) VALUES ($1,$2,$3,$4,now())
			ON CONFLICT (pool_address, start_ts)
			DO UPDATE SET
				pmin = LEAST(pool_price_windows.pmin, EXCLUDED.pmin),
				pmax = GREATEST(pool_price_windows.pmax, EXCLUDED.pmax),
				updated_at = now()
		`,
			address.Hex(),
			b.StartTs,
			decimal.NewFromFloat(b.Pmin),
			decimal.NewFromFloat(b.Pmax),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range buckets {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed input line for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, ErrNameRequired
	}
	var line int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_line FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&line); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(line), true, nil
}

// SaveState upserts the last processed input line for a name.
func (s *Store) SaveState(ctx context.Context, name string, line uint64) error {
	if name == "" {
		return ErrNameRequired
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_processed_line, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_line = EXCLUDED.last_processed_line, updated_at = now()
	`, name, int64(line))
	return err
}
