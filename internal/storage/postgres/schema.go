package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pool_snapshots (
		pool_address  TEXT PRIMARY KEY,
		x_asset       TEXT NOT NULL,
		y_asset       TEXT NOT NULL,
		x             NUMERIC NOT NULL,
		y             NUMERIC NOT NULL,
		xn            NUMERIC NOT NULL,
		yn            NUMERIC NOT NULL,
		profit_x      NUMERIC NOT NULL,
		profit_y      NUMERIC NOT NULL,
		linear_shares BIGINT NOT NULL,
		issued_shares BIGINT NOT NULL,
		coef          NUMERIC NOT NULL,
		last_ts       BIGINT NOT NULL,
		state         JSONB NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pool_responses (
		pool_address TEXT NOT NULL,
		trigger_id   TEXT NOT NULL,
		sender       TEXT NOT NULL,
		ts           BIGINT NOT NULL,
		bounced      BOOLEAN NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		vars         JSONB,
		payments     JSONB,
		created_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (pool_address, trigger_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pool_price_windows (
		pool_address TEXT NOT NULL,
		start_ts     BIGINT NOT NULL,
		pmin         NUMERIC NOT NULL,
		pmax         NUMERIC NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (pool_address, start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS replay_state (
		name                TEXT PRIMARY KEY,
		last_processed_line BIGINT NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
}
