package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	side INTEGER NOT NULL,
	lots INTEGER NOT NULL,
	lot_size INTEGER NOT NULL,
	order_type INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	target_price REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	gross_pnl REAL NOT NULL,
	costs REAL NOT NULL,
	net_pnl REAL NOT NULL,
	exit_reason TEXT NOT NULL,
	strategy TEXT NOT NULL,
	regime TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rejections (
	time DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	action TEXT NOT NULL,
	lots INTEGER NOT NULL,
	stage TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	capital REAL NOT NULL,
	drawdown_pct REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
