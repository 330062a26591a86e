package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SilverSnap/internal/model"
)

// SQLiteRecorder persists signal history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			signal_type     TEXT NOT NULL,
			instrument      TEXT,
			symbol          TEXT,
			price           REAL,
			reference_close REAL,
			drop_pct        REAL,
			price_green     INTEGER,
			rsi_green       INTEGER,
			rsi             REAL,
			reason          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    INTEGER,
			price       REAL,
			signal_type TEXT,
			pnl         REAL,
			pnl_pct     REAL,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS filter_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			price       REAL,
			price_green INTEGER,
			rsi_green   INTEGER,
			price_sar   REAL,
			rsi_sar     REAL,
			rsi         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_filters_ts ON filter_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, signal_type, instrument, symbol, price, reference_close, drop_pct,
		 price_green, rsi_green, rsi, reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sig.Time.Unix(), string(sig.Type), string(sig.Instrument), sig.Symbol,
		sig.Price, sig.ReferenceClose, sig.DropPct,
		boolInt(sig.Filters.PriceGreen), boolInt(sig.Filters.RSIGreen),
		nanNull(sig.Filters.RSI), sig.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(t *TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, symbol, side, quantity, price, signal_type, pnl, pnl_pct, note)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), t.Symbol, t.Side, t.Quantity, t.Price,
		string(t.SignalType), t.PnL, t.PnLPct, t.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordFilters(fs *FilterSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO filter_snapshots
		(timestamp, symbol, price, price_green, rsi_green, price_sar, rsi_sar, rsi)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), fs.Symbol, fs.Price,
		boolInt(fs.PriceGreen), boolInt(fs.RSIGreen),
		fs.PriceSAR, fs.RSISAR, nanNull(fs.RSI),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nanNull maps an undefined oscillator value to SQL NULL instead of storing
// a NaN the driver would reject.
func nanNull(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
