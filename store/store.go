// Package store implements optional SQLite persistence for the trade
// and quote clients: execution reports, positions and market data
// snapshots. Adapted from the teacher's market-data database package —
// same prepared-statement-per-table shape, generalized from OHLCV/trade
// tables to this venue's own record types.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS execution_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cl_ord_id TEXT NOT NULL,
	order_id TEXT,
	orig_cl_ord_id TEXT,
	symbol TEXT,
	side TEXT,
	ord_status TEXT,
	exec_type TEXT,
	order_qty REAL,
	cum_qty REAL,
	leaves_qty REAL,
	avg_px REAL,
	last_shares REAL,
	price REAL,
	text TEXT,
	transact_time TEXT
);

CREATE TABLE IF NOT EXISTS positions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	pos_maint_rpt_id TEXT,
	long_qty REAL,
	short_qty REAL,
	settl_price REAL,
	recorded_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS spot_prices (
	symbol TEXT PRIMARY KEY,
	bid REAL,
	ask REAL,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS depth_entries (
	symbol TEXT NOT NULL,
	entry_id TEXT NOT NULL,
	side TEXT,
	price REAL,
	size REAL,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (symbol, entry_id)
);
`

const (
	insertExecutionReportQuery = `INSERT INTO execution_reports
		(cl_ord_id, order_id, orig_cl_ord_id, symbol, side, ord_status, exec_type, order_qty, cum_qty, leaves_qty, avg_px, last_shares, price, text, transact_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertPositionQuery = `INSERT INTO positions
		(symbol, pos_maint_rpt_id, long_qty, short_qty, settl_price)
		VALUES (?, ?, ?, ?, ?)`

	upsertSpotPriceQuery = `INSERT INTO spot_prices (symbol, bid, ask, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET bid=excluded.bid, ask=excluded.ask, updated_at=CURRENT_TIMESTAMP`

	upsertDepthEntryQuery = `INSERT INTO depth_entries (symbol, entry_id, side, price, size, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol, entry_id) DO UPDATE SET side=excluded.side, price=excluded.price, size=excluded.size, updated_at=CURRENT_TIMESTAMP`

	deleteDepthEntryQuery = `DELETE FROM depth_entries WHERE symbol = ? AND entry_id = ?`
)

// Store is a SQLite sink, opened once per process and safe for
// concurrent use (database/sql pools its own connections).
type Store struct {
	db *sql.DB

	stmtExecutionReport *sql.Stmt
	stmtPosition        *sql.Stmt
	stmtSpotPrice       *sql.Stmt
	stmtDepthUpsert     *sql.Stmt
	stmtDepthDelete     *sql.Stmt
}

// Open creates (or reuses) a SQLite database at path and prepares the
// statements used by the Record* methods.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &Store{db: db}
	prep := func(dst **sql.Stmt, query string) error {
		stmt, err := db.Prepare(query)
		if err != nil {
			return err
		}
		*dst = stmt
		return nil
	}
	for _, p := range []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtExecutionReport, insertExecutionReportQuery},
		{&s.stmtPosition, insertPositionQuery},
		{&s.stmtSpotPrice, upsertSpotPriceQuery},
		{&s.stmtDepthUpsert, upsertDepthEntryQuery},
		{&s.stmtDepthDelete, deleteDepthEntryQuery},
	} {
		if err := prep(p.dst, p.query); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("prepare statement: %w", err)
		}
	}
	return s, nil
}

// Close releases the prepared statements and the underlying connection.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.stmtExecutionReport, s.stmtPosition, s.stmtSpotPrice, s.stmtDepthUpsert, s.stmtDepthDelete} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

// RecordExecutionReport persists one decoded 35=8.
func (s *Store) RecordExecutionReport(clOrdID, orderID, origClOrdID, symbol, side, ordStatus, execType string, orderQty, cumQty, leavesQty, avgPx, lastShares, price float64, text, transactTime string) error {
	_, err := s.stmtExecutionReport.Exec(clOrdID, orderID, origClOrdID, symbol, side, ordStatus, execType, orderQty, cumQty, leavesQty, avgPx, lastShares, price, text, transactTime)
	return err
}

// RecordPosition persists one parsed 35=AP position entry.
func (s *Store) RecordPosition(symbol, posMaintRptID string, longQty, shortQty, settlPrice float64) error {
	_, err := s.stmtPosition.Exec(symbol, posMaintRptID, longQty, shortQty, settlPrice)
	return err
}

// RecordSpotPrice upserts the latest bid/ask for symbol.
func (s *Store) RecordSpotPrice(symbol string, bid, ask float64) error {
	_, err := s.stmtSpotPrice.Exec(symbol, bid, ask)
	return err
}

// RecordDepthEntry upserts one depth-book entry.
func (s *Store) RecordDepthEntry(symbol, entryID, side string, price, size float64) error {
	_, err := s.stmtDepthUpsert.Exec(symbol, entryID, side, price, size)
	return err
}

// RemoveDepthEntry deletes one depth-book entry, for MDUpdateAction
// Delete.
func (s *Store) RemoveDepthEntry(symbol, entryID string) error {
	_, err := s.stmtDepthDelete.Exec(symbol, entryID)
	return err
}
