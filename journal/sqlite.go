package journal

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal stores runs, trades and equity curves in a SQLite file.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	// SQLite has no Inf; an infinite profit factor is stored as NULL.
	var pf sql.NullFloat64
	if v, ok := finiteOr(r.ProfitFactor, 0); ok {
		pf = sql.NullFloat64{Float64: v, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, instrument, start, end,
		 initial_capital, final_equity, net_pl,
		 total_return, annualized_return, max_drawdown, sharpe_ratio,
		 trades, wins, losses, skipped, win_rate, profit_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Instrument, r.Start, r.End,
		r.InitialCapital, r.FinalEquity, r.NetPL,
		r.TotalReturn, r.AnnualizedReturn, r.MaxDrawdown, r.SharpeRatio,
		r.Trades, r.Wins, r.Losses, r.Skipped, r.WinRate, pf,
	)
	return err
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, instrument, direction, entry_time, exit_time,
		 entry_price, exit_price, quantity, gross_pl, commission, net_pl, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Instrument, t.Direction, t.EntryTime, t.ExitTime,
		t.EntryPrice, t.ExitPrice, t.Quantity, t.GrossPL, t.Commission, t.NetPL, t.ExitReason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, cash, unrealized, total)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.Unrealized, e.Total,
	)
	return err
}

// GetRun loads one run summary by ID.
func (j *SQLiteJournal) GetRun(runID string) (Run, error) {
	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, instrument, start, end,
		       initial_capital, final_equity, net_pl,
		       total_return, annualized_return, max_drawdown, sharpe_ratio,
		       trades, wins, losses, skipped, win_rate, profit_factor
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns the most recent run summaries, newest first.
func (j *SQLiteJournal) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, strategy, instrument, start, end,
		       initial_capital, final_equity, net_pl,
		       total_return, annualized_return, max_drawdown, sharpe_ratio,
		       trades, wins, losses, skipped, win_rate, profit_factor
		FROM runs ORDER BY created DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListTradesByRun returns a run's trades in log order.
func (j *SQLiteJournal) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, instrument, direction, entry_time, exit_time,
		       entry_price, exit_price, quantity, gross_pl, commission, net_pl, exit_reason
		FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(&t.RunID, &t.Seq, &t.Instrument, &t.Direction,
			&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
			&t.Quantity, &t.GrossPL, &t.Commission, &t.NetPL, &t.ExitReason)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQLiteJournal) ListEquityByRun(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, cash, unrealized, total
		FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.Unrealized, &e.Total); err != nil {
			return nil, err
		}
		points = append(points, e)
	}
	return points, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var pf sql.NullFloat64
	err := row.Scan(&r.RunID, &r.Created, &r.Strategy, &r.Instrument, &r.Start, &r.End,
		&r.InitialCapital, &r.FinalEquity, &r.NetPL,
		&r.TotalReturn, &r.AnnualizedReturn, &r.MaxDrawdown, &r.SharpeRatio,
		&r.Trades, &r.Wins, &r.Losses, &r.Skipped, &r.WinRate, &pf)
	if err != nil {
		return Run{}, err
	}
	if pf.Valid {
		r.ProfitFactor = pf.Float64
	} else {
		r.ProfitFactor = math.Inf(1)
	}
	return r, nil
}
