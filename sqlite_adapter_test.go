package venom

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteSavepointAdapter is a stack-nested test fixture backed by a real
// in-memory SQLite database, using SAVEPOINT/ROLLBACK TO as its
// checkpoint/rollback primitive — grounded on the teacher's SQLiteStore
// connection-setup idiom (graph/store/sqlite.go: sql.Open plus PRAGMA
// busy_timeout/journal_mode), repurposed here from workflow-state
// persistence to adapter rollback, which is exactly what makes it
// stack-nested: a savepoint still on the stack can be rolled back to
// repeatedly, but doing so discards every savepoint taken after it.
type sqliteSavepointAdapter struct {
	name string
	db   *sql.DB
	conn *sql.Conn
	seq  int
}

func newSQLiteSavepointAdapter(name string) (*sqliteSavepointAdapter, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("CREATE TABLE balances (account TEXT PRIMARY KEY, cents INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	conn, err := db.Conn(context.Background())
	if err != nil {
		return nil, err
	}

	return &sqliteSavepointAdapter{name: name, db: db, conn: conn}, nil
}

func (a *sqliteSavepointAdapter) Name() string              { return a.name }
func (a *sqliteSavepointAdapter) NestingModel() NestingModel { return StackNested }

func (a *sqliteSavepointAdapter) Observe() (Observation, error) {
	rows, err := a.conn.QueryContext(context.Background(), "SELECT account, cents FROM balances ORDER BY account")
	if err != nil {
		return Observation{}, err
	}
	defer rows.Close()

	data := make(map[string]any)
	for rows.Next() {
		var account string
		var cents int64
		if err := rows.Scan(&account, &cents); err != nil {
			return Observation{}, err
		}
		data[account] = cents
	}
	return Observation{Data: data}, rows.Err()
}

func (a *sqliteSavepointAdapter) Checkpoint(name string) (string, error) {
	a.seq++
	token := fmt.Sprintf("sp_%s_%d", sanitizeSavepointName(name), a.seq)
	_, err := a.conn.ExecContext(context.Background(), "SAVEPOINT "+token)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Rollback undoes everything since token without releasing it: a
// stack-nested token must remain usable across repeated backtracking (DFS
// revisits the same state many times), and RELEASE would destroy the
// savepoint after its first use, aborting every subsequent rollback to it
// with a fatal error (spec.md §4.2).
func (a *sqliteSavepointAdapter) Rollback(token string) error {
	_, err := a.conn.ExecContext(context.Background(), "ROLLBACK TO "+token)
	return err
}

func (a *sqliteSavepointAdapter) credit(account string, cents int64) error {
	_, err := a.conn.ExecContext(context.Background(),
		"INSERT INTO balances (account, cents) VALUES (?, ?) ON CONFLICT(account) DO UPDATE SET cents = cents + excluded.cents",
		account, cents)
	return err
}

func (a *sqliteSavepointAdapter) close() error {
	if err := a.conn.Close(); err != nil {
		return err
	}
	return a.db.Close()
}

// sanitizeSavepointName strips characters SQLite's SAVEPOINT identifier
// syntax disallows unquoted, since action names may contain them.
func sanitizeSavepointName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "sp"
	}
	return string(out)
}
