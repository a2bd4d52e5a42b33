package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"angles/pkg/dbmanager"
)

// SQLLoader reads templates from a table with the columns name, source and
// updated_at.
type SQLLoader struct {
	db      *sql.DB
	dialect dbmanager.Dialect
	table   string
	// Timeout bounds the lookups made through the Loader methods, which
	// carry no context.
	Timeout time.Duration
}

func NewSQLLoader(db *sql.DB, dialect dbmanager.Dialect, table string) *SQLLoader {
	return &SQLLoader{db: db, dialect: dialect, table: table, Timeout: 5 * time.Second}
}

func (l *SQLLoader) quotedTable() string {
	return l.dialect.QuoteIdentifier(l.table)
}

func (l *SQLLoader) column(name string) string {
	return l.dialect.QuoteIdentifier(name)
}

// Migrate creates the template table if it does not exist.
func (l *SQLLoader) Migrate(ctx context.Context) error {
	d := l.dialect
	columns := strings.Join([]string{
		l.column("name") + " " + d.ColumnType(dbmanager.ColumnKey) + " NOT NULL PRIMARY KEY",
		l.column("source") + " " + d.ColumnType(dbmanager.ColumnText) + " NOT NULL",
		l.column("updated_at") + " " + d.ColumnType(dbmanager.ColumnTime) + " NOT NULL",
	}, ", ")

	if _, err := l.db.ExecContext(ctx, d.CreateTable(l.table, columns)); err != nil {
		return fmt.Errorf("create template table %s: %w", l.table, err)
	}
	return nil
}

// Save inserts or replaces a template.
func (l *SQLLoader) Save(ctx context.Context, name, source string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save template %s: %w", name, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ph := l.dialect.Placeholder

	update := fmt.Sprintf("UPDATE %s SET %s = %s, %s = %s WHERE %s = %s",
		l.quotedTable(), l.column("source"), ph(1), l.column("updated_at"), ph(2), l.column("name"), ph(3))
	res, err := tx.ExecContext(ctx, update, source, now, name)
	if err != nil {
		return fmt.Errorf("save template %s: %w", name, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
			l.quotedTable(), l.column("name"), l.column("source"), l.column("updated_at"), ph(1), ph(2), ph(3))
		if _, err := tx.ExecContext(ctx, insert, name, source, now); err != nil {
			return fmt.Errorf("save template %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func (l *SQLLoader) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", l.quotedTable(), l.column("name"), l.dialect.Placeholder(1))
	if _, err := l.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	return nil
}

// Names lists stored template names in order. A limit of 0 means no limit.
func (l *SQLLoader) Names(ctx context.Context, limit, offset int) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", l.column("name"), l.quotedTable(), l.column("name")) +
		l.dialect.Limit(limit, offset)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SourceContext returns the stored source of name.
func (l *SQLLoader) SourceContext(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		l.column("source"), l.quotedTable(), l.column("name"), l.dialect.Placeholder(1))

	var src string
	err := l.db.QueryRowContext(ctx, query, name).Scan(&src)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound(name)
	}
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	return src, nil
}

func (l *SQLLoader) exists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		l.quotedTable(), l.column("name"), l.dialect.Placeholder(1))

	var n int
	if err := l.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *SQLLoader) Resolve(name string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()

	for _, c := range candidates(name) {
		if ok, err := l.exists(ctx, c); err == nil && ok {
			return c, true
		}
	}
	return "", false
}

func (l *SQLLoader) Source(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()
	return l.SourceContext(ctx, name)
}
