package dbmanager

import (
	"fmt"
	"strings"
)

// Column kinds understood by Dialect.ColumnType.
const (
	ColumnKey  = "key"
	ColumnText = "text"
	ColumnTime = "time"
)

// Dialect abstraction for different SQL databases
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(n int) string
	Limit(limit, offset int) string
	ColumnType(kind string) string
	// CreateTable returns a statement creating table unless it exists.
	CreateTable(table, columns string) string
}

type MySQLDialect struct{}

func (d MySQLDialect) Name() string { return "mysql" }

func (d MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d MySQLDialect) Placeholder(n int) string {
	return "?"
}

func (d MySQLDialect) Limit(limit, offset int) string {
	if limit > 0 {
		if offset > 0 {
			return fmt.Sprintf(" LIMIT %d, %d", offset, limit)
		}
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		// MySQL has no OFFSET without LIMIT.
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", offset)
	}
	return ""
}

func (d MySQLDialect) ColumnType(kind string) string {
	switch kind {
	case ColumnKey:
		return "VARCHAR(255)"
	case ColumnTime:
		return "DATETIME"
	}
	return "LONGTEXT"
}

func (d MySQLDialect) CreateTable(table, columns string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" + columns + ")"
}

type SQLiteDialect struct{}

func (d SQLiteDialect) Name() string { return "sqlite" }

func (d SQLiteDialect) QuoteIdentifier(name string) string {
	return "\"" + strings.ReplaceAll(name, "\"", "\"\"") + "\""
}

func (d SQLiteDialect) Placeholder(n int) string {
	return "?"
}

func (d SQLiteDialect) Limit(limit, offset int) string {
	res := ""
	if limit > 0 {
		res += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		if limit <= 0 {
			res += " LIMIT -1" // SQLite requires LIMIT for OFFSET
		}
		res += fmt.Sprintf(" OFFSET %d", offset)
	}
	return res
}

func (d SQLiteDialect) ColumnType(kind string) string {
	if kind == ColumnTime {
		return "TIMESTAMP"
	}
	return "TEXT"
}

func (d SQLiteDialect) CreateTable(table, columns string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" + columns + ")"
}

type SQLServerDialect struct{}

func (d SQLServerDialect) Name() string { return "sqlserver" }

func (d SQLServerDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d SQLServerDialect) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// Limit uses OFFSET-FETCH, which needs an ORDER BY in the query.
func (d SQLServerDialect) Limit(limit, offset int) string {
	res := ""
	if offset > 0 {
		res += fmt.Sprintf(" OFFSET %d ROWS", offset)
		if limit > 0 {
			res += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", limit)
		}
	} else if limit > 0 {
		res += fmt.Sprintf(" OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", limit)
	}
	return res
}

func (d SQLServerDialect) ColumnType(kind string) string {
	switch kind {
	case ColumnKey:
		return "NVARCHAR(255)"
	case ColumnTime:
		return "DATETIME2"
	}
	return "NVARCHAR(MAX)"
}

func (d SQLServerDialect) CreateTable(table, columns string) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(table, "'", "''"), d.QuoteIdentifier(table), columns)
}

type PostgreSQLDialect struct{}

func (d PostgreSQLDialect) Name() string { return "postgres" }

func (d PostgreSQLDialect) QuoteIdentifier(name string) string {
	return "\"" + strings.ReplaceAll(name, "\"", "\"\"") + "\""
}

func (d PostgreSQLDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d PostgreSQLDialect) Limit(limit, offset int) string {
	res := ""
	if limit > 0 {
		res += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		res += fmt.Sprintf(" OFFSET %d", offset)
	}
	return res
}

func (d PostgreSQLDialect) ColumnType(kind string) string {
	if kind == ColumnTime {
		return "TIMESTAMP"
	}
	return "TEXT"
}

func (d PostgreSQLDialect) CreateTable(table, columns string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" + columns + ")"
}

// GetDialect returns the dialect for a driver name. Unknown drivers get
// MySQL behaviour.
func GetDialect(driverName string) Dialect {
	switch strings.ToLower(driverName) {
	case "mysql":
		return MySQLDialect{}
	case "sqlite", "sqlite3":
		return SQLiteDialect{}
	case "postgres", "postgresql", "pgx":
		return PostgreSQLDialect{}
	case "sqlserver", "mssql":
		return SQLServerDialect{}
	default:
		return MySQLDialect{}
	}
}

// DriverName maps the accepted spellings of DB_DRIVER onto registered
// database/sql driver names.
func DriverName(driver string) string {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlserver", "mssql":
		return "sqlserver"
	case "":
		return "sqlite"
	}
	return strings.ToLower(driver)
}

// BuildDSN assembles a DSN from discrete settings. For sqlite name is the
// file path.
func BuildDSN(driver, host, user, pass, name string) string {
	switch DriverName(driver) {
	case "sqlite":
		return name
	case "sqlserver":
		return fmt.Sprintf("sqlserver://%s:%s@%s?database=%s", user, pass, host, name)
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, pass, host, name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", user, pass, host, name)
}
