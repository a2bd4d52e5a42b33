package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DBManager holds named database connections and the dialect of each.
type DBManager struct {
	mu          sync.RWMutex
	connections map[string]*sql.DB
	dialects    map[string]Dialect
	defaultName string
}

func NewDBManager() *DBManager {
	return &DBManager{
		connections: make(map[string]*sql.DB),
		dialects:    make(map[string]Dialect),
		defaultName: "default",
	}
}

// AddConnection opens and pings a connection and registers it under name.
// driverName is a database/sql driver name ("mysql", "sqlite", "postgres",
// "sqlserver").
func (m *DBManager) AddConnection(ctx context.Context, name, driverName, dsn string, maxOpen, maxIdle int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[name]; exists {
		return fmt.Errorf("database connection '%s' already exists", name)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database '%s': %w", name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database '%s': %w", name, err)
	}

	configurePool(db, maxOpen, maxIdle)

	m.connections[name] = db
	m.dialects[name] = GetDialect(driverName)
	return nil
}

// GetConnection returns the connection registered under name, or nil.
func (m *DBManager) GetConnection(name string) *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[name]
}

func (m *DBManager) GetDialect(name string) Dialect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dialects[name]
}

// GetDefault returns the default connection and its dialect.
func (m *DBManager) GetDefault() (*sql.DB, Dialect) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[m.defaultName], m.dialects[m.defaultName]
}

func (m *DBManager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[name]; !exists {
		return fmt.Errorf("database connection '%s' not found", name)
	}

	m.defaultName = name
	return nil
}

// GetConnectionNames returns the registered names in sorted order.
func (m *DBManager) GetConnectionNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.connections))
	for name := range m.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every connection and returns the first failure.
func (m *DBManager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, db := range m.connections {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database '%s': %w", name, err)
		}
	}
	return nil
}

func configurePool(db *sql.DB, maxOpen, maxIdle int) {
	if maxOpen == 0 {
		maxOpen = 25
	}
	if maxIdle == 0 {
		maxIdle = 5
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// Close closes every connection.
func (m *DBManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, db := range m.connections {
		if err := db.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close database '%s': %w", name, err)
		}
		delete(m.connections, name)
		delete(m.dialects, name)
	}

	return lastErr
}
