// Package sqlgen renders compiled Select trees into SQL text and bind
// arguments for different database providers.
package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

// ErrUnsupported is returned when a statement uses a construct the
// dialect cannot express.
var ErrUnsupported = errors.New("not supported by dialect")

// Query represents a SQL query with arguments
type Query struct {
	SQL  string
	Args []interface{}
}

// Generator renders statements for a specific provider
type Generator interface {
	Render(sel ast.Select) (*Query, error)
	Provider() connector.Provider
}

// NewGenerator creates a new SQL generator for the given connector
func NewGenerator(conn *connector.Connector) Generator {
	switch conn.Provider {
	case connector.PostgreSQL, connector.CockroachDB:
		return &PostgresGenerator{dialect: postgresDialect(conn)}
	case connector.MySQL:
		return &MySQLGenerator{dialect: mysqlDialect(conn)}
	case connector.SQLite:
		return &SQLiteGenerator{dialect: sqliteDialect(conn)}
	case connector.SQLServer:
		return &SQLServerGenerator{dialect: sqlServerDialect(conn)}
	default:
		return &PostgresGenerator{dialect: postgresDialect(conn)} // default to postgres
	}
}

// dialect holds what differs between providers at the text level.
type dialect struct {
	provider    connector.Provider
	caps        connector.Capabilities
	quote       func(string) string
	placeholder func(int) string
}

// PostgresGenerator generates PostgreSQL and CockroachDB SQL
type PostgresGenerator struct {
	dialect dialect
}

func (g *PostgresGenerator) Render(sel ast.Select) (*Query, error) {
	return render(&g.dialect, sel)
}

func (g *PostgresGenerator) Provider() connector.Provider { return g.dialect.provider }

// MySQLGenerator generates MySQL SQL
type MySQLGenerator struct {
	dialect dialect
}

func (g *MySQLGenerator) Render(sel ast.Select) (*Query, error) {
	return render(&g.dialect, sel)
}

func (g *MySQLGenerator) Provider() connector.Provider { return g.dialect.provider }

// SQLiteGenerator generates SQLite SQL
type SQLiteGenerator struct {
	dialect dialect
}

func (g *SQLiteGenerator) Render(sel ast.Select) (*Query, error) {
	return render(&g.dialect, sel)
}

func (g *SQLiteGenerator) Provider() connector.Provider { return g.dialect.provider }

func postgresDialect(conn *connector.Connector) dialect {
	return dialect{
		provider:    conn.Provider,
		caps:        conn.Capabilities,
		quote:       quoteIdentifier,
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	}
}

func mysqlDialect(conn *connector.Connector) dialect {
	return dialect{
		provider:    conn.Provider,
		caps:        conn.Capabilities,
		quote:       quoteIdentifierMySQL,
		placeholder: func(int) string { return "?" },
	}
}

func sqliteDialect(conn *connector.Connector) dialect {
	return dialect{
		provider:    conn.Provider,
		caps:        conn.Capabilities,
		quote:       quoteIdentifierSQLite,
		placeholder: func(int) string { return "?" },
	}
}

// quoteIdentifier quotes an identifier for PostgreSQL
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteIdentifierMySQL quotes an identifier for MySQL
func quoteIdentifierMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quoteIdentifierSQLite quotes an identifier for SQLite
func quoteIdentifierSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *dialect) isPostgres() bool {
	return d.provider == connector.PostgreSQL || d.provider == connector.CockroachDB
}
