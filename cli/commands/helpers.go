package commands

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-query-engine/cli/internal/config"
	"github.com/satishbabariya/prisma-query-engine/query"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// targetFlags select the catalog and connector a command compiles for.
// Set flags override the config file.
type targetFlags struct {
	catalog         string
	provider        string
	providerVersion string
	schemaName      string
	query           string
}

func (f *targetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.catalog, "catalog", "c", "", "Path to the catalog file")
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Target provider (postgresql, cockroachdb, mysql, sqlite, sqlserver)")
	cmd.Flags().StringVar(&f.providerVersion, "provider-version", "", "Server version of the provider")
	cmd.Flags().StringVar(&f.schemaName, "schema-name", "", "Default database schema")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Path to the query document")
}

func (f *targetFlags) apply(c *config.Config) *config.Config {
	out := *c
	if f.catalog != "" {
		out.CatalogPath = f.catalog
	}
	if f.provider != "" {
		out.Provider = f.provider
	}
	if f.providerVersion != "" {
		out.ProviderVersion = f.providerVersion
	}
	if f.schemaName != "" {
		out.SchemaName = f.schemaName
	}
	return &out
}

// queryPath returns the query document path: the flag, else the first
// argument, else query.json.
func queryPath(flagValue string, args []string) string {
	if flagValue != "" {
		return flagValue
	}
	if len(args) > 0 {
		return args[0]
	}
	return "query.json"
}

func loadCatalog(path string) (*schema.Catalog, error) {
	catalog, err := schema.LoadCatalog(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return catalog, nil
}

// newEngine builds an engine for the configured target. db may be nil.
func newEngine(c *config.Config, db *sql.DB) (*query.Engine, error) {
	catalog, err := loadCatalog(c.CatalogPath)
	if err != nil {
		return nil, err
	}
	conn, err := connector.ForProvider(c.Provider, c.ProviderVersion)
	if err != nil {
		return nil, err
	}

	var opts []query.Option
	if c.SchemaName != "" {
		opts = append(opts, query.WithSchemaName(c.SchemaName))
	}
	if c.Debug {
		opts = append(opts, query.WithTracing())
	}
	return query.NewEngine(catalog, conn, db, opts...), nil
}

// detectProvider guesses the provider from a connection URL
func detectProvider(connStr string) string {
	switch {
	case strings.HasPrefix(connStr, "mysql://") || strings.Contains(connStr, "@tcp("):
		return "mysql"
	case strings.HasPrefix(connStr, "sqlite") || strings.HasPrefix(connStr, "file:"):
		return "sqlite"
	case strings.HasPrefix(connStr, "sqlserver://"):
		return "sqlserver"
	}
	return "postgresql"
}

// driverName maps a provider to its registered database/sql driver
func driverName(provider string) (string, error) {
	p, err := connector.ParseProvider(provider)
	if err != nil {
		return "", err
	}
	switch p {
	case connector.PostgreSQL, connector.CockroachDB:
		return "postgres", nil
	case connector.MySQL:
		return "mysql", nil
	case connector.SQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no database driver is linked for %s; use compile instead", p)
}

// dataSourceName converts a connection URL into the form the driver
// expects. MySQL URLs become go-sql-driver DSNs.
func dataSourceName(provider, connStr string) (string, error) {
	p, err := connector.ParseProvider(provider)
	if err != nil {
		return "", err
	}
	switch p {
	case connector.MySQL:
		return mysqlDSN(connStr)
	case connector.SQLite:
		return strings.TrimPrefix(strings.TrimPrefix(connStr, "sqlite://"), "sqlite:"), nil
	}
	return connStr, nil
}

func mysqlDSN(connStr string) (string, error) {
	if !strings.HasPrefix(connStr, "mysql://") {
		if _, err := mysql.ParseDSN(connStr); err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		return connStr, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid mysql URL: %w", err)
	}
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = u.Host
	if u.Port() == "" {
		mc.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	mc.DBName = strings.TrimPrefix(u.Path, "/")
	mc.ParseTime = true
	if u.User != nil {
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
	}
	for k, vs := range u.Query() {
		if len(vs) == 0 {
			continue
		}
		if mc.Params == nil {
			mc.Params = make(map[string]string)
		}
		mc.Params[k] = vs[len(vs)-1]
	}
	return mc.FormatDSN(), nil
}

// openDatabase opens and pings the configured database
func openDatabase(c *config.Config) (*sql.DB, error) {
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("no database URL: set database_url in the config or DATABASE_URL")
	}
	provider := c.Provider
	if provider == "" {
		provider = detectProvider(c.DatabaseURL)
	}
	driver, err := driverName(provider)
	if err != nil {
		return nil, err
	}
	dsn, err := dataSourceName(provider, c.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
