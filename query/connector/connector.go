// Package connector describes what each SQL provider can do, so the
// compiler picks a rendering strategy by capability rather than by name.
package connector

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// Provider identifies a SQL database family.
type Provider string

const (
	PostgreSQL  Provider = "postgresql"
	CockroachDB Provider = "cockroachdb"
	MySQL       Provider = "mysql"
	SQLite      Provider = "sqlite"
	SQLServer   Provider = "sqlserver"
)

// Capabilities are the rendering-relevant features of a connector.
type Capabilities struct {
	// InsensitiveFilters means ILIKE-style comparisons exist.
	InsensitiveFilters bool
	// RawGeometryRead means geometry columns can be read without ST_AsText.
	RawGeometryRead bool
	// NullsOrdering means NULLS FIRST / NULLS LAST can be rendered.
	NullsOrdering bool
	// NullsSortHigh means NULL sorts after every value in ascending order.
	NullsSortHigh bool
	DistinctOn    bool
	NativeEnums   bool
	ScalarLists   bool
}

// Connector is a provider at a given server version.
type Connector struct {
	Provider     Provider
	Version      *version.Version
	Capabilities Capabilities
}

// sqliteNullsOrdering is the first SQLite release accepting NULLS FIRST/LAST.
var sqliteNullsOrdering = version.Must(version.NewVersion("3.30.0"))

// ParseProvider normalises a provider name, accepting the usual aliases.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres":
		return PostgreSQL, nil
	case "cockroachdb", "cockroach":
		return CockroachDB, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", name)
	}
}

// ForProvider returns the connector for a provider. An empty version means
// the newest supported server.
func ForProvider(name, serverVersion string) (*Connector, error) {
	provider, err := ParseProvider(name)
	if err != nil {
		return nil, err
	}

	var v *version.Version
	if serverVersion != "" {
		v, err = version.NewVersion(serverVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid %s version %q: %w", provider, serverVersion, err)
		}
	}

	return &Connector{
		Provider:     provider,
		Version:      v,
		Capabilities: capabilitiesFor(provider, v),
	}, nil
}

func capabilitiesFor(p Provider, v *version.Version) Capabilities {
	switch p {
	case PostgreSQL:
		return Capabilities{
			InsensitiveFilters: true,
			NullsOrdering:      true,
			NullsSortHigh:      true,
			DistinctOn:         true,
			NativeEnums:        true,
			ScalarLists:        true,
		}
	case CockroachDB:
		return Capabilities{
			InsensitiveFilters: true,
			NullsOrdering:      true,
			DistinctOn:         true,
			NativeEnums:        true,
			ScalarLists:        true,
		}
	case MySQL:
		return Capabilities{}
	case SQLite:
		return Capabilities{
			NullsOrdering: v == nil || !v.LessThan(sqliteNullsOrdering),
		}
	case SQLServer:
		return Capabilities{}
	default:
		return Capabilities{}
	}
}

// String names the connector with its version when known.
func (c *Connector) String() string {
	if c.Version == nil {
		return string(c.Provider)
	}
	return fmt.Sprintf("%s %s", c.Provider, c.Version)
}
