// Package version holds build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// driverModules are the database/sql drivers the binary links.
var driverModules = map[string]string{
	"github.com/lib/pq":              "postgresql",
	"github.com/go-sql-driver/mysql": "mysql",
	"github.com/mattn/go-sqlite3":    "sqlite",
}

// Info describes the running binary
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
	// Drivers maps a provider to the version of its linked driver module.
	Drivers map[string]string
}

// Get returns version information
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Drivers:   make(map[string]string),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if provider, ok := driverModules[dep.Path]; ok {
				info.Drivers[provider] = dep.Version
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("prisma-query version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString lists build details and linked drivers, one per line
func (i Info) FullString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "prisma-query version %s\n", i.Version)
	fmt.Fprintf(&b, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(&b, "Git Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&b, "Platform:   %s\n", i.Platform)
	fmt.Fprintf(&b, "Go Version: %s", i.GoVersion)

	providers := make([]string, 0, len(i.Drivers))
	for p := range i.Drivers {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	for _, p := range providers {
		fmt.Fprintf(&b, "\nDriver:     %s %s", p, i.Drivers[p])
	}
	return b.String()
}
