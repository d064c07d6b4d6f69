package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/afero"

	"github.com/schemadrift/schemadrift/cli/internal/config"
	"github.com/schemadrift/schemadrift/destructive"
	"github.com/schemadrift/schemadrift/diff/flavour"
	"github.com/schemadrift/schemadrift/introspect"
	"github.com/schemadrift/schemadrift/schema"
)

// databaseSource is the snapshot source name that means "introspect the
// live database" instead of reading a snapshot file.
const databaseSource = "database"

func openDB(provider, url string) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("no database URL configured (set DATABASE_URL)")
	}

	var driver string
	switch provider {
	case "postgresql", "postgres", "cockroachdb":
		driver = "postgres"
	case "mysql":
		driver = "mysql"
	case "sqlite":
		driver = "sqlite3"
	default:
		return nil, fmt.Errorf("no database driver available for provider %q", provider)
	}

	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", provider, err)
	}
	return db, nil
}

func flavourFor(provider string) (flavour.Flavour, error) {
	switch provider {
	case "postgresql", "postgres":
		return flavour.NewPostgresFlavour(), nil
	case "cockroachdb":
		return flavour.NewCockroachFlavour(), nil
	case "mysql":
		return flavour.NewMySQLFlavour(), nil
	case "sqlite":
		return flavour.NewSQLiteFlavour(), nil
	case "sqlserver", "mssql":
		return flavour.NewMSSQLFlavour(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// checkerFor picks the destructive-change checker for a provider. The
// Cockroach checker needs the server version to know which errors are
// transient, so a live connection is consulted when available.
func checkerFor(ctx context.Context, provider string, db *sql.DB) (destructive.CheckerFlavour, error) {
	switch provider {
	case "postgresql", "postgres":
		return destructive.PostgresChecker{}, nil
	case "cockroachdb":
		serverVersion := ""
		if db != nil {
			v, err := introspect.NewCockroachIntrospector(db).ServerVersion(ctx)
			if err == nil {
				serverVersion = v
			}
		}
		return destructive.NewCockroachChecker(serverVersion)
	case "mysql":
		return destructive.MySQLChecker{}, nil
	case "sqlite":
		return destructive.SQLiteChecker{}, nil
	case "sqlserver", "mssql":
		return destructive.MSSQLChecker{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// loadSnapshot resolves a snapshot source: either the literal string
// "database", which introspects the configured live database, or a path
// to a snapshot file written by the snapshot command.
func loadSnapshot(ctx context.Context, cfg *config.Config, source string) (*schema.Snapshot, error) {
	if source == databaseSource {
		db, err := openDB(cfg.Provider, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		intro, err := introspect.New(db, cfg.Provider)
		if err != nil {
			return nil, err
		}
		return intro.Snapshot(ctx)
	}

	data, err := afero.ReadFile(config.AppFs, source)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", source, err)
	}
	snapshot, err := schema.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", source, err)
	}
	return snapshot, nil
}
