package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbsql "github.com/databricks/databricks-sql-go"
)

const (
	databricksDriverNameConstant  = "databricks"
	databricksDefaultPortConstant = 443
	userAgentEntryConstant        = "lakemove"
	openConnectorErrorTemplate    = "unable to configure warehouse connection: %w"
	openDataSourceErrorTemplate   = "unable to open warehouse connection: %w"
)

var (
	// ErrWarehouseHostMissing indicates that neither a DSN nor a host was configured.
	ErrWarehouseHostMissing = errors.New("warehouse host or dsn must be configured")
	// ErrWarehouseHTTPPathMissing indicates that the SQL warehouse HTTP path was not configured.
	ErrWarehouseHTTPPathMissing = errors.New("warehouse http path must be configured")
	// ErrWarehouseTokenMissing indicates that no access token was configured.
	ErrWarehouseTokenMissing = errors.New("warehouse access token must be configured")
)

// ConnectionSettings describes how to reach a Databricks SQL warehouse.
type ConnectionSettings struct {
	DSN         string
	Host        string
	Port        int
	HTTPPath    string
	AccessToken string
	Catalog     string
	Schema      string
	Timeout     time.Duration
}

// OpenDatabase returns a database handle for the warehouse. A DSN takes precedence over discrete settings.
func OpenDatabase(settings ConnectionSettings) (*sql.DB, error) {
	if trimmedDSN := strings.TrimSpace(settings.DSN); len(trimmedDSN) > 0 {
		database, openError := sql.Open(databricksDriverNameConstant, trimmedDSN)
		if openError != nil {
			return nil, fmt.Errorf(openDataSourceErrorTemplate, openError)
		}
		return database, nil
	}

	if len(strings.TrimSpace(settings.Host)) == 0 {
		return nil, ErrWarehouseHostMissing
	}
	if len(strings.TrimSpace(settings.HTTPPath)) == 0 {
		return nil, ErrWarehouseHTTPPathMissing
	}
	if len(strings.TrimSpace(settings.AccessToken)) == 0 {
		return nil, ErrWarehouseTokenMissing
	}

	port := settings.Port
	if port <= 0 {
		port = databricksDefaultPortConstant
	}

	connectorOptions := []dbsql.ConnOption{
		dbsql.WithServerHostname(strings.TrimSpace(settings.Host)),
		dbsql.WithPort(port),
		dbsql.WithHTTPPath(strings.TrimSpace(settings.HTTPPath)),
		dbsql.WithAccessToken(strings.TrimSpace(settings.AccessToken)),
		dbsql.WithUserAgentEntry(userAgentEntryConstant),
	}
	if len(strings.TrimSpace(settings.Catalog)) > 0 || len(strings.TrimSpace(settings.Schema)) > 0 {
		connectorOptions = append(connectorOptions, dbsql.WithInitialNamespace(strings.TrimSpace(settings.Catalog), strings.TrimSpace(settings.Schema)))
	}
	if settings.Timeout > 0 {
		connectorOptions = append(connectorOptions, dbsql.WithTimeout(settings.Timeout))
	}

	connector, connectorError := dbsql.NewConnector(connectorOptions...)
	if connectorError != nil {
		return nil, fmt.Errorf(openConnectorErrorTemplate, connectorError)
	}
	return sql.OpenDB(connector), nil
}
