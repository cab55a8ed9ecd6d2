package constants

import "time"

// Data directory layout
const (
	DefaultDataDir       = "res/"
	VariablesFileName    = "variables.json"
	ConfigFileName       = "config.json"
	SQLiteDatabaseName   = "varstore.db"
	DefaultDocumentTable = "documents"
)

// Server defaults
const (
	DefaultPort            = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
)

// SQLite connection settings
const (
	SQLiteBusyTimeoutMS   = 5000
	DefaultSQLiteMaxConns = 1 // SQLite allows only one writer
	DefaultSQLiteLifetime = 10 * time.Minute
	DefaultSQLiteIdleTime = 5 * time.Minute
)

// Client defaults
const (
	DefaultClientTimeout = 10 * time.Second
	DefaultClientAddr    = "http://127.0.0.1:8080"
)

// JSON indentation used for every document written to the data directory.
const JSONIndent = "    "
