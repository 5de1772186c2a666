package core

import "strconv"

// ConnConfig holds connection details for a single target database.
// It is supplied by the caller per execution and never persisted by the
// core; adapters read only the fields their engine needs.
type ConnConfig struct {
	Type     EngineType
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string

	// Path is the database file for embedded engines (sqlite, duckdb).
	// ":memory:" opens an in-memory database.
	Path string

	// Catalog and HTTPPath are used by the databricks adapter; Token is its
	// personal-access-token credential.
	Catalog  string
	HTTPPath string
	Token    string

	// Options carries engine-specific knobs (e.g. sslmode for postgres).
	Options map[string]string
}

// Identity returns a stable, credential-free description of the connection
// used for cache keying and logging. Password and token are deliberately
// excluded so secrets never reach the cache key or a log line.
func (c ConnConfig) Identity() string {
	return string(c.Type) + "|" + c.Host + "|" + strconv.Itoa(c.Port) + "|" +
		c.Database + "|" + c.User + "|" + c.Schema + "|" + c.Path + "|" +
		c.Catalog + "|" + c.HTTPPath
}
