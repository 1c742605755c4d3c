package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tursodatabase/go-libsql"
)

// Client wraps a libsql connection to the conversion history store: a local
// file, a remote Turso database, or a local replica of a remote one.
type Client struct {
	*sql.DB
	connector *libsql.Connector
}

// Options configures the database client behavior.
type Options struct {
	// AuthToken authenticates against a remote database.
	AuthToken string
	// ReplicaPath, when set with a remote URL, keeps a local embedded
	// replica that is read locally and synced on demand.
	ReplicaPath string
	Ping        bool
}

// New opens databaseURL with pinging enabled.
func New(databaseURL, authToken string) (*Client, error) {
	return NewWithOptions(databaseURL, Options{AuthToken: authToken, Ping: true})
}

// NewWithOptions opens a client with custom options.
func NewWithOptions(databaseURL string, opts Options) (*Client, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	var (
		client *Client
		err    error
	)
	switch {
	case IsRemote(databaseURL) && opts.ReplicaPath != "":
		client, err = openReplica(databaseURL, opts)
	case IsRemote(databaseURL):
		client, err = openRemote(databaseURL, opts)
	default:
		client, err = openLocal(databaseURL)
	}
	if err != nil {
		return nil, err
	}

	if opts.Ping {
		if err := client.Ping(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}
	return client, nil
}

// IsRemote reports whether url points at a libsql server rather than a
// local file.
func IsRemote(url string) bool {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

func openLocal(databaseURL string) (*Client, error) {
	if path, ok := strings.CutPrefix(databaseURL, "file:"); ok && path != "" && !strings.HasPrefix(path, ":memory:") {
		path, _, _ = strings.Cut(path, "?")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("libsql", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Client{DB: db}, nil
}

func openRemote(databaseURL string, opts Options) (*Client, error) {
	connStr := databaseURL
	if opts.AuthToken != "" {
		connStr += "?authToken=" + opts.AuthToken
	}
	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Turso closes idle Hrana streams aggressively, so keep no idle
	// connections around.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(0)

	return &Client{DB: db}, nil
}

func openReplica(databaseURL string, opts Options) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(opts.ReplicaPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create replica directory: %w", err)
	}

	var libsqlOpts []libsql.Option
	if opts.AuthToken != "" {
		libsqlOpts = append(libsqlOpts, libsql.WithAuthToken(opts.AuthToken))
	}
	connector, err := libsql.NewEmbeddedReplicaConnector(opts.ReplicaPath, databaseURL, libsqlOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open replica: %w", err)
	}
	return &Client{DB: sql.OpenDB(connector), connector: connector}, nil
}

// Sync pushes and pulls changes of an embedded replica. It does nothing for
// other connections.
func (c *Client) Sync() error {
	if c.connector == nil {
		return nil
	}
	if _, err := c.connector.Sync(); err != nil {
		return fmt.Errorf("failed to sync replica: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	err := c.DB.Close()
	if c.connector != nil {
		if cerr := c.connector.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// WithRetry executes fn, retrying up to maxRetries times on Turso stream
// errors.
func WithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
