package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// dbtx abstracts *sql.DB and *sql.Tx so every query helper works both on
// the store directly and inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds all row-level CRUD helpers. Embedded by Store and Tx.
type queries struct {
	db dbtx
}

// CreateHost inserts a new host. Returns ErrDuplicate if the hostname is
// already taken.
func (q *queries) CreateHost(ctx context.Context, hostname, ip string) (Host, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO hosts (hostname, ip) VALUES (?, ?)
	`, hostname, nullable(ip))
	if err != nil {
		if isUniqueViolation(err) {
			return Host{}, fmt.Errorf("host %q: %w", hostname, ErrDuplicate)
		}
		return Host{}, fmt.Errorf("create host: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Host{}, fmt.Errorf("create host: last insert id: %w", err)
	}
	return Host{ID: id, Hostname: hostname, IP: ip}, nil
}

// GetOrCreateHost returns the host with the given name, creating it on
// first reference. A non-empty ip updates the stored address literal.
func (q *queries) GetOrCreateHost(ctx context.Context, hostname, ip string) (Host, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO hosts (hostname, ip) VALUES (?, ?)
		ON CONFLICT(hostname) DO UPDATE SET
			ip = COALESCE(excluded.ip, hosts.ip)
	`, hostname, nullable(ip))
	if err != nil {
		return Host{}, fmt.Errorf("get or create host: %w", err)
	}
	return q.GetHostByName(ctx, hostname)
}

// GetHostByName retrieves a host row. Returns ErrNotFound if absent.
func (q *queries) GetHostByName(ctx context.Context, hostname string) (Host, error) {
	var h Host
	var ip sql.NullString
	err := q.db.QueryRowContext(ctx, `
		SELECT id, hostname, ip FROM hosts WHERE hostname = ?
	`, hostname).Scan(&h.ID, &h.Hostname, &ip)
	if errors.Is(err, sql.ErrNoRows) {
		return Host{}, fmt.Errorf("host %q: %w", hostname, ErrNotFound)
	}
	if err != nil {
		return Host{}, fmt.Errorf("get host: %w", err)
	}
	h.IP = ip.String
	return h, nil
}

// ListHosts returns all hosts ordered by id for deterministic iteration.
func (q *queries) ListHosts(ctx context.Context) ([]Host, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, hostname, ip FROM hosts ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	var hosts []Host
	for rows.Next() {
		var h Host
		var ip sql.NullString
		if err := rows.Scan(&h.ID, &h.Hostname, &ip); err != nil {
			return nil, fmt.Errorf("scan host: %w", err)
		}
		h.IP = ip.String
		hosts = append(hosts, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hosts: %w", err)
	}

	if hosts == nil {
		hosts = []Host{}
	}
	return hosts, nil
}

// DeleteHost removes a host row. Memberships cascade through foreign keys;
// the host's variables are removed in the same statement batch, so callers
// must run this inside a transaction to keep the cascade atomic.
func (q *queries) DeleteHost(ctx context.Context, hostname string) error {
	h, err := q.GetHostByName(ctx, hostname)
	if err != nil {
		return err
	}

	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM variables WHERE entity_type = ? AND entity_name = ?
	`, EntityHost, hostname); err != nil {
		return fmt.Errorf("delete host variables: %w", err)
	}

	if _, err := q.db.ExecContext(ctx, `DELETE FROM hosts WHERE id = ?`, h.ID); err != nil {
		return fmt.Errorf("delete host: %w", err)
	}
	return nil
}

// nullable maps "" to NULL so empty optional columns stay NULL in SQLite.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
