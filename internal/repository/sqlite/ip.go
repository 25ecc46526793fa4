package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

var _ repository.IPRepository = (*IPDB)(nil)

// IPDB stores the sign-up address log.
type IPDB struct {
	conn *sql.DB
}

func (d *IPDB) Record(ctx context.Context, rec *model.IPRecord) error {
	rec.ID = xid.New().String()
	rec.CreatedAt = time.Now().UTC()
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO ip_addresses (id, ip_address, user_agent, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.IPAddress, rec.UserAgent, rec.UserID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: recording ip address: %w", err)
	}
	return nil
}

func (d *IPDB) List(ctx context.Context, opts repository.ListOptions) ([]model.IPRecord, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, ip_address, user_agent, user_id, created_at
		 FROM ip_addresses ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		clampLimit(opts.Limit), max(opts.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ip addresses: %w", err)
	}
	defer rows.Close()

	out := []model.IPRecord{}
	for rows.Next() {
		var r model.IPRecord
		if err := rows.Scan(&r.ID, &r.IPAddress, &r.UserAgent, &r.UserID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ip address: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *IPDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM ip_addresses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting ip address %s: %w", id, err)
	}
	return requireAffected(res, "ip address", id)
}
