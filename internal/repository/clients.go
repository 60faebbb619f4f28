package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/virajbhatt/cardintel/internal/entity"
)

// ClientDirectory is read-only access to active client records, used by
// duplicate detection. One query returns every client with its contacts.
type ClientDirectory interface {
	ListActive(ctx context.Context) ([]entity.ClientRecord, error)
}

type clientDirectory struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewClientDirectory(pool *pgxpool.Pool, log *slog.Logger) ClientDirectory {
	if log == nil {
		log = slog.Default()
	}
	return &clientDirectory{pool: pool, log: log}
}

func (d *clientDirectory) ListActive(ctx context.Context) ([]entity.ClientRecord, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT c.id, c.company_name, c.created_at,
		        p.name, p.designation, p.phone, p.email, p.whatsapp_number, p.is_primary
		 FROM clients c
		 LEFT JOIN contact_persons p ON p.client_id = c.id
		 WHERE c.is_active
		 ORDER BY c.created_at, c.id`,
	)
	if err != nil {
		d.log.Error("client directory read failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.ClientRecord
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			rec     entity.ClientRecord
			name    *string
			desig   *string
			phone   *string
			email   *string
			wa      *string
			primary *bool
		)
		if err := rows.Scan(&rec.ID, &rec.CompanyName, &rec.CreatedAt, &name, &desig, &phone, &email, &wa, &primary); err != nil {
			return nil, err
		}
		i, ok := index[rec.ID]
		if !ok {
			i = len(out)
			index[rec.ID] = i
			out = append(out, rec)
		}
		if name == nil && phone == nil && email == nil {
			continue // client without contacts
		}
		out[i].Contacts = append(out[i].Contacts, entity.ContactPerson{
			Name:           strOr(name),
			Designation:    strOr(desig),
			Phone:          strOr(phone),
			Email:          strOr(email),
			WhatsappNumber: strOr(wa),
			IsPrimary:      primary != nil && *primary,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	d.log.Debug("client directory loaded", "clients", len(out))
	return out, nil
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
