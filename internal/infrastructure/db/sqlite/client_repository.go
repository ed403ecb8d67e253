package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// ClientRepository implements ports.ClientRepository.
type ClientRepository struct {
	db  *sql.DB
	loc *time.Location
}

// NewClientRepository returns a repository over db. Stored wall times
// without a zone are read in loc; nil means UTC.
func NewClientRepository(db *sql.DB, loc *time.Location) *ClientRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ClientRepository{db: db, loc: loc}
}

const (
	clientColumns = `c.id, c.seller_id, c.name, c.phone, c.description, c.whatsapp_message,
		c.scheduled_at, c.status, c.concluded_at, c.created_at`

	// Unscheduled clients sort last; ties go to the newest record.
	clientOrder = ` ORDER BY c.scheduled_at IS NULL, c.scheduled_at ASC, c.created_at DESC, c.id DESC`
)

func (r *ClientRepository) Create(ctx context.Context, in domain.NewClient, createdAt time.Time) (*domain.Client, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (seller_id, name, phone, description, scheduled_at, whatsapp_message, status, concluded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		in.SellerID, in.Name, in.Phone, nullString(in.Description), nullTime(in.ScheduledAt),
		nullString(in.WhatsAppMessage), string(domain.ClientPending), formatTime(createdAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrSellerNotFound
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert client: last id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.id = ?`, id)
	var c domain.Client
	if err := scanClient(row, r.loc, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients c WHERE c.seller_id = ?`+clientOrder, sellerID)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		var c domain.Client
		if err := scanClient(rows, r.loc, &c); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientRepository) ListAllWithSeller(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+`, u.name FROM clients c JOIN users u ON u.id = c.seller_id`+clientOrder)
	if err != nil {
		return nil, fmt.Errorf("select clients with seller: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		var c domain.Client
		if err := scanClient(rows, r.loc, &c, &c.SellerName); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

// Update keeps the stored concluded_at when concludedAt is nil.
func (r *ClientRepository) Update(ctx context.Context, id int64, ch domain.ClientChanges, concludedAt *time.Time) (*domain.Client, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, phone = ?, description = ?, scheduled_at = ?, status = ?,
		    concluded_at = COALESCE(?, concluded_at), whatsapp_message = ?
		WHERE id = ?`,
		ch.Name, ch.Phone, nullString(ch.Description), nullTime(ch.ScheduledAt), string(ch.Status),
		nullTime(concludedAt), nullString(ch.WhatsAppMessage), id)
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	if err := expectRow(res, domain.ErrClientNotFound); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var sellerID int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM clients WHERE id = ? RETURNING seller_id`, id).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrClientNotFound
		}
		return 0, fmt.Errorf("delete client: %w", err)
	}
	return sellerID, nil
}

func scanClient(row scanner, loc *time.Location, c *domain.Client, extra ...any) error {
	var (
		description, message          sql.NullString
		scheduled, concluded, created sql.NullString
		status                        string
	)
	dest := []any{&c.ID, &c.SellerID, &c.Name, &c.Phone, &description, &message,
		&scheduled, &status, &concluded, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan client: %w", err)
	}

	c.Description = stringPtr(description)
	c.WhatsAppMessage = stringPtr(message)
	c.Status = domain.ClientStatus(status)

	var err error
	if c.ScheduledAt, err = scanTime(scheduled, loc); err != nil {
		return err
	}
	if c.ConcludedAt, err = scanTime(concluded, loc); err != nil {
		return err
	}
	createdAt, err := scanTime(created, loc)
	if err != nil {
		return err
	}
	if createdAt != nil {
		c.CreatedAt = *createdAt
	}
	return nil
}
