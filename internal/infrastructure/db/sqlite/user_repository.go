package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, role, active`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, role, active) VALUES (?, ?, ?, ?)`,
		user.Name, domain.NormalizeEmail(user.Email), string(user.Role), user.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: last id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByEmail matches with NOCASE collation, on top of the lowercasing
// every caller already applies.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`,
		domain.NormalizeEmail(email))
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

func (r *UserRepository) Promote(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET active = 1, role = ? WHERE id = ?`, string(domain.RoleAdmin), id)
	if err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	return expectRow(res, domain.ErrUserNotFound)
}

// Delete refuses to orphan clients.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		var owned int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE seller_id = ?`, id).Scan(&owned); err != nil {
			return fmt.Errorf("count clients: %w", err)
		}
		if owned > 0 {
			return domain.ErrUserHasClients
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUserHasClients
			}
			return fmt.Errorf("delete user: %w", err)
		}
		return expectRow(res, domain.ErrUserNotFound)
	})
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, args...), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, u *domain.User) error {
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	return nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
