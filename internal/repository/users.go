package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planopia/leave_service/internal/entity"
)

const userColumns = `id, username, first_name, last_name, password_hash, roles, position, vacation_days, created_at, updated_at`

type UserRepository struct {
	db Queryer
}

func NewUserRepository(db Queryer) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO users (username, first_name, last_name, roles, vacation_days, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+userColumns,
		u.Username, u.FirstName, u.LastName, u.Roles.Strings(), u.VacationDays, u.CreatedAt, u.UpdatedAt)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateError(err, "user")
	}

	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, translateError(err, "user")
	}

	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	u, err := scanUser(row)
	if err != nil {
		return nil, translateError(err, "user")
	}

	return u, nil
}

// List returns every user. A nil roles filter means no filtering; an empty one matches nobody.
func (r *UserRepository) List(ctx context.Context, roles []entity.RoleName) ([]entity.UserSummary, error) {
	query := `SELECT id, username, first_name, last_name, roles, position FROM users`
	args := []any{}

	if roles != nil {
		query += ` WHERE roles && $1`
		args = append(args, entity.Roles(roles).Strings())
	}

	query += ` ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "users")
	}

	return collectSummaries(rows)
}

// FindByRole returns the holders of role.
func (r *UserRepository) FindByRole(ctx context.Context, role entity.RoleName) ([]entity.UserSummary, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, username, first_name, last_name, roles, position
          FROM users
         WHERE $1 = ANY(roles)`, string(role))
	if err != nil {
		return nil, translateError(err, "users")
	}

	return collectSummaries(rows)
}

// SetPassword stores a new hash. When position is non-nil it is updated as well.
func (r *UserRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string, position *string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE users
           SET password_hash = $1,
               position = COALESCE($2, position),
               updated_at = $3
         WHERE id = $4`, hash, position, now, id)
	if err != nil {
		return translateError(err, "user")
	}

	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows, "user")
	}

	return nil
}

func (r *UserRepository) UpdatePosition(ctx context.Context, id uuid.UUID, position string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET position = $1, updated_at = $2 WHERE id = $3`, position, now, id)
	if err != nil {
		return translateError(err, "user")
	}

	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows, "user")
	}

	return nil
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id uuid.UUID, roles entity.Roles, now time.Time) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE users SET roles = $1, updated_at = $2
         WHERE id = $3
        RETURNING `+userColumns, roles.Strings(), now, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, translateError(err, "user")
	}

	return u, nil
}

func (r *UserRepository) UpdateVacationDays(ctx context.Context, id uuid.UUID, days int, now time.Time) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE users SET vacation_days = $1, updated_at = $2
         WHERE id = $3
        RETURNING `+userColumns, days, now, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, translateError(err, "user")
	}

	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "user")
	}

	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows, "user")
	}

	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u     entity.User
		roles []string
	)

	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash,
		&roles, &u.Position, &u.VacationDays, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	u.Roles = entity.RolesFromStrings(roles)

	return &u, nil
}

func collectSummaries(rows pgx.Rows) ([]entity.UserSummary, error) {
	defer rows.Close()

	users := []entity.UserSummary{}
	for rows.Next() {
		var (
			s     entity.UserSummary
			roles []string
		)

		if err := rows.Scan(&s.ID, &s.Username, &s.FirstName, &s.LastName, &roles, &s.Position); err != nil {
			return nil, err
		}

		s.Roles = entity.RolesFromStrings(roles)
		users = append(users, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
