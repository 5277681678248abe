package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// constraintFields maps unique constraints on users to the input field
// that collided.
var constraintFields = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, first_name, middle_name, last_name, email, password, company_id, role_id, is_owner, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at
		 `

	middle := sql.NullString{String: user.MiddleName, Valid: user.MiddleName != ""}

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.FirstName, middle, user.LastName, user.Email, user.Password,
		user.CompanyID, user.RoleID, user.IsOwner, user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			var cv common.ConstraintViolation
			switch field := constraintFields[constraint]; field {
			case "email":
				cv = common.ConstraintViolation{Field: field, Value: user.Email}
			case "username":
				cv = common.ConstraintViolation{Field: field, Value: user.Username}
			default:
				// unknown constraint: no input value to blame
				cv = common.ConstraintViolation{Field: constraint}
			}
			return nil, &cv
		}
		if dbx.ForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: role or company", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const userColumns = `u.id, u.username, u.first_name, COALESCE(u.middle_name, ''), u.last_name, u.email, u.password,
		u.company_id, u.role_id, u.is_owner, u.is_verified, u.created_at, u.updated_at`

// selectQuery builds the lookup statement and the matching scan targets
// for u and the relations named by inc.
func selectQuery(inc Include, where string, u *models.User) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(userColumns)

	dest := []any{
		&u.ID, &u.Username, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.Password,
		&u.CompanyID, &u.RoleID, &u.IsOwner, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	}

	var joins string
	if inc.Role {
		u.Role = &models.Role{}
		b.WriteString(", r.id, r.name, r.description, r.priority, r.created_at, r.updated_at")
		dest = append(dest, &u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.Priority, &u.Role.CreatedAt, &u.Role.UpdatedAt)
		joins += " JOIN roles r ON r.id = u.role_id"
	}
	if inc.Company {
		u.Company = &models.Company{}
		b.WriteString(", c.id, c.name, c.address, c.phone_number, c.email, c.created_at, c.updated_at")
		dest = append(dest, &u.Company.ID, &u.Company.Name, &u.Company.Address, &u.Company.PhoneNumber, &u.Company.Email, &u.Company.CreatedAt, &u.Company.UpdatedAt)
		joins += " JOIN companies c ON c.id = u.company_id"
	}

	b.WriteString(" FROM users u")
	b.WriteString(joins)
	b.WriteString(" WHERE ")
	b.WriteString(where)

	return b.String(), dest
}

func (r *PostgresRepository) get(ctx context.Context, inc Include, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query, dest := selectQuery(inc, where, user)

	if err := r.db.QueryRowContext(ctx, query, arg).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64, inc Include) (*models.User, error) {
	return r.get(ctx, inc, "u.id = $1", id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string, inc Include) (*models.User, error) {
	return r.get(ctx, inc, "u.username = $1", username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, Include{}, "u.email = $1", email)
}
