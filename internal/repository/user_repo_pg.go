package repository

import (
	"context"
	"strings"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64, role domain.Role) error
}

type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, cnic_passport, dob, city, address, role, created_at, updated_at, created_by, updated_by`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                   domain.User
		cnic, city, address *string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &cnic, &u.DOB, &city, &address, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy); err != nil {
		return nil, err
	}
	u.CNICPassport = stringValue(cnic)
	u.City = stringValue(city)
	u.Address = stringValue(address)
	return &u, nil
}

// userConflict turns a unique violation into a ConflictError naming the
// field that clashed.
func userConflict(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	field := "account"
	for _, f := range []string{"email", "phone", "cnic_passport"} {
		if strings.Contains(constraint, f) {
			field = f
			break
		}
	}
	return domain.ConflictError{Resource: "user", Msg: field + " already registered", Err: err}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, phone, password_hash, cnic_passport, dob, city, address, role, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.Phone, user.PasswordHash, nullString(user.CNICPassport), user.DOB,
		nullString(user.City), nullString(user.Address), user.Role, user.CreatedBy).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return userConflict(err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, notFound("user", err)
	}
	return u, nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
	if err != nil {
		return nil, notFound("user", err)
	}
	return u, nil
}

func (r *PGUserRepository) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `UPDATE users SET name=$1, email=$2, phone=$3, password_hash=$4, cnic_passport=$5, dob=$6, city=$7, address=$8,
		updated_by=$9, updated_at=now()
		WHERE id=$10 RETURNING created_at, updated_at`,
		user.Name, user.Email, user.Phone, user.PasswordHash, nullString(user.CNICPassport), user.DOB,
		nullString(user.City), nullString(user.Address), user.UpdatedBy, user.ID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return userConflict(notFound("user", err))
	}
	return nil
}

func (r *PGUserRepository) Delete(ctx context.Context, id int64, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1 AND role=$2`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
