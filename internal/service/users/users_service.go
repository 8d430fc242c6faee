package users

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/auth"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

const minPasswordLength = 6

type UsersUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Create(ctx context.Context, actor domain.Actor, role domain.Role, input RegisterInput) (*domain.User, error)
	List(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id int64, input ProfileInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, role domain.Role, id int64) error
}

type Tokens interface {
	Issue(user domain.User) (string, time.Time, error)
}

type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	CNICPassport    string `json:"cnic_passport"`
	DOB             string `json:"dob"`
	City            string `json:"city"`
	Address         string `json:"address"`
}

// ProfileInput carries profile edits. Empty fields keep their value; an
// empty password keeps the current one.
type ProfileInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	CNICPassport string `json:"cnic_passport"`
	DOB          string `json:"dob"`
	City         string `json:"city"`
	Address      string `json:"address"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

type UsersService struct {
	users  repository.UserRepository
	tokens Tokens
	logger *slog.Logger
}

func NewUsersService(users repository.UserRepository, tokens Tokens, logger *slog.Logger) *UsersService {
	return &UsersService{users: users, tokens: tokens, logger: logger}
}

// Register creates a customer account.
func (s *UsersService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.create(ctx, nil, domain.RoleCustomer, input)
}

func (s *UsersService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	token, expires, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

// Create lets an admin add a customer or another admin.
func (s *UsersService) Create(ctx context.Context, actor domain.Actor, role domain.Role, input RegisterInput) (*domain.User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.create(ctx, &actor.UserID, role, input)
}

func (s *UsersService) List(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.users.List(ctx, role)
}

func (s *UsersService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	if !actor.CanAccess(id) {
		return nil, domain.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// Update edits a profile. Customers may only edit their own.
func (s *UsersService) Update(ctx context.Context, actor domain.Actor, id int64, input ProfileInput) (*domain.User, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	if !actor.CanAccess(id) {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(input.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(input.Email); v != "" {
		if err := validateEmail(v); err != nil {
			return nil, err
		}
		user.Email = v
	}
	if v := strings.TrimSpace(input.Phone); v != "" {
		user.Phone = v
	}
	if v := strings.TrimSpace(input.CNICPassport); v != "" {
		user.CNICPassport = v
	}
	if v := strings.TrimSpace(input.City); v != "" {
		user.City = v
	}
	if v := strings.TrimSpace(input.Address); v != "" {
		user.Address = v
	}
	if input.DOB != "" {
		dob, err := parseDOB(input.DOB)
		if err != nil {
			return nil, err
		}
		user.DOB = dob
	}
	if input.Password != "" {
		if len(input.Password) < minPasswordLength {
			return nil, domain.NewValidation("password", "must be at least 6 characters")
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedBy = &actor.UserID

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "profile updated", "user_id", id, "actor", actor.UserID)
	return user, nil
}

func (s *UsersService) Delete(ctx context.Context, actor domain.Actor, role domain.Role, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if id == actor.UserID {
		return domain.NewValidation("id", "admins cannot delete their own account")
	}
	return s.users.Delete(ctx, id, role)
}

func (s *UsersService) create(ctx context.Context, createdBy *int64, role domain.Role, input RegisterInput) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.NewValidation("role", "must be admin or customer")
	}
	user, err := input.user(role)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.CreatedBy = createdBy
	user.UpdatedBy = createdBy

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", role)
	return user, nil
}

func (in RegisterInput) user(role domain.Role) (*domain.User, error) {
	name, email, phone := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Phone)
	if name == "" {
		return nil, domain.NewValidation("name", "is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if phone == "" {
		return nil, domain.NewValidation("phone", "is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidation("password", "must be at least 6 characters")
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.NewValidation("confirm_password", "passwords do not match")
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		CNICPassport: strings.TrimSpace(in.CNICPassport),
		DOB:          dob,
		City:         strings.TrimSpace(in.City),
		Address:      strings.TrimSpace(in.Address),
		Role:         role,
	}, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.NewValidation("email", "is not a valid address")
	}
	return nil
}

func parseDOB(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	dob, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.ValidationError{Field: "dob", Msg: "expected YYYY-MM-DD", Err: err}
	}
	return &dob, nil
}

var _ UsersUseCase = (*UsersService)(nil)
