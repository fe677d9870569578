// Package directory is the SQL-backed user directory. It verifies passwords
// for the session manager and lists accounts for the workers page and admin CLI.
// Postgres (pgx stdlib) and SQLite (mattn/go-sqlite3) share the same queries.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	apperrors "github.com/viveconecta/admin-ui/internal/errors"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var (
	_ ports.CredentialVerifier = (*Repo)(nil)
	_ ports.UserDirectory      = (*Repo)(nil)
)

const (
	usersTable   = "users"
	defaultLimit = 50
	maxLimit     = 500
)

var userColumns = []string{"id", "email", "name", "role"}

// ErrUserDisabled is returned by Resolve for accounts that were disabled after login.
var ErrUserDisabled = errors.New("user is disabled")

// NewUser is the input to Create.
type NewUser struct {
	Email    string
	Name     string
	Role     domainauth.Role
	Password string
}

// Validate normalizes and checks the input.
func (n *NewUser) Validate() error {
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	n.Name = strings.TrimSpace(n.Name)
	if addr, err := mail.ParseAddress(n.Email); err != nil || addr.Address != n.Email {
		return apperrors.ValidationField("email", "A valid email address is required.")
	}
	if n.Name == "" {
		return apperrors.ValidationField("name", "Name is required.")
	}
	role, err := domainauth.ParseRole(string(n.Role))
	if err != nil {
		return apperrors.ValidationField("role", "Role is required.")
	}
	n.Role = role
	if len(n.Password) < 8 {
		return apperrors.ValidationField("password", "Password must be at least 8 characters.")
	}
	return nil
}

// Repo implements the directory over database/sql.
type Repo struct {
	db   *sql.DB
	cost int
	now  func() time.Time

	// dummyHash is compared against when the email is unknown so both paths cost one bcrypt.
	dummyHash []byte
}

// Option configures a Repo.
type Option func(*Repo)

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(r *Repo) { r.cost = cost } }

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option { return func(r *Repo) { r.now = now } }

// New creates a Repo over an opened and migrated database.
func New(db *sql.DB, opts ...Option) *Repo {
	r := &Repo{db: db, cost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	r.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), r.cost)
	return r
}

// HashPassword returns the bcrypt hash used in the password_hash column.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Create inserts a user. Duplicate emails map to a Conflict AppError on field "email".
func (r *Repo) Create(ctx context.Context, in NewUser) (domainauth.User, error) {
	if err := in.Validate(); err != nil {
		return domainauth.User{}, err
	}
	hash, err := HashPassword(in.Password, r.cost)
	if err != nil {
		return domainauth.User{}, err
	}

	u := domainauth.User{ID: uuid.NewString(), Email: in.Email, Name: in.Name, Role: in.Role}
	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, string(u.Role), hash, now, now)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("create user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

type userRow struct {
	user     domainauth.User
	hash     string
	disabled bool
}

func (r *Repo) getBy(ctx context.Context, column, value string) (userRow, error) {
	var (
		row  userRow
		role string
	)
	q := fmt.Sprintf(`SELECT id, email, name, role, password_hash, disabled FROM users WHERE %s = $1`, sanitize(column))
	err := r.db.QueryRowContext(ctx, q, value).Scan(
		&row.user.ID, &row.user.Email, &row.user.Name, &role, &row.hash, &row.disabled,
	)
	if err != nil {
		return userRow{}, apperrors.MapDBError(err)
	}
	row.user.Role = domainauth.Role(role)
	return row, nil
}

// GetByID returns a user regardless of the disabled flag.
func (r *Repo) GetByID(ctx context.Context, id string) (domainauth.User, error) {
	row, err := r.getBy(ctx, "id", id)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return row.user, nil
}

// Authenticate implements ports.CredentialVerifier.
// Unknown emails, wrong passwords and disabled accounts are indistinguishable to the caller.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (domainauth.User, error) {
	row, err := r.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(r.dummyHash, []byte(password))
			return domainauth.User{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(row.hash), []byte(password)) != nil || row.disabled {
		return domainauth.User{}, domainauth.ErrInvalidCredentials
	}
	return row.user, nil
}

// Resolve implements ports.CredentialVerifier by reloading the account behind rec.
func (r *Repo) Resolve(ctx context.Context, rec domainauth.SessionRecord) (domainauth.User, error) {
	row, err := r.getBy(ctx, "id", rec.User.ID)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("resolve user %s: %w", rec.User.ID, err)
	}
	if row.disabled {
		return domainauth.User{}, ErrUserDisabled
	}
	return row.user, nil
}

func filterConditions(opts ports.UserListOptions) []condition {
	conds := []condition{whereCond("disabled", opEqual, false)}
	if opts.Role != "" {
		conds = append(conds, whereCond("role", opEqual, string(opts.Role)))
	}
	if s := strings.ToLower(strings.TrimSpace(opts.Search)); s != "" {
		pat := "%" + escapeLike(s) + "%"
		conds = append(conds, whereRaw(`LOWER(name) LIKE $1 ESCAPE '\' OR email LIKE $2 ESCAPE '\'`, pat, pat))
	}
	return conds
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List implements ports.UserDirectory. Disabled accounts are excluded.
func (r *Repo) List(ctx context.Context, opts ports.UserListOptions) ([]domainauth.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	q, args := listQuery{
		table:      usersTable,
		columns:    userColumns,
		conditions: filterConditions(opts),
		orderBy:    []string{"name", "email"},
		limit:      limit,
		offset:     max(opts.Offset, 0),
	}.build()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []domainauth.User
	for rows.Next() {
		var (
			u    domainauth.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = domainauth.Role(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Count implements ports.UserDirectory.
func (r *Repo) Count(ctx context.Context, opts ports.UserListOptions) (int, error) {
	q, args := listQuery{
		table:      usersTable,
		countOnly:  true,
		conditions: filterConditions(opts),
		limit:      -1,
		offset:     -1,
	}.build()

	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

func (r *Repo) updateOne(ctx context.Context, email, set string, value any) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = $1, updated_at = $2 WHERE email = $3`, sanitize(set)),
		value, r.now().UTC(), email)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("user %s not found", email)
	}
	return nil
}

// SetRole changes a user's role label.
func (r *Repo) SetRole(ctx context.Context, email string, role domainauth.Role) error {
	parsed, err := domainauth.ParseRole(string(role))
	if err != nil {
		return apperrors.ValidationField("role", "Role is required.")
	}
	return r.updateOne(ctx, email, "role", string(parsed))
}

// SetDisabled enables or disables login for a user.
func (r *Repo) SetDisabled(ctx context.Context, email string, disabled bool) error {
	return r.updateOne(ctx, email, "disabled", disabled)
}

// SetPassword replaces a user's password hash.
func (r *Repo) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < 8 {
		return apperrors.ValidationField("password", "Password must be at least 8 characters.")
	}
	hash, err := HashPassword(password, r.cost)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, email, "password_hash", hash)
}
