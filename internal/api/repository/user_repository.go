package repository

//go:generate mockgen -source=user_repository.go -destination=mocks/mock_user_repository.go -package=mocks

import (
	"context"
	"database/sql"

	"ctchen222/bookshelf/internal/api/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("api.repository")

// UserRepository defines the interface for user data operations.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByToken(ctx context.Context, token string) (*models.User, error)
	ReadByID(ctx context.Context, id string) (*models.User, error)
	UpdateToken(ctx context.Context, id, token string) error
}

type sqliteUserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new SQLite-based UserRepository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

const userColumns = `id, username, password_hash, token`

// Insert stores a new user. The password must already be hashed.
func (r *sqliteUserRepository) Insert(ctx context.Context, user *models.User) error {
	ctx, span := tracer.Start(ctx, "UserRepository.Insert")
	defer span.End()

	query := `INSERT INTO users (id, username, password_hash, token) VALUES (:id, :username, :password_hash, :token)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return wrapWrite(err, "failed to create user")
	}
	return nil
}

// FindByUsername retrieves a user by their exact username.
func (r *sqliteUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.FindByUsername")
	defer span.End()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// FindByToken retrieves the user currently holding token.
func (r *sqliteUserRepository) FindByToken(ctx context.Context, token string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.FindByToken")
	defer span.End()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE token = ?`, token)
}

// ReadByID retrieves a user by id.
func (r *sqliteUserRepository) ReadByID(ctx context.Context, id string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.ReadByID")
	defer span.End()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// UpdateToken replaces the user's token. The previous token stops resolving.
func (r *sqliteUserRepository) UpdateToken(ctx context.Context, id, token string) error {
	ctx, span := tracer.Start(ctx, "UserRepository.UpdateToken")
	defer span.End()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET token = ? WHERE id = ?`, token, id)
	if err != nil {
		return wrapWrite(err, "failed to update user token")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("failed to update user token: no user with id %s", id)
	}
	return nil
}

func (r *sqliteUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No user found is not an application error
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}
