package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/lingobuddy/server/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, full_name, profile_pic, bio, location,
		native_language, learning_language, is_onboarded, reset_code, reset_code_expires_at, created_at`

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, email, passwordHash, fullName, profilePic string) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	CompleteOnboarding(ctx context.Context, id uuid.UUID, fullName, bio, nativeLanguage, learningLanguage, location string) (model.User, error)
	SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	ClearResetCode(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ListRecommendations(ctx context.Context, forUser model.User) ([]model.PublicUser, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.ProfilePic,
		&u.Bio,
		&u.Location,
		&u.NativeLanguage,
		&u.LearningLanguage,
		&u.IsOnboarded,
		&u.ResetCode,
		&u.ResetCodeExpiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// Create inserts a new user. Returns ErrDuplicateEmail when the email is
// already taken (unique constraint, serialized by the database).
func (r *userRepo) Create(ctx context.Context, email, passwordHash, fullName, profilePic string) (model.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, profile_pic)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, passwordHash, fullName, profilePic))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by exact email match
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// CompleteOnboarding sets the profile fields and flips is_onboarded
func (r *userRepo) CompleteOnboarding(ctx context.Context, id uuid.UUID, fullName, bio, nativeLanguage, learningLanguage, location string) (model.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, bio = $3, native_language = $4, learning_language = $5,
			location = $6, is_onboarded = true
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, fullName, bio, nativeLanguage, learningLanguage, location))
}

// SetResetCode stores a one-time recovery code with its absolute expiry,
// replacing any previous code.
func (r *userRepo) SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_code = $2, reset_code_expires_at = $3 WHERE id = $1
	`, id, code, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}
	return requireOneRow(res)
}

// ClearResetCode removes any stored recovery state (code and expiry together)
func (r *userRepo) ClearResetCode(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_code = NULL, reset_code_expires_at = NULL WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear reset code: %w", err)
	}
	return requireOneRow(res)
}

// UpdatePassword overwrites the stored hash and clears residual recovery state
func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, reset_code = NULL, reset_code_expires_at = NULL
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireOneRow(res)
}

// ListRecommendations returns onboarded users other than the requester who
// are not already friends and share a language tag with the requester.
func (r *userRepo) ListRecommendations(ctx context.Context, forUser model.User) ([]model.PublicUser, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.id <> $1
		  AND u.is_onboarded
		  AND NOT EXISTS (
			SELECT 1 FROM friendships f WHERE f.user_id = $1 AND f.friend_id = u.id
		  )
		  AND (u.native_language IN ($2, $3) OR u.learning_language IN ($2, $3))
	`
	rows, err := r.db.QueryContext(ctx, query, forUser.ID, forUser.NativeLanguage, forUser.LearningLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	users := make([]model.PublicUser, 0)
	for rows.Next() {
		var u model.User
		err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.ProfilePic, &u.Bio, &u.Location,
			&u.NativeLanguage, &u.LearningLanguage, &u.IsOnboarded, &u.ResetCode, &u.ResetCodeExpiresAt, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		users = append(users, u.Public())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recommendations: %w", err)
	}
	return users, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
