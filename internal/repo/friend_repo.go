package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/lingobuddy/server/internal/model"
)

var (
	ErrRequestNotFound = errors.New("friend request not found")
	ErrRequestExists   = errors.New("friend request already exists")
)

// FriendRepo defines the interface for friend-request and friendship
// repository operations. Friendships are the symmetric friend-set cache
// derived from accepted requests; only Accept writes to it.
type FriendRepo interface {
	Create(ctx context.Context, senderID, recipientID uuid.UUID) (model.FriendRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.FriendRequest, error)
	FindByPair(ctx context.Context, a, b uuid.UUID) (model.FriendRequest, error)
	Accept(ctx context.Context, id uuid.UUID) (model.FriendRequest, error)
	ListIncoming(ctx context.Context, recipientID uuid.UUID) ([]model.FriendRequestWithUser, error)
	ListOutgoing(ctx context.Context, senderID uuid.UUID) ([]model.FriendRequestWithUser, error)
	ListAcceptedSent(ctx context.Context, senderID uuid.UUID) ([]model.FriendRequestWithUser, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]model.PublicUser, error)
}

type friendRepo struct {
	db *sql.DB
}

// NewFriendRepo creates a new FriendRepo instance
func NewFriendRepo(db *sql.DB) FriendRepo {
	return &friendRepo{db: db}
}

func scanRequest(row *sql.Row) (model.FriendRequest, error) {
	var fr model.FriendRequest
	err := row.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.Status, &fr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FriendRequest{}, ErrRequestNotFound
		}
		return model.FriendRequest{}, fmt.Errorf("failed to query friend request: %w", err)
	}
	return fr, nil
}

// Create inserts a pending request. The unordered-pair unique index
// serializes concurrent sends: the loser of the race gets ErrRequestExists.
func (r *friendRepo) Create(ctx context.Context, senderID, recipientID uuid.UUID) (model.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (sender_id, recipient_id)
		VALUES ($1, $2)
		RETURNING id, sender_id, recipient_id, status, created_at
	`
	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, senderID, recipientID))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.FriendRequest{}, ErrRequestExists
		}
		return model.FriendRequest{}, fmt.Errorf("failed to insert friend request: %w", err)
	}
	return fr, nil
}

// GetByID retrieves a friend request by ID
func (r *friendRepo) GetByID(ctx context.Context, id uuid.UUID) (model.FriendRequest, error) {
	query := `
		SELECT id, sender_id, recipient_id, status, created_at
		FROM friend_requests
		WHERE id = $1
	`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

// FindByPair returns the request between two users in either direction
func (r *friendRepo) FindByPair(ctx context.Context, a, b uuid.UUID) (model.FriendRequest, error) {
	query := `
		SELECT id, sender_id, recipient_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
	`
	return scanRequest(r.db.QueryRowContext(ctx, query, a, b))
}

// Accept transitions a pending request to accepted and inserts both
// friendship directions in one transaction. The status guard makes a second
// accept on the same id report ErrRequestNotFound instead of re-applying.
func (r *friendRepo) Accept(ctx context.Context, id uuid.UUID) (model.FriendRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.FriendRequest{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var fr model.FriendRequest
	err = tx.QueryRowContext(ctx, `
		UPDATE friend_requests
		SET status = 'accepted'
		WHERE id = $1 AND status = 'pending'
		RETURNING id, sender_id, recipient_id, status, created_at
	`, id).Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.Status, &fr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FriendRequest{}, ErrRequestNotFound
		}
		return model.FriendRequest{}, fmt.Errorf("failed to accept friend request: %w", err)
	}

	// Set-union semantics: re-adding an existing edge is a no-op.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`, fr.SenderID, fr.RecipientID)
	if err != nil {
		return model.FriendRequest{}, fmt.Errorf("failed to insert friendships: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.FriendRequest{}, fmt.Errorf("failed to commit accept: %w", err)
	}
	return fr, nil
}

const requestWithUserColumns = `
	fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at,
	u.id, u.email, u.full_name, u.profile_pic, u.bio, u.location,
	u.native_language, u.learning_language, u.is_onboarded, u.created_at`

func (r *friendRepo) queryRequestsWithUser(ctx context.Context, query string, arg uuid.UUID) ([]model.FriendRequestWithUser, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	defer rows.Close()

	out := make([]model.FriendRequestWithUser, 0)
	for rows.Next() {
		var item model.FriendRequestWithUser
		err := rows.Scan(
			&item.ID, &item.SenderID, &item.RecipientID, &item.Status, &item.CreatedAt,
			&item.User.ID, &item.User.Email, &item.User.FullName, &item.User.ProfilePic,
			&item.User.Bio, &item.User.Location, &item.User.NativeLanguage,
			&item.User.LearningLanguage, &item.User.IsOnboarded, &item.User.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read friend requests: %w", err)
	}
	return out, nil
}

// ListIncoming returns pending requests addressed to the user, with the
// sender's public profile joined in.
func (r *friendRepo) ListIncoming(ctx context.Context, recipientID uuid.UUID) ([]model.FriendRequestWithUser, error) {
	query := `
		SELECT ` + requestWithUserColumns + `
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.recipient_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC
	`
	return r.queryRequestsWithUser(ctx, query, recipientID)
}

// ListOutgoing returns pending requests the user has sent, with the
// recipient's public profile joined in.
func (r *friendRepo) ListOutgoing(ctx context.Context, senderID uuid.UUID) ([]model.FriendRequestWithUser, error) {
	query := `
		SELECT ` + requestWithUserColumns + `
		FROM friend_requests fr
		JOIN users u ON u.id = fr.recipient_id
		WHERE fr.sender_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC
	`
	return r.queryRequestsWithUser(ctx, query, senderID)
}

// ListAcceptedSent returns the user's sent requests that were accepted,
// with the recipient joined in (notification view).
func (r *friendRepo) ListAcceptedSent(ctx context.Context, senderID uuid.UUID) ([]model.FriendRequestWithUser, error) {
	query := `
		SELECT ` + requestWithUserColumns + `
		FROM friend_requests fr
		JOIN users u ON u.id = fr.recipient_id
		WHERE fr.sender_id = $1 AND fr.status = 'accepted'
		ORDER BY fr.created_at DESC
	`
	return r.queryRequestsWithUser(ctx, query, senderID)
}

// AreFriends reports whether an accepted relationship exists between two users
func (r *friendRepo) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)
	`, a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query friendship: %w", err)
	}
	return exists, nil
}

// ListFriends resolves the user's friend set to public profiles
func (r *friendRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]model.PublicUser, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.profile_pic, u.bio, u.location,
			u.native_language, u.learning_language, u.is_onboarded, u.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	friends := make([]model.PublicUser, 0)
	for rows.Next() {
		var u model.PublicUser
		err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.ProfilePic, &u.Bio, &u.Location,
			&u.NativeLanguage, &u.LearningLanguage, &u.IsOnboarded, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read friends: %w", err)
	}
	return friends, nil
}
