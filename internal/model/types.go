package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordMarkerGoogle is stored in place of a password hash for accounts
// created through Google sign-in. It is never a valid bcrypt hash, so a
// password login against such an account can never succeed.
const PasswordMarkerGoogle = "google-oauth"

// FriendRequestStatus is the lifecycle state of a FriendRequest.
// There is no declined state: a recipient either accepts or leaves the
// request pending.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
)

// User represents a user account with its profile fields
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	FullName           string
	ProfilePic         string
	Bio                string
	Location           string
	NativeLanguage     string
	LearningLanguage   string
	IsOnboarded        bool
	ResetCode          *string
	ResetCodeExpiresAt *time.Time
	CreatedAt          time.Time
}

// Public returns the user's sanitized view: no password hash, no recovery
// state. This is the only user shape that crosses the HTTP boundary.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		Bio:              u.Bio,
		Location:         u.Location,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		IsOnboarded:      u.IsOnboarded,
		CreatedAt:        u.CreatedAt,
	}
}

// PublicUser is the user view returned in API responses
type PublicUser struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	ProfilePic       string    `json:"profilePic"`
	Bio              string    `json:"bio"`
	Location         string    `json:"location"`
	NativeLanguage   string    `json:"nativeLanguage"`
	LearningLanguage string    `json:"learningLanguage"`
	IsOnboarded      bool      `json:"isOnboarded"`
	CreatedAt        time.Time `json:"createdAt"`
}

// FriendRequest represents a proposed relationship between two users.
// At most one record exists per unordered user pair, in either direction,
// for the lifetime of the relationship.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	SenderID    uuid.UUID           `json:"senderId"`
	RecipientID uuid.UUID           `json:"recipientId"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// FriendRequestWithUser joins a request with the counterpart user's public
// profile for the incoming/outgoing list views.
type FriendRequestWithUser struct {
	FriendRequest
	User PublicUser `json:"user"`
}
