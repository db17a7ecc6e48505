// Package social implements the friend-request state machine and the
// recommendation filter on top of the repo layer. Pair uniqueness and the
// accept transaction are enforced in storage (see repo.FriendRepo); this
// layer owns the caller-facing rules.
package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
)

var (
	ErrSelfRequest       = errors.New("you cannot send a friend request to yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrAlreadyFriends    = errors.New("you are already friends with this user")
	ErrForbidden         = errors.New("you are not the recipient of this request")
)

// Service orchestrates social-graph operations
type Service struct {
	userRepo   repo.UserRepo
	friendRepo repo.FriendRepo
}

// NewService creates a new social service
func NewService(userRepo repo.UserRepo, friendRepo repo.FriendRepo) *Service {
	return &Service{
		userRepo:   userRepo,
		friendRepo: friendRepo,
	}
}

// Recommendations returns onboarded users who share a language tag with the
// requester, excluding the requester and existing friends. No ranking.
func (s *Service) Recommendations(ctx context.Context, userID uuid.UUID) ([]model.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}
	return s.userRepo.ListRecommendations(ctx, user)
}

// SendRequest creates a pending request from sender to recipient. The
// existence check is advisory; the storage-level pair-unique index is what
// keeps a concurrent duplicate from producing two records.
func (s *Service) SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (model.FriendRequest, error) {
	if senderID == recipientID {
		return model.FriendRequest{}, ErrSelfRequest
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return model.FriendRequest{}, ErrRecipientNotFound
		}
		return model.FriendRequest{}, fmt.Errorf("failed to load recipient: %w", err)
	}

	existing, err := s.friendRepo.FindByPair(ctx, senderID, recipientID)
	switch {
	case err == nil:
		if existing.Status == model.FriendRequestAccepted {
			return model.FriendRequest{}, ErrAlreadyFriends
		}
		return model.FriendRequest{}, repo.ErrRequestExists
	case !errors.Is(err, repo.ErrRequestNotFound):
		return model.FriendRequest{}, fmt.Errorf("failed to check existing request: %w", err)
	}

	fr, err := s.friendRepo.Create(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, repo.ErrRequestExists) {
			return model.FriendRequest{}, err
		}
		return model.FriendRequest{}, fmt.Errorf("failed to create request: %w", err)
	}
	return fr, nil
}

// AcceptRequest transitions a request to accepted and unions both friend
// sets. Only the designated recipient may accept. A second accept on the
// same id finds no pending row and reports repo.ErrRequestNotFound.
func (s *Service) AcceptRequest(ctx context.Context, recipientID, requestID uuid.UUID) (model.FriendRequest, error) {
	fr, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrRequestNotFound) {
			return model.FriendRequest{}, err
		}
		return model.FriendRequest{}, fmt.Errorf("failed to load request: %w", err)
	}

	if fr.RecipientID != recipientID {
		return model.FriendRequest{}, ErrForbidden
	}

	accepted, err := s.friendRepo.Accept(ctx, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrRequestNotFound) {
			return model.FriendRequest{}, err
		}
		return model.FriendRequest{}, fmt.Errorf("failed to accept request: %w", err)
	}
	return accepted, nil
}

// IncomingRequests returns the user's pending incoming requests plus their
// sent requests that were recently accepted (notification view).
func (s *Service) IncomingRequests(ctx context.Context, userID uuid.UUID) (incoming, accepted []model.FriendRequestWithUser, err error) {
	incoming, err = s.friendRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	accepted, err = s.friendRepo.ListAcceptedSent(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return incoming, accepted, nil
}

// OutgoingRequests returns the user's pending sent requests
func (s *Service) OutgoingRequests(ctx context.Context, userID uuid.UUID) ([]model.FriendRequestWithUser, error) {
	return s.friendRepo.ListOutgoing(ctx, userID)
}

// Friends resolves the user's friend set to public profiles
func (s *Service) Friends(ctx context.Context, userID uuid.UUID) ([]model.PublicUser, error) {
	return s.friendRepo.ListFriends(ctx, userID)
}
