package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lingobuddy/server/internal/middleware"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
	"github.com/lingobuddy/server/internal/social"
)

// SocialHandler handles recommendations, friends and friend requests
type SocialHandler struct {
	socialService *social.Service
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(socialService *social.Service) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// incomingRequestsResponse is the response for GET /api/users/friend-requests
type incomingRequestsResponse struct {
	IncomingRequests []model.FriendRequestWithUser `json:"incomingRequests"`
	AcceptedRequests []model.FriendRequestWithUser `json:"acceptedRequests"`
}

// HandleRecommendations handles GET /api/users
func (h *SocialHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.socialService.Recommendations(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// HandleFriends handles GET /api/users/friends
func (h *SocialHandler) HandleFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	friends, err := h.socialService.Friends(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load friends")
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

// HandleSendRequest handles POST /api/users/friend-request/{id}
func (h *SocialHandler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	request, err := h.socialService.SendRequest(r.Context(), userID, recipientID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrSelfRequest):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, social.ErrAlreadyFriends):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, social.ErrRecipientNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, repo.ErrRequestExists):
			respondWithError(w, http.StatusConflict, "A friend request already exists between you and this user")
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to send friend request")
		}
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

// HandleAcceptRequest handles PUT /api/users/friend-request/{id}/accept
func (h *SocialHandler) HandleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if _, err := h.socialService.AcceptRequest(r.Context(), userID, requestID); err != nil {
		switch {
		case errors.Is(err, repo.ErrRequestNotFound):
			respondWithError(w, http.StatusNotFound, "friend request not found")
		case errors.Is(err, social.ErrForbidden):
			respondWithError(w, http.StatusForbidden, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to accept friend request")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

// HandleIncomingRequests handles GET /api/users/friend-requests
func (h *SocialHandler) HandleIncomingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	incoming, accepted, err := h.socialService.IncomingRequests(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load friend requests")
		return
	}
	respondJSON(w, http.StatusOK, incomingRequestsResponse{
		IncomingRequests: incoming,
		AcceptedRequests: accepted,
	})
}

// HandleOutgoingRequests handles GET /api/users/outgoing-friend-requests
func (h *SocialHandler) HandleOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	outgoing, err := h.socialService.OutgoingRequests(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load friend requests")
		return
	}
	respondJSON(w, http.StatusOK, outgoing)
}
