package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/service"
)

// SocialHandler serves the follow graph and the feed.
type SocialHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewSocialHandler(feed *service.FeedService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{feed: feed, logger: logger}
}

type followRequest struct {
	UsernameToFollow string `json:"usernameToFollow"`
}

type unfollowRequest struct {
	UsernameToUnfollow string `json:"usernameToUnfollow"`
}

// FollowResponse reports whether the follow set actually changed.
type FollowResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Modified bool   `json:"modified"`
}

// HandleFollow adds a user to the caller's follow set.
//
// HTTP: POST /follow
// REQUEST BODY: {"usernameToFollow": "bob"}
func (h *SocialHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	actor := requireLogin(w, r, h.logger, service.MsgLoginToFollow)
	if actor == nil {
		return
	}

	var req followRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	modified, err := h.feed.Follow(r.Context(), actor, req.UsernameToFollow)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FollowResponse{
		Success:  true,
		Message:  fmt.Sprintf("Now following %s", req.UsernameToFollow),
		Modified: modified,
	})
}

// HandleUnfollow removes a user from the caller's follow set.
//
// HTTP: DELETE /follow
// REQUEST BODY: {"usernameToUnfollow": "bob"}
func (h *SocialHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	actor := requireLogin(w, r, h.logger, service.MsgLoginToUnfollow)
	if actor == nil {
		return
	}

	var req unfollowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	modified, err := h.feed.Unfollow(r.Context(), actor, req.UsernameToUnfollow)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, FollowResponse{
		Success:  true,
		Message:  fmt.Sprintf("Unfollowed %s", req.UsernameToUnfollow),
		Modified: modified,
	})
}

// HandleFeed returns posts by everyone the caller follows, newest first.
//
// HTTP: GET /feed
func (h *SocialHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.feed.Feed(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ContentListResponse{
		Success: true,
		Count:   len(feed.Items),
		Content: feed.Items,
		Message: feed.Message,
	})
}
