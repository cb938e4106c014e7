package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/posts"
	"github.com/luminalab/lumina/backend/internal/users"
)

type registerRequestPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profilePayload is an account with its social lists populated.
type profilePayload struct {
	users.User
	Followers []string     `json:"followers"`
	Following []string     `json:"following"`
	Posts     []posts.View `json:"posts"`
	Bookmarks []posts.View `json:"bookmarks,omitempty"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.Username) == "" ||
		strings.TrimSpace(request.Email) == "" ||
		request.Password == "" {
		respondError(c, http.StatusBadRequest, "Something is missing, please check!")
		return
	}

	err := h.users.Register(c.Request.Context(), request.Username, request.Email, request.Password)
	if errors.Is(err, users.ErrEmailTaken) {
		respondError(c, http.StatusBadRequest, "Try different email")
		return
	}
	if err != nil {
		h.respondInternal(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully.", "success": true})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.Email) == "" ||
		request.Password == "" {
		respondError(c, http.StatusBadRequest, "Something is missing, please check!")
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		h.respondInternal(c, "login", err)
		return
	}

	token, err := h.sessions.IssueSessionToken(account.ID)
	if err != nil {
		h.respondInternal(c, "login", err)
		return
	}

	profile, err := h.profileFor(c.Request.Context(), account, false)
	if err != nil {
		h.respondInternal(c, "login", err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, token, int(h.sessions.TokenTTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome back %s", account.Username),
		"success": true,
		"user":    profile,
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully.", "success": true})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	account, err := h.users.ByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, users.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		h.respondInternal(c, "get_profile", err)
		return
	}

	profile, err := h.profileFor(c.Request.Context(), account, true)
	if err != nil {
		h.respondInternal(c, "get_profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile, "success": true})
}

func (h *httpHandler) handleEditProfile(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	update := users.ProfileUpdate{
		Bio:    c.PostForm("bio"),
		Gender: c.PostForm("gender"),
	}

	if fileHeader, err := c.FormFile("profilePhoto"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			h.respondInternal(c, "edit_profile", err)
			return
		}
		url, err := h.media.Upload(c.Request.Context(), fileHeader.Filename, file)
		_ = file.Close()
		if err != nil {
			respondError(c, http.StatusBadRequest, "Could not store profile photo")
			return
		}
		update.PictureURL = url
	}

	account, err := h.users.UpdateProfile(c.Request.Context(), userID, update)
	if errors.Is(err, users.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		h.respondInternal(c, "edit_profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated.", "success": true, "user": account})
}

func (h *httpHandler) handleSuggestedUsers(c *gin.Context) {
	suggested, err := h.users.Suggested(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		h.respondInternal(c, "suggested_users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": suggested})
}

func (h *httpHandler) handleFollowOrUnfollow(c *gin.Context) {
	followerID := c.GetString(userIDContextKey)
	targetID := c.Param("id")

	result, err := h.users.ToggleFollow(c.Request.Context(), followerID, targetID)
	if errors.Is(err, users.ErrSelfFollow) {
		respondError(c, http.StatusBadRequest, "You cannot follow/unfollow yourself")
		return
	}
	if errors.Is(err, users.ErrUserNotFound) {
		respondError(c, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "follow_or_unfollow", err)
		return
	}

	message := "Unfollowed successfully"
	if result.Following {
		message = "followed successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"success":        true,
		"followersCount": result.FollowerCount,
	})
}

func (h *httpHandler) profileFor(ctx context.Context, account users.User, includeBookmarks bool) (profilePayload, error) {
	followers, err := h.users.FollowerIDs(ctx, account.ID)
	if err != nil {
		return profilePayload{}, err
	}
	following, err := h.users.FollowingIDs(ctx, account.ID)
	if err != nil {
		return profilePayload{}, err
	}
	authored, err := h.posts.ByAuthor(ctx, account.ID)
	if err != nil {
		return profilePayload{}, err
	}

	profile := profilePayload{
		User:      account,
		Followers: followers,
		Following: following,
		Posts:     authored,
	}
	if includeBookmarks {
		bookmarked, err := h.posts.Bookmarked(ctx, account.ID)
		if err != nil {
			return profilePayload{}, err
		}
		profile.Bookmarks = bookmarked
	}
	return profile, nil
}
