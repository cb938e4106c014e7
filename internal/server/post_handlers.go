package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/posts"
	"github.com/luminalab/lumina/backend/internal/realtime"
	"go.uber.org/zap"
)

// notificationPayload is the ephemeral event body pushed to a post owner's
// live connection. It is never persisted; an offline owner misses it.
type notificationPayload struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	UserDetails any    `json:"userDetails"`
	PostID      string `json:"postId"`
	Message     string `json:"message"`
}

type commentRequestPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleAddPost(c *gin.Context) {
	authorID := c.GetString(userIDContextKey)
	caption := c.PostForm("caption")

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader == nil {
		respondError(c, http.StatusBadRequest, "Image required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.respondInternal(c, "add_post", err)
		return
	}
	imageURL, err := h.media.Upload(c.Request.Context(), fileHeader.Filename, file)
	_ = file.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not store image")
		return
	}

	view, err := h.posts.Create(c.Request.Context(), authorID, caption, imageURL)
	if err != nil {
		h.respondInternal(c, "add_post", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "New post added", "post": view, "success": true})
}

func (h *httpHandler) handleAllPosts(c *gin.Context) {
	feed, err := h.posts.Feed(c.Request.Context())
	if err != nil {
		h.respondInternal(c, "all_posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": feed, "success": true})
}

func (h *httpHandler) handleUserPosts(c *gin.Context) {
	authored, err := h.posts.ByAuthor(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		h.respondInternal(c, "user_posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": authored, "success": true})
}

func (h *httpHandler) handleLikePost(c *gin.Context) {
	actorID := c.GetString(userIDContextKey)
	postID := c.Param("id")

	post, err := h.posts.Like(c.Request.Context(), postID, actorID)
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "like_post", err)
		return
	}

	h.notifyPostOwner(c, post.AuthorID, actorID, postID, "like", "Your post was liked")
	c.JSON(http.StatusOK, gin.H{"message": "Post liked", "success": true})
}

func (h *httpHandler) handleDislikePost(c *gin.Context) {
	actorID := c.GetString(userIDContextKey)
	postID := c.Param("id")

	post, err := h.posts.Dislike(c.Request.Context(), postID, actorID)
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "dislike_post", err)
		return
	}

	h.notifyPostOwner(c, post.AuthorID, actorID, postID, "dislike", "Your post was disliked")
	c.JSON(http.StatusOK, gin.H{"message": "Post disliked", "success": true})
}

// notifyPostOwner pushes a live notification to the post owner unless the
// actor is the owner themself. Best-effort: an offline owner misses it and
// the response to the actor is unaffected.
func (h *httpHandler) notifyPostOwner(c *gin.Context, ownerID, actorID, postID, eventType, message string) {
	if ownerID == actorID {
		return
	}
	actor, err := h.users.ByID(c.Request.Context(), actorID)
	if err != nil {
		h.logger.Warn("skipping notification, actor lookup failed", zap.Error(err))
		return
	}
	h.dispatcher.Notify(ownerID, realtime.EventNotification, notificationPayload{
		Type:        eventType,
		UserID:      actorID,
		UserDetails: actor.Summary(),
		PostID:      postID,
		Message:     message,
	})
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	authorID := c.GetString(userIDContextKey)
	postID := c.Param("id")

	var request commentRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		respondError(c, http.StatusBadRequest, "text is required")
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), postID, authorID, request.Text)
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "add_comment", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "comment": comment, "success": true})
}

func (h *httpHandler) handleGetComments(c *gin.Context) {
	comments, err := h.posts.CommentsOf(c.Request.Context(), c.Param("id"))
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "get_comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func (h *httpHandler) handleDeletePost(c *gin.Context) {
	ownerID := c.GetString(userIDContextKey)
	postID := c.Param("id")

	err := h.posts.Delete(c.Request.Context(), postID, ownerID)
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if errors.Is(err, posts.ErrNotPostOwner) {
		respondError(c, http.StatusForbidden, "Unauthorized")
		return
	}
	if err != nil {
		h.respondInternal(c, "delete_post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

func (h *httpHandler) handleBookmarkPost(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	postID := c.Param("id")

	saved, err := h.posts.ToggleBookmark(c.Request.Context(), postID, userID)
	if errors.Is(err, posts.ErrPostNotFound) {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.respondInternal(c, "bookmark_post", err)
		return
	}

	if saved {
		c.JSON(http.StatusOK, gin.H{"type": "saved", "message": "Post bookmarked", "success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "unsaved", "message": "Post removed from bookmark", "success": true})
}
