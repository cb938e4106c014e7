package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/auth"
	"github.com/luminalab/lumina/backend/internal/media"
	"github.com/luminalab/lumina/backend/internal/messages"
	"github.com/luminalab/lumina/backend/internal/posts"
	"github.com/luminalab/lumina/backend/internal/realtime"
	"github.com/luminalab/lumina/backend/internal/users"
	"go.uber.org/zap"
)

const (
	userIDContextKey  = "lumina_user_id"
	defaultCookieName = "token"
)

var (
	errMissingUsersService    = errors.New("users service dependency required")
	errMissingPostsService    = errors.New("posts service dependency required")
	errMissingMessagesService = errors.New("messages service dependency required")
	errMissingSessionIssuer   = errors.New("session issuer dependency required")
	errMissingMediaStore      = errors.New("media store dependency required")
	errMissingGateway         = errors.New("realtime gateway dependency required")
	errMissingDispatcher      = errors.New("realtime dispatcher dependency required")
)

// Dependencies wires the services and collaborators the HTTP surface needs.
type Dependencies struct {
	Users      *users.Service
	Posts      *posts.Service
	Messages   *messages.Service
	Sessions   *auth.SessionIssuer
	Media      media.Store
	Gateway    *realtime.Gateway
	Dispatcher *realtime.Dispatcher
	CookieName string
	// MediaDir, when set, is mounted read-only under MediaBaseURL so disk
	// uploads are served by the same process.
	MediaDir     string
	MediaBaseURL string
	Logger       *zap.Logger
}

// NewHTTPHandler builds the full REST and realtime routing surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Posts == nil {
		return nil, errMissingPostsService
	}
	if deps.Messages == nil {
		return nil, errMissingMessagesService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionIssuer
	}
	if deps.Media == nil {
		return nil, errMissingMediaStore
	}
	if deps.Gateway == nil {
		return nil, errMissingGateway
	}
	if deps.Dispatcher == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cookieName := deps.CookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		users:      deps.Users,
		posts:      deps.Posts,
		messages:   deps.Messages,
		sessions:   deps.Sessions,
		media:      deps.Media,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		cookieName: cookieName,
		logger:     logger,
	}

	if deps.MediaDir != "" {
		baseURL := deps.MediaBaseURL
		if baseURL == "" {
			baseURL = "/media"
		}
		router.Static(baseURL, deps.MediaDir)
	}

	router.POST("/user/register", handler.handleRegister)
	router.POST("/user/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/user/logout", handler.handleLogout)
	protected.GET("/user/suggested", handler.handleSuggestedUsers)
	protected.GET("/user/:id", handler.handleGetProfile)
	protected.POST("/user/profile/edit", handler.handleEditProfile)
	protected.POST("/user/followorunfollow/:id", handler.handleFollowOrUnfollow)

	protected.POST("/post/addpost", handler.handleAddPost)
	protected.GET("/post/all", handler.handleAllPosts)
	protected.GET("/post/userpost", handler.handleUserPosts)
	protected.POST("/post/:id/like", handler.handleLikePost)
	protected.POST("/post/:id/dislike", handler.handleDislikePost)
	protected.POST("/post/:id/comment", handler.handleAddComment)
	protected.GET("/post/:id/comment/all", handler.handleGetComments)
	protected.DELETE("/post/delete/:id", handler.handleDeletePost)
	protected.POST("/post/:id/bookmark", handler.handleBookmarkPost)

	protected.POST("/message/send/:id", handler.handleSendMessage)
	protected.GET("/message/all/:id", handler.handleGetMessages)

	protected.GET("/realtime/stream", handler.handleRealtimeStream)

	return router, nil
}

type httpHandler struct {
	users      *users.Service
	posts      *posts.Service
	messages   *messages.Service
	sessions   *auth.SessionIssuer
	media      media.Store
	gateway    *realtime.Gateway
	dispatcher *realtime.Dispatcher
	cookieName string
	logger     *zap.Logger
}

// corsMiddleware allows credentialed cross-origin requests; cookie-carried
// sessions require echoing the caller's origin rather than a wildcard.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token, err := c.Cookie(h.cookieName)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated", "success": false})
		return
	}
	userID, err := h.sessions.ValidateSessionToken(token)
	if err != nil {
		h.logger.Info("session token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid session", "success": false})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message, "success": false})
}

// respondInternal normalizes unexpected failures to a structured 500 body.
// The system this replaces sometimes logged and sent nothing, hanging the
// client; every handler here always answers.
func (h *httpHandler) respondInternal(c *gin.Context, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	respondError(c, http.StatusInternalServerError, "Internal server error")
}
