package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/luminalab/lumina/backend/internal/auth"
	"github.com/luminalab/lumina/backend/internal/messages"
	"github.com/luminalab/lumina/backend/internal/posts"
	"github.com/luminalab/lumina/backend/internal/realtime"
	"github.com/luminalab/lumina/backend/internal/users"
	"gorm.io/gorm"
)

const testCookieName = "token"

type stubMediaStore struct{}

func (stubMediaStore) Upload(_ context.Context, filename string, content io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	return "/media/stub-" + filename, nil
}

type testEnv struct {
	handler  http.Handler
	users    *users.Service
	posts    *posts.Service
	messages *messages.Service
	sessions *auth.SessionIssuer
	gateway  *realtime.Gateway
	db       *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&users.User{}, &users.FollowEdge{},
		&posts.Post{}, &posts.Like{}, &posts.Comment{}, &posts.Bookmark{},
		&messages.Conversation{}, &messages.Message{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build users service: %v", err)
	}
	postService, err := posts.NewService(posts.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build posts service: %v", err)
	}
	messageService, err := messages.NewService(messages.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build messages service: %v", err)
	}
	sessionIssuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte("test-signing-secret"),
		Issuer:        "lumina-api",
		TokenTTL:      time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to build session issuer: %v", err)
	}

	gateway := realtime.NewGateway(realtime.NewRegistry())
	handler, err := NewHTTPHandler(Dependencies{
		Users:      userService,
		Posts:      postService,
		Messages:   messageService,
		Sessions:   sessionIssuer,
		Media:      stubMediaStore{},
		Gateway:    gateway,
		Dispatcher: realtime.NewDispatcher(gateway),
		CookieName: testCookieName,
	})
	if err != nil {
		t.Fatalf("failed to build http handler: %v", err)
	}

	return &testEnv{
		handler:  handler,
		users:    userService,
		posts:    postService,
		messages: messageService,
		sessions: sessionIssuer,
		gateway:  gateway,
		db:       db,
	}
}

func (env *testEnv) createUser(t *testing.T, username string) users.User {
	t.Helper()
	ctx := context.Background()
	email := username + "@example.com"
	if err := env.users.Register(ctx, username, email, "secret-password"); err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	account, err := env.users.Authenticate(ctx, email, "secret-password")
	if err != nil {
		t.Fatalf("failed to authenticate %s: %v", username, err)
	}
	return account
}

func (env *testEnv) sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := env.sessions.IssueSessionToken(userID)
	if err != nil {
		t.Fatalf("failed to issue session token: %v", err)
	}
	return &http.Cookie{Name: testCookieName, Value: token}
}
