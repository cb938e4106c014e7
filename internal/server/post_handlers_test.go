package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/realtime"
)

func TestLikeNotifiesPostOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	liker := env.createUser(t, "liker")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	connection, cleanup := env.gateway.Connect(ctx, owner.ID)
	defer cleanup()

	request := httptest.NewRequest(http.MethodPost, "/post/"+view.ID+"/like", http.NoBody)
	request.AddCookie(env.sessionCookie(t, liker.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	var body struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body.Success || body.Message != "Post liked" {
		t.Fatalf("unexpected body: %+v", body)
	}

	select {
	case event := <-connection.Events():
		if event.Name != realtime.EventNotification {
			t.Fatalf("expected %s event, got %s", realtime.EventNotification, event.Name)
		}
		payload, ok := event.Payload.(notificationPayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", event.Payload)
		}
		if payload.Type != "like" || payload.UserID != liker.ID || payload.PostID != view.ID {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if payload.Message != "Your post was liked" {
			t.Fatalf("unexpected payload message: %q", payload.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("expected notification within deadline")
	}
}

func TestLikeOwnPostSkipsNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	connection, cleanup := env.gateway.Connect(ctx, owner.ID)
	defer cleanup()

	request := httptest.NewRequest(http.MethodPost, "/post/"+view.ID+"/like", http.NoBody)
	request.AddCookie(env.sessionCookie(t, owner.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	select {
	case event := <-connection.Events():
		t.Fatalf("did not expect event for self-like, got %s", event.Name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLikeWithOfflineOwnerStillSucceeds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	liker := env.createUser(t, "liker")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/post/"+view.ID+"/like", http.NoBody)
	request.AddCookie(env.sessionCookie(t, liker.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected offline owner to be a no-op, got %d", recorder.Code)
	}
}

func TestLikeUnknownPostReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	liker := env.createUser(t, "liker")

	request := httptest.NewRequest(http.MethodPost, "/post/missing/like", http.NoBody)
	request.AddCookie(env.sessionCookie(t, liker.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestAddPostRequiresImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	author := env.createUser(t, "author")

	request := httptest.NewRequest(http.MethodPost, "/post/addpost", bytes.NewBufferString("caption=hello"))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.AddCookie(env.sessionCookie(t, author.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestDeletePostRequiresOwnership(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	request := httptest.NewRequest(http.MethodDelete, "/post/delete/"+view.ID, http.NoBody)
	request.AddCookie(env.sessionCookie(t, other.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}

	request = httptest.NewRequest(http.MethodDelete, "/post/delete/"+view.ID, http.NoBody)
	request.AddCookie(env.sessionCookie(t, owner.ID))
	recorder = httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestBookmarkToggleResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")
	reader := env.createUser(t, "reader")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	toggle := func() (string, int) {
		request := httptest.NewRequest(http.MethodPost, "/post/"+view.ID+"/bookmark", http.NoBody)
		request.AddCookie(env.sessionCookie(t, reader.ID))
		recorder := httptest.NewRecorder()
		env.handler.ServeHTTP(recorder, request)
		var body struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		return body.Type, recorder.Code
	}

	tag, code := toggle()
	if code != http.StatusOK || tag != "saved" {
		t.Fatalf("expected first toggle saved, got %s (%d)", tag, code)
	}
	tag, code = toggle()
	if code != http.StatusOK || tag != "unsaved" {
		t.Fatalf("expected second toggle unsaved, got %s (%d)", tag, code)
	}
}

func TestAddCommentValidatesText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	owner := env.createUser(t, "owner")

	view, err := env.posts.Create(context.Background(), owner.ID, "sunset", "/media/sunset.jpg")
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/post/"+view.ID+"/comment", bytes.NewBufferString(`{"text":"  "}`))
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(env.sessionCookie(t, owner.ID))
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}
