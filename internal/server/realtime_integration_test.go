package server

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRealtimeStreamEmitsNewMessageEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	sender := env.createUser(t, "sender")
	receiver := env.createUser(t, "receiver")

	liveServer := httptest.NewServer(env.handler)
	t.Cleanup(liveServer.Close)

	streamRequest, err := http.NewRequest(http.MethodGet, liveServer.URL+"/realtime/stream", http.NoBody)
	if err != nil {
		t.Fatalf("failed to construct stream request: %v", err)
	}
	streamRequest.AddCookie(env.sessionCookie(t, receiver.ID))
	streamResp, err := http.DefaultClient.Do(streamRequest)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	t.Cleanup(func() {
		_ = streamResp.Body.Close()
	})
	if streamResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected stream status: %d", streamResp.StatusCode)
	}
	if contentType := streamResp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/event-stream") {
		t.Fatalf("unexpected content type: %s", contentType)
	}

	// Give the server a moment to register the connection before sending.
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := env.gateway.Registry().Get(receiver.ID); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected receiver registered before send")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sendRequest, err := http.NewRequest(
		http.MethodPost,
		liveServer.URL+"/message/send/"+receiver.ID,
		bytes.NewBufferString(`{"textMessage":"ping"}`),
	)
	if err != nil {
		t.Fatalf("failed to construct send request: %v", err)
	}
	sendRequest.Header.Set("Content-Type", "application/json")
	sendRequest.AddCookie(env.sessionCookie(t, sender.ID))
	sendResp, err := http.DefaultClient.Do(sendRequest)
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}
	_ = sendResp.Body.Close()
	if sendResp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected send status: %d", sendResp.StatusCode)
	}

	streamReader := bufio.NewReader(streamResp.Body)
	eventLine := readStreamLine(t, streamReader)
	if eventLine != "event: newMessage" {
		t.Fatalf("expected newMessage event line, got %q", eventLine)
	}
	dataLine := readStreamLine(t, streamReader)
	if !strings.HasPrefix(dataLine, "data: ") || !strings.Contains(dataLine, `"ping"`) {
		t.Fatalf("unexpected data line: %q", dataLine)
	}
}

func readStreamLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	type lineResult struct {
		line string
		err  error
	}
	results := make(chan lineResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		results <- lineResult{line: line, err: err}
	}()
	select {
	case result := <-results:
		if result.err != nil {
			t.Fatalf("failed to read stream line: %v", result.err)
		}
		return strings.TrimRight(result.line, "\n")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream line")
		return ""
	}
}
