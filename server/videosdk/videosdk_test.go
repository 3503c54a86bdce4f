package videosdk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stealthwatch/stealthwatch/shared"
	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(shared.VideoSDKConfig{
		BaseURL:   server.URL,
		Token:     "test-token",
		ViewerURL: "https://stealthwatch.vercel.app",
	})
	return client, server
}

func TestCreateRoom(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))

		fmt.Fprint(w, `{"roomId": "abc123"}`)
	})
	defer server.Close()

	roomID, err := client.CreateRoom(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, "abc123", roomID)
}

func TestCreateRoomEmptyRoomID(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	_, err := client.CreateRoom(context.Background())
	assert.NotNil(t, err, "A 200 with no room id should still be treated as a failure")
}

func TestCreateRoomServerError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := client.CreateRoom(context.Background())
	assert.NotNil(t, err)
}

func TestViewerURL(t *testing.T) {
	client := NewClient(shared.VideoSDKConfig{ViewerURL: "https://stealthwatch.vercel.app/"})

	assert.Equal(t, "https://stealthwatch.vercel.app/viewer?roomId=abc123", client.ViewerURL("abc123"))
}

func TestEmbedURL(t *testing.T) {
	client := NewClient(shared.VideoSDKConfig{})

	assert.Equal(t,
		"https://embed.videosdk.live/rtc-js-prebuilt/abc123?micEnabled=true&webcamEnabled=true&name=Viewer",
		client.EmbedURL("abc123"))
}
