package videosdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/stealthwatch/stealthwatch/shared"
)

const embedURLTemplate = "https://embed.videosdk.live/rtc-js-prebuilt/%v?micEnabled=true&webcamEnabled=true&name=Viewer"

// Client allocates live meeting rooms via the videosdk REST API.
type Client struct {
	baseURL    string
	token      string
	viewerURL  string
	httpClient *http.Client
}

func NewClient(config shared.VideoSDKConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		token:      config.Token,
		viewerURL:  strings.TrimSuffix(config.ViewerURL, "/"),
		httpClient: &http.Client{},
	}
}

// CreateRoom allocates a new room id. An empty id in the response is
// treated the same as a failed call.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, fmt.Sprintf("%v/rooms", c.baseURL), bytes.NewBufferString("{}"))
	if err != nil {
		return "", errors.Wrap(err, "videosdk")
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "videosdk")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("videosdk: rooms endpoint returned %v", resp.StatusCode)
	}

	payload := struct {
		RoomID string `json:"roomId"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "videosdk")
	}

	if payload.RoomID == "" {
		return "", errors.New("videosdk: room creation returned no room id")
	}

	return payload.RoomID, nil
}

// ViewerURL derives the public link an emergency contact opens to
// watch the live feed. Pure string template, no network call.
func (c *Client) ViewerURL(roomID string) string {
	return fmt.Sprintf("%v/viewer?roomId=%v", c.viewerURL, roomID)
}

// EmbedURL is the prebuilt rtc page used by the in-app live viewer.
func (c *Client) EmbedURL(roomID string) string {
	return fmt.Sprintf(embedURLTemplate, roomID)
}
