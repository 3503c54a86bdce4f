package location

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgentClientCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/position", r.URL.Path)
		assert.Equal(t, "high", r.URL.Query().Get("accuracy"))

		fmt.Fprint(w, `{"latitude": 37.4219, "longitude": -122.084}`)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL)
	coords, err := client.Current(context.Background(), Options{HighAccuracy: true})

	assert.Nil(t, err)
	assert.Equal(t, 37.4219, coords.Latitude)
	assert.Equal(t, -122.084, coords.Longitude)
}

func TestAgentClientCachedFix(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, `{"latitude": 37.4219, "longitude": -122.084}`)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL)
	opts := Options{MaximumAge: time.Minute}

	_, err := client.Current(context.Background(), opts)
	assert.Nil(t, err)

	coords, err := client.Current(context.Background(), opts)
	assert.Nil(t, err)
	assert.Equal(t, 37.4219, coords.Latitude)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests),
		"A fix younger than MaximumAge should be served from cache")
}

func TestAgentClientNoCacheWithZeroMaximumAge(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, `{"latitude": 1, "longitude": 2}`)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL)

	_, err := client.Current(context.Background(), Options{})
	assert.Nil(t, err)
	_, err = client.Current(context.Background(), Options{})
	assert.Nil(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestAgentClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, `{"latitude": 1, "longitude": 2}`)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL)

	_, err := client.Current(context.Background(), Options{Timeout: 20 * time.Millisecond})
	assert.NotNil(t, err, "A slow agent should trip the request timeout")
}

func TestAgentClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewAgentClient(server.URL)

	_, err := client.Current(context.Background(), Options{})
	assert.NotNil(t, err)
}

func TestStaticProvider(t *testing.T) {
	provider := &StaticProvider{Coords: Coordinates{Latitude: 37.4219, Longitude: -122.084}}

	coords, err := provider.Current(context.Background(), Options{})
	assert.Nil(t, err)
	assert.Equal(t, 37.4219, coords.Latitude)
	assert.Equal(t, -122.084, coords.Longitude)
}
