package ws_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T, origins []string) (*ws.Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	server := httptest.NewServer(ws.Handler(hub, origins))

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return hub, server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")

	return websocket.DefaultDialer.Dial(url, header)
}

func TestHubBridge(t *testing.T) {
	t.Run("Success - bus events reach connected clients", func(t *testing.T) {
		// Arrange
		hub, server := setupHub(t, nil)
		bus := events.NewBus(nil)
		unsubscribe := hub.Bridge(bus)
		defer unsubscribe()

		conn, _, err := dial(t, server, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

		// Act
		bus.Publish(t.Context(), events.CartUpdated{State: models.CartStateReady, ItemCount: 2, GrandTotal: models.AmountFromInt(90)})

		// Assert
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, events.TopicCartUpdated, msg.Type)
		assert.JSONEq(t, `{"state":"READY","item_count":2,"grand_total":90}`, string(msg.Payload))
	})

	t.Run("Success - disconnect unregisters the client", func(t *testing.T) {
		// Arrange
		hub, server := setupHub(t, nil)
		conn, _, err := dial(t, server, nil)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

		// Act
		conn.Close()

		// Assert
		assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Failure - foreign origin is refused", func(t *testing.T) {
		// Arrange
		_, server := setupHub(t, []string{"http://localhost:8081"})

		// Act
		_, resp, err := dial(t, server, http.Header{"Origin": []string{"http://evil.example"}})

		// Assert
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
