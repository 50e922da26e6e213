package wgeasy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-vpn-service/internal/config"
)

type fakePanel struct {
	mu       *httptest.Server
	clients  []RemoteClient
	password string
	logins   int
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()

	panel := &fakePanel{password: "secret"}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		if body.Password != panel.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		panel.logins++
		http.SetCookie(w, &http.Cookie{Name: "connect.sid", Value: "session-1"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/wireguard/client", func(w http.ResponseWriter, r *http.Request) {
		if !panel.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(panel.clients)
		case http.MethodPost:
			var body struct {
				Name string `json:"name"`
			}
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &body)
			panel.clients = append(panel.clients, RemoteClient{
				ID:      "client-" + body.Name,
				Name:    body.Name,
				Enabled: true,
			})
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}
	})
	mux.HandleFunc("/api/wireguard/client/", func(w http.ResponseWriter, r *http.Request) {
		if !panel.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet:
			// /api/wireguard/client/{id}/configuration
			for _, client := range panel.clients {
				if r.URL.Path == "/api/wireguard/client/"+client.ID+"/configuration" {
					_, _ = w.Write([]byte("[Interface]\nPrivateKey = key-" + client.ID + "\n"))
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodDelete:
			for i, client := range panel.clients {
				if r.URL.Path == "/api/wireguard/client/"+client.ID {
					panel.clients = append(panel.clients[:i], panel.clients[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		}
	})

	panel.mu = httptest.NewServer(mux)
	t.Cleanup(panel.mu.Close)
	return panel
}

func (p *fakePanel) authorized(r *http.Request) bool {
	cookie, err := r.Cookie("connect.sid")
	return err == nil && cookie.Value == "session-1"
}

func newTestClient(t *testing.T, panel *fakePanel) *Client {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(config.WGEasyConfig{URL: panel.mu.URL, Password: "secret"}, logger)
}

func TestClientLogin(t *testing.T) {
	panel := newFakePanel(t)
	client := newTestClient(t, panel)

	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 1, panel.logins)

	// Second login reuses the cached session
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 1, panel.logins)
}

func TestClientLoginBadPassword(t *testing.T) {
	panel := newFakePanel(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := NewClient(config.WGEasyConfig{URL: panel.mu.URL, Password: "wrong"}, logger)

	require.Error(t, client.Login(context.Background()))
}

func TestClientCreateAndList(t *testing.T) {
	panel := newFakePanel(t)
	client := newTestClient(t, panel)

	created, err := client.CreateClient(context.Background(), "alice_42_1")
	require.NoError(t, err)
	assert.Equal(t, "client-alice_42_1", created.ID)
	assert.Equal(t, "alice_42_1", created.Name)

	clients, err := client.ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, created.ID, clients[0].ID)
}

func TestClientCreateResolvesNewestOnNameCollision(t *testing.T) {
	panel := newFakePanel(t)
	panel.clients = []RemoteClient{{ID: "old-id", Name: "alice_42_1"}}
	client := newTestClient(t, panel)

	created, err := client.CreateClient(context.Background(), "alice_42_1")
	require.NoError(t, err)
	assert.Equal(t, "client-alice_42_1", created.ID)
}

func TestClientGetConfiguration(t *testing.T) {
	panel := newFakePanel(t)
	panel.clients = []RemoteClient{{ID: "c1", Name: "alice"}}
	client := newTestClient(t, panel)

	conf, err := client.GetConfiguration(context.Background(), "c1")
	require.NoError(t, err)
	assert.Contains(t, conf, "[Interface]")

	_, err = client.GetConfiguration(context.Background(), "missing")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientDelete(t *testing.T) {
	panel := newFakePanel(t)
	panel.clients = []RemoteClient{{ID: "c1", Name: "alice"}}
	client := newTestClient(t, panel)

	require.NoError(t, client.DeleteClient(context.Background(), "c1"))
	assert.Empty(t, panel.clients)

	require.ErrorIs(t, client.DeleteClient(context.Background(), "c1"), ErrClientNotFound)
}

func TestClientRelogsInOnExpiredSession(t *testing.T) {
	panel := newFakePanel(t)
	panel.clients = []RemoteClient{{ID: "c1", Name: "alice"}}
	client := newTestClient(t, panel)

	require.NoError(t, client.Login(context.Background()))

	// Invalidate the session server-side; the next call must re-login
	client.cookieCache.Set("session", []*http.Cookie{{Name: "connect.sid", Value: "stale"}}, 0)

	clients, err := client.ListClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 1)
	assert.Equal(t, 2, panel.logins)
}
