package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/config"
	"github.com/EgorLis/chestbot/internal/discord"
)

// discordStub - REST и Gateway в одном тестовом сервере.
type discordStub struct {
	mu        sync.Mutex
	commands  []discord.ApplicationCommand
	responses []discord.InteractionResponse
	identify  map[string]any
	whoami    int

	ready chan struct{}
}

func (s *discordStub) rest(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/@me":
			s.mu.Lock()
			s.whoami++
			s.mu.Unlock()
			_, _ = w.Write([]byte(`{"id":"42","username":"chestbot","bot":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/applications/app/guilds/guild/commands":
			var cmds []discord.ApplicationCommand
			require.NoError(t, json.NewDecoder(r.Body).Decode(&cmds))
			s.mu.Lock()
			s.commands = cmds
			s.mu.Unlock()
			_ = json.NewEncoder(w).Encode(cmds)
		case strings.HasPrefix(r.URL.Path, "/interactions/"):
			var resp discord.InteractionResponse
			require.NoError(t, json.NewDecoder(r.Body).Decode(&resp))
			s.mu.Lock()
			s.responses = append(s.responses, resp)
			s.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"id":"m1"}`))
		}
	}
}

func (s *discordStub) gateway(t *testing.T) http.HandlerFunc {
	up := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		send := func(v any) { require.NoError(t, conn.WriteJSON(v)) }
		send(map[string]any{"op": 10, "d": map[string]any{"heartbeat_interval": 45000}})

		for {
			var f struct {
				Op int            `json:"op"`
				D  map[string]any `json:"d"`
			}
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Op == 2 {
				s.mu.Lock()
				s.identify = f.D
				s.mu.Unlock()
				break
			}
		}
		send(map[string]any{"op": 0, "t": "READY", "s": 1, "d": map[string]any{
			"session_id": "sess", "user": map[string]any{"id": "42", "username": "chestbot"},
		}})
		close(s.ready)
		send(map[string]any{"op": 0, "t": "INTERACTION_CREATE", "s": 2, "d": map[string]any{
			"id": "i1", "type": 2, "token": "tok", "channel_id": "chan1",
			"data": map[string]any{"name": "chest", "options": []any{map[string]any{
				"name": "create", "type": 1,
				"options": []any{map[string]any{"name": "name", "type": 3, "value": "D4"}},
			}}},
		}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func TestChestBotStartStop(t *testing.T) {
	stub := &discordStub{ready: make(chan struct{})}
	restSrv := httptest.NewServer(stub.rest(t))
	defer restSrv.Close()
	gwSrv := httptest.NewServer(stub.gateway(t))
	defer gwSrv.Close()

	cfg := config.Default()
	cfg.Token, cfg.ClientID, cfg.GuildID = "token", "app", "guild"
	cfg.APIURL = restSrv.URL
	cfg.GatewayURL = "ws" + strings.TrimPrefix(gwSrv.URL, "http")
	cfg.Chests = []string{"E7", "e7"}

	b := New(cfg, zap.NewNop())
	require.NoError(t, b.Start(context.Background()))
	assert.Error(t, b.Start(context.Background()))

	<-stub.ready
	require.Eventually(t, func() bool {
		_, ok := b.Tracker().Get("d4")
		return ok && b.Connected()
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return len(stub.responses) == 1
	}, 5*time.Second, 10*time.Millisecond)

	stub.mu.Lock()
	assert.Equal(t, 1, stub.whoami)
	require.Len(t, stub.commands, 1)
	assert.Equal(t, "chest", stub.commands[0].Name)
	assert.EqualValues(t, discord.IntentGuilds|discord.IntentGuildMessages, stub.identify["intents"])
	assert.Equal(t, "✅ Chest Added", stub.responses[0].Data.Embeds[0].Title)
	stub.mu.Unlock()

	_, ok := b.Tracker().Get("e7")
	assert.True(t, ok)
	assert.Equal(t, 2, b.ChestCount())
	assert.Less(t, b.SinceLastAck(), time.Minute)

	b.Stop()
	b.Stop()
	assert.False(t, b.Connected())
	assert.Zero(t, b.ChestCount())
}

func TestStartFailsWhenRegistrationFails(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":0,"message":"401: Unauthorized"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Token, cfg.ClientID, cfg.GuildID = "bad", "app", "guild"
	cfg.APIURL = srv.URL

	b := New(cfg, zap.NewNop())
	err := b.Start(context.Background())
	require.Error(t, err)
	var apiErr *discord.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "check token")
	assert.False(t, b.Connected())
	b.Stop()

	// с битым токеном до перезаписи команд дело не доходит
	mu.Lock()
	assert.Equal(t, []string{"GET /users/@me"}, paths)
	mu.Unlock()
}

func TestSinceLastAckWithoutGateway(t *testing.T) {
	b, _, _ := newTestBot(t)
	assert.Equal(t, time.Hour, b.SinceLastAck())
}

func TestCheckTokenReturnsBotUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot token", r.Header.Get("Authorization"))
		assert.Equal(t, "/users/@me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"42","username":"chestbot","bot":true}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Token = "token"
	cfg.APIURL = srv.URL
	b := New(cfg, zap.NewNop())
	defer b.Tracker().Destroy()

	u, err := b.CheckToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "chestbot", u.Username)
	assert.True(t, u.Bot)
}

func TestSeedChestsSkipsDuplicatesAndBadNames(t *testing.T) {
	b, _, _ := newTestBot(t)
	b.SeedChests([]string{"D4", "d4", "!!!", "Old Chest"})
	assert.Equal(t, 2, b.ChestCount())
	for _, c := range b.Tracker().List() {
		assert.False(t, c.Active)
	}
}
