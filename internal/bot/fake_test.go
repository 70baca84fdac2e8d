package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/clock"
	"github.com/EgorLis/chestbot/internal/config"
	"github.com/EgorLis/chestbot/internal/discord"
)

type sentMessage struct {
	ChannelID string
	Msg       *discord.MessageSend
}

type editedMessage struct {
	ChannelID, MessageID string
	Edit                 *discord.MessageEdit
}

type response struct {
	InteractionID, Token string
	Resp                 *discord.InteractionResponse
}

// fakeAPI записывает вызовы вместо похода в Discord.
type fakeAPI struct {
	mu        sync.Mutex
	sent      []sentMessage
	edited    []editedMessage
	responses []response
	sendErr   error
	nextID    int

	// block != nil: CreateMessage отмечается в started и ждёт закрытия block.
	block   chan struct{}
	started chan struct{}
}

// stall заставляет CreateMessage висеть до release.
func (f *fakeAPI) stall() (release func()) {
	f.block = make(chan struct{})
	f.started = make(chan struct{}, 2*notifyQueueSize)
	return func() { close(f.block) }
}

func (f *fakeAPI) CreateMessage(_ context.Context, channelID string, m *discord.MessageSend) (*discord.Message, error) {
	if f.block != nil {
		f.started <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Msg: m})
	return &discord.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeAPI) EditMessage(_ context.Context, channelID, messageID string, m *discord.MessageEdit) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, editedMessage{ChannelID: channelID, MessageID: messageID, Edit: m})
	return &discord.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeAPI) CreateInteractionResponse(_ context.Context, interactionID, token string, r *discord.InteractionResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{InteractionID: interactionID, Token: token, Resp: r})
	return nil
}

func (f *fakeAPI) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) Edited() []editedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]editedMessage(nil), f.edited...)
}

func (f *fakeAPI) LastResponse(t *testing.T) *discord.InteractionResponse {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.responses, "no interaction response")
	return f.responses[len(f.responses)-1].Resp
}

var testStart = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestBot(t *testing.T) (*ChestBot, *fakeAPI, *clock.Fake) {
	t.Helper()
	api := &fakeAPI{}
	clk := clock.NewFake(testStart)
	cfg := config.Default()
	cfg.Token, cfg.ClientID, cfg.GuildID = "token", "app", "guild"
	b := New(cfg, zap.NewNop(), WithAPI(api), WithClock(clk))
	t.Cleanup(b.Tracker().Destroy)
	return b, api, clk
}

// slash builds a /chest <sub> [name] interaction.
func slash(t *testing.T, sub, name string) *discord.Interaction {
	t.Helper()
	opt := map[string]any{"name": sub, "type": discord.OptionSubCommand}
	if name != "" {
		opt["options"] = []map[string]any{{"name": "name", "type": discord.OptionString, "value": name}}
	}
	data, err := json.Marshal(map[string]any{"name": "chest", "options": []any{opt}})
	require.NoError(t, err)
	return &discord.Interaction{
		ID:        "int-" + sub,
		Type:      discord.InteractionApplicationCommand,
		Token:     "tok",
		ChannelID: "chan1",
		Data:      data,
		Member:    &discord.Member{User: &discord.User{ID: "7", Username: "paul"}},
	}
}

func click(t *testing.T, customID, messageID string) *discord.Interaction {
	t.Helper()
	data, err := json.Marshal(discord.ComponentData{CustomID: customID, ComponentType: discord.ComponentButton})
	require.NoError(t, err)
	return &discord.Interaction{
		ID:        "click-" + messageID,
		Type:      discord.InteractionMessageComponent,
		Token:     "tok",
		ChannelID: "chan1",
		Data:      data,
		Message:   &discord.Message{ID: messageID, ChannelID: "chan1"},
		User:      &discord.User{ID: "8", Username: "chani"},
	}
}
