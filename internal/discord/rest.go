package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultAPIURL = "https://discord.com/api/v10"
	userAgent     = "DiscordBot (https://github.com/EgorLis/chestbot, 1.0)"
	maxRetryAfter = 10 * time.Second
)

type REST struct {
	http  *http.Client
	token string
	base  string
}

// APIError - ответ Discord с не-2xx статусом.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord api: status %d", e.Status)
	}
	return fmt.Sprintf("discord api: status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

func NewREST(token string) *REST {
	return &REST{
		http:  &http.Client{Timeout: 10 * time.Second},
		token: token,
		base:  DefaultAPIURL,
	}
}

// SetBaseURL - подменить адрес API (тесты).
func (r *REST) SetBaseURL(u string) {
	r.base = u
}

func (r *REST) CreateMessage(ctx context.Context, channelID string, m *MessageSend) (*Message, error) {
	var out Message
	if err := r.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *REST) EditMessage(ctx context.Context, channelID, messageID string, m *MessageEdit) (*Message, error) {
	var out Message
	path := "/channels/" + channelID + "/messages/" + messageID
	if err := r.do(ctx, http.MethodPatch, path, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *REST) CreateInteractionResponse(ctx context.Context, interactionID, token string, resp *InteractionResponse) error {
	path := "/interactions/" + interactionID + "/" + token + "/callback"
	return r.do(ctx, http.MethodPost, path, resp, nil)
}

// BulkOverwriteGuildCommands заменяет все slash-команды приложения в гильдии.
func (r *REST) BulkOverwriteGuildCommands(ctx context.Context, appID, guildID string, cmds []ApplicationCommand) ([]ApplicationCommand, error) {
	var out []ApplicationCommand
	path := "/applications/" + appID + "/guilds/" + guildID + "/commands"
	if err := r.do(ctx, http.MethodPut, path, cmds, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *REST) GetCurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := r.do(ctx, http.MethodGet, "/users/@me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do - один запрос; на 429 ждём retry_after и пробуем ещё раз (один раз).
func (r *REST) do(ctx context.Context, method, path string, body, out any) error {
	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		raw = b
	}

	for attempt := 0; ; attempt++ {
		var rd io.Reader
		if raw != nil {
			rd = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bot "+r.token)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := r.http.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(resp)
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		return err
	}
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(b, apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryAfter берёт паузу из тела (retry_after, секунды) или заголовка Retry-After.
func retryAfter(resp *http.Response) time.Duration {
	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	wait := time.Second
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10)); err == nil && json.Unmarshal(b, &body) == nil && body.RetryAfter > 0 {
		wait = time.Duration(body.RetryAfter * float64(time.Second))
	} else if s, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && s > 0 {
		wait = time.Duration(s * float64(time.Second))
	}
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}
