package discord

import (
	"encoding/json"
	"fmt"
)

const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15
)

// коды операций Gateway
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
	S  *int64          `json:"s"`
	T  string          `json:"t"`
}

type outPayload struct {
	Op int `json:"op"`
	D  any `json:"d"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identify struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type Ready struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	User             User   `json:"user"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

type Member struct {
	User *User  `json:"user,omitempty"`
	Nick string `json:"nick,omitempty"`
}

type Message struct {
	ID         string      `json:"id"`
	ChannelID  string      `json:"channel_id"`
	GuildID    string      `json:"guild_id,omitempty"`
	Content    string      `json:"content"`
	Author     *User       `json:"author,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"` // RFC3339
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type ComponentType int

const (
	ComponentActionRow ComponentType = 1
	ComponentButton    ComponentType = 2
)

type ButtonStyle int

const (
	ButtonPrimary   ButtonStyle = 1
	ButtonSecondary ButtonStyle = 2
	ButtonSuccess   ButtonStyle = 3
	ButtonDanger    ButtonStyle = 4
)

type Emoji struct {
	Name string `json:"name"`
}

type Component struct {
	Type       ComponentType `json:"type"`
	Components []Component   `json:"components,omitempty"`
	Style      ButtonStyle   `json:"style,omitempty"`
	Label      string        `json:"label,omitempty"`
	Emoji      *Emoji        `json:"emoji,omitempty"`
	CustomID   string        `json:"custom_id,omitempty"`
	Disabled   bool          `json:"disabled,omitempty"`
}

func ActionRow(cs ...Component) Component {
	return Component{Type: ComponentActionRow, Components: cs}
}

func Button(customID, label, emoji string, style ButtonStyle) Component {
	b := Component{Type: ComponentButton, CustomID: customID, Label: label, Style: style}
	if emoji != "" {
		b.Emoji = &Emoji{Name: emoji}
	}
	return b
}

type MessageReference struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id,omitempty"`
}

type MessageSend struct {
	Content    string            `json:"content,omitempty"`
	Embeds     []Embed           `json:"embeds,omitempty"`
	Components []Component       `json:"components,omitempty"`
	Reference  *MessageReference `json:"message_reference,omitempty"`
}

// MessageEdit - правка только компонентов (пустой список убирает все).
type MessageEdit struct {
	Components []Component `json:"components"`
}

type MessageFlags int

const FlagEphemeral MessageFlags = 1 << 6

type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
)

type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Token         string          `json:"token"`
	Message       *Message        `json:"message,omitempty"`
}

// Author - пользователь, вызвавший interaction (в гильдии лежит в member).
func (i *Interaction) Author() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (i *Interaction) CommandData() (*CommandData, error) {
	if i.Type != InteractionApplicationCommand {
		return nil, fmt.Errorf("interaction %s is not a command", i.ID)
	}
	var d CommandData
	if err := json.Unmarshal(i.Data, &d); err != nil {
		return nil, fmt.Errorf("decode command data: %w", err)
	}
	return &d, nil
}

func (i *Interaction) ComponentData() (*ComponentData, error) {
	if i.Type != InteractionMessageComponent {
		return nil, fmt.Errorf("interaction %s is not a component", i.ID)
	}
	var d ComponentData
	if err := json.Unmarshal(i.Data, &d); err != nil {
		return nil, fmt.Errorf("decode component data: %w", err)
	}
	return &d, nil
}

type OptionType int

const (
	OptionSubCommand OptionType = 1
	OptionString     OptionType = 3
)

type CommandData struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Options []CommandDataOption `json:"options,omitempty"`
}

type CommandDataOption struct {
	Name    string              `json:"name"`
	Type    OptionType          `json:"type"`
	Value   json.RawMessage     `json:"value,omitempty"`
	Options []CommandDataOption `json:"options,omitempty"`
}

// String - значение строковой опции ("" если опция не строка).
func (o CommandDataOption) String() string {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return ""
	}
	return s
}

// Option ищет опцию по имени.
func Option(opts []CommandDataOption, name string) (CommandDataOption, bool) {
	for _, o := range opts {
		if o.Name == name {
			return o, true
		}
	}
	return CommandDataOption{}, false
}

type ComponentData struct {
	CustomID      string        `json:"custom_id"`
	ComponentType ComponentType `json:"component_type"`
}

type InteractionResponseType int

const (
	ResponseChannelMessage InteractionResponseType = 4
	ResponseUpdateMessage  InteractionResponseType = 7
)

type InteractionResponse struct {
	Type InteractionResponseType  `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

type InteractionResponseData struct {
	Content    string       `json:"content,omitempty"`
	Embeds     []Embed      `json:"embeds,omitempty"`
	Components []Component  `json:"components,omitempty"`
	Flags      MessageFlags `json:"flags,omitempty"`
}

type ApplicationCommand struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

type CommandOption struct {
	Type        OptionType      `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Required    bool            `json:"required,omitempty"`
	Options     []CommandOption `json:"options,omitempty"`
}
