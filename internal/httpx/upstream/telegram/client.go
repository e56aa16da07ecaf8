package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/charlielabs/charlie/internal/domain/interaction"
	"github.com/charlielabs/charlie/internal/platform"
)

// Client posts to a Telegram channel and picks up replies/mentions from the
// linked discussion group via getUpdates.
type Client struct {
	token   string
	chatID  int64
	bot     *tgbotapi.BotAPI
	offset  int
	botName string
}

// New creates a Telegram client for the given bot token and channel chat ID.
// The bot must be an administrator of the channel.
func New(token string, chatID int64) *Client {
	return &Client{
		token:  token,
		chatID: chatID,
	}
}

// Name returns the platform this client serves
func (c *Client) Name() platform.Platform {
	return platform.PlatformTelegram
}

// Authenticate connects the bot API (getMe under the hood)
func (c *Client) Authenticate(_ context.Context) error {
	if c.bot != nil {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(c.token)
	if err != nil {
		return fmt.Errorf("connecting telegram bot: %w", err)
	}
	c.bot = bot
	c.botName = bot.Self.UserName
	return nil
}

// CreatePost sends a message to the channel. When a media URL is given the
// post goes out as a photo with the text as caption.
func (c *Client) CreatePost(ctx context.Context, text, mediaURL string) (string, error) {
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	var sent tgbotapi.Message
	var err error
	if mediaURL != "" {
		photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FileURL(mediaURL))
		photo.Caption = text
		sent, err = c.bot.Send(photo)
	} else {
		sent, err = c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
	}
	if err != nil {
		return "", fmt.Errorf("sending channel post: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// ReplyTo sends a threaded reply to the interaction's message
func (c *Client) ReplyTo(ctx context.Context, to interaction.Interaction, text string) (string, error) {
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	chatID, messageID, err := parseMessageRef(to.ID)
	if err != nil {
		return "", err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	sent, err := c.bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("sending reply: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// FetchInteractions drains pending updates and maps group messages that
// mention the bot, or reply to one of its messages, into interactions.
func (c *Client) FetchInteractions(ctx context.Context) ([]interaction.Interaction, error) {
	if err := c.Authenticate(ctx); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(c.offset)
	cfg.Timeout = 0
	cfg.AllowedUpdates = []string{"message"}

	updates, err := c.bot.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("fetching updates: %w", err)
	}

	var interactions []interaction.Interaction
	for _, update := range updates {
		if update.UpdateID >= c.offset {
			c.offset = update.UpdateID + 1
		}
		msg := update.Message
		if msg == nil || msg.From == nil || msg.From.IsBot || msg.Text == "" {
			continue
		}

		kind, ok := c.classify(msg)
		if !ok {
			continue
		}

		in := interaction.Interaction{
			ID:           messageRef(msg.Chat.ID, msg.MessageID),
			Platform:     platform.PlatformTelegram,
			Type:         kind,
			AuthorHandle: msg.From.UserName,
			AuthorID:     strconv.FormatInt(msg.From.ID, 10),
			Content:      msg.Text,
			Timestamp:    msg.Time(),
		}
		if msg.ReplyToMessage != nil {
			in.PostID = strconv.Itoa(msg.ReplyToMessage.MessageID)
		}
		interactions = append(interactions, in)
	}
	return interactions, nil
}

// classify decides whether a group message is addressed to the bot
func (c *Client) classify(msg *tgbotapi.Message) (interaction.Type, bool) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.UserName == c.botName {
		return interaction.TypeReply, true
	}
	if strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(c.botName)) {
		return interaction.TypeMention, true
	}
	return "", false
}

// messageRef encodes chat and message IDs into a platform-native dedup key
func messageRef(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}

func parseMessageRef(ref string) (int64, int, error) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed telegram message ref %q", ref)
	}
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed chat id in ref %q: %w", ref, err)
	}
	messageID, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed message id in ref %q: %w", ref, err)
	}
	return chatID, messageID, nil
}
