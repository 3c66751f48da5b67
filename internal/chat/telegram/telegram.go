// Package telegram provides Telegram Bot API integration using go-telegram/bot library.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"trackbridge/internal/chat"
)

const (
	chatTypeGroup      = "group"
	chatTypeSuperGroup = "supergroup"
)

// Config holds Telegram-specific configuration
type Config struct {
	BotToken string
	GroupID  int64 // Chat ID of the group to monitor; 0 means all chats
}

// Frontend implements the chat.Frontend interface for Telegram
type Frontend struct {
	config *Config
	logger *zap.Logger
	bot    *bot.Bot

	messageHandler func(*chat.Message)
}

// NewFrontend creates a new Telegram frontend
func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config: config,
		logger: logger,
	}
}

// Start initializes the Telegram bot and verifies group access
func (f *Frontend) Start(ctx context.Context) error {
	f.logger.Info("Starting Telegram frontend",
		zap.Int64("group_id", f.config.GroupID))

	b, err := bot.New(f.config.BotToken, bot.WithDefaultHandler(f.handleUpdate))
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.bot = b

	if f.config.GroupID != 0 {
		if err := f.verifyGroupAccess(ctx); err != nil {
			return fmt.Errorf("failed to verify group access: %w", err)
		}
	}

	f.logger.Info("Telegram frontend started successfully")
	return nil
}

// Listen starts listening for messages and calls the handler for each message
func (f *Frontend) Listen(ctx context.Context, handler func(*chat.Message)) error {
	f.messageHandler = handler
	f.bot.Start(ctx)
	return nil
}

// SendText sends a text message to the specified chat, optionally as a reply
func (f *Frontend) SendText(ctx context.Context, chatID, replyToID, text string) (string, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: chatIDInt,
		Text:   text,
	}

	// Link previews are noise here since the bot's whole output is track
	// links.
	disabled := true
	params.LinkPreviewOptions = &models.LinkPreviewOptions{
		IsDisabled: &disabled,
	}

	if replyToID != "" {
		messageID, parseErr := strconv.Atoi(replyToID)
		if parseErr != nil {
			return "", fmt.Errorf("invalid reply message ID: %w", parseErr)
		}
		params.ReplyParameters = &models.ReplyParameters{
			MessageID: messageID,
		}
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// handleUpdate processes incoming Telegram updates
func (f *Frontend) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		f.handleMessage(ctx, update.Message)
	}
}

// handleMessage filters and forwards incoming messages
func (f *Frontend) handleMessage(_ context.Context, msg *models.Message) {
	// Only process messages from the configured group
	if f.config.GroupID != 0 && msg.Chat.ID != f.config.GroupID {
		return
	}

	// Ignore messages from bots, including our own replies
	if msg.From == nil || msg.From.IsBot {
		return
	}

	if msg.Text == "" {
		return
	}

	message := chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: f.getUserDisplayName(msg.From),
		Text:       msg.Text,
		IsGroup:    msg.Chat.Type == chatTypeGroup || msg.Chat.Type == chatTypeSuperGroup,
		Raw:        msg,
	}

	if f.messageHandler != nil {
		f.messageHandler(&message)
	}
}

func (f *Frontend) verifyGroupAccess(ctx context.Context) error {
	group, err := f.bot.GetChat(ctx, &bot.GetChatParams{
		ChatID: f.config.GroupID,
	})
	if err != nil {
		return fmt.Errorf("cannot access group %d: %w", f.config.GroupID, err)
	}

	f.logger.Info("Bot has access to group",
		zap.String("group_title", group.Title),
		zap.String("group_type", string(group.Type)))

	return nil
}

// getUserDisplayName returns a user's display name, preferring username
func (f *Frontend) getUserDisplayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}

	return name
}
