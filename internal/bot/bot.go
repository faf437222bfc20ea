// Package bot provides the Telegram front end of the finance ledger.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/finance-ledger/internal/config"
	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// pollTimeout is the long-polling timeout passed to getUpdates.
const pollTimeout = time.Minute

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot    *bot.Bot
	cfg    *config.Config
	ledger *ledger.Service
}

// New creates a new Bot instance.
func New(cfg *config.Config, svc *ledger.Service) (*Bot, error) {
	b := &Bot{
		cfg:    cfg,
		ledger: svc,
	}

	client := &http.Client{
		Timeout:   pollTimeout + 15*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.timeoutMiddleware, b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithHTTPClient(pollTimeout, client),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start runs the expiry sweeper and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	go b.startSweepLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// command pairs a command name with its handler.
type command struct {
	name    string
	handler bot.HandlerFunc
}

func (b *Bot) commands() []command {
	return []command{
		{"start", b.handleStart},
		{"help", b.handleHelp},
		{"balance", b.handleBalance},
		{"notifications", b.handleNotifications},
		{"income", b.handleIncome},
		{"expense", b.handleExpense},
		{"save", b.handleSave},
		{"list", b.handleList},
		{"edit", b.handleEdit},
		{"delete", b.handleDelete},
		{"categories", b.handleCategories},
		{"addcategory", b.handleAddCategory},
		{"renamecategory", b.handleRenameCategory},
		{"deletecategory", b.handleDeleteCategory},
		{"budget", b.handleBudget},
		{"budgets", b.handleBudgets},
		{"editbudget", b.handleEditBudget},
		{"delbudget", b.handleDeleteBudget},
		{"goal", b.handleGoal},
		{"goals", b.handleGoals},
		{"editgoal", b.handleEditGoal},
		{"delgoal", b.handleDeleteGoal},
		{"pause", b.handlePause},
		{"resume", b.handleResume},
		{"summary", b.handleSummary},
		{"chart", b.handleChart},
		{"report", b.handleReport},
	}
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	for _, c := range b.commands() {
		b.bot.RegisterHandlerMatchFunc(matchCommand(c.name), c.handler)
	}
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, listCallbackPrefix, bot.MatchTypePrefix, b.handleListCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, readAllCallback, bot.MatchTypeExact, b.handleReadAllCallback)
}

// matchCommand matches "/name", "/name args" and "/name@botname args", but
// not longer commands that share the prefix.
func matchCommand(name string) bot.MatchFunc {
	return func(update *tgmodels.Update) bool {
		if update.Message == nil {
			return false
		}
		return commandName(update.Message.Text) == name
	}
}

// commandName returns the command of a message without the slash and the
// @botname suffix, or "" when the text is not a command.
func commandName(text string) string {
	word, _ := cutWord(text)
	if !strings.HasPrefix(word, "/") {
		return ""
	}
	word = strings.TrimPrefix(word, "/")
	if i := strings.Index(word, "@"); i >= 0 {
		word = word[:i]
	}
	return strings.ToLower(word)
}

// commandArgs returns the trimmed text after the command word.
func commandArgs(text string) string {
	_, args := cutWord(text)
	return args
}

// timeoutMiddleware bounds every update by the configured command timeout.
func (b *Bot) timeoutMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if b.cfg.CommandTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.cfg.CommandTimeout)
			defer cancel()
		}
		next(ctx, tgBot, update)
	}
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.authorize(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// authorize rejects non-whitelisted users and registers the rest.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if !b.cfg.IsUserWhitelisted(userID, username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureUserRegistered(ctx, update); err != nil {
		logger.Log.Error().
			Str("user_hash", logger.HashUserID(userID)).
			Err(err).
			Msg("Failed to register user")
	}
	return true
}

// logUserAction logs the user's input without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
			Str("command", commandName(update.Message.Text)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// ensureUserRegistered creates the user's account on first contact and
// refreshes their profile afterwards.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User
	switch {
	case update.Message != nil && update.Message.From != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	}
	if from == nil {
		return nil
	}

	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		Currency:  b.currency(),
	}
	if _, err := b.ledger.RegisterUser(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// defaultHandler handles unrecognized messages.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
		Msg("Default handler triggered")

	b.reply(ctx, tg, update.Message.Chat.ID,
		"I didn't understand that. Use /help to see available commands, or record an expense like <code>/expense 5.50 Food - Dining Out coffee</code>")
}
