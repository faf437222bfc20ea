package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

const (
	usageAddCategory    = "<code>/addcategory &lt;name&gt;</code>"
	usageRenameCategory = "<code>/renamecategory Old Name -&gt; New Name</code>"
	usageDeleteCategory = "<code>/deletecategory &lt;name&gt;</code>"
)

func hasControlChars(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// handleCategories handles the /categories command.
func (b *Bot) handleCategories(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCategoriesCore(ctx, tgBot, update)
}

// handleCategoriesCore is the testable implementation of handleCategories.
func (b *Bot) handleCategoriesCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	categories, err := b.ledger.Categories(ctx, userID)
	if err != nil {
		b.replyError(ctx, tg, chatID, "categories", err, "")
		return
	}
	if len(categories) == 0 {
		b.reply(ctx, tg, chatID, "No categories found. Create one with "+usageAddCategory)
		return
	}

	var sb strings.Builder
	sb.WriteString("📁 <b>Categories</b>\n\n")
	for i, cat := range categories {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, escapeHTML(cat.Name))
	}
	b.reply(ctx, tg, chatID, sb.String())
}

// handleAddCategory handles the /addcategory command.
func (b *Bot) handleAddCategory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAddCategoryCore(ctx, tgBot, update)
}

// handleAddCategoryCore is the testable implementation of handleAddCategory.
func (b *Bot) handleAddCategoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	name := commandArgs(update.Message.Text)
	if name == "" {
		b.replyUsage(ctx, tg, chatID, nil, usageAddCategory)
		return
	}
	if hasControlChars(name) {
		b.reply(ctx, tg, chatID, "❌ Category name cannot contain control characters (newlines, tabs, etc.).")
		return
	}

	cat, err := b.ledger.AddCategory(ctx, userID, name)
	if err != nil {
		b.replyError(ctx, tg, chatID, "addcategory", err, usageAddCategory)
		return
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Int64("category_id", cat.ID).Msg("Category created")
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Category <b>%s</b> created.", escapeHTML(cat.Name)))
}

// handleRenameCategory handles the /renamecategory command.
func (b *Bot) handleRenameCategory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRenameCategoryCore(ctx, tgBot, update)
}

// handleRenameCategoryCore is the testable implementation of handleRenameCategory.
func (b *Bot) handleRenameCategoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	oldName, newName, found := strings.Cut(commandArgs(update.Message.Text), "->")
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if !found || oldName == "" || newName == "" {
		b.replyUsage(ctx, tg, chatID, nil, usageRenameCategory)
		return
	}
	if hasControlChars(newName) {
		b.reply(ctx, tg, chatID, "❌ Category name cannot contain control characters (newlines, tabs, etc.).")
		return
	}

	cat, err := b.ledger.CategoryByName(ctx, userID, oldName)
	if err != nil {
		b.replyError(ctx, tg, chatID, "renamecategory", err, "")
		return
	}
	if err := b.ledger.RenameCategory(ctx, userID, cat.ID, newName); err != nil {
		b.replyError(ctx, tg, chatID, "renamecategory", err, usageRenameCategory)
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Renamed <b>%s</b> to <b>%s</b>.\n\nExisting transactions keep the old name.",
		escapeHTML(cat.Name), escapeHTML(newName)))
}

// handleDeleteCategory handles the /deletecategory command.
func (b *Bot) handleDeleteCategory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteCategoryCore(ctx, tgBot, update)
}

// handleDeleteCategoryCore is the testable implementation of handleDeleteCategory.
func (b *Bot) handleDeleteCategoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	name := commandArgs(update.Message.Text)
	if name == "" {
		b.replyUsage(ctx, tg, chatID, nil, usageDeleteCategory)
		return
	}

	cat, err := b.ledger.CategoryByName(ctx, userID, name)
	if err != nil {
		b.replyError(ctx, tg, chatID, "deletecategory", err, "")
		return
	}
	if err := b.ledger.DeleteCategory(ctx, userID, cat.ID); err != nil {
		b.replyError(ctx, tg, chatID, "deletecategory", err, "")
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf("🗑 Category <b>%s</b> deleted.", escapeHTML(cat.Name)))
}
