package bot

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"imagescraper/internal/domain"
	"imagescraper/internal/storage"
)

const historyLimit = 10

// PageScraper scrapes the images of one page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (domain.BatchResult, error)
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot     *tgbot.Bot
	repo    storage.Repository
	scraper PageScraper
	log     logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, repo storage.Repository, scraper PageScraper, logger logrus.FieldLogger, opts ...tgbot.Option) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:     b,
		repo:    repo,
		scraper: scraper,
		log:     log,
	}
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/scrape", tgbot.MatchTypePrefix, h.scrapeHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/history", tgbot.MatchTypePrefix, h.historyHandler)
	h.log.Info("Registered /start, /scrape and /history handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	h.reply(ctx, b, update, "Send /scrape <page url> and I'll download the images on that page. /history lists recent downloads.")
}

func (h *Handler) scrapeHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithFields(logrus.Fields{
		"user_id": update.Message.From.ID,
		"command": "/scrape",
	})

	pageURL, err := parsePageURL(commandArgument(update.Message.Text))
	if err != nil {
		h.reply(ctx, b, update, "Usage: /scrape <page url> ("+err.Error()+")")
		return
	}

	log = log.WithField("page", pageURL)
	log.Info("Received scrape request")
	h.reply(ctx, b, update, "Scraping "+pageURL+" ...")

	res, err := h.scraper.Scrape(ctx, pageURL)
	if err != nil {
		log.WithError(err).Error("Scrape failed")
		h.reply(ctx, b, update, fmt.Sprintf("Scrape failed after %s: %v", res, err))
		return
	}
	h.reply(ctx, b, update, "Done: "+res.String())
}

func (h *Handler) historyHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	records, err := h.repo.ListRecords(ctx, historyLimit)
	if err != nil {
		h.log.WithError(err).Error("Failed to load history")
		h.reply(ctx, b, update, "Could not load history.")
		return
	}
	h.reply(ctx, b, update, formatHistory(records))
}

func (h *Handler) reply(ctx context.Context, b *tgbot.Bot, update *models.Update, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to send message")
	}
}

// commandArgument returns the text following the command word.
func commandArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func parsePageURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%q is not an http(s) url", raw)
	}
	return u.String(), nil
}

func formatHistory(records []domain.DownloadRecord) string {
	if len(records) == 0 {
		return "No downloads yet."
	}
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s %s %s\n", r.Timestamp.Format("2006-01-02 15:04"), r.Status, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
