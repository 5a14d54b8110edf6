package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	portfoliosvc "github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio/service"
)

type Notifier interface {
	SendService(ctx context.Context, text string)
}

// Telegram — пассивный нотифайер + две команды поверх бумажного портфеля:
// /portfolio и /close <symbol>.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	store  *portfoliosvc.Store
}

func NewTelegram(token string, chatID int64, store *portfoliosvc.Store) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		store:  store,
	}, nil
}

func (t *Telegram) SendService(_ context.Context, text string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, text))
}

func (t *Telegram) sendf(format string, args ...any) {
	t.SendService(context.Background(), fmt.Sprintf(format, args...))
}

// /portfolio — открытые записи бумажного портфеля.
func (t *Telegram) handlePortfolio(ctx context.Context) {
	positions, err := t.store.Open(ctx)
	if err != nil {
		t.sendf("❗️ Ошибка чтения портфеля: %v", err)
		return
	}
	if len(positions) == 0 {
		t.SendService(ctx, "📭 Открытых позиций нет")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Бумажный портфель:\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s score=%d @ %.4f stop=%.4f (%s)\n",
			p.Symbol, p.Score, p.EntryPrice, p.StopPrice,
			p.CreatedAt.Format("02.01 15:04"))
	}
	t.SendService(ctx, b.String())
}

// /close SYMBOL — ручное закрытие бумажной позиции.
func (t *Telegram) handleClose(ctx context.Context, args string) {
	symbol := strings.ToUpper(strings.TrimSpace(args))
	if symbol == "" {
		t.SendService(ctx, "Использование: /close SYMBOL")
		return
	}
	if err := t.store.Close(ctx, symbol); err != nil {
		t.sendf("❗️ %v", err)
		return
	}
	t.sendf("✅ %s закрыта (статус %s)", symbol, models.StatusClosed)
}

// Start: long-polling только для команд из сервисного чата.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}

				switch upd.Message.Command() {
				case "portfolio":
					go t.handlePortfolio(ctx)
				case "close":
					go t.handleClose(ctx, upd.Message.CommandArguments())
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка без телеграма, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) SendService(_ context.Context, text string) { log.Println(text) }
