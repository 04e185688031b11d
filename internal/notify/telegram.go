package notify

import (
	"context"
	"fmt"
	"time"

	"expertdesk/internal/models"
	"expertdesk/internal/slotengine"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// retryDelays are the backoff delays between send attempts.
var retryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}

// TelegramNotifier delivers booking events to experts over Telegram. Experts
// without a chat id are skipped silently.
type TelegramNotifier struct {
	bot       *tgbotapi.BotAPI
	limiter   *rate.Limiter
	formatter slotengine.DateFormatter
	log       *zerolog.Logger
}

// NewTelegramNotifier creates a notifier with the Telegram broadcast limit
// (20 messages per second, small burst).
func NewTelegramNotifier(token string, formatter slotengine.DateFormatter, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:       bot,
		limiter:   rate.NewLimiter(rate.Limit(20), 30),
		formatter: formatter,
		log:       logger,
	}, nil
}

// BookingCreated notifies the expert about a new reservation.
func (n *TelegramNotifier) BookingCreated(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error {
	text := bookingCreatedText(n.formatter, booking)
	return n.send(ctx, expert, booking.Ref, text)
}

// BookingCanceled notifies the expert that a reservation was canceled.
func (n *TelegramNotifier) BookingCanceled(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error {
	text := bookingCanceledText(n.formatter, booking)
	return n.send(ctx, expert, booking.Ref, text)
}

func (n *TelegramNotifier) send(ctx context.Context, expert *models.Expert, ref, text string) error {
	if expert.TelegramChatID == 0 {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(expert.TelegramChatID, text)

	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		_, err := n.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < len(retryDelays) {
			n.log.Info().
				Err(lastErr).
				Int("attempt", attempt+1).
				Str("ref", ref).
				Msg("retrying telegram notification")
			select {
			case <-time.After(retryDelays[attempt]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("send notification for %s: %w", ref, lastErr)
}

func bookingCreatedText(formatter slotengine.DateFormatter, b *models.ExpertBooking) string {
	text := fmt.Sprintf("הזמנה חדשה\n%s, %s-%s\nתלמיד/ה: %s",
		formatter.FormatDate(b.Date), b.StartTime, b.EndTime, b.StudentName)
	if b.StudentGrade != "" {
		text += fmt.Sprintf("\nשכבה: %s", b.StudentGrade)
	}
	if b.Topic != "" {
		text += fmt.Sprintf("\nנושא: %s", b.Topic)
	}
	return text
}

func bookingCanceledText(formatter slotengine.DateFormatter, b *models.ExpertBooking) string {
	return fmt.Sprintf("הזמנה בוטלה\n%s, %s-%s\nתלמיד/ה: %s",
		formatter.FormatDate(b.Date), b.StartTime, b.EndTime, b.StudentName)
}
