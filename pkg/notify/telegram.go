// The notify package posts terminal apply-job states to operators. The
// only shipped sink is a telegram bot; the job engine depends on the
// Notifier interface, not on this package.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bneidlinger/cam-whisperer/pkg/job"
)

// TelegramNotifier sends one message per finished job to a fixed chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new bot api: %v", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyJobDone formats and sends the job summary. Send failures are
// logged and swallowed; notification is best-effort.
func (n *TelegramNotifier) NotifyJobDone(j *job.Job) {
	msg := fmt.Sprintf("Apply job %s\n", j.State)
	msg += fmt.Sprintf("  Camera: %s\n", j.CameraID)
	msg += fmt.Sprintf("  Backend: %s\n", j.Backend)
	for _, step := range j.Steps {
		msg += fmt.Sprintf("  %s: %s\n", step.Name, step.State)
	}
	if j.Verification != nil && j.Verification.Available {
		msg += fmt.Sprintf("  Mismatches: %d\n", len(j.Verification.Mismatches))
	}
	if j.Error != "" {
		msg += fmt.Sprintf("  Error: %s\n", j.Error)
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, msg)); err != nil {
		log.Printf("failed to send job notification for job[%s]: %v\n", j.ID, err)
	}
}
