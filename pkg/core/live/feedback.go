package live

import (
	"context"
	"fmt"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
)

// AnswerFeedback records the customer's rating of the finished session.
// It is ignored when no prompt is showing.
func (a *Assistant) AnswerFeedback(ctx context.Context, liked bool) {
	a.mu.Lock()
	if !a.feedback {
		a.mu.Unlock()
		return
	}
	a.feedback = false
	a.mu.Unlock()
	a.notify()

	rating := "Negativo"
	if liked {
		rating = "Joinha"
	}
	if a.notifier == nil {
		return
	}
	err := a.notifier.Notify(ctx, booking.Notification{
		Title:    "Feedback Enviado",
		Message:  fmt.Sprintf("Obrigado por avaliar nosso assistente com um %s.", rating),
		Category: booking.CategoryReminder,
	})
	if err != nil {
		a.logger.Error("feedback notification failed", "error", err)
	}
}

// DismissFeedback hides the prompt without rating.
func (a *Assistant) DismissFeedback() {
	a.mu.Lock()
	changed := a.feedback
	a.feedback = false
	a.mu.Unlock()
	if changed {
		a.notify()
	}
}
