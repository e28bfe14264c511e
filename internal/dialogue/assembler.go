// ABOUTME: Builds bounded conversational context for bot completions
// ABOUTME: Merges human and bot channel history into one ordered turn sequence

package dialogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patiochat/patio/internal/store"
)

// Role tags a turn by speaker type
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged utterance in an assembled conversation context.
type Turn struct {
	Role    Role
	Speaker string
	Text    string
}

// DefaultHistoryLimit bounds the channel history included in a context
const DefaultHistoryLimit = 15

// HistoryStore defines what the assembler needs from storage
type HistoryStore interface {
	ListChannelMessages(ctx context.Context, channelID int64, limit int) ([]*store.ChannelMessage, error)
	GetChannel(ctx context.Context, id int64) (*store.Channel, error)
}

// Assembler builds dialogue transcripts from channel history.
type Assembler struct {
	store  HistoryStore
	limit  int
	logger *slog.Logger
}

// NewAssembler creates a new Assembler. A limit of 0 uses DefaultHistoryLimit.
func NewAssembler(st HistoryStore, limit int, logger *slog.Logger) *Assembler {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		store:  st,
		limit:  limit,
		logger: logger.With("component", "dialogue"),
	}
}

// Trigger is the message a bot is replying to. MessageID identifies the
// already-persisted row so it is not double-counted in the history window.
type Trigger struct {
	MessageID int64
	Text      string
	Speaker   string
}

// Build assembles the completion context for a bot reply: one system persona
// turn, up to limit historical turns oldest-first, and the triggering message
// as the final user turn. Bot-authored history keeps its raw text under the
// assistant role; human turns are prefixed "<name>: " so the model can tell
// multi-party speakers apart. The transcript is built fresh per invocation
// and never cached.
func (a *Assembler) Build(ctx context.Context, channelID int64, botName string, trigger Trigger) ([]Turn, error) {
	// Over-fetch by one: the trigger itself is already persisted and sits
	// at the top of the window.
	history, err := a.store.ListChannelMessages(ctx, channelID, a.limit+1)
	if err != nil {
		return nil, fmt.Errorf("loading channel history: %w", err)
	}

	kept := make([]*store.ChannelMessage, 0, len(history))
	for _, msg := range history {
		if msg.ID == trigger.MessageID {
			continue
		}
		kept = append(kept, msg)
	}
	if len(kept) > a.limit {
		kept = kept[:a.limit]
	}

	turns := make([]Turn, 0, len(kept)+2)
	turns = append(turns, Turn{
		Role: RoleSystem,
		Text: a.personaPrompt(ctx, channelID, botName),
	})

	// History arrives newest-first; walk it backwards for chronological order
	for i := len(kept) - 1; i >= 0; i-- {
		msg := kept[i]
		if msg.AuthorKind == store.MemberBot {
			turns = append(turns, Turn{
				Role:    RoleAssistant,
				Speaker: msg.AuthorName,
				Text:    msg.Content,
			})
			continue
		}
		turns = append(turns, Turn{
			Role:    RoleUser,
			Speaker: msg.AuthorName,
			Text:    fmt.Sprintf("%s: %s", msg.AuthorName, msg.Content),
		})
	}

	turns = append(turns, Turn{
		Role:    RoleUser,
		Speaker: trigger.Speaker,
		Text:    trigger.Text,
	})

	return turns, nil
}

// personaPrompt builds the fixed persona directive for the responding bot.
// A channel that fails to load falls back to a generic label rather than
// failing the whole context build.
func (a *Assembler) personaPrompt(ctx context.Context, channelID int64, botName string) string {
	channelName := "un canal"
	channel, err := a.store.GetChannel(ctx, channelID)
	if err != nil {
		a.logger.Debug("channel lookup failed for persona prompt", "channel_id", channelID, "error", err)
	} else {
		channelName = fmt.Sprintf("el canal %q", channel.Name)
	}

	return fmt.Sprintf(
		"Eres %s, un bot asistente en %s de un chat grupal. "+
			"Responde de manera útil, amigable y concisa en español. "+
			"Mantén tus respuestas cortas (máximo 2-3 oraciones) y usa emojis ocasionalmente para ser más expresivo.",
		botName, channelName)
}
