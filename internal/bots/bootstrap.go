// ABOUTME: Enrolls active bots into newly created channels
// ABOUTME: Per-bot conflicts are recognized outcomes, never abort the loop

package bots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/patiochat/patio/internal/store"
)

// BootstrapStore defines what the bootstrap needs from storage
type BootstrapStore interface {
	ListActiveBots(ctx context.Context) ([]*store.Bot, error)
	CreateBotMembership(ctx context.Context, channelID, botID int64) (*store.Membership, error)
}

// EnrollOutcome describes what happened to one bot during bootstrap
type EnrollOutcome int

const (
	// Enrolled means a new membership was created
	Enrolled EnrollOutcome = iota
	// AlreadyMember means the bot was a member before bootstrap ran
	AlreadyMember
	// EnrollFailed means the membership insert failed for another reason
	EnrollFailed
)

// EnrollResult is the per-bot outcome of a bootstrap run
type EnrollResult struct {
	Bot        *store.Bot
	Membership *store.Membership // set when Outcome == Enrolled
	Outcome    EnrollOutcome
	Err        error // set when Outcome == EnrollFailed
}

// Bootstrap adds every active bot to new channels.
type Bootstrap struct {
	store  BootstrapStore
	logger *slog.Logger
}

// NewBootstrap creates a new Bootstrap
func NewBootstrap(st BootstrapStore, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{
		store:  st,
		logger: logger.With("component", "bootstrap"),
	}
}

// EnrollActiveBots creates a membership in the channel for every active bot.
// One bot's conflict or failure never aborts enrollment of the remaining
// bots; each bot gets its own result. The returned error is only set when
// the active-bot listing itself fails. Safe to run repeatedly: bots that are
// already members come back as AlreadyMember.
func (b *Bootstrap) EnrollActiveBots(ctx context.Context, channelID int64) ([]EnrollResult, error) {
	activeBots, err := b.store.ListActiveBots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active bots: %w", err)
	}

	results := make([]EnrollResult, 0, len(activeBots))
	for _, bot := range activeBots {
		member, err := b.store.CreateBotMembership(ctx, channelID, bot.ID)
		switch {
		case err == nil:
			b.logger.Debug("enrolled bot in channel", "bot_id", bot.ID, "channel_id", channelID, "membership_id", member.ID)
			results = append(results, EnrollResult{Bot: bot, Membership: member, Outcome: Enrolled})
		case errors.Is(err, store.ErrDuplicateMember):
			b.logger.Debug("bot already in channel", "bot_id", bot.ID, "channel_id", channelID)
			results = append(results, EnrollResult{Bot: bot, Outcome: AlreadyMember})
		default:
			b.logger.Warn("failed to enroll bot in channel", "bot_id", bot.ID, "channel_id", channelID, "error", err)
			results = append(results, EnrollResult{Bot: bot, Outcome: EnrollFailed, Err: err})
		}
	}

	return results, nil
}
