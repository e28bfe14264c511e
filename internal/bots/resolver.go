// ABOUTME: Resolves mention tokens to live bot channel memberships
// ABOUTME: Answers only "is this id a bot membership"; policy checks stay with the caller

package bots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/patiochat/patio/internal/store"
)

// ResolverStore defines what the resolver needs from storage
type ResolverStore interface {
	GetMembership(ctx context.Context, id int64) (*store.Membership, error)
	GetBot(ctx context.Context, id int64) (*store.Bot, error)
}

// Resolver maps membership IDs extracted from mentions onto bots.
type Resolver struct {
	store  ResolverStore
	logger *slog.Logger
}

// NewResolver creates a new Resolver
func NewResolver(st ResolverStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  st,
		logger: logger.With("component", "bots"),
	}
}

// Resolve looks up a membership by ID and returns the bot it denotes.
// A missing membership or one bound to a user resolves to (nil, nil, nil):
// not an error, just not a bot mention. Activity, channel and name checks are
// deliberately left to the caller.
func (r *Resolver) Resolve(ctx context.Context, membershipID int64) (*store.Bot, *store.Membership, error) {
	member, err := r.store.GetMembership(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("looking up membership %d: %w", membershipID, err)
	}

	if member.Kind != store.MemberBot {
		return nil, nil, nil
	}

	bot, err := r.store.GetBot(ctx, member.BotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Membership points at a bot row that no longer exists
			r.logger.Warn("bot membership without bot", "membership_id", membershipID, "bot_id", member.BotID)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("looking up bot %d: %w", member.BotID, err)
	}

	return bot, member, nil
}
