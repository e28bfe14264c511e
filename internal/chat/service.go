// ABOUTME: Chat service exposing channel, membership and message operations
// ABOUTME: Persists writes and hands completed ones to the mention responder

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patiochat/patio/internal/mention"
	"github.com/patiochat/patio/internal/store"
)

// ErrNotChannelMember is returned when a message is authored by a membership
// of a different channel.
var ErrNotChannelMember = errors.New("not a member of this channel")

// ErrInvalidContent is returned when a message has no content
var ErrInvalidContent = errors.New("message content is empty")

// Notifier receives completed chat writes. OnMessageCreated must not block;
// it is called after the message row is durable.
type Notifier interface {
	OnMessageCreated(content string, channelID, authorID, messageID int64, explicit []mention.Explicit)
	OnChannelCreated(ctx context.Context, channelID int64) error
}

// Service implements the chat operations on top of the store
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a new chat service
func NewService(st store.Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger.With("component", "chat"),
	}
}

// CreateMessage persists a message authored by the given membership and then
// notifies the responder. The notification runs after the row is durable, so
// a bot reply can never reference a message that was not written.
func (s *Service) CreateMessage(ctx context.Context, channelID, memberID int64, content string, explicit []mention.Explicit) (*store.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidContent
	}

	member, err := s.store.GetMembership(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("looking up author membership: %w", err)
	}
	if member.ChannelID != channelID {
		return nil, ErrNotChannelMember
	}

	msg := &store.Message{
		ChannelID: channelID,
		MemberID:  memberID,
		Content:   content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	s.notifier.OnMessageCreated(msg.Content, msg.ChannelID, msg.MemberID, msg.ID, explicit)
	return msg, nil
}

// GetMessage returns a single message by id
func (s *Service) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// DeleteMessage removes a message. Returns store.ErrNotFound when the
// message does not exist.
func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	return s.store.DeleteMessage(ctx, id)
}

// ListChannelMessages returns the most recent limit messages of a channel,
// newest first, with resolved author identities.
func (s *Service) ListChannelMessages(ctx context.Context, channelID int64, limit int) ([]*store.ChannelMessage, error) {
	if _, err := s.store.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.store.ListChannelMessages(ctx, channelID, limit)
}

// CreateChannel creates a channel and enrolls the active bots into it. The
// channel creation succeeds even when bootstrap fails; a bot that could not
// be enrolled here is picked up the next time enrollment runs.
func (s *Service) CreateChannel(ctx context.Context, name string) (*store.Channel, error) {
	channel := &store.Channel{Name: name}
	if err := s.store.CreateChannel(ctx, channel); err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	if err := s.notifier.OnChannelCreated(ctx, channel.ID); err != nil {
		s.logger.Warn("channel bootstrap failed", "channel_id", channel.ID, "error", err)
	}
	return channel, nil
}

// GetChannel returns a single channel by id
func (s *Service) GetChannel(ctx context.Context, id int64) (*store.Channel, error) {
	return s.store.GetChannel(ctx, id)
}

// ListChannels returns all channels
func (s *Service) ListChannels(ctx context.Context) ([]*store.Channel, error) {
	return s.store.ListChannels(ctx)
}

// JoinChannel makes the user a member of the channel. Returns
// store.ErrDuplicateMember when the user already belongs to it.
func (s *Service) JoinChannel(ctx context.Context, channelID, userID int64) (*store.Membership, error) {
	if _, err := s.store.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.CreateUserMembership(ctx, channelID, userID)
}

// LeaveChannel removes the user's membership from the channel together with
// every message they wrote in it.
func (s *Service) LeaveChannel(ctx context.Context, channelID, userID int64) error {
	member, err := s.store.GetUserMembership(ctx, channelID, userID)
	if err != nil {
		return err
	}
	return s.store.DeleteMembership(ctx, member.ID)
}

// ListMembers returns the channel's memberships with resolved identities
func (s *Service) ListMembers(ctx context.Context, channelID int64) ([]*store.MemberRecord, error) {
	if _, err := s.store.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}
	return s.store.ListChannelMembers(ctx, channelID)
}
