// ABOUTME: Store interface and data types for patio persistence
// ABOUTME: Defines User, Bot, Channel, Membership, Message and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when creating a user with an email that is already taken
var ErrDuplicateUser = errors.New("user already exists")

// ErrDuplicateMember is returned when the participant is already a member of the channel
var ErrDuplicateMember = errors.New("already a member of channel")

// User is a human participant
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Bot is an automated participant. Deactivated bots are never resolved for
// mentions and never enrolled into new channels.
type Bot struct {
	ID        int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Channel is a shared message stream
type Channel struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// MemberKind discriminates which identity a membership binds
type MemberKind string

const (
	MemberUser MemberKind = "user"
	MemberBot  MemberKind = "bot"
)

// Membership binds exactly one identity (user or bot) to one channel.
// The row is discriminated into Kind once at load time; exactly one of
// UserID/BotID is set. The membership ID is the token used by mentions.
type Membership struct {
	ID        int64
	ChannelID int64
	Kind      MemberKind
	UserID    int64 // set when Kind == MemberUser
	BotID     int64 // set when Kind == MemberBot
	CreatedAt time.Time
}

// Message is a single channel message, authored by exactly one membership.
// ReplyToID is zero when the message is not a reply.
type Message struct {
	ID        int64
	ChannelID int64
	MemberID  int64
	Content   string
	ReplyToID int64
	CreatedAt time.Time
}

// ChannelMessage is a message joined with its author's resolved identity,
// used when assembling dialogue history.
type ChannelMessage struct {
	Message
	AuthorKind MemberKind
	AuthorName string
}

// MemberRecord is a membership joined with its identity row, used for
// channel member listings.
type MemberRecord struct {
	Membership
	UserName  string
	UserEmail string
	BotName   string
	BotActive bool
}

// Store defines the interface for patio persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Bots
	CreateBot(ctx context.Context, bot *Bot) error
	GetBot(ctx context.Context, id int64) (*Bot, error)
	ListActiveBots(ctx context.Context) ([]*Bot, error)

	// Channels
	CreateChannel(ctx context.Context, channel *Channel) error
	GetChannel(ctx context.Context, id int64) (*Channel, error)
	ListChannels(ctx context.Context) ([]*Channel, error)

	// Memberships
	CreateUserMembership(ctx context.Context, channelID, userID int64) (*Membership, error)
	CreateBotMembership(ctx context.Context, channelID, botID int64) (*Membership, error)
	GetMembership(ctx context.Context, id int64) (*Membership, error)
	GetUserMembership(ctx context.Context, channelID, userID int64) (*Membership, error)
	ListChannelMembers(ctx context.Context, channelID int64) ([]*MemberRecord, error)
	// DeleteMembership removes a membership together with all of its
	// messages in one transaction.
	DeleteMembership(ctx context.Context, id int64) error

	// Messages
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id int64) (*Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	// ListChannelMessages returns the most recent limit messages of a
	// channel in newest-first order, each with its author identity.
	ListChannelMessages(ctx context.Context, channelID int64, limit int) ([]*ChannelMessage, error)
	// ListMessages returns all messages of a channel oldest-first.
	ListMessages(ctx context.Context, channelID int64) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
