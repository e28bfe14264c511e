// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/bot/channel/membership/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS bots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			is_active  INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bots_active ON bots(is_active);

		CREATE TABLE IF NOT EXISTS channels (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		-- A membership binds exactly one identity (user XOR bot) to a channel.
		CREATE TABLE IF NOT EXISTS channel_members (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id INTEGER NOT NULL REFERENCES channels(id),
			user_id    INTEGER REFERENCES users(id),
			bot_id     INTEGER REFERENCES bots(id),
			created_at TEXT NOT NULL,

			CHECK ((user_id IS NULL) != (bot_id IS NULL)),
			UNIQUE (user_id, channel_id),
			UNIQUE (bot_id, channel_id)
		);

		CREATE INDEX IF NOT EXISTS idx_channel_members_channel ON channel_members(channel_id);

		CREATE TABLE IF NOT EXISTS messages (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id          INTEGER NOT NULL REFERENCES channels(id),
			channel_member_id   INTEGER NOT NULL REFERENCES channel_members(id),
			content             TEXT NOT NULL,
			reply_to_message_id INTEGER REFERENCES messages(id),
			created_at          TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_channel_created
			ON messages(channel_id, created_at);

		CREATE INDEX IF NOT EXISTS idx_messages_member ON messages(channel_member_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// timeLayout is fixed-width: nanoseconds are zero-padded, never trimmed,
// so stored timestamps sort lexicographically in ORDER BY created_at.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// CreateUser inserts a new user and fills in its generated ID.
// Returns ErrDuplicateUser if the email is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "email", user.Email)
	return nil
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email address.
// Returns ErrNotFound if no user has that email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}

// CreateBot inserts a new bot and fills in its generated ID
func (s *SQLiteStore) CreateBot(ctx context.Context, bot *Bot) error {
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bots (name, is_active, created_at) VALUES (?, ?, ?)`,
		bot.Name,
		bot.IsActive,
		formatTime(bot.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting bot: %w", err)
	}

	bot.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting bot id: %w", err)
	}

	s.logger.Debug("created bot", "id", bot.ID, "name", bot.Name)
	return nil
}

// GetBot retrieves a bot by ID.
// Returns ErrNotFound if the bot doesn't exist.
func (s *SQLiteStore) GetBot(ctx context.Context, id int64) (*Bot, error) {
	var bot Bot
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at FROM bots WHERE id = ?`, id).
		Scan(&bot.ID, &bot.Name, &bot.IsActive, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying bot: %w", err)
	}

	bot.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &bot, nil
}

// ListActiveBots returns all bots whose is_active flag is set, ordered by ID
func (s *SQLiteStore) ListActiveBots(ctx context.Context) ([]*Bot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_active, created_at FROM bots WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying active bots: %w", err)
	}
	defer rows.Close()

	var bots []*Bot
	for rows.Next() {
		var bot Bot
		var createdAtStr string
		if err := rows.Scan(&bot.ID, &bot.Name, &bot.IsActive, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning bot row: %w", err)
		}
		bot.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		bots = append(bots, &bot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bot rows: %w", err)
	}

	return bots, nil
}

// CreateChannel inserts a new channel and fills in its generated ID
func (s *SQLiteStore) CreateChannel(ctx context.Context, channel *Channel) error {
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (name, created_at) VALUES (?, ?)`,
		channel.Name,
		formatTime(channel.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting channel: %w", err)
	}

	channel.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting channel id: %w", err)
	}

	s.logger.Debug("created channel", "id", channel.ID, "name", channel.Name)
	return nil
}

// GetChannel retrieves a channel by ID.
// Returns ErrNotFound if the channel doesn't exist.
func (s *SQLiteStore) GetChannel(ctx context.Context, id int64) (*Channel, error) {
	var channel Channel
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM channels WHERE id = ?`, id).
		Scan(&channel.ID, &channel.Name, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel: %w", err)
	}

	channel.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &channel, nil
}

// ListChannels returns all channels ordered by ID
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		var channel Channel
		var createdAtStr string
		if err := rows.Scan(&channel.ID, &channel.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		channel.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		channels = append(channels, &channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channel rows: %w", err)
	}

	return channels, nil
}

// CreateUserMembership adds a user to a channel.
// Returns ErrDuplicateMember if the user is already a member.
func (s *SQLiteStore) CreateUserMembership(ctx context.Context, channelID, userID int64) (*Membership, error) {
	return s.createMembership(ctx, channelID, &userID, nil)
}

// CreateBotMembership adds a bot to a channel.
// Returns ErrDuplicateMember if the bot is already a member.
func (s *SQLiteStore) CreateBotMembership(ctx context.Context, channelID, botID int64) (*Membership, error) {
	return s.createMembership(ctx, channelID, nil, &botID)
}

func (s *SQLiteStore) createMembership(ctx context.Context, channelID int64, userID, botID *int64) (*Membership, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO channel_members (channel_id, user_id, bot_id, created_at) VALUES (?, ?, ?, ?)`,
		channelID,
		nullInt64(userID),
		nullInt64(botID),
		formatTime(now),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateMember
		}
		return nil, fmt.Errorf("inserting membership: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting membership id: %w", err)
	}

	m := &Membership{
		ID:        id,
		ChannelID: channelID,
		CreatedAt: now,
	}
	if userID != nil {
		m.Kind = MemberUser
		m.UserID = *userID
	} else {
		m.Kind = MemberBot
		m.BotID = *botID
	}

	s.logger.Debug("created membership", "id", m.ID, "channel_id", channelID, "kind", m.Kind)
	return m, nil
}

// nullInt64 returns nil for nil pointers, otherwise the dereferenced value
func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// GetMembership retrieves a membership by ID and discriminates it into a
// user or bot membership. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetMembership(ctx context.Context, id int64) (*Membership, error) {
	return s.scanMembership(s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, user_id, bot_id, created_at FROM channel_members WHERE id = ?`, id))
}

// GetUserMembership retrieves a user's membership in a channel.
// Returns ErrNotFound if the user is not a member.
func (s *SQLiteStore) GetUserMembership(ctx context.Context, channelID, userID int64) (*Membership, error) {
	return s.scanMembership(s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, user_id, bot_id, created_at FROM channel_members WHERE channel_id = ? AND user_id = ?`,
		channelID, userID))
}

func (s *SQLiteStore) scanMembership(row *sql.Row) (*Membership, error) {
	var m Membership
	var userID, botID sql.NullInt64
	var createdAtStr string

	err := row.Scan(&m.ID, &m.ChannelID, &userID, &botID, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying membership: %w", err)
	}

	m.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	// Discriminate once at load time; the schema CHECK guarantees exactly
	// one side is set.
	switch {
	case userID.Valid:
		m.Kind = MemberUser
		m.UserID = userID.Int64
	case botID.Valid:
		m.Kind = MemberBot
		m.BotID = botID.Int64
	default:
		return nil, fmt.Errorf("membership %d has neither user nor bot", m.ID)
	}

	return &m, nil
}

// ListChannelMembers returns all memberships of a channel joined with their
// identity rows, ordered by membership ID.
func (s *SQLiteStore) ListChannelMembers(ctx context.Context, channelID int64) ([]*MemberRecord, error) {
	query := `
		SELECT cm.id, cm.channel_id, cm.user_id, cm.bot_id, cm.created_at,
		       COALESCE(u.name, ''), COALESCE(u.email, ''),
		       COALESCE(b.name, ''), COALESCE(b.is_active, 0)
		FROM channel_members cm
		LEFT JOIN users u ON u.id = cm.user_id
		LEFT JOIN bots b ON b.id = cm.bot_id
		WHERE cm.channel_id = ?
		ORDER BY cm.id
	`

	rows, err := s.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("querying channel members: %w", err)
	}
	defer rows.Close()

	var members []*MemberRecord
	for rows.Next() {
		var rec MemberRecord
		var userID, botID sql.NullInt64
		var createdAtStr string

		if err := rows.Scan(
			&rec.ID, &rec.ChannelID, &userID, &botID, &createdAtStr,
			&rec.UserName, &rec.UserEmail,
			&rec.BotName, &rec.BotActive,
		); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}

		rec.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		switch {
		case userID.Valid:
			rec.Kind = MemberUser
			rec.UserID = userID.Int64
		case botID.Valid:
			rec.Kind = MemberBot
			rec.BotID = botID.Int64
		default:
			return nil, fmt.Errorf("membership %d has neither user nor bot", rec.ID)
		}

		members = append(members, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	return members, nil
}

// DeleteMembership removes a membership and all messages it authored in a
// single transaction. Returns ErrNotFound if the membership doesn't exist.
func (s *SQLiteStore) DeleteMembership(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM channel_members WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying membership: %w", err)
	}

	// Messages authored by the member go first so the FK stays satisfied.
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE channel_member_id = ?`, id); err != nil {
		return fmt.Errorf("deleting member messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM channel_members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing membership delete: %w", err)
	}

	s.logger.Debug("deleted membership with messages", "id", id)
	return nil
}

// CreateMessage inserts a new message and fills in its generated ID
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	var replyTo any
	if msg.ReplyToID != 0 {
		replyTo = msg.ReplyToID
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (channel_id, channel_member_id, content, reply_to_message_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		msg.ChannelID,
		msg.MemberID,
		msg.Content,
		replyTo,
		formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	msg.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting message id: %w", err)
	}

	s.logger.Debug("created message", "id", msg.ID, "channel_id", msg.ChannelID, "member_id", msg.MemberID)
	return nil
}

// GetMessage retrieves a message by ID.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	var msg Message
	var replyTo sql.NullInt64
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, channel_id, channel_member_id, content, reply_to_message_id, created_at
		FROM messages WHERE id = ?
	`, id).Scan(&msg.ID, &msg.ChannelID, &msg.MemberID, &msg.Content, &replyTo, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	if replyTo.Valid {
		msg.ReplyToID = replyTo.Int64
	}

	msg.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &msg, nil
}

// DeleteMessage removes a message by ID.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted message", "id", id)
	return nil
}

// ListChannelMessages returns the most recent limit messages of a channel in
// newest-first order, each joined with its author's resolved name and kind.
func (s *SQLiteStore) ListChannelMessages(ctx context.Context, channelID int64, limit int) ([]*ChannelMessage, error) {
	if limit <= 0 {
		limit = 15
	}

	query := `
		SELECT m.id, m.channel_id, m.channel_member_id, m.content, m.reply_to_message_id, m.created_at,
		       cm.user_id, cm.bot_id,
		       COALESCE(u.name, ''), COALESCE(b.name, '')
		FROM messages m
		JOIN channel_members cm ON cm.id = m.channel_member_id
		LEFT JOIN users u ON u.id = cm.user_id
		LEFT JOIN bots b ON b.id = cm.bot_id
		WHERE m.channel_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying channel messages: %w", err)
	}
	defer rows.Close()

	var messages []*ChannelMessage
	for rows.Next() {
		var cm ChannelMessage
		var replyTo, userID, botID sql.NullInt64
		var createdAtStr, userName, botName string

		if err := rows.Scan(
			&cm.ID, &cm.ChannelID, &cm.MemberID, &cm.Content, &replyTo, &createdAtStr,
			&userID, &botID,
			&userName, &botName,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		if replyTo.Valid {
			cm.ReplyToID = replyTo.Int64
		}

		cm.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		if botID.Valid {
			cm.AuthorKind = MemberBot
			cm.AuthorName = botName
		} else {
			cm.AuthorKind = MemberUser
			cm.AuthorName = userName
		}

		messages = append(messages, &cm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// ListMessages returns all messages of a channel oldest-first
func (s *SQLiteStore) ListMessages(ctx context.Context, channelID int64) ([]*Message, error) {
	query := `
		SELECT id, channel_id, channel_member_id, content, reply_to_message_id, created_at
		FROM messages
		WHERE channel_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var replyTo sql.NullInt64
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.MemberID, &msg.Content, &replyTo, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		if replyTo.Valid {
			msg.ReplyToID = replyTo.Int64
		}

		msg.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}
