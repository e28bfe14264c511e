package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func createTestChannel(t *testing.T, s *SQLiteStore, name string) *Channel {
	t.Helper()
	ch := &Channel{Name: name}
	require.NoError(t, s.CreateChannel(context.Background(), ch))
	return ch
}

func createTestUser(t *testing.T, s *SQLiteStore, name, email string) *User {
	t.Helper()
	u := &User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func createTestBot(t *testing.T, s *SQLiteStore, name string, active bool) *Bot {
	t.Helper()
	b := &Bot{Name: name, IsActive: active}
	require.NoError(t, s.CreateBot(context.Background(), b))
	return b
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &User{Name: "Jane Doe", Email: "jane@mail.test", PasswordHash: "hash"}
	err := store.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	retrieved, err := store.GetUserByEmail(ctx, "jane@mail.test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, "Jane Doe", retrieved.Name)
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "Jane", "jane@mail.test")

	err := store.CreateUser(ctx, &User{Name: "Other", Email: "jane@mail.test", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetUser(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListActiveBots(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestBot(t, store, "Assistant Bot", true)
	createTestBot(t, store, "Retired Bot", false)
	createTestBot(t, store, "Helper Bot", true)

	bots, err := store.ListActiveBots(ctx)
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "Assistant Bot", bots[0].Name)
	assert.Equal(t, "Helper Bot", bots[1].Name)
}

func TestStore_Membership_Discrimination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	bot := createTestBot(t, store, "Assistant Bot", true)

	userMember, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)
	botMember, err := store.CreateBotMembership(ctx, channel.ID, bot.ID)
	require.NoError(t, err)

	loaded, err := store.GetMembership(ctx, userMember.ID)
	require.NoError(t, err)
	assert.Equal(t, MemberUser, loaded.Kind)
	assert.Equal(t, user.ID, loaded.UserID)
	assert.Zero(t, loaded.BotID)

	loaded, err = store.GetMembership(ctx, botMember.ID)
	require.NoError(t, err)
	assert.Equal(t, MemberBot, loaded.Kind)
	assert.Equal(t, bot.ID, loaded.BotID)
	assert.Zero(t, loaded.UserID)
}

func TestStore_CreateMembership_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	bot := createTestBot(t, store, "Assistant Bot", true)

	_, err := store.CreateBotMembership(ctx, channel.ID, bot.ID)
	require.NoError(t, err)

	_, err = store.CreateBotMembership(ctx, channel.ID, bot.ID)
	assert.ErrorIs(t, err, ErrDuplicateMember)

	// Same bot in a different channel is fine
	other := createTestChannel(t, store, "Random")
	_, err = store.CreateBotMembership(ctx, other.ID, bot.ID)
	assert.NoError(t, err)
}

func TestStore_DeleteMembership_CascadesMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	other := createTestUser(t, store, "Al", "al@mail.test")

	member, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)
	otherMember, err := store.CreateUserMembership(ctx, channel.ID, other.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateMessage(ctx, &Message{
			ChannelID: channel.ID,
			MemberID:  member.ID,
			Content:   fmt.Sprintf("message %d", i),
		}))
	}
	require.NoError(t, store.CreateMessage(ctx, &Message{
		ChannelID: channel.ID,
		MemberID:  otherMember.ID,
		Content:   "stays behind",
	}))

	err = store.DeleteMembership(ctx, member.ID)
	require.NoError(t, err)

	_, err = store.GetMembership(ctx, member.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Only the other member's message survives
	messages, err := store.ListMessages(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "stays behind", messages[0].Content)
}

func TestStore_DeleteMembership_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.DeleteMembership(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateMessage_Reply(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	member, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)

	original := &Message{ChannelID: channel.ID, MemberID: member.ID, Content: "hello"}
	require.NoError(t, store.CreateMessage(ctx, original))

	reply := &Message{ChannelID: channel.ID, MemberID: member.ID, Content: "hi", ReplyToID: original.ID}
	require.NoError(t, store.CreateMessage(ctx, reply))

	loaded, err := store.GetMessage(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, loaded.ReplyToID)

	loaded, err = store.GetMessage(ctx, original.ID)
	require.NoError(t, err)
	assert.Zero(t, loaded.ReplyToID)
}

func TestStore_DeleteMessage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	member, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)

	msg := &Message{ChannelID: channel.ID, MemberID: member.ID, Content: "hello"}
	require.NoError(t, store.CreateMessage(ctx, msg))

	require.NoError(t, store.DeleteMessage(ctx, msg.ID))

	_, err = store.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListChannelMessages_NewestFirstBounded(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	bot := createTestBot(t, store, "Assistant Bot", true)

	userMember, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)
	botMember, err := store.CreateBotMembership(ctx, channel.ID, bot.ID)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		memberID := userMember.ID
		if i%2 == 1 {
			memberID = botMember.ID
		}
		require.NoError(t, store.CreateMessage(ctx, &Message{
			ChannelID: channel.ID,
			MemberID:  memberID,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := store.ListChannelMessages(ctx, channel.ID, 15)
	require.NoError(t, err)
	require.Len(t, messages, 15)

	// Newest first
	assert.Equal(t, "message 19", messages[0].Content)
	assert.Equal(t, "message 5", messages[14].Content)

	// Author identity resolved per row
	assert.Equal(t, MemberBot, messages[0].AuthorKind)
	assert.Equal(t, "Assistant Bot", messages[0].AuthorName)
	assert.Equal(t, MemberUser, messages[1].AuthorKind)
	assert.Equal(t, "Jane", messages[1].AuthorName)
}

func TestStore_ListMessages_Chronological(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	member, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateMessage(ctx, &Message{
			ChannelID: channel.ID,
			MemberID:  member.ID,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := store.ListMessages(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "message 0", messages[0].Content)
	assert.Equal(t, "message 2", messages[2].Content)
}

func TestStore_MessageOrdering_SubSecondTimestamps(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	member, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)

	// Fractional seconds whose shortest renderings would not sort as text:
	// .120 trimmed to ".12" compares above ".123". The stored form must be
	// fixed-width so created_at ordering stays purely chronological.
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	older := &Message{
		ChannelID: channel.ID,
		MemberID:  member.ID,
		Content:   "older",
		CreatedAt: base.Add(120 * time.Millisecond),
	}
	require.NoError(t, store.CreateMessage(ctx, older))
	newer := &Message{
		ChannelID: channel.ID,
		MemberID:  member.ID,
		Content:   "newer",
		CreatedAt: base.Add(123 * time.Millisecond),
	}
	require.NoError(t, store.CreateMessage(ctx, newer))

	msgs, err := store.ListMessages(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "older", msgs[0].Content)
	assert.Equal(t, "newer", msgs[1].Content)

	recent, err := store.ListChannelMessages(ctx, channel.ID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "newer", recent[0].Content)
}

func TestStore_ListChannelMembers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	channel := createTestChannel(t, store, "General")
	user := createTestUser(t, store, "Jane", "jane@mail.test")
	bot := createTestBot(t, store, "Assistant Bot", true)

	_, err := store.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)
	_, err = store.CreateBotMembership(ctx, channel.ID, bot.ID)
	require.NoError(t, err)

	members, err := store.ListChannelMembers(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, MemberUser, members[0].Kind)
	assert.Equal(t, "Jane", members[0].UserName)
	assert.Equal(t, "jane@mail.test", members[0].UserEmail)

	assert.Equal(t, MemberBot, members[1].Kind)
	assert.Equal(t, "Assistant Bot", members[1].BotName)
	assert.True(t, members[1].BotActive)
}
