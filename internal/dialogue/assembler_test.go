// ABOUTME: Tests for dialogue context assembly
// ABOUTME: Verifies turn counts, ordering, role tagging and name prefixing

package dialogue

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patiochat/patio/internal/store"
)

type fixture struct {
	store     *store.SQLiteStore
	channel   *store.Channel
	user      *store.Membership
	bot       *store.Membership
	userName  string
	botName   string
	assembler *Assembler
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()

	channel := &store.Channel{Name: "General"}
	require.NoError(t, st.CreateChannel(ctx, channel))

	user := &store.User{Name: "Jane", Email: "jane@mail.test", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(ctx, user))
	userMember, err := st.CreateUserMembership(ctx, channel.ID, user.ID)
	require.NoError(t, err)

	bot := &store.Bot{Name: "Assistant Bot", IsActive: true}
	require.NoError(t, st.CreateBot(ctx, bot))
	botMember, err := st.CreateBotMembership(ctx, channel.ID, bot.ID)
	require.NoError(t, err)

	return &fixture{
		store:     st,
		channel:   channel,
		user:      userMember,
		bot:       botMember,
		userName:  "Jane",
		botName:   "Assistant Bot",
		assembler: NewAssembler(st, 15, nil),
	}
}

func (f *fixture) addMessages(t *testing.T, memberID int64, texts ...string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, text := range texts {
		require.NoError(t, f.store.CreateMessage(context.Background(), &store.Message{
			ChannelID: f.channel.ID,
			MemberID:  memberID,
			Content:   text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestAssembler_EmptyChannel(t *testing.T) {
	f := setupFixture(t)

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName, Trigger{Text: "hello", Speaker: f.userName})
	require.NoError(t, err)

	// system + current
	require.Len(t, turns, 2)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, "hello", turns[1].Text)
}

func TestAssembler_TurnCountWithShortHistory(t *testing.T) {
	f := setupFixture(t)
	f.addMessages(t, f.user.ID, "one", "two", "three")

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName, Trigger{Text: "current", Speaker: f.userName})
	require.NoError(t, err)

	// system + k history + current
	assert.Len(t, turns, 3+2)
}

func TestAssembler_TurnCountCappedAtLimit(t *testing.T) {
	f := setupFixture(t)
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf("message %d", i)
	}
	f.addMessages(t, f.user.ID, texts...)

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName, Trigger{Text: "current", Speaker: f.userName})
	require.NoError(t, err)

	// system + 15 most recent + current
	require.Len(t, turns, 17)

	// Oldest-to-newest: the first history turn is message 25, the last is 39
	assert.Contains(t, turns[1].Text, "message 25")
	assert.Contains(t, turns[15].Text, "message 39")
	assert.Equal(t, "current", turns[16].Text)
}

func TestAssembler_TriggerExcludedFromHistory(t *testing.T) {
	f := setupFixture(t)
	texts := make([]string, 15)
	for i := range texts {
		texts[i] = fmt.Sprintf("message %d", i)
	}
	f.addMessages(t, f.user.ID, texts...)

	// The trigger is already persisted, newest in the channel
	trigger := &store.Message{
		ChannelID: f.channel.ID,
		MemberID:  f.user.ID,
		Content:   "hey bot",
	}
	require.NoError(t, f.store.CreateMessage(context.Background(), trigger))

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName,
		Trigger{MessageID: trigger.ID, Text: trigger.Content, Speaker: f.userName})
	require.NoError(t, err)

	// The trigger appears once, at the end, and all 15 prior messages survive
	require.Len(t, turns, 17)
	assert.Contains(t, turns[1].Text, "message 0")
	assert.Contains(t, turns[15].Text, "message 14")
	assert.Equal(t, "hey bot", turns[16].Text)
}

func TestAssembler_RoleTaggingAndPrefixing(t *testing.T) {
	f := setupFixture(t)
	f.addMessages(t, f.user.ID, "hi bot")
	// The bot turn must be strictly newer than the user turn
	require.NoError(t, f.store.CreateMessage(context.Background(), &store.Message{
		ChannelID: f.channel.ID,
		MemberID:  f.bot.ID,
		Content:   "hi human",
		CreatedAt: time.Now().Add(-time.Minute),
	}))

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName, Trigger{Text: "and now?", Speaker: f.userName})
	require.NoError(t, err)
	require.Len(t, turns, 4)

	// Human history is name-prefixed
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, "Jane: hi bot", turns[1].Text)

	// Bot history carries its raw stored content verbatim
	assert.Equal(t, RoleAssistant, turns[2].Role)
	assert.Equal(t, "hi human", turns[2].Text)

	// Trigger text is unprefixed
	assert.Equal(t, RoleUser, turns[3].Role)
	assert.Equal(t, "and now?", turns[3].Text)
}

func TestAssembler_PersonaPrompt(t *testing.T) {
	f := setupFixture(t)

	turns, err := f.assembler.Build(context.Background(), f.channel.ID, f.botName, Trigger{Text: "hello", Speaker: f.userName})
	require.NoError(t, err)

	system := turns[0].Text
	assert.True(t, strings.Contains(system, "Assistant Bot"), "persona prompt should carry the bot name")
	assert.True(t, strings.Contains(system, "General"), "persona prompt should carry the channel name")
}

func TestAssembler_PersonaPromptChannelFallback(t *testing.T) {
	f := setupFixture(t)

	// Nonexistent channel: prompt falls back to a generic label, turns still build
	turns, err := f.assembler.Build(context.Background(), 9999, f.botName, Trigger{Text: "hello", Speaker: f.userName})
	require.NoError(t, err)
	assert.NotContains(t, turns[0].Text, "General")
	assert.Contains(t, turns[0].Text, "Assistant Bot")
}
