// ABOUTME: Seed subcommand loading demo users, channels and the assistant bot
// ABOUTME: Idempotent, existing rows are reused instead of recreated

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"

	"github.com/patiochat/patio/internal/config"
	"github.com/patiochat/patio/internal/store"
)

const seedPassword = "password"

func runSeed(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	green := color.New(color.FgGreen)
	fmt.Println("Seeding database...")

	alfredo, err := seedUser(ctx, st, "Alfredo Sumaran", "alfredo@mail.test")
	if err != nil {
		return err
	}
	jane, err := seedUser(ctx, st, "Jane Doe", "jane@mail.test")
	if err != nil {
		return err
	}

	general, err := seedChannel(ctx, st, "General")
	if err != nil {
		return err
	}
	random, err := seedChannel(ctx, st, "Random")
	if err != nil {
		return err
	}

	bot, err := seedBot(ctx, st, "Assistant Bot")
	if err != nil {
		return err
	}

	alfredoGeneral, err := seedUserMembership(ctx, st, general, alfredo)
	if err != nil {
		return err
	}
	janeGeneral, err := seedUserMembership(ctx, st, general, jane)
	if err != nil {
		return err
	}
	if _, err := seedUserMembership(ctx, st, random, alfredo); err != nil {
		return err
	}

	botGeneral, err := seedBotMembership(ctx, st, general, bot)
	if err != nil {
		return err
	}
	if _, err := seedBotMembership(ctx, st, random, bot); err != nil {
		return err
	}

	// Sample conversation, only on a fresh channel
	existing, err := st.ListMessages(ctx, general.ID)
	if err != nil {
		return fmt.Errorf("checking existing messages: %w", err)
	}
	if len(existing) == 0 {
		samples := []struct {
			member  *store.Membership
			content string
		}{
			{alfredoGeneral, "Hello everyone! Welcome to the General channel."},
			{janeGeneral, "Thanks for the welcome!"},
			{botGeneral, "Hello humans! I am here to assist you."},
		}
		for _, s := range samples {
			msg := &store.Message{ChannelID: general.ID, MemberID: s.member.ID, Content: s.content}
			if err := st.CreateMessage(ctx, msg); err != nil {
				return fmt.Errorf("creating sample message: %w", err)
			}
		}
	}

	fmt.Println()
	green.Print("✓ ")
	fmt.Println("Database seeded")
	fmt.Printf("  Users:    %s, %s (password %q)\n", alfredo.Email, jane.Email, seedPassword)
	fmt.Printf("  Channels: %s, %s\n", general.Name, random.Name)
	fmt.Printf("  Bot:      %s\n", bot.Name)
	return nil
}

func seedUser(ctx context.Context, st *store.SQLiteStore, name, email string) (*store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing seed password: %w", err)
	}

	user := &store.User{Name: name, Email: email, PasswordHash: string(hash)}
	err = st.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicateUser) {
		return st.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user %q: %w", email, err)
	}
	return user, nil
}

func seedChannel(ctx context.Context, st *store.SQLiteStore, name string) (*store.Channel, error) {
	channels, err := st.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch, nil
		}
	}

	channel := &store.Channel{Name: name}
	if err := st.CreateChannel(ctx, channel); err != nil {
		return nil, fmt.Errorf("creating channel %q: %w", name, err)
	}
	return channel, nil
}

func seedBot(ctx context.Context, st *store.SQLiteStore, name string) (*store.Bot, error) {
	active, err := st.ListActiveBots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing bots: %w", err)
	}
	for _, b := range active {
		if b.Name == name {
			return b, nil
		}
	}

	bot := &store.Bot{Name: name, IsActive: true}
	if err := st.CreateBot(ctx, bot); err != nil {
		return nil, fmt.Errorf("creating bot %q: %w", name, err)
	}
	return bot, nil
}

func seedUserMembership(ctx context.Context, st *store.SQLiteStore, channel *store.Channel, user *store.User) (*store.Membership, error) {
	member, err := st.CreateUserMembership(ctx, channel.ID, user.ID)
	if errors.Is(err, store.ErrDuplicateMember) {
		return st.GetUserMembership(ctx, channel.ID, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("enrolling %q into %q: %w", user.Email, channel.Name, err)
	}
	return member, nil
}

func seedBotMembership(ctx context.Context, st *store.SQLiteStore, channel *store.Channel, bot *store.Bot) (*store.Membership, error) {
	member, err := st.CreateBotMembership(ctx, channel.ID, bot.ID)
	if errors.Is(err, store.ErrDuplicateMember) {
		// Look the existing one up through the member listing
		members, listErr := st.ListChannelMembers(ctx, channel.ID)
		if listErr != nil {
			return nil, fmt.Errorf("listing members of %q: %w", channel.Name, listErr)
		}
		for _, m := range members {
			if m.Kind == store.MemberBot && m.BotID == bot.ID {
				return &m.Membership, nil
			}
		}
		return nil, fmt.Errorf("bot membership for %q in %q not found after conflict", bot.Name, channel.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("enrolling bot %q into %q: %w", bot.Name, channel.Name, err)
	}
	return member, nil
}
