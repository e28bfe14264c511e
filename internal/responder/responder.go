// ABOUTME: Orchestrates bot replies to mentions, detached from the triggering request
// ABOUTME: Resolves the mention, builds context, races completion against a deadline, persists the reply

package responder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/patiochat/patio/internal/bots"
	"github.com/patiochat/patio/internal/completion"
	"github.com/patiochat/patio/internal/dialogue"
	"github.com/patiochat/patio/internal/mention"
	"github.com/patiochat/patio/internal/store"
)

// DefaultReplyTimeout caps how long a bot may spend generating one reply
const DefaultReplyTimeout = 15 * time.Second

// Store defines what the responder needs from storage
type Store interface {
	GetMembership(ctx context.Context, id int64) (*store.Membership, error)
	GetUser(ctx context.Context, id int64) (*store.User, error)
	GetBot(ctx context.Context, id int64) (*store.Bot, error)
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// Gateway defines what the responder needs from the completion layer
type Gateway interface {
	Available() bool
	CompleteConversation(ctx context.Context, turns []dialogue.Turn) (*completion.Result, error)
}

// ContextBuilder defines what the responder needs from dialogue assembly
type ContextBuilder interface {
	Build(ctx context.Context, channelID int64, botName string, trigger dialogue.Trigger) ([]dialogue.Turn, error)
}

// MentionResolver defines what the responder needs from membership resolution
type MentionResolver interface {
	Resolve(ctx context.Context, membershipID int64) (*store.Bot, *store.Membership, error)
}

// Enroller defines what the responder needs for channel bootstrap
type Enroller interface {
	EnrollActiveBots(ctx context.Context, channelID int64) ([]bots.EnrollResult, error)
}

// Responder coordinates the mention pipeline.
type Responder struct {
	store    Store
	resolver MentionResolver
	builder  ContextBuilder
	gateway  Gateway
	enroller Enroller
	logger   *slog.Logger
	timeout  time.Duration
}

// Options configure a Responder
type Options struct {
	// ReplyTimeout bounds the completion race; DefaultReplyTimeout when zero
	ReplyTimeout time.Duration
}

// New creates a new Responder
func New(st Store, resolver MentionResolver, builder ContextBuilder, gateway Gateway, enroller Enroller, logger *slog.Logger, optFns ...func(o *Options)) *Responder {
	opts := Options{ReplyTimeout: DefaultReplyTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		store:    st,
		resolver: resolver,
		builder:  builder,
		gateway:  gateway,
		enroller: enroller,
		logger:   logger.With("component", "responder"),
		timeout:  opts.ReplyTimeout,
	}
}

// replyMode selects the fallback ladder for one mention
type replyMode int

const (
	// modeImplicit is the legacy text-scanning path: degraded conditions
	// fall back to a canned response addressed back at the author.
	modeImplicit replyMode = iota
	// modeExplicit is the client-declared mention path: degraded conditions
	// abort silently and the raw generated text is sent unprefixed.
	modeExplicit
)

// request carries one mention through the pipeline
type request struct {
	mode         replyMode
	targetID     int64
	declaredName string // explicit mentions only
	content      string
	channelID    int64
	authorID     int64
	messageID    int64
}

// OnMessageCreated inspects a just-persisted message for bot mentions and
// dispatches one detached unit of work per mention. The caller never waits:
// failures terminate in the log, and nothing is reported back to the
// message-creation request. Explicit mentions bypass text scanning entirely;
// otherwise only the first #<id> token in the text is honored. Mentions are
// processed independently, with no ordering between them.
func (r *Responder) OnMessageCreated(content string, channelID, authorID, messageID int64, explicit []mention.Explicit) {
	if len(explicit) > 0 {
		for _, em := range explicit {
			r.spawn(messageID, request{
				mode:         modeExplicit,
				targetID:     em.MemberID,
				declaredName: em.Name,
				content:      content,
				channelID:    channelID,
				authorID:     authorID,
				messageID:    messageID,
			})
		}
		return
	}

	m, ok := mention.Parse(content)
	if !ok {
		return
	}
	r.spawn(messageID, request{
		mode:      modeImplicit,
		targetID:  m.MemberID,
		content:   content,
		channelID: channelID,
		authorID:  authorID,
		messageID: messageID,
	})
}

// OnChannelCreated enrolls every active bot into the new channel. Repeated
// invocation is safe; bots that are already members are left alone.
func (r *Responder) OnChannelCreated(ctx context.Context, channelID int64) error {
	results, err := r.enroller.EnrollActiveBots(ctx, channelID)
	if err != nil {
		return fmt.Errorf("bootstrapping channel %d: %w", channelID, err)
	}

	enrolled := 0
	for _, res := range results {
		if res.Outcome == bots.Enrolled {
			enrolled++
		}
	}
	r.logger.Info("channel bootstrap complete", "channel_id", channelID, "bots", len(results), "enrolled", enrolled)
	return nil
}

// spawn runs one mention through the pipeline in its own goroutine. The
// failure channel of this detached work is the log and nothing else: errors
// and panics are recorded with the originating message id and dropped.
func (r *Responder) spawn(messageID int64, req request) {
	logger := r.logger.With("request_id", uuid.New().String(), "message_id", messageID)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("mention pipeline panicked", "panic", p)
			}
		}()

		// Detached from the triggering request; bounded so an abandoned
		// completion call can't pin the goroutine forever.
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout+10*time.Second)
		defer cancel()

		if err := r.respond(ctx, logger, req); err != nil {
			logger.Error("mention pipeline failed", "error", err)
		}
	}()
}

// respond runs the mention state machine for a single reference.
func (r *Responder) respond(ctx context.Context, logger *slog.Logger, req request) error {
	bot, member, err := r.resolver.Resolve(ctx, req.targetID)
	if err != nil {
		return err
	}
	if bot == nil {
		logger.Debug("mention does not resolve to a bot membership", "target_id", req.targetID)
		return nil
	}
	if !bot.IsActive {
		logger.Debug("mentioned bot is inactive", "bot_id", bot.ID)
		return nil
	}
	if member.ChannelID != req.channelID {
		logger.Debug("mentioned bot belongs to another channel",
			"bot_id", bot.ID, "member_channel", member.ChannelID, "message_channel", req.channelID)
		return nil
	}
	if req.mode == modeExplicit && bot.Name != req.declaredName {
		// Likely a stale client-side membership cache
		logger.Warn("explicit mention name mismatch, dropping reply",
			"bot_name", bot.Name, "mention_name", req.declaredName)
		return nil
	}

	trigger := dialogue.Trigger{
		MessageID: req.messageID,
		Text:      req.content,
		Speaker:   r.speakerName(ctx, req.authorID),
	}
	turns, err := r.builder.Build(ctx, req.channelID, bot.Name, trigger)
	if err != nil {
		return fmt.Errorf("assembling dialogue context: %w", err)
	}

	text, ok := r.generate(ctx, logger, turns, req.mode)
	if !ok {
		return nil
	}

	reply := &store.Message{
		ChannelID: req.channelID,
		MemberID:  member.ID,
		Content:   text,
		ReplyToID: req.messageID,
	}
	if req.mode == modeImplicit {
		reply.Content = fmt.Sprintf("#%d %s", req.authorID, text)
	}

	if err := r.store.CreateMessage(ctx, reply); err != nil {
		return fmt.Errorf("persisting bot reply: %w", err)
	}

	logger.Info("bot reply persisted", "reply_id", reply.ID, "bot_id", bot.ID, "channel_id", req.channelID)
	return nil
}

// generate races the conversation completion against the reply timeout and
// walks the fallback ladder on degraded outcomes. The returned bool is false
// when no reply should be sent at all.
func (r *Responder) generate(ctx context.Context, logger *slog.Logger, turns []dialogue.Turn, mode replyMode) (string, bool) {
	if !r.gateway.Available() {
		if mode == modeImplicit {
			logger.Debug("completion gateway unavailable, using canned response")
			return bots.CannedResponse(), true
		}
		logger.Debug("completion gateway unavailable, skipping reply")
		return "", false
	}

	type outcome struct {
		result *completion.Result
		err    error
	}

	// Buffered so the late loser of the race can complete its send and be
	// discarded instead of leaking.
	resultCh := make(chan outcome, 1)
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		result, err := r.gateway.CompleteConversation(callCtx, turns)
		resultCh <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case o := <-resultCh:
		if o.err != nil {
			if mode == modeImplicit {
				logger.Warn("completion failed, using canned response", "error", o.err)
				return bots.CannedResponse(), true
			}
			logger.Warn("completion failed, skipping reply", "error", o.err)
			return "", false
		}
		logger.Debug("completion generated", "total_tokens", o.result.Usage.TotalTokens)
		return o.result.Text, true

	case <-timer.C:
		// The in-flight call is abandoned; whatever it eventually produces
		// is discarded, never persisted.
		if mode == modeImplicit {
			logger.Warn("completion timed out, using canned response", "timeout", r.timeout)
			return bots.CannedResponse(), true
		}
		logger.Warn("completion timed out, skipping reply", "timeout", r.timeout)
		return "", false
	}
}

// speakerName resolves a membership to a display name for the dialogue
// context. Lookup failures degrade to a positional label instead of failing
// the pipeline.
func (r *Responder) speakerName(ctx context.Context, memberID int64) string {
	member, err := r.store.GetMembership(ctx, memberID)
	if err == nil {
		switch member.Kind {
		case store.MemberUser:
			if user, err := r.store.GetUser(ctx, member.UserID); err == nil {
				return user.Name
			}
		case store.MemberBot:
			if bot, err := r.store.GetBot(ctx, member.BotID); err == nil {
				return bot.Name
			}
		}
	}
	return fmt.Sprintf("member %d", memberID)
}
