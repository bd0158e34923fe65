package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"signal-desk/internal/analytics"
	"signal-desk/internal/command"
	"signal-desk/internal/config"
	"signal-desk/internal/conversation"
	"signal-desk/internal/domain"
	"signal-desk/internal/pricing"

	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

// Workflow is the conversation surface the bot drives.
type Workflow interface {
	StateOf(userID int64) conversation.State
	StartSignal(ctx context.Context, userID int64, in pricing.Input, explicitURL string) (string, error)
	AttachPhoto(ctx context.Context, userID int64, ref domain.CreativeRef) (string, error)
	HandleText(ctx context.Context, userID int64, text string) ([]string, error)
	BeginSaveCreative(ctx context.Context, userID int64, key string) string
	BeginFormat(ctx context.Context, userID int64) string
	Cancel(ctx context.Context, userID int64) string
}

// StoreAdmin is the store surface behind the management commands.
type StoreAdmin interface {
	Creatives(ctx context.Context) map[string]domain.CreativeRef
	DeleteCreative(ctx context.Context, key string) error
	ClearCreatives(ctx context.Context) error
	Links(ctx context.Context) map[string]string
	SetLinks(ctx context.Context, links map[string]string) error
	DeleteLink(ctx context.Context, ticker string) error
	ClearLinks(ctx context.Context) error
	LastSignal(ctx context.Context) (domain.MessageRef, error)
	DeleteLastSignal(ctx context.Context) (domain.MessageRef, error)
	ResetSignalFormat(ctx context.Context) error
	MemberCounts(ctx context.Context) map[string]int
}

// Stats is the read-side surface behind the analytics commands.
type Stats interface {
	Aggregate(ctx context.Context, years []int, sender string) (analytics.Report, error)
	Views(ctx context.Context, years []int) (analytics.ViewsReport, error)
	Invalidate(ctx context.Context)
}

// Bot binds the Telegram transport to the workflow. It also implements
// conversation.Publisher against the broadcast channel.
type Bot struct {
	tb          *tele.Bot
	channel     tele.Recipient
	flow        Workflow
	store       StoreAdmin
	stats       Stats
	parser      *command.Parser
	admins      map[int64]struct{}
	publicReads bool
	tracer      trace.Tracer
}

type channelRef string

func (c channelRef) Recipient() string { return string(c) }

// New creates the Telegram bot. A missing token is reported and yields a nil
// bot so the rest of the process (tracker API, MCP) can still run.
func New(cfg *config.Config, tracer trace.Tracer) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	pref := tele.Settings{
		Token:  cfg.TelegramBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Bot{
		tb:          tb,
		channel:     channelRef(cfg.ChannelID),
		admins:      admins,
		publicReads: cfg.AllowPublicReads,
		tracer:      tracer,
	}, nil
}

// Register wires the inbound handlers. Kept separate from New because the
// workflow needs the bot as its publisher first.
func (b *Bot) Register(flow Workflow, store StoreAdmin, stats Stats, parser *command.Parser) {
	b.flow = flow
	b.store = store
	b.stats = stats
	b.parser = parser

	b.tb.Handle(tele.OnText, b.onText)
	b.tb.Handle(tele.OnPhoto, b.onPhoto)
}

// Start begins long-polling. Blocks; run it in a goroutine.
func (b *Bot) Start() {
	log.Println("Telegram bot started")
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
}

// --- conversation.Publisher ---

func (b *Bot) SendSignal(ctx context.Context, creative domain.CreativeRef, caption, buttonLabel, buttonURL string) (int, int64, error) {
	_, span := b.tracer.Start(ctx, "bot.send-signal")
	defer span.End()

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL(buttonLabel, buttonURL)))

	photo := &tele.Photo{
		File:    tele.File{FileID: string(creative)},
		Caption: caption,
	}
	msg, err := b.tb.Send(b.channel, photo, markup, tele.ModeHTML)
	if err != nil {
		return 0, 0, err
	}
	return msg.ID, msg.Chat.ID, nil
}

// DeleteChannelMessage removes a previously published post.
func (b *Bot) DeleteChannelMessage(ctx context.Context, ref domain.MessageRef) error {
	_, span := b.tracer.Start(ctx, "bot.delete-channel-message")
	defer span.End()

	return b.tb.Delete(&tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	})
}

// MemberCount reports the broadcast channel's current membership.
func (b *Bot) MemberCount(ctx context.Context) (int, error) {
	_, span := b.tracer.Start(ctx, "bot.member-count")
	defer span.End()

	chat, err := b.tb.ChatByUsername(string(b.channel.(channelRef)))
	if err != nil {
		return 0, err
	}
	return b.tb.Len(chat)
}

// --- inbound ---

func (b *Bot) authorized(userID int64) bool {
	if len(b.admins) == 0 {
		return true
	}
	_, ok := b.admins[userID]
	return ok
}

func (b *Bot) onText(c tele.Context) error {
	ctx := context.Background()
	uid := c.Sender().ID
	text := c.Text()

	// An active draft consumes free text first; the workflow recognizes
	// cancel itself.
	if b.flow.StateOf(uid) != conversation.StateIdle {
		replies, err := b.flow.HandleText(ctx, uid, text)
		if err != nil {
			return c.Send(userMessage(err))
		}
		return sendAll(c, replies)
	}

	cmd, err := b.parser.Parse(text)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if cmd.Kind == command.KindUnknown {
		return nil
	}
	if cmd.Mutating() && !b.authorized(uid) {
		return c.Send("❌ You're not authorized to use this bot.")
	}
	if !cmd.Mutating() && !b.authorized(uid) && !b.publicReads {
		return c.Send("❌ You're not authorized to use this bot.")
	}
	return b.dispatch(ctx, c, uid, cmd)
}

func (b *Bot) onPhoto(c tele.Context) error {
	ctx := context.Background()
	uid := c.Sender().ID
	if !b.authorized(uid) {
		return c.Send("❌ You're not authorized to use this bot.")
	}
	reply, err := b.flow.AttachPhoto(ctx, uid, domain.CreativeRef(c.Message().Photo.FileID))
	if err != nil {
		return c.Send(userMessage(err))
	}
	return c.Send(reply)
}

func (b *Bot) dispatch(ctx context.Context, c tele.Context, uid int64, cmd command.Command) error {
	switch cmd.Kind {
	case command.KindStart, command.KindHelp:
		return c.Send(helpText)

	case command.KindSignal:
		reply, err := b.flow.StartSignal(ctx, uid, cmd.Signal, cmd.URL)
		if err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(reply)

	case command.KindDelete:
		return b.deleteLast(ctx, c)

	case command.KindSaveCreative:
		return c.Send(b.flow.BeginSaveCreative(ctx, uid, cmd.Key))

	case command.KindUseCreative:
		return c.Send("❌ No pending signal. Start with the signal command first.")

	case command.KindListCreatives:
		return c.Send(formatCreatives(b.store.Creatives(ctx)))

	case command.KindClearCreative:
		if cmd.All {
			if err := b.store.ClearCreatives(ctx); err != nil {
				return c.Send(userMessage(err))
			}
			return c.Send("✅ All creatives cleared.")
		}
		if err := b.store.DeleteCreative(ctx, cmd.Key); err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(fmt.Sprintf("✅ Creative %s cleared.", cmd.Key))

	case command.KindListLinks:
		return c.Send(formatLinks(b.store.Links(ctx)))

	case command.KindAddLinks:
		links := make(map[string]string, len(cmd.Links))
		for _, pair := range cmd.Links {
			links[pair.Ticker] = pair.URL
		}
		if err := b.store.SetLinks(ctx, links); err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(fmt.Sprintf("✅ Saved %d link(s).", len(links)))

	case command.KindClearLink:
		if cmd.All {
			if err := b.store.ClearLinks(ctx); err != nil {
				return c.Send(userMessage(err))
			}
			return c.Send("✅ All links cleared.")
		}
		if err := b.store.DeleteLink(ctx, cmd.Key); err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(fmt.Sprintf("✅ Link for %s cleared.", cmd.Key))

	case command.KindTotalSignals:
		report, err := b.stats.Aggregate(ctx, cmd.Years, "")
		if err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(formatReport("Signals", cmd.Years, report))

	case command.KindMemberTotal:
		report, err := b.stats.Aggregate(ctx, cmd.Years, cmd.Member)
		if err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(formatReport("Signals by "+cmd.Member, cmd.Years, report))

	case command.KindViews:
		report, err := b.stats.Views(ctx, cmd.Years)
		if err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send(formatViews(cmd.Years, report))

	case command.KindChannelStats:
		return c.Send(formatMemberCounts(b.store.MemberCounts(ctx)))

	case command.KindFormat:
		return c.Send(b.flow.BeginFormat(ctx, uid))

	case command.KindResetFormat:
		if err := b.store.ResetSignalFormat(ctx); err != nil {
			return c.Send(userMessage(err))
		}
		return c.Send("✅ Format reset to default.")

	case command.KindCancel:
		return c.Send(b.flow.Cancel(ctx, uid))
	}
	return nil
}

// deleteLast removes the channel message first; only a successful remote
// delete evicts the stored record, so a transport failure leaves the
// pointer for a retry.
func (b *Bot) deleteLast(ctx context.Context, c tele.Context) error {
	ref, err := b.store.LastSignal(ctx)
	if err != nil {
		return c.Send(userMessage(err))
	}
	if err := b.DeleteChannelMessage(ctx, ref); err != nil {
		return c.Send(userMessage(fmt.Errorf("%w: deleting channel message: %v", domain.ErrTransport, err)))
	}
	if _, err := b.store.DeleteLastSignal(ctx); err != nil {
		return c.Send(userMessage(err))
	}
	b.stats.Invalidate(ctx)
	return c.Send(fmt.Sprintf("✅ Signal %s deleted from the channel.", ref.Sequence))
}

func sendAll(c tele.Context, replies []string) error {
	for _, reply := range replies {
		if err := c.Send(reply); err != nil {
			return err
		}
	}
	return nil
}
