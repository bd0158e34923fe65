// Package conversation drives the per-user signal workflow: parse a command,
// compute the record, collect a creative, wait for confirmation, publish,
// persist. State and payload live together so confirming without a pending
// draft is unrepresentable.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"signal-desk/internal/domain"
	"signal-desk/internal/pricing"
	"signal-desk/internal/render"

	"go.opentelemetry.io/otel/trace"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingCreative     // pending signal exists, needs an image
	StateAwaitingConfirmation // image attached, needs a confirm token
	StateAwaitingCreativeKey  // fix<N> issued, next photo is saved under Key
	StateAwaitingFormat       // format issued, next text is the new template
)

// Session is one user's in-flight draft. Never persisted.
type Session struct {
	State    State
	Pending  *domain.SignalRecord
	Creative domain.CreativeRef
	Key      string
}

// Store is the slice of the persistent store the workflow needs.
type Store interface {
	Creative(ctx context.Context, key string) (domain.CreativeRef, error)
	SaveCreative(ctx context.Context, key string, ref domain.CreativeRef) error
	Link(ctx context.Context, ticker string) (string, error)
	SetLink(ctx context.Context, ticker, url string) error
	NextSequence(ctx context.Context) (string, error)
	AppendSignal(ctx context.Context, rec domain.SignalRecord) error
	SignalFormat(ctx context.Context) string
	SetSignalFormat(ctx context.Context, format string) error
	ResetSignalFormat(ctx context.Context) error
}

// Publisher posts the finished signal to the broadcast channel.
type Publisher interface {
	SendSignal(ctx context.Context, creative domain.CreativeRef, caption, buttonLabel, buttonURL string) (messageID int, chatID int64, err error)
}

// Exporter receives a published record. Implementations must not block the
// publish path.
type Exporter interface {
	ExportPublished(ctx context.Context, rec domain.SignalRecord)
}

// CacheInvalidator busts read-side caches after a publish or delete.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Config resolves the open questions about finalization: a plain confirm
// phrase, per-sender confirm tokens, and whether a missing saved link falls
// back to a constructed URL or fails the command.
type Config struct {
	ConfirmPhrase    string            // e.g. "post"
	ConfirmTokens    map[string]string // token -> sender label
	DefaultSender    string
	TradeURLBase     string // e.g. https://example.com/trade/
	RequireSavedLink bool
	URLs             render.URLs
}

// Manager owns every session, keyed by user id. Sessions of distinct users
// never interact.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	engine    *pricing.Engine
	store     Store
	publisher Publisher
	exporter  Exporter
	cache     CacheInvalidator
	cfg       Config
	tracer    trace.Tracer
	now       func() time.Time
}

func NewManager(
	engine *pricing.Engine,
	store Store,
	publisher Publisher,
	exporter Exporter,
	cache CacheInvalidator,
	cfg Config,
	tracer trace.Tracer,
) *Manager {
	if cfg.ConfirmPhrase == "" {
		cfg.ConfirmPhrase = "post"
	}
	return &Manager{
		sessions:  make(map[int64]*Session),
		engine:    engine,
		store:     store,
		publisher: publisher,
		exporter:  exporter,
		cache:     cache,
		cfg:       cfg,
		tracer:    tracer,
		now:       time.Now,
	}
}

func (m *Manager) session(userID int64) *Session {
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := &Session{}
	m.sessions[userID] = s
	return s
}

// StateOf reports the caller's current conversation state.
func (m *Manager) StateOf(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.State
	}
	return StateIdle
}

// StartSignal computes the record, resolves the trade URL, and parks the
// draft awaiting a creative. An explicit URL also overwrites the saved link
// for the ticker.
func (m *Manager) StartSignal(ctx context.Context, userID int64, in pricing.Input, explicitURL string) (string, error) {
	rec, err := m.engine.Compute(in)
	if err != nil {
		return "", err
	}

	if explicitURL != "" {
		rec.TradeURL = explicitURL
		if err := m.store.SetLink(ctx, rec.Ticker, explicitURL); err != nil {
			return "", err
		}
	} else {
		url, err := m.store.Link(ctx, rec.Ticker)
		switch {
		case err == nil:
			rec.TradeURL = url
		case m.cfg.RequireSavedLink:
			return "", fmt.Errorf("%w: no saved link for %s; add one with addlink %s <url>", domain.ErrNotFound, rec.Ticker, rec.Ticker)
		default:
			rec.TradeURL = m.cfg.TradeURLBase + rec.Ticker + "-USDT"
		}
	}

	m.mu.Lock()
	s := m.session(userID)
	s.State = StateAwaitingCreative
	s.Pending = &rec
	s.Creative = ""
	m.mu.Unlock()

	return render.Preview(rec) + "\n\n🖼️ Send the creative image, or type use fix<N> for a saved one.", nil
}

// AttachSavedCreative resolves a saved creative key for the pending draft.
// A miss keeps the session waiting so the operator can retry.
func (m *Manager) AttachSavedCreative(ctx context.Context, userID int64, key string) (string, error) {
	m.mu.Lock()
	s := m.session(userID)
	if s.State != StateAwaitingCreative {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: no pending signal; start with the signal command", domain.ErrValidation)
	}
	m.mu.Unlock()

	ref, err := m.store.Creative(ctx, key)
	if err != nil {
		return "", err
	}
	return m.attach(ctx, userID, ref)
}

// AttachPhoto consumes an uploaded image: either the creative for a pending
// draft, or the image being saved under a fix<N> key.
func (m *Manager) AttachPhoto(ctx context.Context, userID int64, ref domain.CreativeRef) (string, error) {
	m.mu.Lock()
	s := m.session(userID)
	state, key := s.State, s.Key
	m.mu.Unlock()

	switch state {
	case StateAwaitingCreativeKey:
		if err := m.store.SaveCreative(ctx, key, ref); err != nil {
			return "", err
		}
		m.reset(userID)
		return fmt.Sprintf("✅ Creative saved as %s. Type use %s when posting a signal.", key, key), nil
	case StateAwaitingCreative:
		return m.attach(ctx, userID, ref)
	default:
		return "", fmt.Errorf("%w: no pending signal; start with the signal command", domain.ErrValidation)
	}
}

func (m *Manager) attach(ctx context.Context, userID int64, ref domain.CreativeRef) (string, error) {
	// Handlers run on separate goroutines, so the draft may have been
	// cancelled while the caller was off the lock fetching the creative.
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok || s.Pending == nil {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: no pending signal; start with the signal command", domain.ErrValidation)
	}
	s.Creative = ref
	s.State = StateAwaitingConfirmation
	rec := *s.Pending
	m.mu.Unlock()

	format := m.store.SignalFormat(ctx)
	caption := render.Caption(format, rec, m.cfg.URLs)
	note := ""
	if rec.SequenceID == "" && strings.Contains(format, "{sig_id}") {
		note = "\n\nℹ️ {sig_id} is assigned when the signal is published."
	}
	return fmt.Sprintf("Ready to post:\n\n%s\n\n[TRADE NOW - %s 🔥 → %s]%s\n\nReply %q to publish, or cancel.",
		caption, rec.Ticker, rec.TradeURL, note, m.confirmHint()), nil
}

func (m *Manager) confirmHint() string {
	if len(m.cfg.ConfirmTokens) > 0 {
		return m.cfg.ConfirmPhrase + " (or your personal confirm token)"
	}
	return m.cfg.ConfirmPhrase
}

// resolveSender matches a confirmation token. Empty string means the text is
// not a confirmation at all.
func (m *Manager) resolveSender(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == strings.ToLower(m.cfg.ConfirmPhrase) {
		if m.cfg.DefaultSender != "" {
			return m.cfg.DefaultSender
		}
		return "team"
	}
	for token, sender := range m.cfg.ConfirmTokens {
		if t == strings.ToLower(token) {
			return sender
		}
	}
	return ""
}

// Confirm publishes the pending draft. A transport failure keeps the session
// so the operator can resend the confirmation without recomputing.
func (m *Manager) Confirm(ctx context.Context, userID int64, text string) ([]string, error) {
	ctx, span := m.tracer.Start(ctx, "conversation.confirm")
	defer span.End()

	m.mu.Lock()
	s := m.session(userID)
	if s.State != StateAwaitingConfirmation || s.Pending == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: nothing awaiting confirmation", domain.ErrValidation)
	}
	sender := m.resolveSender(text)
	if sender == "" {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: reply %q to publish, or cancel", domain.ErrValidation, m.confirmHint())
	}
	rec := *s.Pending
	creative := s.Creative
	m.mu.Unlock()

	// A sequence id survives a failed publish attempt so a retry does not
	// burn another one; it is never handed back.
	if rec.SequenceID == "" {
		seq, err := m.store.NextSequence(ctx)
		if err != nil {
			return nil, err
		}
		rec.SequenceID = seq
		// A concurrent cancel may have dropped the session while the store
		// was allocating; do not recreate it, abort the publish instead.
		m.mu.Lock()
		s, ok := m.sessions[userID]
		if !ok || s.Pending == nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: draft was cancelled before publishing", domain.ErrValidation)
		}
		s.Pending.SequenceID = seq
		m.mu.Unlock()
	}

	rec.Sender = sender
	rec.CreatedAt = m.now().UTC()

	caption := render.Caption(m.store.SignalFormat(ctx), rec, m.cfg.URLs)
	button := fmt.Sprintf("TRADE NOW - %s 🔥", rec.Ticker)
	msgID, chatID, err := m.publisher.SendSignal(ctx, creative, caption, button, rec.TradeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: posting to channel: %v (draft kept, confirm again to retry)", domain.ErrTransport, err)
	}
	rec.MessageID = msgID
	rec.ChatID = chatID

	if err := m.store.AppendSignal(ctx, rec); err != nil {
		// The channel message is already live and the record is in the
		// store's memory; retrying the confirmation would post a duplicate
		// with the same sequence id. Drop the draft and surface the
		// durability problem instead.
		m.reset(userID)
		if m.cache != nil {
			m.cache.Invalidate(ctx)
		}
		return []string{fmt.Sprintf(
			"⚠️ Signal %s was posted to the channel, but saving it failed: %v. The post is live; it may not survive a restart.",
			rec.SequenceID, err)}, nil
	}
	if m.exporter != nil {
		m.exporter.ExportPublished(ctx, rec)
	}
	if m.cache != nil {
		m.cache.Invalidate(ctx)
	}
	m.reset(userID)

	done := fmt.Sprintf("✅ Signal %s posted by %s.\nTicker: %s %s\nTrade URL: %s",
		rec.SequenceID, rec.Sender, rec.Ticker, rec.Direction, rec.TradeURL)
	return []string{
		done,
		render.DesignBrief(rec, rec.CreatedAt),
		render.SummaryBox(rec, rec.CreatedAt),
	}, nil
}

// BeginSaveCreative arms the save-creative flow: the next photo from this
// user is stored under key.
func (m *Manager) BeginSaveCreative(ctx context.Context, userID int64, key string) string {
	m.mu.Lock()
	s := m.session(userID)
	s.State = StateAwaitingCreativeKey
	s.Key = key
	m.mu.Unlock()
	return fmt.Sprintf("🖼️ Drop the creative image to save as %s:", key)
}

// BeginFormat arms the template flow: the next text from this user becomes
// the caption template, or resets it.
func (m *Manager) BeginFormat(ctx context.Context, userID int64) string {
	m.mu.Lock()
	m.session(userID).State = StateAwaitingFormat
	m.mu.Unlock()
	return "📝 Send the new signal template.\n\nAvailable placeholders:\n" +
		strings.Join(render.Placeholders, " ") +
		"\n\nOr send reset to restore the default."
}

// HandleText advances a non-idle session with free text. The caller routes
// here whenever the user has an active session.
func (m *Manager) HandleText(ctx context.Context, userID int64, text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(strings.TrimPrefix(trimmed, "/"))
	if lower == "cancel" {
		return []string{m.Cancel(ctx, userID)}, nil
	}

	switch m.StateOf(userID) {
	case StateAwaitingCreative:
		if key, ok := strings.CutPrefix(lower, "use "); ok {
			reply, err := m.AttachSavedCreative(ctx, userID, strings.TrimSpace(key))
			if err != nil {
				return nil, err
			}
			return []string{reply}, nil
		}
		return nil, fmt.Errorf("%w: send an image or type use fix<N>", domain.ErrValidation)
	case StateAwaitingConfirmation:
		return m.Confirm(ctx, userID, trimmed)
	case StateAwaitingFormat:
		if lower == "reset" {
			if err := m.store.ResetSignalFormat(ctx); err != nil {
				return nil, err
			}
			m.reset(userID)
			return []string{"✅ Format reset to default."}, nil
		}
		if err := m.store.SetSignalFormat(ctx, text); err != nil {
			return nil, err
		}
		m.reset(userID)
		return []string{"✅ New format saved."}, nil
	case StateAwaitingCreativeKey:
		return nil, fmt.Errorf("%w: send the image to save, or cancel", domain.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: nothing in progress", domain.ErrValidation)
	}
}

// Cancel discards the caller's draft from any state.
func (m *Manager) Cancel(ctx context.Context, userID int64) string {
	m.reset(userID)
	return "❌ Operation cancelled."
}

func (m *Manager) reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
