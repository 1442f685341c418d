package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/contentguard/internal/alert"
	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/kv"
	"github.com/ppiankov/contentguard/internal/model"
)

// DefaultKey is the key the settings document is stored under.
const DefaultKey = "contentProtectionSettings"

// DefaultReason is recorded when a block is logged without a reason.
const DefaultReason = "Content blocked by filter"

// ErrNoPending is returned by ResolvePending when nothing is parked.
var ErrNoPending = errors.New("no pending change")

// Store is the persistence shell around Reduce. It owns the canonical
// settings document, gates guarded changes and runs side effects.
type Store struct {
	kv         kv.Store
	key        string
	clock      func() time.Time
	logger     *slog.Logger
	dispatcher *alert.Dispatcher
	journal    *audit.Log
	classifier *classify.Classifier
	newID      func() string
	effects    bool

	mu       sync.Mutex
	snapshot model.Settings
	pending  gate.Pending
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDispatcher sets where partner notifications go.
func WithDispatcher(d *alert.Dispatcher) Option {
	return func(s *Store) { s.dispatcher = d }
}

// WithJournal records every change and block in a hash-chained journal.
func WithJournal(j *audit.Log) Option {
	return func(s *Store) { s.journal = j }
}

// WithClassifier binds checks to a specific lattice.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Store) { s.classifier = c }
}

// WithKey stores the document under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithoutEffects keeps the audit write but skips notification effects.
func WithoutEffects() Option {
	return func(s *Store) { s.effects = false }
}

// Open loads the settings document from store. A missing or malformed
// document yields the all-off defaults; only storage errors fail.
func Open(store kv.Store, opts ...Option) (*Store, error) {
	s := &Store{
		kv:      store,
		key:     DefaultKey,
		clock:   func() time.Time { return time.Now().UTC() },
		logger:  slog.Default(),
		newID:   uuid.NewString,
		effects: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier == nil {
		s.classifier = classify.New(nil)
	}

	current, err := s.load()
	if err != nil {
		return nil, err
	}
	s.snapshot = current
	return s, nil
}

// Settings returns a copy of the last loaded or committed settings.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Path returns the file backing the settings document, if any.
func (s *Store) Path() string {
	return s.kv.Path(s.key)
}

// Classifier returns the classifier checks run against.
func (s *Store) Classifier() *classify.Classifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifier
}

// SetClassifier swaps the classifier, e.g. after the denylist file changes.
func (s *Store) SetClassifier(c *classify.Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifier = c
}

// Refresh re-reads the persisted document into the snapshot.
func (s *Store) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return err
	}
	s.snapshot = current
	return nil
}

// Pending returns the parked transition, if any.
func (s *Store) Pending() gate.Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// CancelPending drops the parked transition.
func (s *Store) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = gate.None
}

// Request decides a against the persisted settings. Allowed actions are
// committed at once. Guarded ones are parked for ResolvePending and the
// RequiresPin decision is returned. Either way a previously parked change
// is superseded.
func (s *Store) Request(ctx context.Context, a Action) (gate.Decision, error) {
	if a.Type == ActSetPin {
		if err := gate.ValidatePin(a.Value); err != nil {
			return gate.Decision{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return gate.Decision{}, err
	}

	if change, ok := a.Change(); ok {
		if d := gate.Decide(current, change); !d.Allowed() {
			s.pending = gate.Park(current, change)
			s.logger.Info("change parked for PIN", "action", a.String(), "reason", d.Reason)
			return d, nil
		}
	}

	if err := s.apply(ctx, current, a, ""); err != nil {
		return gate.Decision{}, err
	}
	s.pending = gate.None
	return gate.Decision{Verdict: gate.Allowed, Reason: "applied"}, nil
}

// Commit applies a with pin. The persisted document is re-read and the gate
// re-run, so a decision made earlier is never trusted.
func (s *Store) Commit(ctx context.Context, a Action, pin string) error {
	if a.Type == ActSetPin {
		if err := gate.ValidatePin(a.Value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return err
	}
	return s.apply(ctx, current, a, pin)
}

// ResolvePending commits the parked transition with pin. An incorrect or
// missing PIN leaves it parked. Other failures drop it.
func (s *Store) ResolvePending(ctx context.Context, pin string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change, ok := s.pending.Change()
	if !ok {
		return false, ErrNoPending
	}

	current, err := s.load()
	if err != nil {
		return false, err
	}

	err = s.apply(ctx, current, FromChange(change), pin)
	switch {
	case err == nil:
		s.pending = gate.None
		return true, nil
	case errors.Is(err, gate.ErrIncorrectPin), errors.Is(err, gate.ErrPinRequired):
		return false, err
	default:
		s.pending = gate.None
		return false, err
	}
}

// LogBlockedAttempt appends a block to the history, recording the level
// active now. Exactly one of url or keyword must be set. The history write
// is persisted before any notification is dispatched.
func (s *Store) LogBlockedAttempt(ctx context.Context, url, keyword, reason string) (model.BlockedAttempt, error) {
	if (url == "") == (keyword == "") {
		return model.BlockedAttempt{}, fmt.Errorf("%w: blocked attempt needs exactly one of url or keyword", ErrInvalidInput)
	}
	if reason == "" {
		reason = DefaultReason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return model.BlockedAttempt{}, err
	}

	attempt := model.BlockedAttempt{
		ID:              s.newID(),
		Timestamp:       s.clock().UTC(),
		URL:             url,
		Keyword:         keyword,
		Reason:          reason,
		ProtectionLevel: current.ProtectionLevel,
	}
	if err := s.apply(ctx, current, LogAttempt(attempt), ""); err != nil {
		return model.BlockedAttempt{}, err
	}
	return attempt, nil
}

// CheckURL classifies url against the current snapshot.
func (s *Store) CheckURL(url string) classify.Result {
	s.mu.Lock()
	c, cur := s.classifier, s.snapshot
	s.mu.Unlock()
	return c.CheckURL(url, cur.ProtectionLevel, cur.CustomBlockedDomains, cur.VitalBlockingEnabled)
}

// CheckText scans text against the current snapshot.
func (s *Store) CheckText(text string) classify.Result {
	s.mu.Lock()
	c, cur := s.classifier, s.snapshot
	s.mu.Unlock()
	return c.CheckKeywords(text, cur.ProtectionLevel, cur.CustomBlockedKeywords, cur.VitalBlockingEnabled)
}

// Guard checks url and logs the attempt when it is blocked.
func (s *Store) Guard(ctx context.Context, url string) (classify.Result, error) {
	r := s.CheckURL(url)
	if !r.Blocked {
		return r, nil
	}
	_, err := s.LogBlockedAttempt(ctx, url, "", r.Reason)
	return r, err
}

// GuardText checks text and logs the matched keyword when it is blocked.
func (s *Store) GuardText(ctx context.Context, text string) (classify.Result, error) {
	r := s.CheckText(text)
	if !r.Blocked {
		return r, nil
	}
	_, err := s.LogBlockedAttempt(ctx, "", r.MatchedKeyword, r.Reason)
	return r, err
}

// Wait blocks until dispatched notifications finish.
func (s *Store) Wait() {
	s.dispatcher.Wait()
}

// apply authorizes, reduces, persists, journals and runs effects.
// Callers hold s.mu and pass the freshly loaded document.
func (s *Store) apply(ctx context.Context, current model.Settings, a Action, pin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if change, ok := a.Change(); ok {
		if err := gate.Authorize(current, change, pin); err != nil {
			s.record(audit.Entry{
				Event:    audit.EventGateDenied,
				Subject:  a.String(),
				Decision: "deny",
				Reason:   err.Error(),
				Level:    string(current.ProtectionLevel),
			}, current)
			s.logger.Warn("guarded change refused", "action", a.String(), "error", err)
			return err
		}
	}

	next, effects, err := Reduce(current, a, s.clock().UTC())
	if err != nil {
		return err
	}

	data, err := Marshal(next)
	if err != nil {
		return err
	}
	if err := s.kv.Save(s.key, data); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	s.snapshot = next

	entry := audit.Entry{
		Event:    audit.EventSettingsChanged,
		Subject:  a.String(),
		Decision: "allow",
		Level:    string(next.ProtectionLevel),
	}
	switch a.Type {
	case ActLogAttempt:
		entry.Event = audit.EventBlocked
		entry.Subject = a.Attempt.Content()
		entry.Decision = "deny"
		entry.Reason = a.Attempt.Reason
		entry.Level = string(a.Attempt.ProtectionLevel)
	case ActClearHistory:
		entry.Event = audit.EventHistoryCleared
	}
	s.recordHash(entry, data)

	s.logger.Debug("settings committed", "action", a.String(), "level", next.ProtectionLevel)

	s.run(effects)
	return nil
}

func (s *Store) run(effects []Effect) {
	if !s.effects {
		return
	}
	for _, e := range effects {
		switch e.Type {
		case EffectNotifyPartner:
			if s.dispatcher == nil {
				s.logger.Debug("no dispatcher for partner notification", "attempt_id", e.Attempt.ID)
				continue
			}
			s.dispatcher.Dispatch(alert.Notification{
				Timestamp:    e.Attempt.Timestamp.UTC().Format(audit.TimestampFormat),
				PartnerEmail: e.Partner.Email,
				AttemptID:    e.Attempt.ID,
				URL:          e.Attempt.URL,
				Keyword:      e.Attempt.Keyword,
				Reason:       e.Attempt.Reason,
				Level:        string(e.Attempt.ProtectionLevel),
			})
		}
	}
}

func (s *Store) record(entry audit.Entry, current model.Settings) {
	if s.journal == nil {
		return
	}
	data, err := Marshal(current)
	if err != nil {
		s.logger.Warn("journal: hash settings", "error", err)
		return
	}
	s.recordHash(entry, data)
}

func (s *Store) recordHash(entry audit.Entry, doc []byte) {
	if s.journal == nil {
		return
	}
	entry.SettingsHash = audit.HashLine(doc)
	if err := s.journal.Record(entry); err != nil {
		s.logger.Warn("journal write failed", "event", entry.Event, "error", err)
	}
}

// load reads the persisted document. Absent means defaults; malformed is
// logged and also means defaults.
func (s *Store) load() (model.Settings, error) {
	now := s.clock().UTC()
	data, ok, err := s.kv.Load(s.key)
	if err != nil {
		return model.Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	if !ok {
		return model.DefaultSettings(now), nil
	}
	current, err := Decode(data, now)
	if err != nil {
		s.logger.Warn("settings document rejected, using defaults", "key", s.key, "error", err)
	}
	return current, nil
}
