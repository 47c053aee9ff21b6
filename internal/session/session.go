// Package session owns the per-document analysis lifecycle: debounce
// scheduling, provisional heuristic diagnostics, remote calls, and the
// revision-based staleness check that keeps late responses from clobbering
// newer state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"smarty/internal/analysis"
	"smarty/internal/diag"
	"smarty/internal/heuristic"
	"smarty/internal/lang"
	"smarty/internal/normalize"
)

// Sink receives full-replacement diagnostic sets keyed by document URI.
type Sink interface {
	Publish(uri string, diags []diag.Diagnostic)
}

// AnalyzeFunc issues the remote analysis call. It is the session's sole
// suspension point.
type AnalyzeFunc func(ctx context.Context, code string, focusConceptual bool) (*analysis.Result, error)

// Notifier surfaces a user-visible message (remote failures only).
type Notifier func(message string)

// Settings are the live scheduler options. They may change at any time via
// Manager.SetSettings.
type Settings struct {
	Delay    time.Duration
	Realtime bool
	Fallback bool
}

// DefaultSettings mirror the documented configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Delay:    time.Second,
		Realtime: true,
		Fallback: true,
	}
}

// Session is the per-document scheduler state. A session is created on the
// first trigger for a document and destroyed when the document closes; no
// two sessions ever publish for the same URI.
type Session struct {
	mu       sync.Mutex
	uri      string
	language string
	text     string

	timer           *time.Timer
	currentRevision uint64
	diags           []diag.Diagnostic
	closed          bool

	m *Manager
}

// Manager tracks sessions by document URI.
type Manager struct {
	mu       sync.Mutex
	settings Settings
	sessions map[string]*Session

	ctx     context.Context
	analyze AnalyzeFunc
	sink    Sink
	notify  Notifier
	logf    func(format string, args ...any)
}

// Options configures a Manager.
type Options struct {
	Settings Settings
	Analyze  AnalyzeFunc
	Sink     Sink
	Notify   Notifier
	Logf     func(format string, args ...any)
}

// NewManager builds a Manager. ctx bounds all remote calls.
func NewManager(ctx context.Context, opts Options) *Manager {
	settings := opts.Settings
	if settings.Delay <= 0 {
		settings.Delay = time.Second
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(string) {}
	}
	return &Manager{
		settings: settings,
		sessions: make(map[string]*Session),
		ctx:      ctx,
		analyze:  opts.Analyze,
		sink:     opts.Sink,
		notify:   notify,
		logf:     logf,
	}
}

// SetSettings replaces the live scheduler settings.
func (m *Manager) SetSettings(s Settings) {
	if s.Delay <= 0 {
		s.Delay = time.Second
	}
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
}

func (m *Manager) currentSettings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Manager) session(uri, language string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uri]
	if !ok {
		s = &Session{uri: uri, language: language, m: m}
		m.sessions[uri] = s
	}
	s.language = language
	return s
}

// Edit records a document change and (re)schedules analysis. Bursts of
// edits coalesce into at most one pending timer.
func (m *Manager) Edit(uri, language, text string) {
	settings := m.currentSettings()
	s := m.session(uri, language)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.currentRevision++
	s.text = text
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !settings.Realtime || !lang.Supported(language) {
		return
	}
	s.timer = time.AfterFunc(settings.Delay, func() {
		s.run(false)
	})
}

// Trigger forces an immediate, non-debounced analysis of text. focus is
// the "fix conceptual errors" mode: heuristic warnings are raised to
// errors and the remote call carries the same flag.
func (m *Manager) Trigger(uri, language, text string, focus bool) {
	s := m.session(uri, language)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.text = text
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.run(focus)
}

// Close destroys the document's session: the pending timer is cancelled
// and the diagnostic set is cleared, not left stale. In-flight remote
// calls are not cancelled; their late responses are discarded.
func (m *Manager) Close(uri string) {
	m.mu.Lock()
	s, ok := m.sessions[uri]
	delete(m.sessions, uri)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.diags = nil
	s.mu.Unlock()
	m.sink.Publish(uri, nil)
}

// Diagnostics returns the current diagnostic set for a document.
func (m *Manager) Diagnostics(uri string) []diag.Diagnostic {
	m.mu.Lock()
	s, ok := m.sessions[uri]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]diag.Diagnostic, len(s.diags))
	copy(out, s.diags)
	return out
}

// run captures the current revision and text, applies provisional
// heuristic diagnostics, and issues the remote call. It never blocks on
// the network: the call runs in its own goroutine and reconciles against
// the session's revision on arrival.
func (s *Session) run(focus bool) {
	settings := s.m.currentSettings()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	rev := s.currentRevision
	text := s.text
	language := s.language
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		s.apply(rev, nil)
		return
	}

	if settings.Fallback && lang.CFamily(language) {
		// Applied even when empty: a clean edit clears stale findings
		// without waiting for the remote round trip.
		s.apply(rev, heuristic.Scan(text, language, focus))
	}

	go func() {
		res, err := s.m.analyze(s.m.ctx, text, focus)
		if err != nil {
			// Existing (fallback) diagnostics stay in place.
			s.m.logf("analysis failed: uri=%s rev=%d err=%v", s.uri, rev, err)
			s.m.notify(err.Error())
			return
		}
		lines := normalize.Diagnostics(res, text, focus)
		s.apply(rev, lines)
	}()
}

// apply installs diags as the document's full diagnostic set unless the
// document has moved past rev (strict staleness check) or closed.
func (s *Session) apply(rev uint64, diags []diag.Diagnostic) {
	s.mu.Lock()
	if s.closed || rev < s.currentRevision {
		stale := s.currentRevision
		s.mu.Unlock()
		s.m.logf("discard diagnostics: uri=%s rev=%d current=%d", s.uri, rev, stale)
		return
	}
	s.diags = diags
	s.mu.Unlock()
	s.m.sink.Publish(s.uri, diags)
}
