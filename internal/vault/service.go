// Package vault implements the note operations exposed over MCP and REST:
// listing, reading, searching, creating, updating, appending, patching,
// and deleting Markdown files under a single vault root.
package vault

import (
	"log/slog"
	"time"

	"github.com/nberglund/othala/internal/audit"
	"github.com/nberglund/othala/internal/storage"
)

// Defaults applied when optional operation parameters are omitted.
const (
	DefaultRecentLimit = 10
	DefaultRecentDays  = 7

	// maxMatchesPerFile caps the detailed match list reported per file by
	// text search; the total match count is still reported in full.
	maxMatchesPerFile = 5

	// searchContextLines is the window of surrounding lines included with
	// each search match.
	searchContextLines = 1
)

// DailyConfig locates daily notes inside the vault.
type DailyConfig struct {
	// Dir is the vault-relative directory holding daily notes.
	Dir string
	// Layout is the Go time layout for the note filename, without the
	// .md extension.
	Layout string
}

// Service is the operation facade over vault storage. Every call re-reads
// from disk; no note state is held between operations.
type Service struct {
	store  storage.Provider
	logger *slog.Logger
	audit  audit.Recorder
	daily  DailyConfig
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAudit attaches an operation recorder. Recording is best-effort:
// a failed audit write is logged and never fails the operation.
func WithAudit(rec audit.Recorder) Option {
	return func(s *Service) { s.audit = rec }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDaily overrides the daily-note location.
func WithDaily(d DailyConfig) Option {
	return func(s *Service) { s.daily = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the facade over the given storage provider.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		daily: DailyConfig{
			Dir:    "00-inbox/01-today",
			Layout: "06-01-02 - Mon",
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record appends an audit entry if a recorder is attached.
func (s *Service) record(e audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(e); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("op", e.Op),
			slog.String("path", e.Path),
			slog.String("error", err.Error()))
	}
}
