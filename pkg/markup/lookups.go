package markup

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/state"
)

// Lookups maps report ids to names and account ids to logins.
// It is safe for concurrent use.
type Lookups struct {
	mu       sync.RWMutex
	reports  map[string]string
	accounts map[string]string
}

// NewLookups creates empty lookups.
func NewLookups() *Lookups {
	return &Lookups{
		reports:  make(map[string]string),
		accounts: make(map[string]string),
	}
}

// SetReport records the name of a report.
func (l *Lookups) SetReport(reportID, name string) {
	l.mu.Lock()
	l.reports[reportID] = name
	l.mu.Unlock()
}

// RemoveReport forgets a report.
func (l *Lookups) RemoveReport(reportID string) {
	l.mu.Lock()
	delete(l.reports, reportID)
	l.mu.Unlock()
}

// SetAccounts replaces every account login.
func (l *Lookups) SetAccounts(accounts map[string]string) {
	next := make(map[string]string, len(accounts))
	for k, v := range accounts {
		next[k] = v
	}
	l.mu.Lock()
	l.accounts = next
	l.mu.Unlock()
}

// ReportName returns the name recorded for reportID.
func (l *Lookups) ReportName(reportID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.reports[reportID]
	return name, ok
}

// AccountLogin returns the login recorded for accountID.
func (l *Lookups) AccountLogin(accountID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	login, ok := l.accounts[accountID]
	return login, ok
}

// Len returns the number of known reports and accounts.
func (l *Lookups) Len() (reports, accounts int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reports), len(l.accounts)
}

// Reset forgets everything.
func (l *Lookups) Reset() {
	l.mu.Lock()
	l.reports = make(map[string]string)
	l.accounts = make(map[string]string)
	l.mu.Unlock()
}

// LookupSync keeps Lookups in step with the report collection and the
// personal details list.
type LookupSync struct {
	lookups *Lookups
	logger  *slog.Logger

	mu    sync.Mutex
	store *state.Store
	conns []state.ConnectionID
}

// NewLookupSync creates a sync for lookups. A nil logger uses slog.Default.
func NewLookupSync(lookups *Lookups, logger *slog.Logger) *LookupSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupSync{lookups: lookups, logger: logger}
}

// Start subscribes to store. Current values are loaded before Start
// returns. Starting an already started sync is a no-op.
func (s *LookupSync) Start(store *state.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return
	}
	s.store = store
	s.conns = []state.ConnectionID{
		store.Connect(state.ConnectOptions{Collection: keys.Report, Callback: s.onReport}),
		store.Connect(state.ConnectOptions{Key: keys.PersonalDetailsList, Callback: s.onPersonalDetails}),
	}
	s.logger.Debug("lookup sync started")
}

// Stop unsubscribes. The lookups keep their last values.
func (s *LookupSync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return
	}
	for _, id := range s.conns {
		s.store.Disconnect(id)
	}
	s.store = nil
	s.conns = nil
	s.logger.Debug("lookup sync stopped")
}

func (s *LookupSync) onReport(value any, key state.Key) {
	report, _ := value.(map[string]any)
	if report == nil {
		s.lookups.RemoveReport(keys.Report.ID(key))
		return
	}

	reportID := idString(report["reportID"])
	if reportID == "" {
		reportID = keys.Report.ID(key)
	}
	name := firstString(report["reportName"], report["displayName"])
	if name == "" {
		name = reportID
	}
	s.lookups.SetReport(reportID, name)
}

func (s *LookupSync) onPersonalDetails(value any, _ state.Key) {
	list, _ := value.(map[string]any)
	accounts := make(map[string]string, len(list))
	for _, v := range list {
		details, ok := v.(map[string]any)
		if !ok {
			continue
		}
		accountID := idString(details["accountID"])
		if accountID == "" {
			continue
		}
		login := firstString(details["login"])
		if login == "" {
			login = accountID
		}
		accounts[accountID] = login
	}
	s.lookups.SetAccounts(accounts)
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// idString formats ids that arrive as numbers or strings.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}
