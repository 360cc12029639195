package routing

import (
	"context"
	"strings"

	"github.com/elektrine/mailroute/internal/address"
	"github.com/elektrine/mailroute/internal/models"
	"github.com/elektrine/mailroute/internal/repository"
)

// fakeDirectory is an in-memory alias and mailbox directory for engine
// tests. Lookup counts are tracked so termination bounds can be asserted.
type fakeDirectory struct {
	aliases    map[string]*models.Alias   // keyed by alias email
	mailboxes  map[string]*models.Mailbox // keyed by username
	byUser     map[uint]*models.Mailbox
	failLookup error // when set, every lookup fails with this error

	lookups int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		aliases:   make(map[string]*models.Alias),
		mailboxes: make(map[string]*models.Mailbox),
		byUser:    make(map[uint]*models.Mailbox),
	}
}

func (f *fakeDirectory) addAlias(aliasEmail, targetEmail string, enabled bool, userID uint) *models.Alias {
	alias := &models.Alias{
		ID:         uint(len(f.aliases) + 1),
		AliasEmail: strings.ToLower(aliasEmail),
		Enabled:    enabled,
		UserID:     userID,
	}
	if targetEmail != "" {
		alias.TargetEmail = &targetEmail
	}
	f.aliases[alias.AliasEmail] = alias
	return alias
}

func (f *fakeDirectory) addMailbox(username string, userID *uint) *models.Mailbox {
	mailbox := &models.Mailbox{
		ID:       uint(len(f.mailboxes) + 1),
		Username: strings.ToLower(username),
		UserID:   userID,
	}
	f.mailboxes[mailbox.Username] = mailbox
	if userID != nil {
		f.byUser[*userID] = mailbox
	}
	return mailbox
}

func (f *fakeDirectory) setForward(username, target string) {
	mailbox := f.mailboxes[username]
	mailbox.ForwardEnabled = true
	mailbox.ForwardTo = &target
}

func (f *fakeDirectory) LookupByAddress(ctx context.Context, addr string) (*models.Alias, error) {
	f.lookups++
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	if alias, ok := f.aliases[strings.ToLower(addr)]; ok {
		return alias, nil
	}
	return nil, repository.ErrNotFound
}

// mailboxDir adapts fakeDirectory to the MailboxDirectory interface.
// Separate type because both interfaces declare LookupByAddress.
type mailboxDir struct {
	f *fakeDirectory
}

func (m mailboxDir) LookupByAddress(ctx context.Context, addr string) (*models.Mailbox, error) {
	local := addr
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		local = addr[:i]
	}
	return m.LookupByUsername(ctx, local)
}

func (m mailboxDir) LookupByUsername(ctx context.Context, username string) (*models.Mailbox, error) {
	m.f.lookups++
	if m.f.failLookup != nil {
		return nil, m.f.failLookup
	}
	if mailbox, ok := m.f.mailboxes[strings.ToLower(username)]; ok {
		return mailbox, nil
	}
	return nil, repository.ErrNotFound
}

func (m mailboxDir) LookupByUserID(ctx context.Context, userID uint) (*models.Mailbox, error) {
	m.f.lookups++
	if m.f.failLookup != nil {
		return nil, m.f.failLookup
	}
	if mailbox, ok := m.f.byUser[userID]; ok {
		return mailbox, nil
	}
	return nil, repository.ErrNotFound
}

func testDomains() address.DomainSet {
	return address.NewDomainSet("elektrine.com", "z.org")
}

func newTestEngine(f *fakeDirectory) *Engine {
	return NewEngine(testDomains(), f, mailboxDir{f})
}

func uintPtr(v uint) *uint {
	return &v
}
