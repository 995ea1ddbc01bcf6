package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eaglebank/accounts-api/shared/apperr"
	"github.com/eaglebank/accounts-api/shared/cqrs"
	"github.com/eaglebank/accounts-api/shared/events"
	"github.com/eaglebank/accounts-api/shared/models"
	"golang.org/x/crypto/bcrypt"
)

// ---- fakes ----

type fakeWriter struct {
	createFn func(*models.Account, *models.PersonInfo) error
	deleteFn func(string) (int64, error)
}

func (f *fakeWriter) CreateWithPerson(_ context.Context, a *models.Account, p *models.PersonInfo) error {
	return f.createFn(a, p)
}

func (f *fakeWriter) DeleteByUsername(_ context.Context, username string) (int64, error) {
	return f.deleteFn(username)
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) InvalidateList(context.Context) { f.calls++ }

type publishedEvent struct {
	stream, eventType string
	data              any
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	f.published = append(f.published, publishedEvent{stream, eventType, data})
	return f.err
}

// ---- tests ----

func TestCreateAccount(t *testing.T) {
	var stored *models.Account
	var storedPerson *models.PersonInfo
	writer := &fakeWriter{createFn: func(a *models.Account, p *models.PersonInfo) error {
		a.AccountID = 11
		p.AccountID = 11
		stored, storedPerson = a, p
		return nil
	}}
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	svc := NewAccountCommandService(writer, inv, pub)

	account, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Username: "alice", Password: "p1", FirstName: "Alice", LastName: "Smith",
	})
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	if account.AccountID != 11 || stored.Username != "alice" {
		t.Errorf("unexpected account: %+v", account)
	}
	if stored.PasswordHash == "p1" || bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("p1")) != nil {
		t.Error("expected password to be stored as a bcrypt hash")
	}
	if storedPerson.FirstName != "Alice" || storedPerson.LastName != "Smith" {
		t.Errorf("unexpected person: %+v", storedPerson)
	}
	if inv.calls != 1 {
		t.Errorf("expected list cache invalidated once, got %d", inv.calls)
	}
	if len(pub.published) != 1 || pub.published[0].eventType != events.AccountCreated || pub.published[0].stream != events.AccountEventsStream {
		t.Fatalf("expected one account.created event, got %+v", pub.published)
	}
	if ev := pub.published[0].data.(events.AccountCreatedEvent); ev.AccountID != 11 || ev.Username != "alice" {
		t.Errorf("unexpected event payload: %+v", ev)
	}
}

func TestCreateAccountRepositoryError(t *testing.T) {
	conflict := apperr.Conflict("Username already exists", errors.New("23505"))
	writer := &fakeWriter{createFn: func(*models.Account, *models.PersonInfo) error { return conflict }}
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	svc := NewAccountCommandService(writer, inv, pub)

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Username: "alice", Password: "p1"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if inv.calls != 0 || len(pub.published) != 0 {
		t.Errorf("expected no side effects on failure, got invalidations=%d events=%d", inv.calls, len(pub.published))
	}
}

func TestCreateAccountPasswordTooLong(t *testing.T) {
	writer := &fakeWriter{createFn: func(*models.Account, *models.PersonInfo) error {
		t.Fatal("repository must not be called")
		return nil
	}}
	svc := NewAccountCommandService(writer, &fakeInvalidator{}, &fakePublisher{})

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Username: "alice", Password: strings.Repeat("é", 40),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateAccountPublishFailureIsNotFatal(t *testing.T) {
	writer := &fakeWriter{createFn: func(a *models.Account, _ *models.PersonInfo) error { a.AccountID = 3; return nil }}
	svc := NewAccountCommandService(writer, &fakeInvalidator{}, &fakePublisher{err: errors.New("redis down")})

	if _, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Username: "bob", Password: "p"}); err != nil {
		t.Errorf("expected publish failure to be swallowed, got %v", err)
	}
}

func TestCreateAccountWithNilPublisher(t *testing.T) {
	writer := &fakeWriter{createFn: func(*models.Account, *models.PersonInfo) error { return nil }}
	var pub *events.Publisher
	svc := NewAccountCommandService(writer, &fakeInvalidator{}, pub)

	if _, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Username: "bob", Password: "p"}); err != nil {
		t.Errorf("expected success without a publisher, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	tests := []struct {
		name           string
		deleteFn       func(string) (int64, error)
		expectErr      bool
		expectedKind   apperr.Kind
		expectedEvents int
	}{
		{
			name:           "success - delete existing account",
			deleteFn:       func(string) (int64, error) { return 5, nil },
			expectedEvents: 1,
		},
		{
			name:         "not found - unknown username",
			deleteFn:     func(string) (int64, error) { return 0, apperr.NotFound("Account not found", nil) },
			expectErr:    true,
			expectedKind: apperr.KindNotFound,
		},
		{
			name:         "connection - database unavailable",
			deleteFn:     func(string) (int64, error) { return 0, apperr.Connection("Database unavailable", errors.New("eof")) },
			expectErr:    true,
			expectedKind: apperr.KindConnection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvalidator{}
			pub := &fakePublisher{}
			svc := NewAccountCommandService(&fakeWriter{deleteFn: tt.deleteFn}, inv, pub)

			err := svc.DeleteAccount(context.Background(), cqrs.DeleteAccountCommand{Username: "alice"})
			if tt.expectErr {
				if apperr.KindOf(err) != tt.expectedKind {
					t.Errorf("[%s] expected kind %s, got %v", tt.name, tt.expectedKind, err)
				}
			} else if err != nil {
				t.Fatalf("[%s] unexpected error: %v", tt.name, err)
			}
			if len(pub.published) != tt.expectedEvents {
				t.Errorf("[%s] expected %d events, got %d", tt.name, tt.expectedEvents, len(pub.published))
			}
			if tt.expectedEvents == 1 {
				ev := pub.published[0].data.(events.AccountDeletedEvent)
				if ev.AccountID != 5 || ev.Username != "alice" || inv.calls != 1 {
					t.Errorf("[%s] unexpected event %+v / invalidations %d", tt.name, ev, inv.calls)
				}
			}
		})
	}
}
