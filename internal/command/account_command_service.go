package command

import (
	"context"
	"errors"

	"github.com/eaglebank/accounts-api/shared/apperr"
	"github.com/eaglebank/accounts-api/shared/cqrs"
	"github.com/eaglebank/accounts-api/shared/events"
	"github.com/eaglebank/accounts-api/shared/models"
	"github.com/eaglebank/accounts-api/shared/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AccountWriter is the write store used by AccountCommandService.
type AccountWriter interface {
	CreateWithPerson(ctx context.Context, account *models.Account, person *models.PersonInfo) error
	DeleteByUsername(ctx context.Context, username string) (int64, error)
}

// ListInvalidator drops the cached account list after a mutation.
type ListInvalidator interface {
	InvalidateList(ctx context.Context)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService writes account state and keeps the read model in sync.
type AccountCommandService struct {
	writeRepo AccountWriter
	readRepo  ListInvalidator
	publisher EventPublisher
}

func NewAccountCommandService(
	writeRepo AccountWriter,
	readRepo ListInvalidator,
	publisher EventPublisher,
) *AccountCommandService {
	return &AccountCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation("Password is too long", err)
		}
		return nil, apperr.Internal("Failed to create account", err)
	}

	account := &models.Account{
		Username:     cmd.Username,
		PasswordHash: passwordHash,
	}
	person := &models.PersonInfo{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
	}
	if err := s.writeRepo.CreateWithPerson(ctx, account, person); err != nil {
		return nil, err
	}

	s.readRepo.InvalidateList(ctx)
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: account.AccountID,
		Username:  account.Username,
		FirstName: person.FirstName,
		LastName:  person.LastName,
	}); err != nil {
		log.Warn().Err(err).Int64("account_id", account.AccountID).Msg("failed to publish account.created event")
	}

	log.Info().Int64("account_id", account.AccountID).Str("username", account.Username).Msg("account created")
	return account, nil
}

func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	accountID, err := s.writeRepo.DeleteByUsername(ctx, cmd.Username)
	if err != nil {
		return err
	}

	s.readRepo.InvalidateList(ctx)
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID: accountID,
		Username:  cmd.Username,
	}); err != nil {
		log.Warn().Err(err).Int64("account_id", accountID).Msg("failed to publish account.deleted event")
	}

	log.Info().Int64("account_id", accountID).Str("username", cmd.Username).Msg("account deleted")
	return nil
}
