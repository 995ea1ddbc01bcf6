package query

import (
	"context"

	"github.com/eaglebank/accounts-api/shared/cqrs"
	"github.com/eaglebank/accounts-api/shared/models"
)

type AccountLister interface {
	List(ctx context.Context) ([]models.AccountView, error)
}

type AccountQueryService struct {
	readRepo AccountLister
}

func NewAccountQueryService(readRepo AccountLister) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, _ cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	return s.readRepo.List(ctx)
}
