package broker

import (
	"context"
	"slices"

	"bankroll/internal/domain"
)

// Compile-time interface check.
var _ AccountData = (*StaticAccount)(nil)

// StaticAccount is an AccountData over fixed, in-memory data. It is useful
// for manual holdings and for tests.
type StaticAccount struct {
	positions []domain.Position
	activity  []domain.Activity
	balance   domain.AccountBalance
}

// NewStaticAccount creates a StaticAccount holding copies of the given data.
func NewStaticAccount(positions []domain.Position, activity []domain.Activity, balance domain.AccountBalance) *StaticAccount {
	return &StaticAccount{
		positions: slices.Clone(positions),
		activity:  slices.Clone(activity),
		balance:   balance.Add(domain.AccountBalance{}),
	}
}

// Positions returns a copy of the held positions.
func (s *StaticAccount) Positions(_ context.Context) ([]domain.Position, error) {
	return slices.Clone(s.positions), nil
}

// Activity returns a copy of the recorded activity.
func (s *StaticAccount) Activity(_ context.Context) ([]domain.Activity, error) {
	return slices.Clone(s.activity), nil
}

// Balance returns a copy of the cash balance.
func (s *StaticAccount) Balance(_ context.Context) (domain.AccountBalance, error) {
	return s.balance.Add(domain.AccountBalance{}), nil
}
