// Package session owns per-user token versions, the single source of truth
// for whether an issued token is still live. Nothing here stores tokens:
// bumping a user's version revokes every token issued before the bump.
package session

import (
	"context"
	"errors"
	"fmt"
)

// DefaultVersion is what a user without a stored version is treated as.
const DefaultVersion int64 = 1

var ErrUnknownUser = errors.New("unknown user")

// VersionStore persists token versions. IncrementTokenVersion must be a
// single atomic store-level update so racing logouts never lose a bump.
type VersionStore interface {
	TokenVersion(ctx context.Context, userID string) (int64, error)
	IncrementTokenVersion(ctx context.Context, userID string) (int64, error)
}

type Observer interface {
	ObserveLogout(userID string, newVersion int64)
}

type Authority struct {
	store    VersionStore
	observer Observer
}

func NewAuthority(store VersionStore) *Authority {
	return &Authority{store: store}
}

// WithObserver attaches a hook notified after each successful bump.
func (a *Authority) WithObserver(o Observer) *Authority {
	a.observer = o
	return a
}

func (a *Authority) GetVersion(ctx context.Context, userID string) (int64, error) {
	v, err := a.store.TokenVersion(ctx, userID)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return DefaultVersion, nil
	}
	return v, nil
}

func (a *Authority) IncrementVersion(ctx context.Context, userID string) (int64, error) {
	v, err := a.store.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("increment token version: %w", err)
	}
	return v, nil
}

// IsVersionValid is exact equality with the stored version. Older and
// newer presented versions are both rejected.
func (a *Authority) IsVersionValid(ctx context.Context, userID string, presented int64) (bool, error) {
	current, err := a.GetVersion(ctx, userID)
	if err != nil {
		return false, err
	}
	return presented == current, nil
}

// LogoutAllDevices revokes every token ever issued to the user. There is
// no per-device variant.
func (a *Authority) LogoutAllDevices(ctx context.Context, userID string) (int64, error) {
	v, err := a.IncrementVersion(ctx, userID)
	if err != nil {
		return 0, err
	}

	if a.observer != nil {
		a.observer.ObserveLogout(userID, v)
	}
	return v, nil
}
