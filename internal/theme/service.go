package theme

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/marketplace-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

// DefaultMode applies until an owner picks a mode.
const DefaultMode = enums.ThemeModeSystem

// Service reads and updates display-mode preferences.
type Service struct {
	store Store
	logg  *logger.Logger
}

func NewService(store Store, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("theme store is required")
	}
	return &Service{store: store, logg: logg}, nil
}

// Get returns the owner's mode. A store failure degrades to DefaultMode.
func (s *Service) Get(ctx context.Context, owner string) enums.ThemeMode {
	mode, ok, err := s.store.Load(ctx, strings.TrimSpace(owner))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithCartOwner(ctx, owner), "theme load failed", err)
		}
		return DefaultMode
	}
	if !ok {
		return DefaultMode
	}
	return mode
}

func (s *Service) Set(ctx context.Context, owner string, mode enums.ThemeMode) (enums.ThemeMode, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "owner is required")
	}
	if !mode.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "mode must be light, dark or system")
	}
	if err := s.store.Save(ctx, owner, mode); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "theme could not be saved")
	}
	return mode, nil
}

// Toggle flips light and dark. An owner on system mode moves to dark.
func (s *Service) Toggle(ctx context.Context, owner string) (enums.ThemeMode, error) {
	return s.Set(ctx, owner, Next(s.Get(ctx, owner)))
}

// Next is the mode Toggle moves to from current.
func Next(current enums.ThemeMode) enums.ThemeMode {
	if current == enums.ThemeModeDark {
		return enums.ThemeModeLight
	}
	return enums.ThemeModeDark
}
