package app

import (
	"context"
	"time"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
)

type AccessRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockAsset(ctx context.Context, assetID int64) error
	CreateDeviceLink(ctx context.Context, link domain.DeviceLink) error
	GetDeviceLink(ctx context.Context, deviceID string) (domain.DeviceLink, error)
	DeleteDeviceLink(ctx context.Context, deviceID string) error
	ListDeviceLinks(ctx context.Context) ([]domain.DeviceLink, error)
	FindActiveReservation(ctx context.Context, assetID int64, renter string, now time.Time) (*domain.Reservation, error)
}

// AccessService grants time-boxed physical access: a device unlocks for an
// identity only while that identity has an active reservation covering now.
type AccessService struct {
	repo          AccessRepository
	ledger        MajorityResolver
	clock         clock.Clock
	adminIdentity string
}

func NewAccessService(repo AccessRepository, ledger MajorityResolver, clk clock.Clock, adminIdentity string) *AccessService {
	return &AccessService{
		repo:          repo,
		ledger:        ledger,
		clock:         clk,
		adminIdentity: adminIdentity,
	}
}

type LinkDeviceInput struct {
	DeviceID string
	AssetID  int64
	Caller   string
}

// LinkDevice binds a device to an asset. Majority holders only.
func (s *AccessService) LinkDevice(ctx context.Context, in LinkDeviceInput) (domain.DeviceLink, error) {
	if in.DeviceID == "" || in.Caller == "" {
		return domain.DeviceLink{}, domain.ErrInvalidID
	}

	link := domain.DeviceLink{
		DeviceID:  in.DeviceID,
		AssetID:   in.AssetID,
		LinkedBy:  in.Caller,
		CreatedAt: s.clock.Now(),
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockAsset(txCtx, in.AssetID); err != nil {
			return err
		}
		majority, err := s.ledger.CurrentMajorityHolder(txCtx, in.AssetID)
		if err != nil {
			if err == domain.ErrNoHolders {
				return domain.ErrNotAuthorized
			}
			return err
		}
		if majority.Holder != in.Caller {
			return domain.ErrNotAuthorized
		}
		return s.repo.CreateDeviceLink(txCtx, link)
	})
	if err != nil {
		return domain.DeviceLink{}, err
	}
	return link, nil
}

// UnlinkDevice removes a device binding. Majority holder or platform admin.
func (s *AccessService) UnlinkDevice(ctx context.Context, deviceID, caller string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		link, err := s.repo.GetDeviceLink(txCtx, deviceID)
		if err != nil {
			return err
		}
		if caller != s.adminIdentity {
			if err := s.repo.LockAsset(txCtx, link.AssetID); err != nil {
				return err
			}
			majority, err := s.ledger.CurrentMajorityHolder(txCtx, link.AssetID)
			if err != nil {
				if err == domain.ErrNoHolders {
					return domain.ErrNotAuthorized
				}
				return err
			}
			if majority.Holder != caller {
				return domain.ErrNotAuthorized
			}
		}
		return s.repo.DeleteDeviceLink(txCtx, deviceID)
	})
}

// Authorize reports whether identity may unlock the device right now, and
// which reservation grants it. Pure read; safe to call on every attempt.
func (s *AccessService) Authorize(ctx context.Context, deviceID, identity string) (bool, string, error) {
	link, err := s.repo.GetDeviceLink(ctx, deviceID)
	if err != nil {
		return false, "", err
	}
	res, err := s.repo.FindActiveReservation(ctx, link.AssetID, identity, s.clock.Now())
	if err != nil {
		return false, "", err
	}
	if res == nil {
		return false, "", nil
	}
	return true, res.ID, nil
}

func (s *AccessService) ListDeviceLinks(ctx context.Context) ([]domain.DeviceLink, error) {
	return s.repo.ListDeviceLinks(ctx)
}
