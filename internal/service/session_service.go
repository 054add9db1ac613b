package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// defaultSessionTTL bounds how long a session stays valid without
// reconnecting.
const defaultSessionTTL = 24 * time.Hour

// SafeDeployer provisions and inspects Safe wallets on chain.
// *wallet.Manager satisfies it.
type SafeDeployer interface {
	CreateSafe(ctx context.Context, owner common.Address, saltNonce *big.Int) (common.Address, error)
	USDCBalance(ctx context.Context, addr common.Address) (float64, error)
}

// SessionService handles user connects. A connect resolves (or deploys) the
// user's Safe and issues a session the HTTP layer hands back as
// X-Session-ID.
type SessionService struct {
	sessions domain.SessionStore
	deployer SafeDeployer // nil disables on-chain deployment
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionService creates a SessionService. deployer may be nil, in which
// case connects from owners without a recorded Safe fail.
func NewSessionService(
	sessions domain.SessionStore,
	deployer SafeDeployer,
	ttl time.Duration,
	logger *slog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		sessions: sessions,
		deployer: deployer,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "session_service")),
	}
}

// Connect issues a session for the given owner. A returning owner gets the
// Safe recorded on their first connect; a new owner gets a fresh deployment
// when a deployer is configured.
func (s *SessionService) Connect(ctx context.Context, fid int64, ownerAddress string) (domain.Session, error) {
	if !common.IsHexAddress(ownerAddress) {
		return domain.Session{}, fmt.Errorf("session_service: invalid owner address %q", ownerAddress)
	}
	owner := common.HexToAddress(ownerAddress)

	safeAddr, err := s.sessions.SafeForOwner(ctx, owner.Hex())
	switch {
	case err == nil:
		// Existing Safe, reuse it.
	case errors.Is(err, domain.ErrNotFound):
		safeAddr, err = s.deploySafe(ctx, owner, fid)
		if err != nil {
			return domain.Session{}, err
		}
	default:
		return domain.Session{}, fmt.Errorf("session_service: safe lookup: %w", err)
	}

	session := domain.Session{
		ID:           uuid.NewString(),
		FID:          fid,
		OwnerAddress: owner.Hex(),
		SafeAddress:  safeAddr,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.sessions.Put(ctx, session, s.ttl); err != nil {
		return domain.Session{}, fmt.Errorf("session_service: store session: %w", err)
	}

	s.logger.InfoContext(ctx, "session issued",
		slog.String("session_id", session.ID),
		slog.Int64("fid", fid),
		slog.String("safe", safeAddr),
	)

	return session, nil
}

// SessionByID fetches a live session, returning domain.ErrNotFound when it
// is missing or expired.
func (s *SessionService) SessionByID(ctx context.Context, id string) (domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session_service: get session: %w", err)
	}
	return session, nil
}

// Balance returns the USDC balance of the session's Safe in dollars.
func (s *SessionService) Balance(ctx context.Context, session domain.Session) (float64, error) {
	if s.deployer == nil {
		return 0, fmt.Errorf("session_service: no chain connection configured")
	}
	balance, err := s.deployer.USDCBalance(ctx, common.HexToAddress(session.SafeAddress))
	if err != nil {
		return 0, fmt.Errorf("session_service: balance for %s: %w", session.SafeAddress, err)
	}
	return balance, nil
}

// deploySafe provisions a Safe for a first-time owner and records the
// owner-to-Safe mapping.
func (s *SessionService) deploySafe(ctx context.Context, owner common.Address, fid int64) (string, error) {
	if s.deployer == nil {
		return "", fmt.Errorf("session_service: no safe recorded for %s and deployment disabled", owner.Hex())
	}

	safe, err := s.deployer.CreateSafe(ctx, owner, big.NewInt(fid))
	if err != nil {
		return "", fmt.Errorf("session_service: deploy safe: %w", err)
	}

	if err := s.sessions.PutSafeForOwner(ctx, owner.Hex(), safe.Hex()); err != nil {
		return "", fmt.Errorf("session_service: record safe: %w", err)
	}
	return safe.Hex(), nil
}
