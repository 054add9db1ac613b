package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/framecast/internal/domain"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	safes    map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]domain.Session),
		safes:    make(map[string]string),
	}
}

func (m *memSessionStore) Put(_ context.Context, s domain.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memSessionStore) SafeForOwner(_ context.Context, owner string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	safe, ok := m.safes[strings.ToLower(owner)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return safe, nil
}

func (m *memSessionStore) PutSafeForOwner(_ context.Context, owner, safe string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.safes[strings.ToLower(owner)] = safe
	return nil
}

type fakeDeployer struct {
	mu      sync.Mutex
	deploys int
	safe    common.Address
	balance float64
}

func (f *fakeDeployer) CreateSafe(_ context.Context, _ common.Address, _ *big.Int) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deploys++
	return f.safe, nil
}

func (f *fakeDeployer) USDCBalance(context.Context, common.Address) (float64, error) {
	return f.balance, nil
}

const testOwner = "0x1234567890AbcdEF1234567890aBcdef12345678"

func TestConnectDeploysSafeOnce(t *testing.T) {
	store := newMemSessionStore()
	deployer := &fakeDeployer{safe: common.HexToAddress("0xdd")}
	svc := NewSessionService(store, deployer, time.Hour, testLogger())

	first, err := svc.Connect(context.Background(), 42, testOwner)
	if err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	second, err := svc.Connect(context.Background(), 42, testOwner)
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	if deployer.deploys != 1 {
		t.Errorf("deployments = %d, want 1 (second connect reuses safe)", deployer.deploys)
	}
	if first.SafeAddress != second.SafeAddress {
		t.Errorf("safe changed between connects: %s vs %s", first.SafeAddress, second.SafeAddress)
	}
	if first.ID == second.ID {
		t.Error("session ids should differ between connects")
	}
}

func TestConnectInvalidAddress(t *testing.T) {
	svc := NewSessionService(newMemSessionStore(), &fakeDeployer{}, time.Hour, testLogger())
	if _, err := svc.Connect(context.Background(), 1, "not-an-address"); err == nil {
		t.Error("expected error for invalid owner address")
	}
}

func TestConnectWithoutDeployerFailsForNewOwner(t *testing.T) {
	svc := NewSessionService(newMemSessionStore(), nil, time.Hour, testLogger())
	if _, err := svc.Connect(context.Background(), 1, testOwner); err == nil {
		t.Error("expected error when no safe exists and deployment is disabled")
	}
}

func TestSessionByID(t *testing.T) {
	store := newMemSessionStore()
	svc := NewSessionService(store, &fakeDeployer{safe: common.HexToAddress("0xdd")}, time.Hour, testLogger())

	issued, err := svc.Connect(context.Background(), 7, testOwner)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	got, err := svc.SessionByID(context.Background(), issued.ID)
	if err != nil {
		t.Fatalf("SessionByID: %v", err)
	}
	if got.FID != 7 {
		t.Errorf("fid = %d, want 7", got.FID)
	}

	if _, err := svc.SessionByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBalance(t *testing.T) {
	deployer := &fakeDeployer{balance: 12.5}
	svc := NewSessionService(newMemSessionStore(), deployer, time.Hour, testLogger())

	got, err := svc.Balance(context.Background(), domain.Session{SafeAddress: "0xdd"})
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 12.5 {
		t.Errorf("balance = %v, want 12.5", got)
	}
}
