package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/models"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRewardsConfig() config.RewardsConfig {
	return config.RewardsConfig{
		CreditsPerUnit:       decimal.NewFromInt(1),
		ExperiencePoints:     50,
		ReferrerBonusCredits: 1000,
	}
}

// fakeGateway is a scriptable GatewayClient
type fakeGateway struct {
	mu           sync.Mutex
	initiateFunc func(ctx context.Context, req gateway.InitiateRequest) (*gateway.PendingCharge, error)
	checkFunc    func(ctx context.Context, transactionID string) (gateway.Outcome, error)
	checkCalls   int
}

func (f *fakeGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.PendingCharge, error) {
	return f.initiateFunc(ctx, req)
}

func (f *fakeGateway) Check(ctx context.Context, transactionID string) (gateway.Outcome, error) {
	f.mu.Lock()
	f.checkCalls++
	f.mu.Unlock()
	return f.checkFunc(ctx, transactionID)
}

func (f *fakeGateway) CheckCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkCalls
}

// fakeUserDirectory records credit applications per user
type fakeUserDirectory struct {
	mu      sync.Mutex
	users   map[string]*models.User // keyed by phone
	credits map[string][]int64      // userID -> credit deltas
	addErr  error
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{
		users:   make(map[string]*models.User),
		credits: make(map[string][]int64),
	}
}

func (f *fakeUserDirectory) addUser(user *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Phone] = user
}

func (f *fakeUserDirectory) LookupByPhone(_ context.Context, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[phone]
	if !ok {
		return nil, models.ErrNotFound
	}
	dup := *user
	return &dup, nil
}

func (f *fakeUserDirectory) AddCredits(_ context.Context, userID string, credits, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.credits[userID] = append(f.credits[userID], credits)
	return nil
}

func (f *fakeUserDirectory) creditCalls(userID string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.credits[userID]...)
}

// fakeNotifier counts enqueued notices
type fakeNotifier struct {
	mu      sync.Mutex
	notices []models.RewardSummary
	err     error
}

func (f *fakeNotifier) PaymentConfirmed(_ context.Context, _ string, summary models.RewardSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, summary)
	return nil
}

func (f *fakeNotifier) noticeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}

func acceptedOutcome(transactionID string) gateway.Outcome {
	return gateway.Outcome{
		TransactionID: transactionID,
		Status:        gateway.OutcomeAccepted,
		Raw:           []byte(`{"status":"successful"}`),
	}
}

func refusedOutcome(transactionID string) gateway.Outcome {
	return gateway.Outcome{
		TransactionID: transactionID,
		Status:        gateway.OutcomeRefused,
		Raw:           []byte(`{"status":"failed"}`),
	}
}

func pendingOutcome(transactionID string) gateway.Outcome {
	return gateway.Outcome{
		TransactionID: transactionID,
		Status:        gateway.OutcomeStillPending,
		Raw:           []byte(`{"status":"pending"}`),
	}
}
