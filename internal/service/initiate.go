package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bestrong/payments/internal/config"
	"github.com/bestrong/payments/internal/gateway"
	"github.com/bestrong/payments/internal/models"
	"github.com/bestrong/payments/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiationService starts a charge with the provider and records it as
// PENDING. Initiation itself writes nothing until the provider has
// assigned a transaction id.
type InitiationService struct {
	gateway GatewayClient
	repo    repository.TransactionRepository
	cfg     config.GatewayConfig
	logger  *slog.Logger
}

// NewInitiationService creates a new InitiationService
func NewInitiationService(
	gatewayClient GatewayClient,
	repo repository.TransactionRepository,
	cfg config.GatewayConfig,
	logger *slog.Logger,
) *InitiationService {
	return &InitiationService{
		gateway: gatewayClient,
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
	}
}

// InitiateInput carries the caller-supplied charge parameters
type InitiateInput struct {
	Phone        string
	Currency     string
	Country      string
	Reference    string
	OperatorHint string
	Amount       decimal.Decimal
}

// Initiate validates the request, starts the charge with the provider
// and persists the PENDING transaction
func (s *InitiationService) Initiate(ctx context.Context, input InitiateInput) (*models.Transaction, *gateway.PendingCharge, error) {
	if err := s.validate(input); err != nil {
		return nil, nil, err
	}

	reference := input.Reference
	if reference == "" {
		reference = "BSTRONG-" + uuid.NewString()
	}

	charge, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		Reference:    reference,
		Phone:        input.Phone,
		Country:      input.Country,
		Currency:     input.Currency,
		OperatorHint: input.OperatorHint,
		Amount:       input.Amount,
	})
	if err != nil {
		return nil, nil, &ServiceError{
			Code:    ErrCodeUpstream,
			Message: "charge initiation failed",
			Err:     err,
		}
	}

	txn, err := s.repo.CreateIfAbsent(ctx, &models.Transaction{
		ID:          charge.TransactionID,
		ExternalRef: reference,
		Amount:      charge.Amount,
		Fee:         charge.Fee,
		Currency:    input.Currency,
		PayerPhone:  input.Phone,
		Status:      models.TransactionStatusPending,
	})
	if err != nil {
		return nil, nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to persist transaction %s", charge.TransactionID),
			Err:     err,
		}
	}

	s.logger.Info("charge initiated",
		"transaction_id", txn.ID,
		"reference", reference,
		"amount", input.Amount,
		"currency", input.Currency,
	)

	return txn, charge, nil
}

func (s *InitiationService) validate(input InitiateInput) error {
	if input.Amount.LessThan(s.cfg.MinAmount) {
		return &ServiceError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("amount below provider minimum of %s", s.cfg.MinAmount),
		}
	}
	if input.Phone == "" {
		return &ServiceError{Code: ErrCodeValidation, Message: "phone is required"}
	}
	if input.Currency == "" {
		return &ServiceError{Code: ErrCodeValidation, Message: "currency is required"}
	}
	if input.Country == "" {
		return &ServiceError{Code: ErrCodeValidation, Message: "country is required"}
	}
	return nil
}
