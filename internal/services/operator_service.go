package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

type OperatorService struct {
	operatorRepo repositories.OperatorRepository
}

func NewOperatorService(operatorRepo repositories.OperatorRepository) *OperatorService {
	return &OperatorService{operatorRepo: operatorRepo}
}

func (s *OperatorService) ListOperators(ctx context.Context, includeInactive bool) ([]dtos.OperatorDTO, error) {
	list := s.operatorRepo.ListActive
	if includeInactive {
		list = s.operatorRepo.List
	}
	ops, err := list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.OperatorDTO, 0, len(ops))
	for _, op := range ops {
		out = append(out, *operatorDTO(op))
	}
	return out, nil
}

// CreateOperator adds an active operator unless req.Active says otherwise.
func (s *OperatorService) CreateOperator(ctx context.Context, req dtos.CreateOperatorRequest) (*dtos.OperatorDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", utils.ErrInvalidPayload)
	}
	op := &models.Operator{
		Name:       name,
		Email:      trimmedOrNil(req.Email),
		Phone:      trimmedOrNil(req.Phone),
		Active:     true,
		PayoutRate: constants.DefaultPayoutFraction,
	}
	if req.Active != nil {
		op.Active = *req.Active
	}
	if req.PayoutRate != nil {
		op.PayoutRate = models.NormalizePayoutRate(*req.PayoutRate)
	}
	if err := s.operatorRepo.Create(ctx, op); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"operator_id": op.ID,
		"payout_rate": op.PayoutRate,
	}).Info("Operator created")
	return operatorDTO(op), nil
}

func (s *OperatorService) UpdateOperator(ctx context.Context, id uuid.UUID, req dtos.UpdateOperatorRequest) (*dtos.OperatorDTO, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", utils.ErrInvalidPayload)
	}
	err := s.operatorRepo.UpdateWithRetry(ctx, id, func(op *models.Operator) error {
		if req.Name != nil {
			op.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			op.Email = trimmedOrNil(req.Email)
		}
		if req.Phone != nil {
			op.Phone = trimmedOrNil(req.Phone)
		}
		if req.PayoutRate != nil {
			op.PayoutRate = models.NormalizePayoutRate(*req.PayoutRate)
		}
		if req.Active != nil {
			op.Active = *req.Active
		}
		return nil
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, utils.ErrOperatorNotFound
	case errors.Is(err, repositories.ErrTooMuchContention):
		return nil, utils.ErrRowVersionConflict
	case err != nil:
		return nil, err
	}

	op, err := s.operatorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, utils.ErrOperatorNotFound
	}
	return operatorDTO(op), nil
}

// DeleteOperator removes the operator; routes it staffed are left without one.
func (s *OperatorService) DeleteOperator(ctx context.Context, id uuid.UUID) (*dtos.DeleteOperatorResponse, error) {
	deleted, cleared, err := s.operatorRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, utils.ErrOperatorNotFound
	}

	utils.Logger.WithFields(logrus.Fields{
		"operator_id":      id,
		"routes_unstaffed": cleared,
	}).Info("Operator deleted")
	return &dtos.DeleteOperatorResponse{OperatorID: id, RoutesUnstaffed: cleared}, nil
}

func operatorDTO(op *models.Operator) *dtos.OperatorDTO {
	if op == nil {
		return nil
	}
	return &dtos.OperatorDTO{
		ID:         op.ID,
		Name:       op.Name,
		Email:      op.Email,
		Phone:      op.Phone,
		Active:     op.Active,
		PayoutRate: op.PayoutRate,
		RowVersion: op.RowVersion,
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
