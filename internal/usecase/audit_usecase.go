package usecase

import (
	"context"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// AuditLogUsecase は管理者向けの監査ログ照会。
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListInput struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.ActorUserID != "" {
		f.ActorUserID = &in.ActorUserID
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		switch a {
		case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus, model.AuditActionWriteProduct:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		switch rt {
		case model.AuditResourceProduct, model.AuditResourceOrder:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &rt
	}
	if in.ResourceID != "" {
		f.ResourceID = &in.ResourceID
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
