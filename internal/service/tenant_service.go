package service

import (
	"context"
	"errors"

	"github.com/ensina-app/ensina-backend/internal/repository"
)

type TenantService interface {
	GetByID(ctx context.Context, id string) (*repository.Tenant, error)
	// ResolveForAdmin resolves the tenant an operator acts on: the requested
	// tenant id (from the tenant-selector header) when present, otherwise the
	// caller's first membership. The caller must hold the owner or admin role
	// in the resolved tenant.
	ResolveForAdmin(ctx context.Context, userID, requested string) (string, error)
}

type tenantService struct {
	tenantRepo repository.TenantRepository
	memberRepo repository.MemberRepository
}

func NewTenantService(tenantRepo repository.TenantRepository, memberRepo repository.MemberRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo, memberRepo: memberRepo}
}

func (s *tenantService) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	if id == "" {
		return nil, errors.New("id required")
	}
	return s.tenantRepo.FindByID(ctx, id)
}

func (s *tenantService) ResolveForAdmin(ctx context.Context, userID, requested string) (string, error) {
	if userID == "" {
		return "", ErrForbidden
	}

	var member *repository.Member
	var err error
	if requested != "" {
		member, err = s.memberRepo.FindByUser(ctx, requested, userID)
	} else {
		member, err = s.memberRepo.FindFirstByUser(ctx, userID)
	}
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", ErrForbidden
	}
	if member.Role != repository.RoleOwner && member.Role != repository.RoleAdmin {
		return "", ErrForbidden
	}
	return member.TenantID, nil
}
