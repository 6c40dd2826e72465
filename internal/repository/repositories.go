package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo       UserRepository
	TenantRepo     TenantRepository
	MemberRepo     MemberRepository
	InvitationRepo InvitationRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:       NewUserRepository(pool),
		TenantRepo:     NewTenantRepository(pool),
		MemberRepo:     NewMemberRepository(pool),
		InvitationRepo: NewInvitationRepository(pool),
	}
}
