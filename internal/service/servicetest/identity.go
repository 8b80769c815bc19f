package servicetest

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/groupmeal/groupmeal-backend/internal/domain/company"
	"github.com/groupmeal/groupmeal-backend/internal/domain/invitation"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
)

type userRepo struct{ s *Store }

func (s *Store) Users() user.UserRepository { return &userRepo{s} }

func (r *userRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepo) GetByExternalID(_ context.Context, externalID string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *userRepo) Upsert(_ context.Context, p user.IdentityProfile) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Upsert"); err != nil {
		return user.User{}, err
	}
	for id, u := range r.s.st.users {
		if u.ExternalID == p.ExternalID {
			u.Email = p.Email
			u.DisplayName = p.DisplayName
			if p.Role != nil {
				u.Role = *p.Role
			}
			u.UpdatedAt = r.s.tick()
			r.s.st.users[id] = u
			return u, nil
		}
	}
	u := user.User{
		ID:          uuid.NewString(),
		ExternalID:  p.ExternalID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        user.RoleEmployee,
		CreatedAt:   r.s.tick(),
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = u.CreatedAt
	r.s.st.users[u.ID] = u
	return u, nil
}

func (r *userRepo) DeleteByExternalID(_ context.Context, externalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.st.users {
		if u.ExternalID == externalID {
			delete(r.s.st.users, id)
			return nil
		}
	}
	return user.ErrUserNotFound
}

func (r *userRepo) ListByCompanyID(_ context.Context, companyID string) ([]user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.ListByCompanyID"); err != nil {
		return nil, err
	}
	out := make([]user.User, 0)
	for _, u := range r.s.st.users {
		if u.BelongsTo(companyID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) UpdateRole(_ context.Context, id string, role user.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	r.s.st.users[id] = u
	return nil
}

func (r *userRepo) UpdateCompanyAndRole(_ context.Context, id string, companyID *string, role user.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.UpdateCompanyAndRole"); err != nil {
		return err
	}
	u, ok := r.s.st.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	if companyID != nil {
		c := *companyID
		u.CompanyID = &c
	} else {
		u.CompanyID = nil
	}
	u.Role = role
	r.s.st.users[id] = u
	return nil
}

type companyRepo struct{ s *Store }

func (s *Store) Companies() company.CompanyRepository { return &companyRepo{s} }

func (r *companyRepo) GetByID(_ context.Context, id string) (company.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (r *companyRepo) Create(_ context.Context, c company.Company) (company.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.st.companies[c.ID] = c
	return c, nil
}

func (r *companyRepo) EnsureExists(_ context.Context, id, name string, createdBy *string) (company.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("companies.EnsureExists"); err != nil {
		return company.Company{}, err
	}
	if c, ok := r.s.st.companies[id]; ok {
		return c, nil
	}
	c := company.Company{ID: id, Name: name, CreatedBy: createdBy, CreatedAt: r.s.tick()}
	c.UpdatedAt = c.CreatedAt
	r.s.st.companies[id] = c
	return c, nil
}

func (r *companyRepo) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.st.companies[id]
	return ok, nil
}

func (r *companyRepo) UpdateName(_ context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.companies[id]
	if !ok {
		return company.ErrCompanyNotFound
	}
	c.Name = name
	r.s.st.companies[id] = c
	return nil
}

type invitationRepo struct{ s *Store }

func (s *Store) Invitations() invitation.InvitationRepository { return &invitationRepo{s} }

func (r *invitationRepo) Create(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.invitations {
		if existing.Code == inv.Code {
			return invitation.Invitation{}, invitation.ErrCodeGenerationExhausted
		}
	}
	inv.ID = uuid.NewString()
	inv.UsedBy = append([]string{}, inv.UsedBy...)
	inv.CreatedAt = r.s.tick()
	inv.UpdatedAt = inv.CreatedAt
	r.s.st.invitations[inv.ID] = inv
	return inv, nil
}

func (r *invitationRepo) GetByID(_ context.Context, id string) (invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.st.invitations[id]
	if !ok {
		return invitation.Invitation{}, invitation.ErrInvitationNotFound
	}
	inv.UsedBy = append([]string{}, inv.UsedBy...)
	return inv, nil
}

func (r *invitationRepo) GetByCodeForUpdate(ctx context.Context, code string) (invitation.Invitation, error) {
	return r.GetByCode(ctx, code)
}

func (r *invitationRepo) GetByCode(_ context.Context, code string) (invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.st.invitations {
		if inv.Code == code {
			inv.UsedBy = append([]string{}, inv.UsedBy...)
			return inv, nil
		}
	}
	return invitation.Invitation{}, invitation.ErrInvitationNotFound
}

func (r *invitationRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.st.invitations {
		if inv.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *invitationRepo) ListByCompanyID(_ context.Context, companyID string) ([]invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]invitation.Invitation, 0)
	for _, inv := range r.s.st.invitations {
		if inv.CompanyID == companyID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *invitationRepo) SaveRedemption(_ context.Context, inv invitation.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.st.invitations[inv.ID]
	if !ok {
		return invitation.ErrInvitationNotFound
	}
	stored.UsedBy = append([]string{}, inv.UsedBy...)
	stored.UsedCount = inv.UsedCount
	stored.IsActive = inv.IsActive
	r.s.st.invitations[inv.ID] = stored
	return nil
}

func (r *invitationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.invitations[id]; !ok {
		return invitation.ErrInvitationNotFound
	}
	delete(r.s.st.invitations, id)
	return nil
}

func (r *invitationRepo) NextCodeSequence(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.st.codeSeq++
	return r.s.st.codeSeq, nil
}
