package auth

import (
	"context"

	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// compensatingProvisioner serves stores that cannot share a transaction.
type compensatingProvisioner struct {
	orgs  organizations.Repo
	users users.UserRepo
}

func (p *compensatingProvisioner) Provision(ctx context.Context, org *organizations.Organization, admin *users.User) error {
	if err := p.orgs.Create(ctx, org); err != nil {
		return errors.Wrap(err, "create organization")
	}
	if admin == nil {
		return nil
	}
	admin.OrganizationID = org.ID
	if err := p.users.Create(ctx, admin); err != nil {
		if delErr := p.orgs.Delete(ctx, org.ID); delErr != nil {
			log.Err(delErr).Str("organization_id", org.ID).Msg("organization left without its admin")
		}
		return errors.Wrap(err, "create admin")
	}
	return nil
}
