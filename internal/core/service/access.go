package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

const (
	AccessAdvisory = "advisory"
	AccessEnforce  = "enforce"
)

// NewAccessPolicy returns the policy named by mode.
func NewAccessPolicy(mode string, log zerolog.Logger) (ports.AccessPolicy, error) {
	switch mode {
	case "", AccessAdvisory:
		return AdvisoryPolicy{log: log}, nil
	case AccessEnforce:
		return EnforcingPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown access policy %q", mode)
	}
}

// AdvisoryPolicy never denies. It logs calls an enforcing policy would
// reject so the gap stays visible.
type AdvisoryPolicy struct {
	log zerolog.Logger
}

func (p AdvisoryPolicy) Authorize(actor ports.Actor, capability ports.Capability) error {
	if !permitted(actor, capability) {
		p.log.Warn().
			Int64("actor_id", actor.UserID).
			Str("actor_role", string(actor.Role)).
			Str("capability", string(capability)).
			Msg("capability not held by caller (advisory)")
	}
	return nil
}

// EnforcingPolicy rejects callers lacking the capability.
type EnforcingPolicy struct{}

// Authorize returns domain.ErrForbidden when actor lacks capability.
func (EnforcingPolicy) Authorize(actor ports.Actor, capability ports.Capability) error {
	if !permitted(actor, capability) {
		return domain.ErrForbidden
	}
	return nil
}

func permitted(actor ports.Actor, capability ports.Capability) bool {
	switch capability {
	case ports.CapManageUsers, ports.CapReadAllClients:
		return actor.Role == domain.RoleAdmin
	default:
		return true
	}
}
