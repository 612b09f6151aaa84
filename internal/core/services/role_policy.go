package services

import (
	"fmt"
	"strings"

	"donorhub/internal/core/domain"
)

// elevatedRoles may only be granted by an ADMIN. Every other catalog role is self-service.
var elevatedRoles = domain.NewRoleSet(domain.RoleAdmin, domain.RoleOrganization, domain.RoleAuditor)

// ResolveRegistrationRole decides which role a new account receives. actor is
// the authenticated caller performing the registration, or nil.
func ResolveRegistrationRole(requested string, actor *domain.Identity) (domain.RoleName, error) {
	if strings.TrimSpace(requested) == "" {
		return domain.RoleUser, nil
	}

	name, known := domain.ParseRoleName(requested)
	if !known {
		return "", domain.NewError(domain.KindInvalidRole,
			fmt.Sprintf("Invalid role: %s. Public registration only allows USER or DONOR roles.", name))
	}

	if elevatedRoles.Has(name) && (actor == nil || !actor.Roles.Has(domain.RoleAdmin)) {
		return "", domain.NewError(domain.KindForbidden, "Only administrators can create users with elevated roles")
	}
	return name, nil
}

// UpgradeDecision is the outcome of planning a USER to DONOR transition
type UpgradeDecision int

const (
	// UpgradeAlreadyDonor means nothing changes
	UpgradeAlreadyDonor UpgradeDecision = iota
	// UpgradeReplaceUser means the USER membership is swapped for DONOR
	UpgradeReplaceUser
)

// PlanDonorUpgrade checks the preconditions of the self-upgrade in order:
// already a donor, then holds USER.
func PlanDonorUpgrade(roles domain.RoleSet) (UpgradeDecision, error) {
	if roles.Has(domain.RoleDonor) {
		return UpgradeAlreadyDonor, nil
	}
	if !roles.Has(domain.RoleUser) {
		return 0, domain.ErrInvalidTransition
	}
	return UpgradeReplaceUser, nil
}
