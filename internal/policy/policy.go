// Package policy holds the role → escalation-target table. The table is
// configuration, not logic: deployments override it with JSON and the engine
// only enforces membership.
package policy

import (
	"encoding/json"
	"fmt"

	"crossgate/pkg/domain"
)

// EscalationPolicy maps an actor role to the authority teams it may escalate
// to. Roles absent from the table may not escalate at all.
type EscalationPolicy struct {
	targets map[string][]domain.AuthorityTeam
}

// Default returns the built-in table: Admin escalates anywhere; Legal
// escalates onward to the non-legal teams; specialist teams do not escalate.
func Default() *EscalationPolicy {
	return &EscalationPolicy{targets: map[string][]domain.AuthorityTeam{
		"Admin": domain.AllAuthorityTeams(),
		"Legal": {domain.TeamBusiness, domain.TeamDISO, domain.TeamFinance, domain.TeamPrivacy},
	}}
}

// FromJSON parses an override of shape {"Role": ["Team", ...], ...}. Unknown
// team names are rejected so a typo cannot silently widen a role's reach.
func FromJSON(raw string) (*EscalationPolicy, error) {
	var parsed map[string][]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse escalation policy: %w", err)
	}
	targets := make(map[string][]domain.AuthorityTeam, len(parsed))
	for role, teams := range parsed {
		for _, team := range teams {
			parsedTeam, err := domain.ParseAuthorityTeam(team)
			if err != nil {
				return nil, fmt.Errorf("escalation policy role %q: %w", role, err)
			}
			targets[role] = append(targets[role], parsedTeam)
		}
	}
	return &EscalationPolicy{targets: targets}, nil
}

// Load returns the default table or the JSON override when non-empty.
func Load(overrideJSON string) (*EscalationPolicy, error) {
	if overrideJSON == "" {
		return Default(), nil
	}
	return FromJSON(overrideJSON)
}

// Allows reports whether the role may escalate to the target team.
func (p *EscalationPolicy) Allows(role string, target domain.AuthorityTeam) bool {
	for _, allowed := range p.targets[role] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TargetsFor returns the teams the role may escalate to, in table order.
func (p *EscalationPolicy) TargetsFor(role string) []domain.AuthorityTeam {
	return append([]domain.AuthorityTeam{}, p.targets[role]...)
}
