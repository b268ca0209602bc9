package domain

import dErrors "crossgate/pkg/domain-errors"

// AuthorityTeam is a specialist team a submission can be escalated to.
// Invariant: the value must be one of the supported teams.
//
// Usage: construct via ParseAuthorityTeam at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type AuthorityTeam string

// Supported escalation targets.
const (
	TeamLegal    AuthorityTeam = "Legal"
	TeamBusiness AuthorityTeam = "Business"
	TeamDISO     AuthorityTeam = "DISO"
	TeamFinance  AuthorityTeam = "Finance"
	TeamPrivacy  AuthorityTeam = "Privacy"
)

// validAuthorityTeams is the single source of truth for valid teams.
var validAuthorityTeams = map[AuthorityTeam]bool{
	TeamLegal:    true,
	TeamBusiness: true,
	TeamDISO:     true,
	TeamFinance:  true,
	TeamPrivacy:  true,
}

func (t AuthorityTeam) IsValid() bool { return validAuthorityTeams[t] }

func (t AuthorityTeam) String() string { return string(t) }

// ParseAuthorityTeam constructs an AuthorityTeam from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseAuthorityTeam(s string) (AuthorityTeam, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "authority team cannot be empty")
	}
	t := AuthorityTeam(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported authority team: "+s)
	}
	return t, nil
}

// AllAuthorityTeams returns the supported teams in display order.
func AllAuthorityTeams() []AuthorityTeam {
	return []AuthorityTeam{TeamLegal, TeamBusiness, TeamDISO, TeamFinance, TeamPrivacy}
}
