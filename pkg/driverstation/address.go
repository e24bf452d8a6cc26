package driverstation

import (
	"fmt"

	"github.com/fieldcontrol/ds-client/pkg/dserr"
)

// LoopbackOverrideHost is the address SetUseLoopbackTransport(true) targets
// instead of the team-derived IP.
const LoopbackOverrideHost = "172.22.11.2"

// IPFromTeamNumber derives a controller's IPv4 address from its FRC team
// number:
//
//	len(s) == 1 or 2: 10.0.<T>.2
//	len(s) == 3:      10.<s[0]>.<s[1:3]>.2
//	len(s) == 4:      10.<s[0:2]>.<s[2:4]>.2
func IPFromTeamNumber(team int) (string, error) {
	if team < 1 || team > 9999 {
		return "", fmt.Errorf("driverstation: %w: team number %d out of range 1-9999", dserr.ErrTargetUnresolvable, team)
	}
	s := fmt.Sprintf("%d", team)
	switch len(s) {
	case 1, 2:
		return fmt.Sprintf("10.0.%s.2", s), nil
	case 3:
		return fmt.Sprintf("10.%s.%s.2", s[0:1], s[1:3]), nil
	case 4:
		return fmt.Sprintf("10.%s.%s.2", s[0:2], s[2:4]), nil
	default:
		return "", fmt.Errorf("driverstation: %w: team number %d out of range 1-9999", dserr.ErrTargetUnresolvable, team)
	}
}
