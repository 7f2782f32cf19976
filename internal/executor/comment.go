package executor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	auditVersion = "1"
	auditMaxLen  = 100
)

// AuditFields is the decoded content of an order comment.
type AuditFields struct {
	Version    string
	HMMState   int
	ActionIdx  int
	Intensity  int
	BalanceInt int
	DDPct      float64
	VPnL       float64
}

// BuildComment renders the fixed-schema audit string attached to every
// order: O|<ver>|<hmm_state>|<action_idx>|<intensity>|<balance_int>|<dd_pct_1dp>|<vpnl_2dp>.
// The string is constructed to stay within auditMaxLen by construction;
// if it ever doesn't, it is truncated from the right only.
func BuildComment(f AuditFields) string {
	s := fmt.Sprintf("O|%s|%d|%d|%d|%d|%.1f|%.2f",
		f.Version, f.HMMState, f.ActionIdx, f.Intensity, f.BalanceInt, f.DDPct, f.VPnL)
	if len(s) > auditMaxLen {
		s = s[:auditMaxLen]
	}
	return s
}

// ParseComment reverses BuildComment. Returns an error if the string
// doesn't match the expected field count.
func ParseComment(s string) (AuditFields, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 8 || parts[0] != "O" {
		return AuditFields{}, fmt.Errorf("malformed audit comment: %q", s)
	}
	var f AuditFields
	f.Version = parts[1]
	var err error
	if f.HMMState, err = strconv.Atoi(parts[2]); err != nil {
		return AuditFields{}, err
	}
	if f.ActionIdx, err = strconv.Atoi(parts[3]); err != nil {
		return AuditFields{}, err
	}
	if f.Intensity, err = strconv.Atoi(parts[4]); err != nil {
		return AuditFields{}, err
	}
	if f.BalanceInt, err = strconv.Atoi(parts[5]); err != nil {
		return AuditFields{}, err
	}
	if f.DDPct, err = strconv.ParseFloat(parts[6], 64); err != nil {
		return AuditFields{}, err
	}
	if f.VPnL, err = strconv.ParseFloat(parts[7], 64); err != nil {
		return AuditFields{}, err
	}
	return f, nil
}
