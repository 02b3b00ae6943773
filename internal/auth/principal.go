package auth

import (
	"fmt"
	"strings"
)

// Staff ranks. Higher outranks lower; zero means "not staff".
const (
	RankNone   = 0
	RankWorker = 1
	RankAdmin  = 2
	RankMaster = 3
)

// StaffTypes lists the staff principal types from lowest to highest rank.
var StaffTypes = []PrincipalType{PrincipalTypeWorker, PrincipalTypeAdmin, PrincipalTypeMaster}

// Rank maps a staff type to its position in the hierarchy. Clients and
// unknown types rank RankNone.
func (t PrincipalType) Rank() int {
	switch t {
	case PrincipalTypeMaster:
		return RankMaster
	case PrincipalTypeAdmin:
		return RankAdmin
	case PrincipalTypeWorker:
		return RankWorker
	default:
		return RankNone
	}
}

// IsStaff reports whether t belongs to the staff hierarchy.
func (t PrincipalType) IsStaff() bool {
	return t.Rank() > RankNone
}

// IsClient reports whether t is the client branch.
func (t PrincipalType) IsClient() bool {
	return t == PrincipalTypeClient
}

// Valid reports whether t is one of the four known types.
func (t PrincipalType) Valid() bool {
	return t.IsStaff() || t.IsClient()
}

func (t PrincipalType) String() string {
	return string(t)
}

// ParsePrincipalType parses a type name case-insensitively.
func ParsePrincipalType(s string) (PrincipalType, error) {
	t := PrincipalType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown principal type %q", s)
	}
	return t, nil
}

// ParseStaffRole parses a staff role name; "client" is rejected.
func ParseStaffRole(s string) (PrincipalType, error) {
	t, err := ParsePrincipalType(s)
	if err != nil {
		return "", err
	}
	if !t.IsStaff() {
		return "", fmt.Errorf("%q is not a staff role (want worker, admin or master)", s)
	}
	return t, nil
}
