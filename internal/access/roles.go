package access

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "docreg/pkg/domain-errors"
)

// Role is a 32-byte role identifier. Named roles are the keccak-256 digest of
// their UTF-8 name; the zero value is DefaultAdminRole.
type Role [32]byte

// DefaultAdminRole administers every role whose admin was never changed.
var DefaultAdminRole Role

var (
	MinterRole  = RoleFromName("MINTER_ROLE")
	CuratorRole = RoleFromName("CURATOR_ROLE")
	// ApproveRole holders act as operator for every owner's records.
	ApproveRole = RoleFromName("APPROVE_ROLE")
)

const defaultAdminRoleName = "DEFAULT_ADMIN_ROLE"

var knownRoles = map[Role]string{
	DefaultAdminRole: defaultAdminRoleName,
	MinterRole:       "MINTER_ROLE",
	CuratorRole:      "CURATOR_ROLE",
	ApproveRole:      "APPROVE_ROLE",
}

// RoleFromName derives a role id. DEFAULT_ADMIN_ROLE and the empty name map to
// the zero id rather than to a digest.
func RoleFromName(name string) Role {
	if name == "" || name == defaultAdminRoleName {
		return DefaultAdminRole
	}
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(name))
	var r Role
	copy(r[:], h.Sum(nil))
	return r
}

// ParseRole accepts either a 0x-prefixed 32-byte hex id or a role name.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Role{}, dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	if !strings.HasPrefix(s, "0x") {
		return RoleFromName(s), nil
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil || len(raw) != len(Role{}) {
		return Role{}, dErrors.New(dErrors.CodeInvalidInput, "role id must be 32 bytes of hex")
	}
	var r Role
	copy(r[:], raw)
	return r, nil
}

// Hex returns the 0x-prefixed id.
func (r Role) Hex() string {
	return "0x" + hex.EncodeToString(r[:])
}

// String returns the role name when known, otherwise the hex id.
func (r Role) String() string {
	if name, ok := knownRoles[r]; ok {
		return name
	}
	return r.Hex()
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Hex()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
