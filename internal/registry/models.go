package registry

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
)

// Record is one minted document.
type Record struct {
	ID       uint64         `json:"id"`
	Owner    common.Address `json:"owner"`
	Approved common.Address `json:"approved"`
	// Source is the registry address the mint was requested for; for
	// tokenized records it is the minting adapter.
	Source     common.Address  `json:"source"`
	Schema     string          `json:"schema,omitempty"`
	ExternalID string          `json:"external_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	PayloadCID string          `json:"payload_cid,omitempty"`
	ReleasedAt string          `json:"released_at,omitempty"`
	MintedBy   common.Address  `json:"minted_by"`
	Delegated  bool            `json:"delegated"`
	MintedAt   time.Time       `json:"minted_at"`
}

func (r *Record) clone() Record {
	out := *r
	if r.Payload != nil {
		out.Payload = append(json.RawMessage(nil), r.Payload...)
	}
	return out
}

// TokenizeRequest mints one record carrying a structured payload.
type TokenizeRequest struct {
	Recipient  common.Address
	Schema     string
	ExternalID string
	Payload    json.RawMessage
	ReleasedAt string
}

// EventKind names a journaled state change.
type EventKind string

const (
	EventTransfer         EventKind = "transfer"
	EventApproval         EventKind = "approval"
	EventApprovalForAll   EventKind = "approval_for_all"
	EventTokenized        EventKind = "tokenized"
	EventMetadataUpdated  EventKind = "metadata_updated"
	EventRoleGranted      EventKind = "role_granted"
	EventRoleRevoked      EventKind = "role_revoked"
	EventRoleAdminChanged EventKind = "role_admin_changed"
)

// Event is one journal entry. Seq is strictly increasing within an Epoch and
// starts at 1. Fields that do not apply to Kind are zero.
type Event struct {
	Seq      uint64         `json:"seq"`
	Epoch    string         `json:"epoch"`
	Kind     EventKind      `json:"kind"`
	Registry common.Address `json:"registry"`
	RecordID uint64         `json:"record_id,omitempty"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved,omitempty"`

	Schema     string `json:"schema,omitempty"`
	ExternalID string `json:"external_id,omitempty"`

	Role          access.Role    `json:"role"`
	PreviousAdmin access.Role    `json:"previous_admin"`
	NewAdmin      access.Role    `json:"new_admin"`
	Account       common.Address `json:"account"`
	Sender        common.Address `json:"sender"`

	MetadataHandle common.Address `json:"metadata_handle"`

	At time.Time `json:"at"`
}
