package httptransport

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"docreg/internal/access"
	"docreg/internal/metadata"
	"docreg/internal/registry"
)

// MintRequest mints one record, or Amount records on the batch routes.
// Target defaults to the registry address.
type MintRequest struct {
	Target    common.Address `json:"target"`
	Recipient common.Address `json:"recipient"`
	Amount    uint64         `json:"amount,omitempty"`
	Signature hexutil.Bytes  `json:"signature,omitempty"`
}

type TransferRequest struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	ID   uint64         `json:"id"`
}

type ApproveRequest struct {
	Operator common.Address `json:"operator"`
}

type OperatorRequest struct {
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

type MetadataRequest struct {
	Handle common.Address `json:"handle"`
}

type RoleRequest struct {
	Role    access.Role    `json:"role"`
	Account common.Address `json:"account"`
}

type SchemaMintRequest struct {
	Recipient  common.Address  `json:"recipient"`
	ContentID  string          `json:"content_id"`
	Data       json.RawMessage `json:"data"`
	ReleasedAt string          `json:"released_at"`
}

type SchemaBatchRequest struct {
	Recipient  common.Address    `json:"recipient"`
	ContentIDs []string          `json:"content_ids"`
	Data       []json.RawMessage `json:"data"`
	ReleasedAt []string          `json:"released_at"`
}

type MintedResponse struct {
	ID uint64 `json:"id"`
}

type BatchResponse struct {
	IDs []uint64 `json:"ids"`
}

type RecordResponse struct {
	registry.Record
	TokenURI string `json:"token_uri"`
}

type BalanceResponse struct {
	Owner   common.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

type RegistryResponse struct {
	Address        common.Address `json:"address"`
	TotalSupply    uint64         `json:"total_supply"`
	MetadataHandle common.Address `json:"metadata_handle"`
	metadata.Descriptor
}

type MembersResponse struct {
	Role    access.Role      `json:"role"`
	Admin   access.Role      `json:"admin"`
	Members []common.Address `json:"members"`
}

type EventsResponse struct {
	Events []registry.Event `json:"events"`
	Next   uint64           `json:"next"`
}
