package schema

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "docreg/pkg/domain-errors"
)

const NCAName = "nca"

// NCA is a Notice of Cash Allocation. One notice may split its allocation
// across several operating units; OperatingUnit and Amount are parallel.
type NCA struct {
	NCANumber     string   `json:"ncaNumber"`
	NCAType       string   `json:"ncaType"`
	Department    string   `json:"department"`
	Agency        string   `json:"agency"`
	OperatingUnit []string `json:"operatingUnit"`
	Amount        []string `json:"amount"`
	TotalAmount   string   `json:"totalAmount"`
	Purpose       string   `json:"purpose"`
	QRID          string   `json:"qrId"`
	ReleasedDate  string   `json:"releasedDate"`
}

func validateNCA(n NCA) error {
	if strings.TrimSpace(n.NCANumber) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "ncaNumber is required")
	}
	if len(n.OperatingUnit) != len(n.Amount) {
		return dErrors.New(dErrors.CodeInvalidInput, "operatingUnit and amount differ in length")
	}
	return nil
}

// NewNCA builds the NCA adapter.
func NewNCA(address common.Address, baseURI string, document Tokenizer, admin common.Address, opts ...Option) *Adapter[NCA] {
	return NewAdapter(NCAName, address, baseURI, document, admin, validateNCA, opts...)
}
