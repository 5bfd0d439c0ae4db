package schema

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "docreg/pkg/domain-errors"
)

const SAROName = "saro"

// SARO is a Special Allotment Release Order.
type SARO struct {
	SARONumber    string `json:"saroNumber"`
	Amount        string `json:"amount"`
	Department    string `json:"department"`
	Agency        string `json:"agency"`
	OperatingUnit string `json:"operatingUnit"`
	Purpose       string `json:"purpose"`
	QRID          string `json:"qrId"`
	ReleasedDate  string `json:"releasedDate"`
}

func validateSARO(s SARO) error {
	if strings.TrimSpace(s.SARONumber) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "saroNumber is required")
	}
	return nil
}

// NewSARO builds the SARO adapter.
func NewSARO(address common.Address, baseURI string, document Tokenizer, admin common.Address, opts ...Option) *Adapter[SARO] {
	return NewAdapter(SAROName, address, baseURI, document, admin, validateSARO, opts...)
}
