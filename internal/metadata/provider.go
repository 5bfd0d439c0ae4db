// Package metadata supplies the display metadata of a record registry.
//
// A registry holds a handle to its provider and asks it for names and URIs on
// every read, so repointing the handle changes what readers see without
// touching any record.
package metadata

import (
	"strconv"
	"strings"

	dErrors "docreg/pkg/domain-errors"
)

// IDPlaceholder is replaced with the decimal record id in TokenURITemplate.
const IDPlaceholder = "{id}"

// Descriptor is the collection-level metadata.
type Descriptor struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	ContractURI      string `json:"contract_uri"`
	TokenURITemplate string `json:"token_uri_template,omitempty"`
}

// Validate checks the fields every registry displays.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if strings.TrimSpace(d.Symbol) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "symbol is required")
	}
	return nil
}

// URIFor expands the template for id. Templates without the placeholder get
// the id appended; an empty template yields an empty URI.
func (d Descriptor) URIFor(id uint64) string {
	if d.TokenURITemplate == "" {
		return ""
	}
	idStr := strconv.FormatUint(id, 10)
	if strings.Contains(d.TokenURITemplate, IDPlaceholder) {
		return strings.ReplaceAll(d.TokenURITemplate, IDPlaceholder, idStr)
	}
	return d.TokenURITemplate + idStr
}

// Provider is what a registry reads its metadata from.
type Provider interface {
	Describe() Descriptor
	URIFor(id uint64) string
}

// Static is an immutable provider.
type Static struct {
	desc Descriptor
}

func NewStatic(desc Descriptor) (*Static, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Static{desc: desc}, nil
}

func (s *Static) Describe() Descriptor { return s.desc }

func (s *Static) URIFor(id uint64) string { return s.desc.URIFor(id) }

// DocumentDescriptor is the metadata the document registry ships with.
func DocumentDescriptor() Descriptor {
	return Descriptor{
		Name:        "DBM Documents",
		Symbol:      "DBMDocu",
		ContractURI: "ipfs://QmXoypizjW3WknFiJnKLwHCnL72vedxjQkDDP1mXWo6uco",
	}
}
