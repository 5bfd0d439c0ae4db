package registry

import (
	"bytes"
	"encoding/json"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	dErrors "docreg/pkg/domain-errors"
)

// canonicalPayload re-encodes raw with sorted object keys and no insignificant
// whitespace, so equal documents hash to the same CID. Numbers keep their
// original text.
func canonicalPayload(raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload is not valid JSON")
	}
	if dec.More() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payload has trailing data")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload cannot be encoded")
	}
	return out, nil
}

// PayloadCID is the CIDv1 (raw codec, sha2-256) of a canonical payload.
func PayloadCID(canonical []byte) (string, error) {
	sum, err := multihash.Sum(canonical, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}
