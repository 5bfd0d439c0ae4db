// Package schema fronts the record registry with typed document schemas.
//
// An adapter is a minter in its own right: it holds MINTER_ROLE on the
// document registry, keeps its own role registry for who may mint through
// it, and serializes typed payloads into tokenize requests.
package schema

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"docreg/internal/access"
	"docreg/internal/registry"
	dErrors "docreg/pkg/domain-errors"
)

// Tokenizer is the slice of the record registry an adapter writes through.
type Tokenizer interface {
	Tokenize(ctx context.Context, caller common.Address, req registry.TokenizeRequest) (uint64, error)
	TokenizeBatch(ctx context.Context, caller common.Address, reqs []registry.TokenizeRequest) ([]uint64, error)
	Record(id uint64) (registry.Record, error)
	RecordsByExternalID(externalID string) []registry.Record
}

// Document is a tokenized record decoded into its schema type.
type Document[T any] struct {
	ID         uint64         `json:"id"`
	Owner      common.Address `json:"owner"`
	ContentID  string         `json:"content_id"`
	ReleasedAt string         `json:"released_at"`
	PayloadCID string         `json:"payload_cid"`
	TokenURI   string         `json:"token_uri"`
	Data       T              `json:"data"`
}

// Adapter mints records of schema T.
type Adapter[T any] struct {
	name     string
	address  common.Address
	baseURI  string
	roles    *access.Registry
	document Tokenizer
	validate func(T) error
	logger   *slog.Logger
}

type Option func(*settings)

type settings struct {
	logger *slog.Logger
	roles  *access.Registry
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithRoles supplies the adapter's role registry instead of creating one
// administered by the constructor's admin.
func WithRoles(roles *access.Registry) Option {
	return func(s *settings) {
		s.roles = roles
	}
}

// NewAdapter builds an adapter named name, deployed at address, that writes
// to document. validate may be nil.
func NewAdapter[T any](name string, address common.Address, baseURI string, document Tokenizer, admin common.Address, validate func(T) error, opts ...Option) *Adapter[T] {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.roles == nil {
		cfg.roles = access.New(admin, access.WithLogger(cfg.logger))
	}
	return &Adapter[T]{
		name:     name,
		address:  address,
		baseURI:  baseURI,
		roles:    cfg.roles,
		document: document,
		validate: validate,
		logger:   cfg.logger,
	}
}

func (a *Adapter[T]) Name() string { return a.name }

// Address is the identity the adapter mints under on the document registry.
func (a *Adapter[T]) Address() common.Address { return a.address }

func (a *Adapter[T]) Roles() *access.Registry { return a.roles }

func (a *Adapter[T]) BaseURI() string { return a.baseURI }

// Mint tokenizes one document for recipient.
func (a *Adapter[T]) Mint(ctx context.Context, caller, recipient common.Address, contentID string, data T, releasedAt string) (uint64, error) {
	if err := a.requireMinter(caller); err != nil {
		return 0, err
	}
	return a.mint(ctx, caller, recipient, contentID, data, releasedAt)
}

func (a *Adapter[T]) mint(ctx context.Context, caller, recipient common.Address, contentID string, data T, releasedAt string) (uint64, error) {
	req, err := a.request(recipient, contentID, data, releasedAt)
	if err != nil {
		return 0, err
	}
	id, err := a.document.Tokenize(ctx, a.address, req)
	if err != nil {
		return 0, err
	}
	a.logMinted(ctx, caller, recipient, id, id)
	return id, nil
}

// Batch tokenizes len(contentIDs) documents for recipient. The three slices
// must have equal, non-zero length; nothing is minted otherwise.
func (a *Adapter[T]) Batch(ctx context.Context, caller, recipient common.Address, contentIDs []string, data []T, releasedAt []string) ([]uint64, error) {
	if err := a.requireMinter(caller); err != nil {
		return nil, err
	}
	return a.batch(ctx, caller, recipient, contentIDs, data, releasedAt)
}

func (a *Adapter[T]) batch(ctx context.Context, caller, recipient common.Address, contentIDs []string, data []T, releasedAt []string) ([]uint64, error) {
	if len(contentIDs) != len(data) || len(contentIDs) != len(releasedAt) {
		return nil, dErrors.New(dErrors.CodeLengthMismatch, "content ids, data and release dates differ in length")
	}
	if len(contentIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "batch is empty")
	}
	reqs := make([]registry.TokenizeRequest, len(contentIDs))
	for i := range contentIDs {
		req, err := a.request(recipient, contentIDs[i], data[i], releasedAt[i])
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}
	ids, err := a.document.TokenizeBatch(ctx, a.address, reqs)
	if err != nil {
		return nil, err
	}
	a.logMinted(ctx, caller, recipient, ids[0], ids[len(ids)-1])
	return ids, nil
}

// MintJSON decodes raw into T and mints it.
func (a *Adapter[T]) MintJSON(ctx context.Context, caller, recipient common.Address, contentID string, raw json.RawMessage, releasedAt string) (uint64, error) {
	if err := a.requireMinter(caller); err != nil {
		return 0, err
	}
	data, err := decode[T](raw)
	if err != nil {
		return 0, err
	}
	return a.mint(ctx, caller, recipient, contentID, data, releasedAt)
}

// BatchJSON decodes every element of raw into T and batch-mints them.
func (a *Adapter[T]) BatchJSON(ctx context.Context, caller, recipient common.Address, contentIDs []string, raw []json.RawMessage, releasedAt []string) ([]uint64, error) {
	if err := a.requireMinter(caller); err != nil {
		return nil, err
	}
	data := make([]T, len(raw))
	for i, r := range raw {
		d, err := decode[T](r)
		if err != nil {
			return nil, err
		}
		data[i] = d
	}
	return a.batch(ctx, caller, recipient, contentIDs, data, releasedAt)
}

// Document reads record id back as T. Records minted by another adapter or
// directly on the registry are not found.
func (a *Adapter[T]) Document(id uint64) (Document[T], error) {
	rec, err := a.document.Record(id)
	if err != nil {
		return Document[T]{}, err
	}
	if rec.Source != a.address || rec.Schema != a.name {
		return Document[T]{}, dErrors.New(dErrors.CodeNotFound, a.name+" document not found")
	}
	return a.toDocument(rec)
}

// View is Document without the type parameter, for transports.
func (a *Adapter[T]) View(id uint64) (any, error) {
	return a.Document(id)
}

// DocumentsByContentID returns every document minted under contentID.
func (a *Adapter[T]) DocumentsByContentID(contentID string) ([]Document[T], error) {
	var out []Document[T]
	for _, rec := range a.document.RecordsByExternalID(contentID) {
		if rec.Source != a.address || rec.Schema != a.name {
			continue
		}
		doc, err := a.toDocument(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// TokenURI is the base URI followed by the document's content id.
func (a *Adapter[T]) TokenURI(id uint64) (string, error) {
	doc, err := a.Document(id)
	if err != nil {
		return "", err
	}
	return doc.TokenURI, nil
}

func (a *Adapter[T]) toDocument(rec registry.Record) (Document[T], error) {
	var data T
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &data); err != nil {
			return Document[T]{}, dErrors.Wrap(err, dErrors.CodeInternal, "stored payload does not match "+a.name)
		}
	}
	return Document[T]{
		ID:         rec.ID,
		Owner:      rec.Owner,
		ContentID:  rec.ExternalID,
		ReleasedAt: rec.ReleasedAt,
		PayloadCID: rec.PayloadCID,
		TokenURI:   a.baseURI + rec.ExternalID,
		Data:       data,
	}, nil
}

func (a *Adapter[T]) request(recipient common.Address, contentID string, data T, releasedAt string) (registry.TokenizeRequest, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return registry.TokenizeRequest{}, dErrors.New(dErrors.CodeInvalidInput, "content id is required")
	}
	if a.validate != nil {
		if err := a.validate(data); err != nil {
			return registry.TokenizeRequest{}, err
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return registry.TokenizeRequest{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "cannot encode "+a.name+" payload")
	}
	return registry.TokenizeRequest{
		Recipient:  recipient,
		Schema:     a.name,
		ExternalID: contentID,
		Payload:    payload,
		ReleasedAt: releasedAt,
	}, nil
}

func (a *Adapter[T]) requireMinter(caller common.Address) error {
	if !a.roles.HasRole(access.MinterRole, caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is missing MINTER_ROLE on "+a.name)
	}
	return nil
}

func (a *Adapter[T]) logMinted(ctx context.Context, caller, recipient common.Address, first, last uint64) {
	if a.logger == nil {
		return
	}
	a.logger.InfoContext(ctx, "documents tokenized",
		"schema", a.name,
		"caller", caller.Hex(),
		"recipient", recipient.Hex(),
		"first_id", first,
		"last_id", last,
	)
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload does not match schema")
	}
	return v, nil
}
