package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"docreg/internal/access"
	"docreg/internal/delegation"
	jwttoken "docreg/internal/jwt_token"
	"docreg/internal/metadata"
	"docreg/internal/platform/metrics"
	"docreg/internal/registry"
	"docreg/pkg/testutil"
)

var (
	docAddress = common.HexToAddress("0xd0c0000000000000000000000000000000000001")
	metaHandle = common.HexToAddress("0x5e00000000000000000000000000000000000001")
	adminAddr  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	minterAddr = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	holder     = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	buyer      = common.HexToAddress("0x00000000000000000000000000000000000000f6")
	outsider   = common.HexToAddress("0x0000000000000000000000000000000000000077")
)

// RecordsHandlerSuite drives the router end to end over in-memory registries.
type RecordsHandlerSuite struct {
	suite.Suite
	ctx    context.Context
	roles  *access.Registry
	doc    *registry.Registry
	tokens *jwttoken.JWTService
	router http.Handler
}

func TestRecordsHandlerSuite(t *testing.T) {
	suite.Run(t, new(RecordsHandlerSuite))
}

func (s *RecordsHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.roles = access.New(adminAddr)
	s.Require().NoError(s.roles.Grant(s.ctx, adminAddr, access.MinterRole, minterAddr))

	dir := metadata.NewDirectory()
	p, err := metadata.NewStatic(metadata.DocumentDescriptor())
	s.Require().NoError(err)
	s.Require().NoError(dir.Register(metaHandle, p))

	s.doc, err = registry.New(docAddress, s.roles, dir, metaHandle, registry.WithLogger(logger))
	s.Require().NoError(err)

	s.tokens = jwttoken.NewJWTService("test-key", "docreg", "docreg-api")
	promReg := prometheus.NewRegistry()
	h := New(s.doc, s.roles, nil, logger)
	s.router = NewRouter(h, s.tokens, metrics.NewWithRegistry(promReg), promReg)
}

// do sends body as caller; a nil caller sends no token.
func (s *RecordsHandlerSuite) do(method, path string, caller *common.Address, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if caller != nil {
		token, err := s.tokens.GenerateAccessToken(*caller, time.Hour)
		s.Require().NoError(err)
		req = testutil.WithBearer(req, token)
	}
	return testutil.DoRequest(s.router, req)
}

func decode[T any](s *RecordsHandlerSuite, w *httptest.ResponseRecorder) T {
	return testutil.UnmarshalResponse[T](s.T(), w)
}

func (s *RecordsHandlerSuite) TestMint() {
	s.Run("requires a bearer token", func() {
		w := s.do(http.MethodPost, "/v1/records/mint", nil, MintRequest{Recipient: holder})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("minter mints then batches sequential ids", func() {
		w := s.do(http.MethodPost, "/v1/records/mint", &minterAddr, MintRequest{Recipient: holder})
		s.Require().Equal(http.StatusCreated, w.Code)
		s.Equal(uint64(1), decode[MintedResponse](s, w).ID)

		w = s.do(http.MethodPost, "/v1/records/batch", &minterAddr, MintRequest{Recipient: holder, Amount: 4})
		s.Require().Equal(http.StatusCreated, w.Code)
		s.Equal([]uint64{2, 3, 4, 5}, decode[BatchResponse](s, w).IDs)
	})

	s.Run("outsider is forbidden", func() {
		w := s.do(http.MethodPost, "/v1/records/mint", &outsider, MintRequest{Recipient: holder})
		testutil.AssertStatusAndError(s.T(), w, http.StatusForbidden, "unauthorized")
	})

	s.Run("zero batch is rejected", func() {
		w := s.do(http.MethodPost, "/v1/records/batch", &minterAddr, MintRequest{Recipient: holder})
		testutil.AssertStatusAndError(s.T(), w, http.StatusBadRequest, "invalid_amount")
	})

	s.Run("unknown fields are rejected", func() {
		w := s.do(http.MethodPost, "/v1/records/mint", &minterAddr, map[string]string{"owner": holder.Hex()})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RecordsHandlerSuite) TestMintDelegated() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	s.Require().NoError(s.roles.Grant(s.ctx, adminAddr, access.MinterRole, signer))

	sig, err := delegation.Sign(delegation.BatchMessage(docAddress, holder, 3), key)
	s.Require().NoError(err)

	w := s.do(http.MethodPost, "/v1/records/batch/delegated", &outsider, MintRequest{
		Recipient: holder,
		Amount:    3,
		Signature: hexutil.Bytes(sig),
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal([]uint64{1, 2, 3}, decode[BatchResponse](s, w).IDs)

	w = s.do(http.MethodPost, "/v1/records/batch/delegated", &outsider, MintRequest{
		Recipient: holder,
		Amount:    4,
		Signature: hexutil.Bytes(sig),
	})
	s.Equal(http.StatusForbidden, w.Code, "signature over amount 3 does not authorize 4")

	w = s.do(http.MethodPost, "/v1/records/mint/delegated", &outsider, MintRequest{
		Recipient: holder,
		Signature: hexutil.Bytes(sig[:10]),
	})
	testutil.AssertStatusAndError(s.T(), w, http.StatusBadRequest, "invalid_signature")
}

func (s *RecordsHandlerSuite) TestTransferAndReads() {
	_, err := s.doc.BatchDirect(s.ctx, minterAddr, docAddress, holder, 2)
	s.Require().NoError(err)

	s.Run("non-owner cannot transfer", func() {
		w := s.do(http.MethodPost, "/v1/records/transfer", &outsider, TransferRequest{From: holder, To: buyer, ID: 1})
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("approved operator transfers", func() {
		w := s.do(http.MethodPost, "/v1/records/1/approve", &holder, ApproveRequest{Operator: outsider})
		s.Require().Equal(http.StatusNoContent, w.Code)

		w = s.do(http.MethodPost, "/v1/records/transfer", &outsider, TransferRequest{From: holder, To: buyer, ID: 1})
		s.Require().Equal(http.StatusNoContent, w.Code)
	})

	s.Run("record reflects new owner and cleared approval", func() {
		w := s.do(http.MethodGet, "/v1/records/1", nil, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		rec := decode[RecordResponse](s, w)
		s.Equal(buyer, rec.Owner)
		s.Equal(common.Address{}, rec.Approved)
		s.Empty(rec.TokenURI, "document metadata has no token uri template")
	})

	s.Run("balances", func() {
		w := s.do(http.MethodGet, "/v1/owners/"+holder.Hex()+"/balance", nil, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal(uint64(1), decode[BalanceResponse](s, w).Balance)

		w = s.do(http.MethodGet, "/v1/owners/not-an-address/balance", nil, nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("operator approval", func() {
		w := s.do(http.MethodPost, "/v1/operators", &holder, OperatorRequest{Operator: outsider, Approved: true})
		s.Require().Equal(http.StatusNoContent, w.Code)
		s.True(s.doc.IsApprovedForAll(holder, outsider))
	})

	s.Run("unknown and malformed record ids", func() {
		s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/records/99", nil, nil).Code)
		s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/v1/records/abc", nil, nil).Code)
	})
}

func (s *RecordsHandlerSuite) TestDescribeAndMetadata() {
	w := s.do(http.MethodGet, "/v1/registry", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	desc := decode[RegistryResponse](s, w)
	s.Equal("DBM Documents", desc.Name)
	s.Equal("DBMDocu", desc.Symbol)
	s.Equal(docAddress, desc.Address)
	s.Equal(metaHandle, desc.MetadataHandle)

	w = s.do(http.MethodPost, "/v1/registry/metadata", &adminAddr, MetadataRequest{Handle: metaHandle})
	s.Equal(http.StatusForbidden, w.Code, "admin lacks CURATOR_ROLE")

	w = s.do(http.MethodPost, "/v1/registry/metadata", &adminAddr, MetadataRequest{Handle: common.HexToAddress("0x99")})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RecordsHandlerSuite) TestRoles() {
	w := s.do(http.MethodPost, "/v1/roles/grant", &adminAddr, RoleRequest{Role: access.CuratorRole, Account: holder})
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/v1/roles/CURATOR_ROLE/members", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	members := decode[MembersResponse](s, w)
	s.Equal([]common.Address{holder}, members.Members)
	s.Equal(access.DefaultAdminRole, members.Admin)

	w = s.do(http.MethodPost, "/v1/roles/grant", &outsider, RoleRequest{Role: access.MinterRole, Account: outsider})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/roles/renounce", &holder, RoleRequest{Role: access.CuratorRole})
	s.Require().Equal(http.StatusNoContent, w.Code)
	s.False(s.roles.HasRole(access.CuratorRole, holder))

	w = s.do(http.MethodPost, "/v1/roles/revoke", &adminAddr, RoleRequest{Role: access.MinterRole, Account: minterAddr})
	s.Require().Equal(http.StatusNoContent, w.Code)
	s.False(s.roles.HasRole(access.MinterRole, minterAddr))
}

func (s *RecordsHandlerSuite) TestEventsPaging() {
	_, err := s.doc.BatchDirect(s.ctx, minterAddr, docAddress, holder, 3)
	s.Require().NoError(err)

	// Grants made before the registry was built are not journaled, so the
	// journal holds the three transfers only.
	w := s.do(http.MethodGet, "/v1/events?limit=2", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	page := decode[EventsResponse](s, w)
	s.Require().Len(page.Events, 2)
	s.Equal(uint64(2), page.Next)

	w = s.do(http.MethodGet, "/v1/events?after=2", nil, nil)
	page = decode[EventsResponse](s, w)
	s.Require().Len(page.Events, 1)
	s.Equal(registry.EventTransfer, page.Events[0].Kind)
	s.Equal(uint64(3), page.Events[0].RecordID)
	s.Equal(uint64(3), page.Next)

	w = s.do(http.MethodGet, "/v1/events?after=3", nil, nil)
	page = decode[EventsResponse](s, w)
	s.Empty(page.Events)
	s.Equal(uint64(3), page.Next)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/v1/events?after=-1", nil, nil).Code)
}

func (s *RecordsHandlerSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/v1/registry", nil, nil)
	w := s.do(http.MethodGet, "/metrics", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `docreg_http_requests_total{method="GET",route="/v1/registry",status="200"} 1`)
}
