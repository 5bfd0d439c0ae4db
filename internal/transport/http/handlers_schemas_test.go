package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docreg/internal/transport/http/mocks"
	dErrors "docreg/pkg/domain-errors"
	"docreg/pkg/testutil"
)

//go:generate mockgen -source=handlers_schemas.go -destination=mocks/schema-mocks.go -package=mocks

// SchemaHandlerSuite tests schema routing against a mocked adapter.
//
// Justification for unit tests: adapter behaviour is covered in the schema
// package; these tests pin down request decoding, caller propagation and
// error mapping.
type SchemaHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	adapter *mocks.MockSchemaAdapter
	router  chi.Router
	caller  common.Address
}

func TestSchemaHandlerSuite(t *testing.T) {
	suite.Run(t, new(SchemaHandlerSuite))
}

func (s *SchemaHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.adapter = mocks.NewMockSchemaAdapter(s.ctrl)
	s.adapter.EXPECT().Name().Return("nca").AnyTimes()
	s.caller = common.HexToAddress("0x00000000000000000000000000000000000000b2")

	h := New(nil, nil, []SchemaAdapter{s.adapter}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	// Stand-in for RequireAuth: every request is made by s.caller.
	h.Register(s.router, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, testutil.WithCaller(r, s.caller))
		})
	})
}

func (s *SchemaHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SchemaHandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
}

func (s *SchemaHandlerSuite) TestMint() {
	recipient := common.HexToAddress("0xe5")
	data := json.RawMessage(`{"ncaNumber":"NCA-BMB-E-25-0012345"}`)

	s.Run("forwards caller and payload", func() {
		s.adapter.EXPECT().
			MintJSON(gomock.Any(), s.caller, recipient, "bafkrei-nca", gomock.Any(), "2025-08-29").
			DoAndReturn(func(_ context.Context, _, _ common.Address, _ string, raw json.RawMessage, _ string) (uint64, error) {
				s.JSONEq(string(data), string(raw))
				return 7, nil
			})

		w := s.post("/schemas/nca/mint", SchemaMintRequest{
			Recipient:  recipient,
			ContentID:  "bafkrei-nca",
			Data:       data,
			ReleasedAt: "2025-08-29",
		})
		s.Require().Equal(http.StatusCreated, w.Code)
		s.JSONEq(`{"id":7}`, w.Body.String())
	})

	s.Run("maps adapter errors", func() {
		s.adapter.EXPECT().
			MintJSON(gomock.Any(), s.caller, recipient, "", gomock.Any(), "").
			Return(uint64(0), dErrors.New(dErrors.CodeInvalidInput, "content id is required"))

		w := s.post("/schemas/nca/mint", SchemaMintRequest{Recipient: recipient, Data: data})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "content id is required")
	})

	s.Run("unknown schema", func() {
		w := s.post("/schemas/gaa/mint", SchemaMintRequest{Recipient: recipient})
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *SchemaHandlerSuite) TestBatch() {
	recipient := common.HexToAddress("0xe5")
	s.adapter.EXPECT().
		BatchJSON(gomock.Any(), s.caller, recipient, []string{"a", "b"}, gomock.Len(1), []string{"x", "y"}).
		Return(nil, dErrors.New(dErrors.CodeLengthMismatch, "batch inputs differ in length"))

	w := s.post("/schemas/nca/batch", SchemaBatchRequest{
		Recipient:  recipient,
		ContentIDs: []string{"a", "b"},
		Data:       []json.RawMessage{json.RawMessage(`{}`)},
		ReleasedAt: []string{"x", "y"},
	})
	testutil.AssertStatusAndError(s.T(), w, http.StatusBadRequest, "length_mismatch")
}

func (s *SchemaHandlerSuite) TestGetDocument() {
	s.adapter.EXPECT().View(uint64(3)).Return(map[string]any{"id": 3, "content_id": "bafkrei-nca"}, nil)
	s.adapter.EXPECT().View(uint64(4)).Return(nil, dErrors.New(dErrors.CodeNotFound, "nca document not found"))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schemas/nca/documents/3", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"id":3,"content_id":"bafkrei-nca"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schemas/nca/documents/4", nil))
	s.Equal(http.StatusNotFound, w.Code)
}
