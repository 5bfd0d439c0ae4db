package testutil

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"docreg/pkg/requestcontext"
)

// WithCaller marks req as authenticated by caller, the state RequireAuth
// leaves behind.
func WithCaller(req *http.Request, caller common.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
