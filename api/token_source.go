package api

import (
	"golang.org/x/oauth2"

	apperrors "github.com/heartbeat-sense/heartbeat-go/internal/errors"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

// StoreTokenSource reads the bearer token from the persisted store on every
// request, so a token rotated by one call is picked up by the next without
// rebuilding the client.
type StoreTokenSource struct {
	Store store.Store
	Key   string
}

var _ oauth2.TokenSource = StoreTokenSource{}

func (s StoreTokenSource) Token() (*oauth2.Token, error) {
	v, ok := s.Store.Get(s.Key)
	if !ok || v == "" {
		return nil, apperrors.ErrNoToken
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, nil
}
