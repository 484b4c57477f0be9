package client_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/InNinoWeTrust/covalent/internal/client"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "ckey_test"

func newTestClient(baseURL string) client.CovalentClient {
	return client.NewCovalentClient(baseURL, testAPIKey, 2*time.Second, 100, 100, zap.NewNop())
}

func TestGetTokenBalances_Success(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"address": "0xabc",
				"chain_id": 1,
				"items": [
					{"contract_address": "0xA", "type": "nft", "supports_erc": ["erc165","erc721"], "nft_data": [{"token_id": "1"}]},
					{"contract_address": "0xB", "type": "cryptocurrency", "balance": "42"}
				]
			},
			"error": false,
			"error_message": null,
			"error_code": null
		}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).GetTokenBalances(context.Background(), 1, "0xabc")
	require.NoError(t, err)

	assert.Equal(t, "/v1/1/address/0xabc/balances_v2/", gotPath)
	assert.Equal(t, "nft=true&no-nft-fetch=true", gotQuery)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(testAPIKey+":"))
	assert.Equal(t, wantAuth, gotAuth)

	require.Len(t, items, 2)
	assert.Equal(t, "0xA", items[0].ContractAddress)
	assert.Equal(t, []string{"erc165", "erc721"}, items[0].SupportsERC)
	require.Len(t, items[0].NFTData, 1)
	assert.Equal(t, "1", items[0].NFTData[0].TokenID)
}

func TestGetTokenBalances_RemoteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetTokenBalances(context.Background(), 1, "0xabc")
	require.Error(t, err)

	var remoteErr *entity.RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
}

func TestGetTokenBalances_InBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": null, "error": true, "error_message": "Invalid address", "error_code": 400}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetTokenBalances(context.Background(), 1, "not-an-address")
	require.Error(t, err)

	var remoteErr *entity.RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Invalid address", remoteErr.Message)
}

func TestGetTokenBalances_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	_, err := newTestClient(srv.URL).GetTokenBalances(context.Background(), 1, "0xabc")
	assert.ErrorIs(t, err, entity.ErrNetwork)
}

func TestGetTokenBalances_EmptyAddress(t *testing.T) {
	_, err := newTestClient("http://unused.invalid").GetTokenBalances(context.Background(), 1, "")
	assert.Error(t, err)
}
