package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/app/service"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBalanceFetcher struct {
	items []entity.TokenBalance
	err   error
	calls int
}

func (f *fakeBalanceFetcher) GetTokenBalances(_ context.Context, _ int64, _ string) ([]entity.TokenBalance, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeHandle struct {
	address string
	name    string
}

func (h *fakeHandle) Address() string { return h.address }
func (h *fakeHandle) Name() string    { return h.name }
func (h *fakeHandle) TokenURI(context.Context, string) (string, error) {
	return "", fmt.Errorf("not used by fake loader")
}

type fakeResolver struct {
	mu        sync.Mutex
	failing   map[string]bool
	calls     []string
	onResolve func(contractAddress string)
}

func (f *fakeResolver) Resolve(_ context.Context, contractAddress string) (port.ContractHandle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, contractAddress)
	f.mu.Unlock()
	if f.onResolve != nil {
		f.onResolve(contractAddress)
	}
	if f.failing[contractAddress] {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "no contract code at address"}
	}
	return &fakeHandle{address: contractAddress, name: "Collection"}, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLoader struct {
	absent map[string]bool // keyed contract/token
}

func (f *fakeLoader) Load(_ context.Context, handle port.ContractHandle, token entity.NFTData) (*entity.NFTMetadata, error) {
	key := handle.Address() + "/" + token.TokenID
	if f.absent[key] {
		return nil, entity.ErrMetadataAbsent
	}
	return &entity.NFTMetadata{
		ContractAddress: handle.Address(),
		ContractName:    handle.Name(),
		TokenID:         token.TokenID,
		Name:            "Token " + token.TokenID,
	}, nil
}

func nftBalance(contract string, tokenIDs ...string) entity.TokenBalance {
	data := make([]entity.NFTData, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		data = append(data, entity.NFTData{TokenID: id})
	}
	return entity.TokenBalance{
		ContractAddress: contract,
		Type:            entity.TokenTypeNFT,
		SupportsERC:     []string{entity.ERC721Interface},
		NFTData:         data,
	}
}

func TestBuildGallery_RendersAllTokens(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	fetcher := &fakeBalanceFetcher{items: []entity.TokenBalance{
		nftBalance("0xA", "1", "2"),
		{ContractAddress: "0xF", Type: entity.TokenTypeCryptocurrency},
		nftBalance("0xB", "7"),
	}}
	resolver := &fakeResolver{}
	svc := service.NewGalleryService(fetcher, resolver, &fakeLoader{}, sessions, cfg, zap.NewNop())

	sessions.Connect("0xWallet")
	gallery, err := svc.BuildGallery(context.Background(), "0xWallet")
	require.NoError(t, err)

	require.Len(t, gallery.Items, 3)
	assert.Equal(t, "0xA", gallery.Items[0].ContractAddress)
	assert.Equal(t, "1", gallery.Items[0].TokenID)
	assert.Equal(t, "2", gallery.Items[1].TokenID)
	assert.Equal(t, "0xB", gallery.Items[2].ContractAddress)
	assert.Empty(t, gallery.Errors)
	assert.Equal(t, 2, resolver.callCount()) // one resolve per distinct contract

	sess, ok := sessions.Get("0xWallet")
	require.True(t, ok)
	assert.Equal(t, entity.SessionRendering, sess.State)
}

func TestBuildGallery_PartialFailureIsolation(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	fetcher := &fakeBalanceFetcher{items: []entity.TokenBalance{
		nftBalance("0xBAD", "1"),
		nftBalance("0xGOOD", "2", "3"),
	}}
	resolver := &fakeResolver{failing: map[string]bool{"0xBAD": true}}
	svc := service.NewGalleryService(fetcher, resolver, &fakeLoader{}, sessions, cfg, zap.NewNop())

	sessions.Connect("0xWallet")
	gallery, err := svc.BuildGallery(context.Background(), "0xWallet")
	require.NoError(t, err)

	require.Len(t, gallery.Items, 2)
	for _, item := range gallery.Items {
		assert.Equal(t, "0xGOOD", item.ContractAddress)
	}

	require.Len(t, gallery.Errors, 1)
	assert.Equal(t, "0xBAD", gallery.Errors[0].ContractAddress)
	assert.Equal(t, entity.StageResolve, gallery.Errors[0].Stage)
}

func TestBuildGallery_UpstreamFailureStopsPipeline(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	fetcher := &fakeBalanceFetcher{err: &entity.RemoteServiceError{StatusCode: 500, Message: "upstream down"}}
	resolver := &fakeResolver{}
	svc := service.NewGalleryService(fetcher, resolver, &fakeLoader{}, sessions, cfg, zap.NewNop())

	sessions.Connect("0xWallet")
	_, err := svc.BuildGallery(context.Background(), "0xWallet")
	require.Error(t, err)

	var remoteErr *entity.RemoteServiceError
	assert.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 0, resolver.callCount()) // no contract-resolution calls after a failed fetch
}

func TestBuildGallery_NoSession(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	svc := service.NewGalleryService(&fakeBalanceFetcher{}, &fakeResolver{}, &fakeLoader{}, sessions, cfg, zap.NewNop())

	_, err := svc.BuildGallery(context.Background(), "0xNobody")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestBuildGallery_MetadataAbsentSkipsToken(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	fetcher := &fakeBalanceFetcher{items: []entity.TokenBalance{
		nftBalance("0xA", "1", "2"),
	}}
	loader := &fakeLoader{absent: map[string]bool{"0xA/1": true}}
	svc := service.NewGalleryService(fetcher, &fakeResolver{}, loader, sessions, cfg, zap.NewNop())

	sessions.Connect("0xWallet")
	gallery, err := svc.BuildGallery(context.Background(), "0xWallet")
	require.NoError(t, err)

	require.Len(t, gallery.Items, 1)
	assert.Equal(t, "2", gallery.Items[0].TokenID)
	assert.Empty(t, gallery.Errors) // absence is a skip, not a reported failure
}

func TestBuildGallery_StaleGenerationDiscarded(t *testing.T) {
	cfg := testConfig()
	sessions := service.NewSessionService(cfg, zap.NewNop())
	fetcher := &fakeBalanceFetcher{items: []entity.TokenBalance{
		nftBalance("0xA", "1"),
	}}
	// Reconnecting mid-flight bumps the generation the pass started under.
	resolver := &fakeResolver{}
	resolver.onResolve = func(string) { sessions.Connect("0xWallet") }
	svc := service.NewGalleryService(fetcher, resolver, &fakeLoader{}, sessions, cfg, zap.NewNop())

	sessions.Connect("0xWallet")
	_, err := svc.BuildGallery(context.Background(), "0xWallet")
	assert.ErrorIs(t, err, entity.ErrStaleGeneration)
}
