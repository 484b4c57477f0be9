package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/config"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"
	"github.com/InNinoWeTrust/covalent/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// galleryServiceImpl implements port.GalleryService.
type galleryServiceImpl struct {
	balances port.BalanceFetcher
	resolver port.ContractResolver
	loader   port.MetadataLoader
	sessions port.SessionManager
	cfg      *config.Config
	logger   *zap.Logger
}

// NewGalleryService creates a new instance of galleryServiceImpl.
func NewGalleryService(
	balances port.BalanceFetcher,
	resolver port.ContractResolver,
	loader port.MetadataLoader,
	sessions port.SessionManager,
	cfg *config.Config,
	logger *zap.Logger,
) port.GalleryService {
	return &galleryServiceImpl{
		balances: balances,
		resolver: resolver,
		loader:   loader,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.Named("GalleryService"),
	}
}

// contractGroup collects the tokens of one distinct contract address, in
// the order the balance response listed them.
type contractGroup struct {
	address string
	tokens  []entity.NFTData
}

// BuildGallery implements the port.GalleryService interface.
func (s *galleryServiceImpl) BuildGallery(ctx context.Context, address string) (*entity.Gallery, error) {
	sess, ok := s.sessions.Get(address)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	generation := sess.Generation
	s.sessions.SetState(address, entity.SessionLoading)

	timer := prometheus.NewTimer(metrics.GalleryBuildDuration)
	defer timer.ObserveDuration()

	items, err := s.balances.GetTokenBalances(ctx, config.ChainID, address)
	if err != nil {
		s.logger.Error("Failed to fetch token balances", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch token balances for %s: %w", address, err)
	}

	nfts := FilterNFTBalances(items)
	s.logger.Debug("Filtered balance list to ERC721 NFTs",
		zap.String("address", address),
		zap.Int("rawCount", len(items)),
		zap.Int("nftCount", len(nfts)))

	groups := groupByContract(nfts)
	col := newRenderCollector()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Gallery.MaxConcurrentContracts)

	for _, group := range groups {
		g := group // capture range variable
		eg.Go(func() error {
			s.renderContract(gctx, address, generation, g, col)
			// Per-contract failures are collected, never propagated: one bad
			// contract must not block the others.
			return nil
		})
	}
	_ = eg.Wait()

	if s.stale(address, generation) {
		s.logger.Info("Discarding stale rendering pass",
			zap.String("address", address),
			zap.Uint64("generation", generation))
		return nil, entity.ErrStaleGeneration
	}
	s.sessions.SetState(address, entity.SessionRendering)

	gallery := &entity.Gallery{
		WalletAddress: address,
		Generation:    generation,
		Items:         col.collect(groups),
		Errors:        col.galleryErrors(),
	}
	s.logger.Info("Gallery rendering pass complete",
		zap.String("address", address),
		zap.Int("itemCount", len(gallery.Items)),
		zap.Int("errorCount", len(gallery.Errors)))
	return gallery, nil
}

func (s *galleryServiceImpl) renderContract(ctx context.Context, address string, generation uint64, g contractGroup, col *renderCollector) {
	if s.stale(address, generation) {
		return
	}

	handle, err := s.resolver.Resolve(ctx, g.address)
	if err != nil {
		metrics.ContractResolutionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Warn("Contract resolution failed, omitting its tokens",
			zap.String("address", address),
			zap.String("contract", g.address),
			zap.Error(err))
		col.addError(entity.GalleryError{
			WalletAddress:   address,
			ContractAddress: g.address,
			Stage:           entity.StageResolve,
			Message:         err.Error(),
		})
		return
	}
	metrics.ContractResolutionsTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	for _, token := range g.tokens {
		if s.stale(address, generation) {
			return
		}
		meta, err := s.loader.Load(ctx, handle, token)
		if err != nil {
			if errors.Is(err, entity.ErrMetadataAbsent) {
				metrics.MetadataLoadsTotal.WithLabelValues(metrics.OutcomeAbsent).Inc()
				s.logger.Debug("Metadata absent, skipping token",
					zap.String("contract", g.address),
					zap.String("tokenId", token.TokenID))
			} else {
				metrics.MetadataLoadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
				s.logger.Warn("Metadata load failed, skipping token",
					zap.String("contract", g.address),
					zap.String("tokenId", token.TokenID),
					zap.Error(err))
				col.addError(entity.GalleryError{
					WalletAddress:   address,
					ContractAddress: g.address,
					TokenID:         token.TokenID,
					Stage:           entity.StageMetadata,
					Message:         err.Error(),
				})
			}
			continue
		}
		metrics.MetadataLoadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		col.add(g.address, token.TokenID, *meta)
	}
}

func (s *galleryServiceImpl) stale(address string, generation uint64) bool {
	cur, ok := s.sessions.CurrentGeneration(address)
	return !ok || cur != generation
}

// groupByContract merges filtered balance entries into one group per
// distinct contract address, preserving first-seen order, so the resolver
// is invoked exactly once per contract.
func groupByContract(nfts []entity.TokenBalance) []contractGroup {
	index := make(map[string]int)
	groups := make([]contractGroup, 0, len(nfts))
	for _, nft := range nfts {
		key := strings.ToLower(nft.ContractAddress)
		if i, seen := index[key]; seen {
			groups[i].tokens = append(groups[i].tokens, nft.NFTData...)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, contractGroup{
			address: nft.ContractAddress,
			tokens:  append([]entity.NFTData(nil), nft.NFTData...),
		})
	}
	return groups
}

// renderCollector accepts results as they arrive, keyed by contract and
// token identifier, so completion order never affects the rendered output.
type renderCollector struct {
	mu    sync.Mutex
	items map[string]entity.NFTMetadata
	errs  []entity.GalleryError
}

func newRenderCollector() *renderCollector {
	return &renderCollector{items: make(map[string]entity.NFTMetadata)}
}

func itemKey(contractAddress, tokenID string) string {
	return strings.ToLower(contractAddress) + "/" + tokenID
}

func (c *renderCollector) add(contractAddress, tokenID string, meta entity.NFTMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[itemKey(contractAddress, tokenID)] = meta
}

func (c *renderCollector) addError(err entity.GalleryError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// collect assembles the rendered items in the stable order of the filtered
// balance list, skipping tokens that produced no metadata.
func (c *renderCollector) collect(groups []contractGroup) []entity.NFTMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.NFTMetadata, 0, len(c.items))
	for _, g := range groups {
		for _, token := range g.tokens {
			if meta, ok := c.items[itemKey(g.address, token.TokenID)]; ok {
				out = append(out, meta)
			}
		}
	}
	return out
}

func (c *renderCollector) galleryErrors() []entity.GalleryError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.GalleryError(nil), c.errs...)
}
