package blockchain

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// metadataDocument is the loosely specified JSON document a tokenURI
// points at. Collections differ on the image field name.
type metadataDocument struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Image       string                `json:"image"`
	ImageURL    string                `json:"image_url"`
	Attributes  []entity.NFTAttribute `json:"attributes"`
}

// httpMetadataLoader implements port.MetadataLoader. It resolves the token
// URI through the contract handle and fetches the document over HTTPS, an
// IPFS gateway, or decodes it inline from a data URI.
type httpMetadataLoader struct {
	client      *fasthttp.Client
	ipfsGateway string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewMetadataLoader creates a new instance of httpMetadataLoader.
func NewMetadataLoader(ipfsGateway string, timeout time.Duration, logger *zap.Logger) port.MetadataLoader {
	return &httpMetadataLoader{
		client:      &fasthttp.Client{},
		ipfsGateway: strings.TrimRight(ipfsGateway, "/") + "/",
		timeout:     timeout,
		logger:      logger.Named("MetadataLoader"),
	}
}

// Load implements the port.MetadataLoader interface.
func (l *httpMetadataLoader) Load(ctx context.Context, handle port.ContractHandle, token entity.NFTData) (*entity.NFTMetadata, error) {
	uri, err := handle.TokenURI(ctx, token.TokenID)
	if err != nil || uri == "" {
		// Contracts not deployed through a standard pathway may not expose
		// tokenURI at all; fall back to the URL the indexing API reported.
		if err != nil {
			l.logger.Debug("tokenURI lookup failed, falling back to indexed token URL",
				zap.String("contract", handle.Address()),
				zap.String("tokenId", token.TokenID),
				zap.Error(err))
		}
		uri = token.TokenURL
	}
	if uri == "" {
		return nil, fmt.Errorf("%w: no metadata URI for %s token %s", entity.ErrMetadataAbsent, handle.Address(), token.TokenID)
	}

	doc, err := l.fetchDocument(ctx, uri)
	if err != nil {
		return nil, err
	}

	name := doc.Name
	if name == "" && handle.Name() != "" {
		name = fmt.Sprintf("%s #%s", handle.Name(), token.TokenID)
	}
	image := doc.Image
	if image == "" {
		image = doc.ImageURL
	}

	return &entity.NFTMetadata{
		ContractAddress: handle.Address(),
		ContractName:    handle.Name(),
		TokenID:         token.TokenID,
		Name:            name,
		Description:     doc.Description,
		Image:           l.normalizeURI(image),
		Attributes:      doc.Attributes,
	}, nil
}

func (l *httpMetadataLoader) fetchDocument(ctx context.Context, uri string) (*metadataDocument, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return l.decodeDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"), strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return l.fetchHTTP(ctx, l.normalizeURI(uri))
	default:
		return nil, fmt.Errorf("%w: unsupported metadata URI scheme in %q", entity.ErrMetadataAbsent, uri)
	}
}

// decodeDataURI handles inline metadata of the form
// data:application/json[;base64],<payload>.
func (l *httpMetadataLoader) decodeDataURI(uri string) (*metadataDocument, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: malformed data URI", entity.ErrMetadataAbsent)
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]

	raw := []byte(payload)
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode base64 data URI: %v", entity.ErrMetadataAbsent, err)
		}
		raw = decoded
	}

	var doc metadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal inline metadata document: %v", entity.ErrMetadataAbsent, err)
	}
	return &doc, nil
}

func (l *httpMetadataLoader) fetchHTTP(ctx context.Context, requestURL string) (*metadataDocument, error) {
	l.logger.Debug("Fetching metadata document", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := l.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: request to %s: %v", entity.ErrMetadataAbsent, requestURL, err)
		}
	} else {
		if err := l.client.DoTimeout(req, resp, l.timeout); err != nil {
			return nil, fmt.Errorf("%w: request to %s: %v", entity.ErrMetadataAbsent, requestURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: metadata endpoint %s returned status %d", entity.ErrMetadataAbsent, requestURL, resp.StatusCode())
	}

	var doc metadataDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal metadata document from %s: %v", entity.ErrMetadataAbsent, requestURL, err)
	}
	return &doc, nil
}

// normalizeURI rewrites ipfs:// references to the configured gateway.
func (l *httpMetadataLoader) normalizeURI(uri string) string {
	if !strings.HasPrefix(uri, "ipfs://") {
		return uri
	}
	path := strings.TrimPrefix(uri, "ipfs://")
	path = strings.TrimPrefix(path, "ipfs/")
	return l.ipfsGateway + path
}
