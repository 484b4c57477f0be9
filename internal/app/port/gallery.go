package port

import (
	"context"

	"github.com/InNinoWeTrust/covalent/internal/domain/entity"
)

// SessionManager owns wallet-connection state. Connecting an address that
// already has a session (or a different one) replaces it under a new
// generation, which is what invalidates in-flight rendering passes.
type SessionManager interface {
	Connect(address string) entity.Session
	Disconnect(address string) bool
	Get(address string) (entity.Session, bool)
	SetState(address string, state entity.SessionState)

	// CurrentGeneration returns the live generation for the address, or
	// false when no session is connected.
	CurrentGeneration(address string) (uint64, bool)
}

// GalleryService drives the sequence fetch -> filter -> resolve-per-contract
// -> load-per-token for a connected wallet session.
type GalleryService interface {
	// BuildGallery runs one full rendering pass. Per-contract and
	// per-token failures are reported inside the returned Gallery; only a
	// failed balance fetch, a missing session or a stale generation
	// surface as an error.
	BuildGallery(ctx context.Context, address string) (*entity.Gallery, error)
}
