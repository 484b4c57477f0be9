package entity

import (
	"errors"
	"fmt"
)

// ErrNetwork indicates a transport-level failure: the request to an
// external service did not complete at all.
var ErrNetwork = errors.New("network failure")

// ErrMetadataAbsent indicates best-effort metadata could not be obtained
// for a token. The token is skipped, not treated as a pipeline failure.
var ErrMetadataAbsent = errors.New("nft metadata absent")

// ErrSessionNotFound indicates no wallet session is connected for the
// requested address.
var ErrSessionNotFound = errors.New("no connected session for address")

// ErrStaleGeneration indicates the session generation changed while a
// rendering pass was in flight; its results must be discarded.
var ErrStaleGeneration = errors.New("stale rendering generation")

// RemoteServiceError is returned when the indexing API answers with a
// non-success status or an in-band error envelope.
type RemoteServiceError struct {
	StatusCode int
	Message    string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("indexing API returned status %d: %s", e.StatusCode, e.Message)
}

// ContractResolutionError is returned when a contract address cannot be
// resolved to a deployed, recognizable ERC-721 contract.
type ContractResolutionError struct {
	ContractAddress string
	Reason          string
	Err             error
}

func (e *ContractResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve contract %s: %s: %v", e.ContractAddress, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to resolve contract %s: %s", e.ContractAddress, e.Reason)
}

func (e *ContractResolutionError) Unwrap() error {
	return e.Err
}
