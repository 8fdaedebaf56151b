// Package entity describes the account or transaction a flag points at.
package entity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stellar/go/keypair"

	"kycgate/pkg/domain"
	"kycgate/pkg/platform/sentinel"
)

var (
	hederaAccountPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	txHashPattern        = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// KYCStatusLookup returns the most recent verification status of an account
// on a network, or sentinel.ErrNotFound when it was never verified.
type KYCStatusLookup interface {
	LatestStatus(ctx context.Context, accountID string, network domain.Network) (domain.VerificationStatus, error)
}

// Info is the lightweight entity description shown with flag details.
type Info struct {
	EntityType   domain.EntityType
	EntityID     string
	Network      domain.Network
	DisplayName  string
	AddressValid bool
	KYCStatus    *domain.VerificationStatus
}

// Resolver builds Info for flag entities.
type Resolver struct {
	kyc KYCStatusLookup
}

// NewResolver returns a Resolver. A nil lookup leaves KYCStatus unset.
func NewResolver(kyc KYCStatusLookup) *Resolver {
	return &Resolver{kyc: kyc}
}

// Resolve describes the entity. Lookup failures other than not-found are
// returned; address checks never fail.
func (r *Resolver) Resolve(ctx context.Context, entityType domain.EntityType, entityID string, network domain.Network) (Info, error) {
	info := Info{
		EntityType:   entityType,
		EntityID:     entityID,
		Network:      network,
		DisplayName:  DisplayName(entityType, entityID, network),
		AddressValid: AddressValid(entityType, entityID, network),
	}
	if entityType != domain.EntityTypeAccount || r.kyc == nil {
		return info, nil
	}

	status, err := r.kyc.LatestStatus(ctx, entityID, network)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return info, nil
	case err != nil:
		return info, fmt.Errorf("lookup kyc status: %w", err)
	}
	info.KYCStatus = &status
	return info, nil
}

// AddressValid checks the identifier format for the entity's network.
func AddressValid(entityType domain.EntityType, entityID string, network domain.Network) bool {
	if entityType == domain.EntityTypeTransaction {
		return txHashPattern.MatchString(entityID)
	}
	switch network {
	case domain.NetworkStellar:
		_, err := keypair.ParseAddress(entityID)
		return err == nil
	case domain.NetworkHedera:
		return hederaAccountPattern.MatchString(entityID)
	default:
		return false
	}
}

// DisplayName renders e.g. "Stellar account GABC…WXYZ".
func DisplayName(entityType domain.EntityType, entityID string, network domain.Network) string {
	n := network.String()
	if n != "" {
		n = strings.ToUpper(n[:1]) + n[1:]
	}
	return fmt.Sprintf("%s %s %s", n, entityType, abbreviate(entityID))
}

// abbreviate keeps the first and last four characters of long ids. It counts
// runes so multibyte ids are never cut mid-character.
func abbreviate(id string) string {
	runes := []rune(id)
	if len(runes) <= 12 {
		return id
	}
	return string(runes[:4]) + "…" + string(runes[len(runes)-4:])
}
