package service

import (
	"fmt"
	"strings"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// accreditedIssuers is the allow-list of certificate-authority name fragments
// accepted for legally binding signatures. Matching is case-insensitive
// substring containment against the certificate issuer/alias.
//
// Substring containment is weaker than exact matching or full chain
// verification: a crafted issuer string containing an accredited fragment
// would pass. Kept for compatibility with the provider's issuer labels; a
// follow-up tightening to exact match should be coordinated with the
// accreditation list owners before changing behavior.
var accreditedIssuers = []string{
	"AC SERASA",
	"AC CERTISIGN",
	"AC SOLUTI",
	"AC VALID",
	"AC SAFEWEB",
}

// trustPolicy implements TrustPolicy with an environment bypass: outside
// production every issuer validates, so homologation environments can sign
// with test certificates.
type trustPolicy struct {
	production bool
	allowList  []string
}

// Validate checks the certificate issuer against the accredited allow-list.
// In non-production environments it accepts any issuer unconditionally.
func (p *trustPolicy) Validate(info *signatureDomain.CertificateInfo) error {
	if !p.production {
		return nil
	}

	issuer := info.Issuer
	if issuer == "" {
		issuer = info.Alias
	}

	upper := strings.ToUpper(issuer)
	for _, accredited := range p.allowList {
		if strings.Contains(upper, accredited) {
			return nil
		}
	}

	return fmt.Errorf("issuer %q: %w", issuer, signatureDomain.ErrCertificateNotTrusted)
}

// NewTrustPolicy creates a TrustPolicy for the given deployment mode.
func NewTrustPolicy(production bool) TrustPolicy {
	return &trustPolicy{
		production: production,
		allowList:  accreditedIssuers,
	}
}
