package domain

import "strings"

// CertificateInfo is the certificate metadata received from the external
// authority for exactly one trust decision. It is transient: only the derived
// trust outcome and masked identifiers ever reach storage.
type CertificateInfo struct {
	Alias  string
	Issuer string
	Serial string
}

// CertificateSlot describes one certificate available at the provider for a
// given holder, as reported by discovery.
type CertificateSlot struct {
	Alias     string `json:"alias"`
	Issuer    string `json:"issuer"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// AccessCredential is the short-lived credential obtained from the code
// exchange. It exists only for the duration of one exchange-sign-revoke
// sequence and must never be persisted.
type AccessCredential struct {
	AccessToken        string
	AuthorizedIdentity string
}

// MaskSerial hides the middle of a certificate serial, keeping the first and
// last four characters. Short serials are fully masked.
func MaskSerial(serial string) string {
	if len(serial) <= 8 {
		return strings.Repeat("*", len(serial))
	}
	return serial[:4] + strings.Repeat("*", len(serial)-8) + serial[len(serial)-4:]
}

// MaskTaxID hides all but the last two digits of a tax id (CPF).
func MaskTaxID(taxID string) string {
	if len(taxID) <= 2 {
		return strings.Repeat("*", len(taxID))
	}
	return strings.Repeat("*", len(taxID)-2) + taxID[len(taxID)-2:]
}
