package donation

import "fmt"

const (
	// RequirementMimeType is the mime type of the paid resource.
	RequirementMimeType = "application/json"

	// MaxTimeoutSeconds is the validity window of a challenge.
	MaxTimeoutSeconds = 300

	// baseUnitsPerCent converts cents to USDC base units: one cent is
	// 0.01 USD, and USDC carries 6 decimals, so 10^6 / 100 = 10^4.
	baseUnitsPerCent = 10_000
)

// BuildRequirements maps (recipient, network, amount in cents, resource
// URL) to the payment requirements advertised in a 402 challenge. The
// protocol allows several accepted options; this service always offers
// exactly one, the "exact" scheme on the requested network.
//
// The function is deterministic and side-effect free. The redemption
// path relies on that: no requirement is stored server-side, so the one
// matched against a payment proof is recomputed from the same inputs.
func BuildRequirements(recipient, network string, amountCents int64, resourceURL string) ([]PaymentRequirements, error) {
	profile, ok := LookupNetwork(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}
	if amountCents < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amountCents)
	}

	req := PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           profile.CAIP2,
		Amount:            fmt.Sprintf("%d", amountCents*baseUnitsPerCent),
		Resource:          resourceURL,
		Description:       fmt.Sprintf("Donate $%s to %s on %s", FormatDollars(amountCents), recipient, profile.DisplayName),
		MimeType:          RequirementMimeType,
		PayTo:             recipient,
		MaxTimeoutSeconds: MaxTimeoutSeconds,
		Asset:             profile.USDCAddress,
		Extra: &SigningExtra{
			Name:    profile.DomainName,
			Version: profile.DomainVersion,
		},
	}

	return []PaymentRequirements{req}, nil
}

// FormatDollars renders a cent amount as a dollar string ("3.00").
// Integer arithmetic only; display formatting never feeds back into the
// amount field.
func FormatDollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
