package donation

// NetworkProfile holds the static configuration for one supported chain.
// Profiles are defined at compile time and never mutated; concurrent
// reads need no synchronization.
type NetworkProfile struct {
	// Slug is the short name used in donation URLs (e.g. "base").
	Slug string

	// ChainID is the numeric EIP-155 chain id.
	ChainID int64

	// CAIP2 is the chain identifier in CAIP-2 form (e.g. "eip155:8453").
	CAIP2 string

	// DisplayName is the human-readable chain name used in descriptions.
	DisplayName string

	// USDCAddress is the Circle USDC contract address on this chain.
	USDCAddress string

	// DomainName and DomainVersion are the EIP-712 domain parameters of
	// the USDC contract, required by clients to sign authorizations.
	DomainName    string
	DomainVersion string
}

// Supported networks. USDC addresses and EIP-712 domain parameters
// follow Circle's deployed contracts on each chain.
var (
	Base = NetworkProfile{
		Slug:          "base",
		ChainID:       8453,
		CAIP2:         "eip155:8453",
		DisplayName:   "Base",
		USDCAddress:   "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		DomainName:    "USD Coin",
		DomainVersion: "2",
	}

	BaseSepolia = NetworkProfile{
		Slug:          "base-sepolia",
		ChainID:       84532,
		CAIP2:         "eip155:84532",
		DisplayName:   "Base Sepolia",
		USDCAddress:   "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		DomainName:    "USDC",
		DomainVersion: "2",
	}

	Polygon = NetworkProfile{
		Slug:          "polygon",
		ChainID:       137,
		CAIP2:         "eip155:137",
		DisplayName:   "Polygon",
		USDCAddress:   "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		DomainName:    "USD Coin",
		DomainVersion: "2",
	}

	PolygonAmoy = NetworkProfile{
		Slug:          "polygon-amoy",
		ChainID:       80002,
		CAIP2:         "eip155:80002",
		DisplayName:   "Polygon Amoy",
		USDCAddress:   "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		DomainName:    "USDC",
		DomainVersion: "2",
	}
)

var profilesBySlug = map[string]NetworkProfile{
	Base.Slug:        Base,
	BaseSepolia.Slug: BaseSepolia,
	Polygon.Slug:     Polygon,
	PolygonAmoy.Slug: PolygonAmoy,
}

var profilesByCAIP2 = map[string]NetworkProfile{
	Base.CAIP2:        Base,
	BaseSepolia.CAIP2: BaseSepolia,
	Polygon.CAIP2:     Polygon,
	PolygonAmoy.CAIP2: PolygonAmoy,
}

// LookupNetwork resolves a network identifier to its profile. Both URL
// slugs ("base-sepolia") and CAIP-2 ids ("eip155:84532") are accepted.
func LookupNetwork(network string) (NetworkProfile, bool) {
	if p, ok := profilesBySlug[network]; ok {
		return p, true
	}
	p, ok := profilesByCAIP2[network]
	return p, ok
}

// SupportedNetworks returns the profiles of every configured chain.
func SupportedNetworks() []NetworkProfile {
	return []NetworkProfile{Base, BaseSepolia, Polygon, PolygonAmoy}
}
