package domain

// Network identifies the ledger an account or transaction lives on.
//
// Usage: construct via ParseNetwork at trust boundaries; direct casting
// bypasses validation.
type Network string

const (
	NetworkStellar Network = "stellar"
	NetworkHedera  Network = "hedera"
)

var validNetworks = map[Network]bool{
	NetworkStellar: true,
	NetworkHedera:  true,
}

// Networks lists the supported networks in reporting order.
var Networks = []Network{NetworkStellar, NetworkHedera}

// ParseNetwork constructs a Network from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseNetwork(s string) (Network, error) {
	return parseEnum(s, validNetworks, "network")
}

func (n Network) IsValid() bool  { return validNetworks[n] }
func (n Network) String() string { return string(n) }
