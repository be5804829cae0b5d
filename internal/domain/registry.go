package domain

// CellarConfig describes one tracked cellar contract
type CellarConfig struct {
	Address    string     `mapstructure:"address" json:"address"`
	Generation Generation `mapstructure:"generation" json:"generation"`
	StartBlock uint64     `mapstructure:"start_block" json:"start_block"`
}

// Registry is the set of tracked cellars keyed by lowercase address
type Registry map[string]CellarConfig

// NewRegistry builds a registry from a config slice, normalizing addresses
func NewRegistry(cellars []CellarConfig) Registry {
	r := make(Registry, len(cellars))
	for _, c := range cellars {
		c.Address = NormalizeAddress(c.Address)
		r[c.Address] = c
	}
	return r
}

// Lookup returns the config for a contract address, if tracked
func (r Registry) Lookup(address string) (CellarConfig, bool) {
	c, ok := r[NormalizeAddress(address)]
	return c, ok
}

// Addresses returns all tracked addresses
func (r Registry) Addresses() []string {
	addrs := make([]string, 0, len(r))
	for a := range r {
		addrs = append(addrs, a)
	}
	return addrs
}

// DefaultCellars is the mainnet registry. Address and start block pairs
// follow the production deployments.
func DefaultCellars() []CellarConfig {
	return []CellarConfig{
		// aave2-CLR-S
		{Address: "0x7bad5df5e61151163c75420ee9106ac5f27ece5b", Generation: GenerationV1, StartBlock: 14640931},
		// ETH-BTC Trend
		{Address: "0x6b7f87279982d919bbf85182ddeab179b366d8f2", Generation: GenerationV1_5, StartBlock: 15727154},
		// ETH-BTC Momentum
		{Address: "0x6e2dac3b9e9adc0cbbae2d0b9fd81952a8d33872", Generation: GenerationV1_5, StartBlock: 15733768},
		// Steady BTC
		{Address: "0x4986fd36b6b16f49b43282ee2e24c5cf90ed166d", Generation: GenerationV1_5, StartBlock: 15991609},
		// Steady ETH
		{Address: "0x3f07a84ecdf494310d397d24c1c78b041d2fa622", Generation: GenerationV1_5, StartBlock: 15991609},
		// Steady UNI
		{Address: "0x6f069f711281618467dae7873541ecc082761b33", Generation: GenerationV1_5, StartBlock: 16431804},
		// Steady MATIC
		{Address: "0x05641a27c82799aaf22b436f20a3110410f29652", Generation: GenerationV1_5, StartBlock: 16431804},
		// Real Yield USD
		{Address: "0x97e6e0a40a3d02f12d1cec30ebfbae04e37c119e", Generation: GenerationV2, StartBlock: 16431804},
	}
}
