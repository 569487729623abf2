// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

const (
	// Precision is the number of base units in one whole share.
	Precision Amount = 100_000

	BlockIntervalSec = 10
	BlocksPerDay     = 24 * 60 * 60 / BlockIntervalSec
	BlocksPerYear    = BlocksPerDay * 365

	// SecondsPerYear is the yield accrual year.
	SecondsPerYear = BlocksPerYear * BlockIntervalSec
)

// NameFeeSchedule is the flat surcharge for registering a name. Fee0 applies
// below HardFork1, Fee1 from HardFork1 and below HardFork2, Fee2 from
// HardFork2 on.
type NameFeeSchedule struct {
	HardFork1 uint32 `toml:"hard-fork-1" json:"hardFork1"`
	HardFork2 uint32 `toml:"hard-fork-2" json:"hardFork2"`
	Fee0      Amount `toml:"fee-0" json:"fee0"`
	Fee1      Amount `toml:"fee-1" json:"fee1"`
	Fee2      Amount `toml:"fee-2" json:"fee2"`
}

// Fee returns the name registration surcharge at block [height].
func (s NameFeeSchedule) Fee(height uint32) Amount {
	switch {
	case height < s.HardFork1:
		return s.Fee0
	case height < s.HardFork2:
		return s.Fee1
	default:
		return s.Fee2
	}
}

// Rules are the consensus parameters the evaluators read. They are passed in
// rather than compiled in so historical replay and fork tests can swap them.
type Rules struct {
	Version uint32 `toml:"version" json:"version"`

	NameFees NameFeeSchedule `toml:"name-fees" json:"nameFees"`

	// MaxDelegateRegistrationFee is charged in full for a pay rate of 100 and
	// proportionally below it.
	MaxDelegateRegistrationFee Amount `toml:"max-delegate-registration-fee" json:"maxDelegateRegistrationFee"`

	MinNameSize   int      `toml:"min-name-size" json:"minNameSize"`
	MaxNameSize   int      `toml:"max-name-size" json:"maxNameSize"`
	MaxNameDepth  int      `toml:"max-name-depth" json:"maxNameDepth"`
	ReservedNames []string `toml:"reserved-names" json:"reservedNames"`

	MaxSlateSize int `toml:"max-slate-size" json:"maxSlateSize"`

	// MinYieldPeriod is the holding period, in seconds, a balance must
	// exceed before it accrues yield.
	MinYieldPeriod int64 `toml:"min-yield-period" json:"minYieldPeriod"`

	MinBurnFee        Amount `toml:"min-burn-fee" json:"minBurnFee"`
	MaxBurnMessage    int    `toml:"max-burn-message" json:"maxBurnMessage"`
	MaxMemoSize       int    `toml:"max-memo-size" json:"maxMemoSize"`
	MaxTrxExpiration  int64  `toml:"max-transaction-expiration" json:"maxTransactionExpiration"`
	MaxDomainNameSize int    `toml:"max-domain-name-size" json:"maxDomainNameSize"`
}

// DefaultRules returns the rules of the current protocol version.
func DefaultRules() *Rules {
	return &Rules{
		Version: 1,
		NameFees: NameFeeSchedule{
			HardFork1: 274_000,
			HardFork2: 400_000,
			Fee0:      1 * Precision,
			Fee1:      10 * Precision,
			Fee2:      100 * Precision,
		},
		MaxDelegateRegistrationFee: BlocksPerDay / 12 * Precision,
		MinNameSize:                1,
		MaxNameSize:                63,
		MaxNameDepth:               32,
		ReservedNames:              []string{"dns", "keyid", "delegate", "root", "admin", "system"},
		MaxSlateSize:               101,
		MinYieldPeriod:             60 * 60 * 24,
		MinBurnFee:                 1 * Precision,
		MaxBurnMessage:             1024,
		MaxMemoSize:                64,
		MaxTrxExpiration:           60 * 60 * 24 * 2,
		MaxDomainNameSize:          63,
	}
}

// RegistrationFee returns the name surcharge at [height] plus, for
// delegates, the pay-rate proportional share of the delegate fee.
func (r *Rules) RegistrationFee(height uint32, delegate bool, payRate uint8) Amount {
	fee := r.NameFees.Fee(height)
	if delegate {
		fee += r.DelegateFee(payRate)
	}
	return fee
}

// DelegateFee is MaxDelegateRegistrationFee * payRate / 100.
func (r *Rules) DelegateFee(payRate uint8) Amount {
	return r.MaxDelegateRegistrationFee * Amount(payRate) / 100
}

func (r *Rules) isReserved(name string) bool {
	for _, reserved := range r.ReservedNames {
		if reserved == name {
			return true
		}
	}
	return false
}
