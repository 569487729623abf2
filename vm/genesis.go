// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/keyidvm/chain"
	"github.com/ava-labs/keyidvm/state"
)

var (
	errNoChainID      = errors.New("genesis needs a chain-id")
	errNoNativeAsset  = errors.New("genesis needs the native asset (id 0)")
	errDuplicateAsset = errors.New("duplicate genesis asset")
)

// Genesis is the initial ledger, read from a TOML file.
type Genesis struct {
	// ChainID is hashed into the chain id every signature commits to.
	ChainID   string `toml:"chain-id"`
	Timestamp int64  `toml:"timestamp"`

	// Rules override chain.DefaultRules when present.
	Rules *chain.Rules `toml:"rules"`

	Assets   []GenesisAsset   `toml:"assets"`
	Accounts []GenesisAccount `toml:"accounts"`
	Balances []GenesisBalance `toml:"balances"`
	Domains  []GenesisDomain  `toml:"domains"`
}

type GenesisAsset struct {
	ID                 chain.AssetID   `toml:"id"`
	Symbol             string          `toml:"symbol"`
	Name               string          `toml:"name"`
	Issuer             chain.AccountID `toml:"issuer-id"`
	Precision          uint64          `toml:"precision"`
	MaximumShareSupply chain.Amount    `toml:"maximum-share-supply"`
	CollectedFees      chain.Amount    `toml:"collected-fees"`
}

type GenesisAccount struct {
	Name      string `toml:"name"`
	OwnerKey  string `toml:"owner-key"`  // hex, compressed
	ActiveKey string `toml:"active-key"` // hex, defaults to the owner key
	Delegate  bool   `toml:"delegate"`
	PayRate   uint8  `toml:"pay-rate"`
}

type GenesisBalance struct {
	OwnerKey string        `toml:"owner-key"`
	AssetID  chain.AssetID `toml:"asset-id"`
	Amount   chain.Amount  `toml:"amount"`
}

type GenesisDomain struct {
	Name     string `toml:"name"`
	OwnerKey string `toml:"owner-key"`
}

// ParseGenesis decodes a TOML genesis.
func ParseGenesis(b []byte) (*Genesis, error) {
	g := &Genesis{}
	if _, err := toml.Decode(string(b), g); err != nil {
		return nil, fmt.Errorf("failed to decode genesis: %w", err)
	}
	if g.ChainID == "" {
		return nil, errNoChainID
	}
	if g.Rules == nil {
		g.Rules = chain.DefaultRules()
	}
	return g, nil
}

// ID returns the chain id.
func (g *Genesis) ID() ids.ID {
	return hashing.ComputeHash256Array([]byte(g.ChainID))
}

// Apply writes the genesis records to [s].
func (g *Genesis) Apply(s *state.State) error {
	if err := s.SetChainID(g.ID()); err != nil {
		return err
	}
	if err := s.SetHead(0, g.Timestamp); err != nil {
		return err
	}

	assets := make(map[chain.AssetID]*chain.AssetRecord, len(g.Assets))
	for _, a := range g.Assets {
		if _, ok := assets[a.ID]; ok {
			return fmt.Errorf("%w: %d", errDuplicateAsset, a.ID)
		}
		assets[a.ID] = &chain.AssetRecord{
			ID:                 a.ID,
			Symbol:             a.Symbol,
			Name:               a.Name,
			Issuer:             a.Issuer,
			Precision:          a.Precision,
			MaximumShareSupply: a.MaximumShareSupply,
			CollectedFees:      a.CollectedFees,
		}
	}
	if _, ok := assets[chain.NativeAssetID]; !ok {
		return errNoNativeAsset
	}

	for _, a := range g.Accounts {
		if err := g.Rules.ValidateAccountName(a.Name); err != nil {
			return err
		}
		owner, err := parseKey(a.OwnerKey)
		if err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
		active := owner
		if a.ActiveKey != "" {
			if active, err = parseKey(a.ActiveKey); err != nil {
				return fmt.Errorf("account %q: %w", a.Name, err)
			}
		}
		id, err := s.NewAccountID()
		if err != nil {
			return err
		}
		account := &chain.AccountRecord{
			ID:               id,
			Name:             a.Name,
			OwnerKey:         owner,
			RegistrationDate: g.Timestamp,
			LastUpdate:       g.Timestamp,
		}
		account.SetActiveKey(g.Timestamp, active)
		if a.Delegate {
			if a.PayRate > chain.MaxPayRate {
				return fmt.Errorf("account %q: %w", a.Name, chain.ErrInvalidPayRate)
			}
			account.DelegateInfo = &chain.DelegateStats{PayRate: a.PayRate}
		}
		if err := s.PutAccount(account); err != nil {
			return err
		}
	}

	for i, b := range g.Balances {
		asset, ok := assets[b.AssetID]
		if !ok {
			return fmt.Errorf("balance %d: %w: %d", i, chain.ErrUnknownAsset, b.AssetID)
		}
		if b.Amount <= 0 {
			return fmt.Errorf("balance %d: %w", i, chain.ErrNegativeAmount)
		}
		owner, err := parseKey(b.OwnerKey)
		if err != nil {
			return fmt.Errorf("balance %d: %w", i, err)
		}
		record := &chain.BalanceRecord{
			Condition:   chain.NewSignatureCondition(owner.Address(), b.AssetID, 0),
			DepositDate: g.Timestamp,
			LastUpdate:  g.Timestamp,
		}
		if id, err := record.ID(); err == nil {
			if existing, err := s.GetBalance(id); err == nil {
				record = existing
			}
		}
		if record.Balance, err = chain.AddAmounts(record.Balance, b.Amount); err != nil {
			return fmt.Errorf("balance %d: %w", i, err)
		}
		if asset.CurrentShareSupply, err = chain.AddAmounts(asset.CurrentShareSupply, b.Amount); err != nil {
			return fmt.Errorf("balance %d: %w", i, err)
		}
		if err := s.PutBalance(record); err != nil {
			return err
		}
	}

	for _, asset := range assets {
		if err := s.PutAsset(asset); err != nil {
			return err
		}
	}

	for _, d := range g.Domains {
		if err := g.Rules.ValidateDomainName(d.Name); err != nil {
			return err
		}
		owner, err := parseKey(d.OwnerKey)
		if err != nil {
			return fmt.Errorf("domain %q: %w", d.Name, err)
		}
		err = s.PutDomain(&chain.DomainRecord{
			Name:       d.Name,
			Owner:      owner.Address(),
			LastUpdate: g.Timestamp,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func parseKey(s string) (chain.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return chain.EmptyPublicKey, fmt.Errorf("%w: %v", chain.ErrInvalidPublicKey, err)
	}
	return chain.PublicKeyFromBytes(b)
}
