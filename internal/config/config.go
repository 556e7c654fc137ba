// Package config describes the target network: endpoints, address prefixes,
// fixed contract addresses, gas estimates and fees.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contract identifies a deployed contract by name, type, version and address.
type Contract struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Version     string `yaml:"version" json:"version"`
	BlockHeight int64  `yaml:"block_height" json:"block_height"`
	Address     string `yaml:"address" json:"address"`
}

// Bech32 holds the address prefix set of the chain.
type Bech32 struct {
	AccAddr  string `yaml:"acc_addr" json:"acc_addr"`
	AccPub   string `yaml:"acc_pub" json:"acc_pub"`
	ValAddr  string `yaml:"val_addr" json:"val_addr"`
	ValPub   string `yaml:"val_pub" json:"val_pub"`
	ConsAddr string `yaml:"cons_addr" json:"cons_addr"`
	ConsPub  string `yaml:"cons_pub" json:"cons_pub"`
}

// Contracts groups the three fixed contracts the gateway talks to.
type Contracts struct {
	App       Contract `yaml:"app" json:"app"`
	Tokens    Contract `yaml:"tokens" json:"tokens"`
	Crowdfund Contract `yaml:"crowdfund" json:"crowdfund"`
}

// Gas holds per-action gas estimates.
type Gas struct {
	Mint           uint64 `yaml:"mint" json:"mint"`
	Transfer       uint64 `yaml:"transfer" json:"transfer"`
	CreateCampaign uint64 `yaml:"create_campaign" json:"create_campaign"`
}

// Fee is the fixed fee attached to every execute message.
type Fee struct {
	Amount string `yaml:"amount" json:"amount"`
	Gas    uint64 `yaml:"gas" json:"gas"`
}

// Explorer holds URL templates; ${txHash} and ${address} are substituted.
type Explorer struct {
	Tx      string `yaml:"tx" json:"tx"`
	Address string `yaml:"address" json:"address"`
}

// Chain is the static description of the target network.
type Chain struct {
	ChainID   string    `yaml:"chain_id" json:"chain_id"`
	ChainName string    `yaml:"chain_name" json:"chain_name"`
	ChainType string    `yaml:"chain_type" json:"chain_type"`
	RPC       string    `yaml:"rpc" json:"rpc"`
	REST      string    `yaml:"rest" json:"rest"`
	Bech32    Bech32    `yaml:"bech32" json:"bech32"`
	FeeDenom  string    `yaml:"fee_denom" json:"fee_denom"`
	GasPrice  string    `yaml:"gas_price" json:"gas_price"`
	Contracts Contracts `yaml:"contracts" json:"contracts"`
	Gas       Gas       `yaml:"gas" json:"gas"`
	Fee       Fee       `yaml:"fee" json:"fee"`
	Explorer  Explorer  `yaml:"explorer" json:"explorer"`
}

// Default returns the Andromeda galileo-4 testnet deployment.
func Default() Chain {
	const height = 4514876
	return Chain{
		ChainID:   "galileo-4",
		ChainName: "Andromeda Testnet",
		ChainType: "testnet",
		RPC:       "https://api.andromedaprotocol.io/rpc/testnet",
		REST:      "https://api.andromedaprotocol.io/rest/testnet",
		Bech32: Bech32{
			AccAddr:  "andr",
			AccPub:   "andrpub",
			ValAddr:  "andrvaloper",
			ValPub:   "andrvaloperpub",
			ConsAddr: "andrvalcons",
			ConsPub:  "andrvalconspub",
		},
		FeeDenom: "uandr",
		GasPrice: "0.25uandr",
		Contracts: Contracts{
			App: Contract{
				Name: "EduCert", Type: "app-contract", Version: "1.1.2", BlockHeight: height,
				Address: "andr1hefzu7w8qtxmuyg0737u47xmxl5xwwdx34kaf4njuunrdqs0a4gstv5t5p",
			},
			Tokens: Contract{
				Name: "tokens", Type: "cw721", Version: "1.0.0", BlockHeight: height,
				Address: "andr195rlrw5mh9u7ax54fufvtse4x0gf62dcmv5dhf9qtp72tsdl62ms3lcp40",
			},
			Crowdfund: Contract{
				Name: "crowdfund", Type: "crowdfund", Version: "1.0.0", BlockHeight: height,
				Address: "andr1g4destcaaecxplzg35avcsa4fcujzgduuejmu4df78h5r2f7zhhqeh5484",
			},
		},
		Gas: Gas{Mint: 300000, Transfer: 200000, CreateCampaign: 400000},
		Fee: Fee{Amount: "5000", Gas: 200000},
		Explorer: Explorer{
			Tx:      "https://explorer.testnet.andromedaprotocol.io/galileo-4/tx/${txHash}",
			Address: "https://explorer.testnet.andromedaprotocol.io/galileo-4/account/${address}",
		},
	}
}

// Load reads a YAML file and overlays it onto Default. Empty path returns Default.
func Load(path string) (Chain, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Chain{}, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Chain{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Chain{}, err
	}
	return c, nil
}

// Validate checks the fields the session and gateway rely on.
func (c Chain) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("config: empty chain_id")
	}
	if c.REST == "" {
		return fmt.Errorf("config: empty rest url")
	}
	if c.Bech32.AccAddr == "" {
		return fmt.Errorf("config: empty bech32 account prefix")
	}
	if c.FeeDenom == "" || c.Fee.Amount == "" || c.Fee.Gas == 0 {
		return fmt.Errorf("config: incomplete fee")
	}
	prefix := c.Bech32.AccAddr + "1"
	for _, ct := range []Contract{c.Contracts.Tokens, c.Contracts.Crowdfund} {
		if !strings.HasPrefix(ct.Address, prefix) {
			return fmt.Errorf("config: contract %q address %q lacks prefix %q", ct.Name, ct.Address, prefix)
		}
	}
	return nil
}

// TxURL returns the explorer link for a transaction hash.
func (c Chain) TxURL(hash string) string {
	return strings.ReplaceAll(c.Explorer.Tx, "${txHash}", hash)
}

// AddressURL returns the explorer link for an account.
func (c Chain) AddressURL(addr string) string {
	return strings.ReplaceAll(c.Explorer.Address, "${address}", addr)
}
