// Package model defines domain entities exchanged between the gateway, the
// chain client and the view layer.
package model

import (
	"encoding/json"
	"errors"
)

// Attribute is a single trait of a certificate, kept in insertion order.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// CertificateMetadata is the NFT extension stored with a certificate.
type CertificateMetadata struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Image       string      `json:"image,omitempty"`
	Attributes  []Attribute `json:"attributes"`
}

// WithAttributes returns m with a non-nil attribute list, so it encodes as [].
func (m CertificateMetadata) WithAttributes() CertificateMetadata {
	if m.Attributes == nil {
		m.Attributes = []Attribute{}
	}
	return m
}

// Certificate is a minted token. Identity is TokenID; never mutated locally.
type Certificate struct {
	TokenID   string              `json:"token_id"`
	TokenURI  *string             `json:"token_uri,omitempty"`
	Extension CertificateMetadata `json:"extension"`
}

// Attribute returns the value of the first attribute with the given trait type.
func (c Certificate) Attribute(traitType string) (string, bool) {
	for _, a := range c.Extension.Attributes {
		if a.TraitType == traitType {
			return a.Value, true
		}
	}
	return "", false
}

// Campaign is a crowdfund sale. Numeric amounts travel as strings, times as unix seconds.
type Campaign struct {
	StartTime          int64  `json:"start_time"`
	EndTime            int64  `json:"end_time"`
	Price              string `json:"price"`
	MinTokensSold      string `json:"min_tokens_sold"`
	MaxAmountPerWallet string `json:"max_amount_per_wallet"`
	Recipient          string `json:"recipient"`
}

// Sale is one entry of the crowdfund state's sales collection. The contract
// owns its shape, so it is carried as the raw JSON the node returned.
type Sale json.RawMessage

// MarshalJSON writes the entry unchanged.
func (s Sale) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON keeps a copy of the raw entry.
func (s *Sale) UnmarshalJSON(b []byte) error {
	if s == nil {
		return errors.New("model: Sale: UnmarshalJSON on nil pointer")
	}
	*s = append((*s)[:0], b...)
	return nil
}

// Decode unmarshals the entry into out.
func (s Sale) Decode(out any) error { return json.Unmarshal(s, out) }

// BroadcastResult reports a transaction accepted by the node.
type BroadcastResult struct {
	TxHash    string `json:"tx_hash"`
	Height    int64  `json:"height"`
	Code      uint32 `json:"code"`
	RawLog    string `json:"raw_log,omitempty"`
	GasWanted int64  `json:"gas_wanted"`
	GasUsed   int64  `json:"gas_used"`
}

// Account is a wallet account exposed by an offline signer.
type Account struct {
	Address string `json:"address"`
	Algo    string `json:"algo"`
	PubKey  []byte `json:"pubkey"`
}
