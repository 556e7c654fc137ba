package service

import "github.com/and161185/educert/internal/model"

type mintMsg struct {
	Mint mintBody `json:"mint"`
}

type mintBody struct {
	Owner     string                    `json:"owner"`
	TokenURI  *string                   `json:"token_uri"`
	Extension model.CertificateMetadata `json:"extension"`
}

type transferMsg struct {
	TransferNFT transferBody `json:"transfer_nft"`
}

type transferBody struct {
	Recipient string `json:"recipient"`
	TokenID   string `json:"token_id"`
}

type startSaleMsg struct {
	StartSale model.Campaign `json:"start_sale"`
}

type tokensQuery struct {
	Tokens struct {
		Owner string `json:"owner"`
	} `json:"tokens"`
}

type tokensResponse struct {
	Tokens []string `json:"tokens"`
}

type nftInfoQuery struct {
	NftInfo struct {
		TokenID string `json:"token_id"`
	} `json:"nft_info"`
}

type nftInfoResponse struct {
	TokenID   string                    `json:"token_id"`
	TokenURI  *string                   `json:"token_uri"`
	Extension model.CertificateMetadata `json:"extension"`
}

type stateQuery struct {
	State struct{} `json:"state"`
}

type stateResponse struct {
	Sales []model.Sale `json:"sales"`
}
