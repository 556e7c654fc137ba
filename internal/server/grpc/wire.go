package grpcserver

import "github.com/and161185/educert/internal/model"

// Empty is used for requests and responses without fields.
type Empty struct{}

// ConnectResponse carries the connected address.
type ConnectResponse struct {
	Address string `json:"address"`
}

// StatusResponse reports the session and the gateway's busy/error indicator.
type StatusResponse struct {
	Role      string `json:"role,omitempty"`
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	ChainID   string `json:"chain_id"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
}

// MintCertificateRequest asks to mint a certificate to the connected address.
type MintCertificateRequest struct {
	Metadata model.CertificateMetadata `json:"metadata"`
}

// TransferCertificateRequest moves a certificate owned by the connected address.
type TransferCertificateRequest struct {
	Recipient string `json:"recipient"`
	TokenID   string `json:"token_id"`
}

// BroadcastResponse is returned by execute methods.
type BroadcastResponse struct {
	Result      *model.BroadcastResult `json:"result"`
	ExplorerURL string                 `json:"explorer_url,omitempty"`
}

// QueryCertificatesRequest lists certificates by owner.
type QueryCertificatesRequest struct {
	Owner string `json:"owner"`
}

// CertificatesResponse holds certificates in token order.
type CertificatesResponse struct {
	Certificates []model.Certificate `json:"certificates"`
}

// QueryCertificateRequest fetches one certificate.
type QueryCertificateRequest struct {
	TokenID string `json:"token_id"`
}

// CertificateResponse holds a single certificate.
type CertificateResponse struct {
	Certificate *model.Certificate `json:"certificate"`
}

// CreateCampaignRequest starts a crowdfund sale.
type CreateCampaignRequest struct {
	Campaign model.Campaign `json:"campaign"`
}

// CampaignsResponse holds the crowdfund's sales.
type CampaignsResponse struct {
	Sales []model.Sale `json:"sales"`
}
