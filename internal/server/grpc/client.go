package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/educert/internal/model"
)

// Dial opens a connection to the daemon at target.
func Dial(target string, creds credentials.TransportCredentials) (*grpc.ClientConn, error) {
	return grpc.NewClient(target, grpc.WithTransportCredentials(creds))
}

// Client calls the Gateway service with a bearer token.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

// NewClient wraps cc. token may be empty for unauthenticated calls.
func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	err := c.cc.Invoke(ctx, FullMethod(method), in, out, grpc.CallContentSubtype(CodecName))
	return FromStatus(err)
}

// Connect asks the daemon to connect its wallet and returns the address.
func (c *Client) Connect(ctx context.Context) (string, error) {
	var out ConnectResponse
	if err := c.invoke(ctx, MethodConnect, &Empty{}, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

// Disconnect drops the daemon's session.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.invoke(ctx, MethodDisconnect, &Empty{}, &Empty{})
}

// Status returns the daemon's session and indicator.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.invoke(ctx, MethodStatus, &Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MintCertificate mints metadata to the daemon's address.
func (c *Client) MintCertificate(ctx context.Context, m model.CertificateMetadata) (*BroadcastResponse, error) {
	var out BroadcastResponse
	if err := c.invoke(ctx, MethodMintCertificate, &MintCertificateRequest{Metadata: m}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferCertificate sends tokenID to recipient.
func (c *Client) TransferCertificate(ctx context.Context, recipient, tokenID string) (*BroadcastResponse, error) {
	var out BroadcastResponse
	in := &TransferCertificateRequest{Recipient: recipient, TokenID: tokenID}
	if err := c.invoke(ctx, MethodTransferCertificate, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryCertificates lists owner's certificates.
func (c *Client) QueryCertificates(ctx context.Context, owner string) ([]model.Certificate, error) {
	var out CertificatesResponse
	if err := c.invoke(ctx, MethodQueryCertificates, &QueryCertificatesRequest{Owner: owner}, &out); err != nil {
		return nil, err
	}
	return out.Certificates, nil
}

// QueryCertificate fetches one certificate.
func (c *Client) QueryCertificate(ctx context.Context, tokenID string) (*model.Certificate, error) {
	var out CertificateResponse
	if err := c.invoke(ctx, MethodQueryCertificate, &QueryCertificateRequest{TokenID: tokenID}, &out); err != nil {
		return nil, err
	}
	return out.Certificate, nil
}

// CreateCampaign starts a sale.
func (c *Client) CreateCampaign(ctx context.Context, campaign model.Campaign) (*BroadcastResponse, error) {
	var out BroadcastResponse
	if err := c.invoke(ctx, MethodCreateCampaign, &CreateCampaignRequest{Campaign: campaign}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryCampaigns returns the crowdfund's sales.
func (c *Client) QueryCampaigns(ctx context.Context) ([]model.Sale, error) {
	var out CampaignsResponse
	if err := c.invoke(ctx, MethodQueryCampaigns, &Empty{}, &out); err != nil {
		return nil, err
	}
	return out.Sales, nil
}
