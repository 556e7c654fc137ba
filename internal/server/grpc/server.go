// Package grpcserver exposes the session manager and contract gateway over gRPC.
package grpcserver

import (
	"context"

	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/service"
	"github.com/and161185/educert/internal/session"
)

// Sessions is the session manager API the server needs.
type Sessions interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Snapshot() session.Session
}

// Gateway is the contract gateway API the server needs.
type Gateway interface {
	MintCertificate(ctx context.Context, metadata model.CertificateMetadata) (*model.BroadcastResult, error)
	TransferCertificate(ctx context.Context, recipient, tokenID string) (*model.BroadcastResult, error)
	QueryCertificates(ctx context.Context, owner string) ([]model.Certificate, error)
	QueryCertificateByID(ctx context.Context, tokenID string) (*model.Certificate, error)
	CreateCampaign(ctx context.Context, c model.Campaign) (*model.BroadcastResult, error)
	QueryCampaigns(ctx context.Context) ([]model.Sale, error)
	Status() service.Status
}

// Server implements GatewayServer.
type Server struct {
	sessions Sessions
	gw       Gateway
	cfg      config.Chain
}

var _ GatewayServer = (*Server)(nil)

// New constructs a Server.
func New(sessions Sessions, gw Gateway, cfg config.Chain) *Server {
	return &Server{sessions: sessions, gw: gw, cfg: cfg}
}

// Connect authorizes the daemon's wallet.
func (s *Server) Connect(ctx context.Context, _ *Empty) (*ConnectResponse, error) {
	if err := s.sessions.Connect(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &ConnectResponse{Address: s.sessions.Snapshot().Address}, nil
}

// Disconnect drops the session.
func (s *Server) Disconnect(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.sessions.Disconnect(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// Status reports the session and the shared indicator.
func (s *Server) Status(ctx context.Context, _ *Empty) (*StatusResponse, error) {
	snap := s.sessions.Snapshot()
	st := s.gw.Status()
	role, _ := RoleFromCtx(ctx)
	return &StatusResponse{
		Role:      string(role),
		Connected: snap.Connected(),
		Address:   snap.Address,
		ChainID:   s.cfg.ChainID,
		Loading:   st.Loading,
		Error:     st.Err,
	}, nil
}

// MintCertificate validates the metadata and mints it.
func (s *Server) MintCertificate(ctx context.Context, req *MintCertificateRequest) (*BroadcastResponse, error) {
	if err := model.ValidateMetadata(req.Metadata); err != nil {
		return nil, toStatus(err)
	}
	res, err := s.gw.MintCertificate(ctx, req.Metadata)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.broadcast(res), nil
}

// TransferCertificate sends a certificate to another address.
func (s *Server) TransferCertificate(ctx context.Context, req *TransferCertificateRequest) (*BroadcastResponse, error) {
	res, err := s.gw.TransferCertificate(ctx, req.Recipient, req.TokenID)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.broadcast(res), nil
}

// QueryCertificates lists certificates by owner.
func (s *Server) QueryCertificates(ctx context.Context, req *QueryCertificatesRequest) (*CertificatesResponse, error) {
	certs, err := s.gw.QueryCertificates(ctx, req.Owner)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CertificatesResponse{Certificates: certs}, nil
}

// QueryCertificate fetches one certificate.
func (s *Server) QueryCertificate(ctx context.Context, req *QueryCertificateRequest) (*CertificateResponse, error) {
	cert, err := s.gw.QueryCertificateByID(ctx, req.TokenID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CertificateResponse{Certificate: cert}, nil
}

// CreateCampaign starts a crowdfund sale.
func (s *Server) CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*BroadcastResponse, error) {
	res, err := s.gw.CreateCampaign(ctx, req.Campaign)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.broadcast(res), nil
}

// QueryCampaigns returns the crowdfund's sales.
func (s *Server) QueryCampaigns(ctx context.Context, _ *Empty) (*CampaignsResponse, error) {
	sales, err := s.gw.QueryCampaigns(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CampaignsResponse{Sales: sales}, nil
}

func (s *Server) broadcast(res *model.BroadcastResult) *BroadcastResponse {
	out := &BroadcastResponse{Result: res}
	if res != nil && res.TxHash != "" {
		out.ExplorerURL = s.cfg.TxURL(res.TxHash)
	}
	return out
}
