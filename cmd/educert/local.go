package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/repository"
	grpcserver "github.com/and161185/educert/internal/server/grpc"
	"github.com/and161185/educert/internal/service"
	"github.com/and161185/educert/internal/session"
	"github.com/and161185/educert/internal/wallet"
)

// api is what commands call; served in-process or by the daemon.
type api interface {
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) (*grpcserver.StatusResponse, error)
	MintCertificate(ctx context.Context, m model.CertificateMetadata) (*grpcserver.BroadcastResponse, error)
	TransferCertificate(ctx context.Context, recipient, tokenID string) (*grpcserver.BroadcastResponse, error)
	QueryCertificates(ctx context.Context, owner string) ([]model.Certificate, error)
	QueryCertificate(ctx context.Context, tokenID string) (*model.Certificate, error)
	CreateCampaign(ctx context.Context, c model.Campaign) (*grpcserver.BroadcastResponse, error)
	QueryCampaigns(ctx context.Context) ([]model.Sale, error)
}

var _ api = (*grpcserver.Client)(nil)

// passphraseEnv is read when -pass is not given.
const passphraseEnv = "EDUCERT_PASSPHRASE"

func passphraseSource(flagValue string) wallet.PassphraseFunc {
	return func() ([]byte, error) {
		if flagValue != "" {
			return []byte(flagValue), nil
		}
		if v := os.Getenv(passphraseEnv); v != "" {
			return []byte(v), nil
		}
		return nil, fmt.Errorf("%w (-pass or %s)", wallet.ErrNoPassphrase, passphraseEnv)
	}
}

// extension returns the keyring, or nil when no key has been added.
func extension(dir, name, prefix string, pass wallet.PassphraseFunc) wallet.Extension {
	kr := wallet.NewKeyring(dir, name, prefix, pass)
	if !kr.Installed() {
		return nil
	}
	return kr
}

// localAPI runs the session manager and gateway in-process.
type localAPI struct {
	mgr *session.Manager
	gw  *service.Gateway
	cfg config.Chain
}

var _ api = (*localAPI)(nil)

func newLocalAPI(ext wallet.Extension, cfg config.Chain, store repository.KVRepository, log *zap.Logger, opts ...session.Option) *localAPI {
	opts = append([]session.Option{session.WithLogger(log)}, opts...)
	mgr := session.NewManager(ext, cfg, store, opts...)
	return &localAPI{mgr: mgr, gw: service.NewGateway(mgr, cfg, log), cfg: cfg}
}

func (l *localAPI) Connect(ctx context.Context) (string, error) {
	if err := l.mgr.Connect(ctx); err != nil {
		return "", err
	}
	return l.mgr.Snapshot().Address, nil
}

func (l *localAPI) Disconnect(ctx context.Context) error { return l.mgr.Disconnect(ctx) }

func (l *localAPI) Status(context.Context) (*grpcserver.StatusResponse, error) {
	snap := l.mgr.Snapshot()
	st := l.gw.Status()
	return &grpcserver.StatusResponse{
		Connected: snap.Connected(),
		Address:   snap.Address,
		ChainID:   l.cfg.ChainID,
		Loading:   st.Loading,
		Error:     st.Err,
	}, nil
}

func (l *localAPI) broadcast(res *model.BroadcastResult, err error) (*grpcserver.BroadcastResponse, error) {
	if err != nil {
		return nil, err
	}
	return &grpcserver.BroadcastResponse{Result: res, ExplorerURL: l.cfg.TxURL(res.TxHash)}, nil
}

func (l *localAPI) MintCertificate(ctx context.Context, m model.CertificateMetadata) (*grpcserver.BroadcastResponse, error) {
	return l.broadcast(l.gw.MintCertificate(ctx, m))
}

func (l *localAPI) TransferCertificate(ctx context.Context, recipient, tokenID string) (*grpcserver.BroadcastResponse, error) {
	return l.broadcast(l.gw.TransferCertificate(ctx, recipient, tokenID))
}

func (l *localAPI) QueryCertificates(ctx context.Context, owner string) ([]model.Certificate, error) {
	return l.gw.QueryCertificates(ctx, owner)
}

func (l *localAPI) QueryCertificate(ctx context.Context, tokenID string) (*model.Certificate, error) {
	return l.gw.QueryCertificateByID(ctx, tokenID)
}

func (l *localAPI) CreateCampaign(ctx context.Context, c model.Campaign) (*grpcserver.BroadcastResponse, error) {
	return l.broadcast(l.gw.CreateCampaign(ctx, c))
}

func (l *localAPI) QueryCampaigns(ctx context.Context) ([]model.Sale, error) {
	return l.gw.QueryCampaigns(ctx)
}
