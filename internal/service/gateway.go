// Package service maps application actions onto certificate and crowdfund
// contract calls for the current wallet session.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/educert/internal/chain"
	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/session"
)

// StartSaleMemo is attached to start_sale transactions.
const StartSaleMemo = "Start Sale"

// Sessions yields the current session.
type Sessions interface {
	Snapshot() session.Session
}

// Status is the shared busy/error indicator. Concurrent calls overwrite it;
// the last writer wins.
type Status struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// Gateway implements the contract operations.
type Gateway struct {
	sessions Sessions
	cfg      config.Chain
	log      *zap.Logger

	mu     sync.Mutex
	status Status
}

// NewGateway constructs a Gateway. A nil logger disables logging.
func NewGateway(sessions Sessions, cfg config.Chain, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{sessions: sessions, cfg: cfg, log: log}
}

// Status returns the current indicator.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *Gateway) begin() {
	g.mu.Lock()
	g.status = Status{Loading: true}
	g.mu.Unlock()
}

func (g *Gateway) end() {
	g.mu.Lock()
	g.status.Loading = false
	g.mu.Unlock()
}

// fail records err as the current error and logs it.
func (g *Gateway) fail(op string, err error) {
	g.log.Error("contract error", zap.String("op", op), zap.String("kind", errs.Kind(err)), zap.Error(err))
	g.mu.Lock()
	g.status.Err = err.Error()
	g.mu.Unlock()
}

func (g *Gateway) fee() chain.Fee {
	return chain.Fee{
		Amount: []chain.Coin{{Denom: g.cfg.FeeDenom, Amount: g.cfg.Fee.Amount}},
		Gas:    g.cfg.Fee.Gas,
	}
}

// signer returns the session for execute calls.
func (g *Gateway) signer(op string) (session.Session, error) {
	s := g.sessions.Snapshot()
	if s.Client == nil || s.Address == "" {
		err := fmt.Errorf("%w: Wallet not connected", errs.ErrNotConnected)
		g.fail(op, err)
		return session.Session{}, err
	}
	return s, nil
}

// reader returns the client for query calls.
func (g *Gateway) reader(op string) (session.Client, error) {
	s := g.sessions.Snapshot()
	if s.Client == nil {
		err := fmt.Errorf("%w: Client not initialized", errs.ErrNotConnected)
		g.fail(op, err)
		return nil, err
	}
	return s.Client, nil
}

// MintCertificate mints metadata to the connected address.
func (g *Gateway) MintCertificate(ctx context.Context, metadata model.CertificateMetadata) (*model.BroadcastResult, error) {
	const op = "mintCertificate"
	s, err := g.signer(op)
	if err != nil {
		return nil, err
	}
	g.begin()
	defer g.end()

	msg := mintMsg{Mint: mintBody{Owner: s.Address, Extension: metadata.WithAttributes()}}
	res, err := s.Client.Execute(ctx, s.Address, g.cfg.Contracts.Tokens.Address, msg, g.fee(), "", nil)
	if err != nil {
		g.fail(op, err)
		return nil, err
	}
	return res, nil
}

// TransferCertificate moves tokenID from the connected address to recipient.
func (g *Gateway) TransferCertificate(ctx context.Context, recipient, tokenID string) (*model.BroadcastResult, error) {
	const op = "transferCertificate"
	s, err := g.signer(op)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipient) == "" || strings.TrimSpace(tokenID) == "" {
		err := fmt.Errorf("%w: recipient and token id are required", errs.ErrInvalidInput)
		g.fail(op, err)
		return nil, err
	}
	g.begin()
	defer g.end()

	msg := transferMsg{TransferNFT: transferBody{Recipient: recipient, TokenID: tokenID}}
	res, err := s.Client.Execute(ctx, s.Address, g.cfg.Contracts.Tokens.Address, msg, g.fee(), "", nil)
	if err != nil {
		g.fail(op, err)
		return nil, err
	}
	return res, nil
}

// QueryCertificates lists the certificates owned by owner. Tokens whose
// details cannot be fetched are left out; the rest keep the listed order.
func (g *Gateway) QueryCertificates(ctx context.Context, owner string) ([]model.Certificate, error) {
	const op = "queryCertificates"
	client, err := g.reader(op)
	if err != nil {
		return []model.Certificate{}, err
	}
	g.begin()
	defer g.end()

	var q tokensQuery
	q.Tokens.Owner = owner
	var resp tokensResponse
	if err := client.QueryContractSmart(ctx, g.cfg.Contracts.Tokens.Address, q, &resp); err != nil {
		g.fail(op, err)
		return []model.Certificate{}, err
	}

	found := make([]*model.Certificate, len(resp.Tokens))
	var eg errgroup.Group
	for i, id := range resp.Tokens {
		eg.Go(func() error {
			c, err := g.lookup(ctx, client, id)
			if err != nil {
				g.log.Debug("certificate dropped", zap.String("token_id", id), zap.Error(err))
				return nil
			}
			found[i] = c
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]model.Certificate, 0, len(found))
	for _, c := range found {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// QueryCertificateByID fetches one certificate. It does not touch the loading flag.
func (g *Gateway) QueryCertificateByID(ctx context.Context, tokenID string) (*model.Certificate, error) {
	client, err := g.reader("queryCertificateById")
	if err != nil {
		return nil, err
	}
	return g.lookup(ctx, client, tokenID)
}

func (g *Gateway) lookup(ctx context.Context, client session.Client, tokenID string) (*model.Certificate, error) {
	var q nftInfoQuery
	q.NftInfo.TokenID = tokenID
	var resp nftInfoResponse
	if err := client.QueryContractSmart(ctx, g.cfg.Contracts.Tokens.Address, q, &resp); err != nil {
		g.fail("queryCertificateById", err)
		return nil, err
	}
	id := resp.TokenID
	if id == "" {
		id = tokenID
	}
	return &model.Certificate{TokenID: id, TokenURI: resp.TokenURI, Extension: resp.Extension}, nil
}

// CreateCampaign starts a sale on the crowdfund contract. An empty recipient
// means the connected address.
func (g *Gateway) CreateCampaign(ctx context.Context, c model.Campaign) (*model.BroadcastResult, error) {
	const op = "createCampaign"
	s, err := g.signer(op)
	if err != nil {
		return nil, err
	}
	g.begin()
	defer g.end()

	if c.Recipient == "" {
		c.Recipient = s.Address
	}
	res, err := s.Client.Execute(ctx, s.Address, g.cfg.Contracts.Crowdfund.Address,
		startSaleMsg{StartSale: c}, g.fee(), StartSaleMemo, []chain.Coin{})
	if err != nil {
		g.fail(op, err)
		return nil, err
	}
	return res, nil
}

// QueryCampaigns returns the crowdfund state's sales, empty when absent.
func (g *Gateway) QueryCampaigns(ctx context.Context) ([]model.Sale, error) {
	const op = "queryCampaigns"
	client, err := g.reader(op)
	if err != nil {
		return []model.Sale{}, err
	}
	g.begin()
	defer g.end()

	var resp stateResponse
	if err := client.QueryContractSmart(ctx, g.cfg.Contracts.Crowdfund.Address, stateQuery{}, &resp); err != nil {
		g.fail(op, err)
		return []model.Sale{}, err
	}
	if resp.Sales == nil {
		return []model.Sale{}, nil
	}
	return resp.Sales, nil
}
