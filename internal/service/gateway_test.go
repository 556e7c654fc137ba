package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/educert/internal/chain"
	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/session"
	"github.com/and161185/educert/internal/wallet"
)

const owner = "andr1abc"

type execCall struct {
	Sender   string
	Contract string
	Msg      json.RawMessage
	Fee      chain.Fee
	Memo     string
	Funds    []chain.Coin
}

// fakeClient is an in-memory cw721 plus crowdfund contract pair.
type fakeClient struct {
	cfg config.Chain

	mu      sync.Mutex
	execs   []execCall
	queries int
	minted  []model.CertificateMetadata
	sales   json.RawMessage // nil means the state response has no "sales" field
	execErr error
	failIDs map[string]bool
	tokens  []string // overrides the owner listing when set
	block   chan struct{}
}

func newFakeClient(cfg config.Chain) *fakeClient {
	return &fakeClient{cfg: cfg, failIDs: map[string]bool{}}
}

func (f *fakeClient) Execute(_ context.Context, sender, contract string, msg any, fee chain.Fee, memo string, funds []chain.Coin) (*model.BroadcastResult, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, execCall{sender, contract, raw, fee, memo, funds})
	if f.execErr != nil {
		return nil, f.execErr
	}
	var m mintMsg
	if contract == f.cfg.Contracts.Tokens.Address && json.Unmarshal(raw, &m) == nil && m.Mint.Owner != "" {
		f.minted = append(f.minted, m.Mint.Extension)
	}
	return &model.BroadcastResult{TxHash: "ABCDEF", Height: 42}, nil
}

func (f *fakeClient) QueryContractSmart(ctx context.Context, contract string, query any, out any) error {
	raw, err := json.Marshal(query)
	if err != nil {
		return err
	}
	var q map[string]json.RawMessage
	if err := json.Unmarshal(raw, &q); err != nil {
		return err
	}

	f.mu.Lock()
	f.queries++
	block := f.block
	f.mu.Unlock()

	var resp any
	switch {
	case q["tokens"] != nil:
		if block != nil {
			select {
			case <-block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		f.mu.Lock()
		ids := f.tokens
		if ids == nil {
			for i := range f.minted {
				ids = append(ids, strconv.Itoa(i+1))
			}
		}
		f.mu.Unlock()
		resp = map[string]any{"tokens": ids}
	case q["nft_info"] != nil:
		var body struct {
			TokenID string `json:"token_id"`
		}
		_ = json.Unmarshal(q["nft_info"], &body)
		f.mu.Lock()
		fail := f.failIDs[body.TokenID]
		idx, _ := strconv.Atoi(body.TokenID)
		var ext *model.CertificateMetadata
		if idx >= 1 && idx <= len(f.minted) {
			ext = &f.minted[idx-1]
		}
		f.mu.Unlock()
		if fail {
			return errors.Join(errs.ErrTransportFailure, errors.New("node timeout"))
		}
		if ext == nil {
			return errors.Join(errs.ErrContractRejected, errs.ErrNotFound)
		}
		resp = map[string]any{"token_uri": nil, "extension": ext}
	case q["state"] != nil:
		f.mu.Lock()
		sales := f.sales
		f.mu.Unlock()
		if sales == nil {
			resp = map[string]any{"config": map[string]any{}}
		} else {
			resp = map[string]any{"sales": sales}
		}
	default:
		return errs.ErrContractRejected
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

type memKV struct {
	mu sync.Mutex
	m  map[string]string
}

func (r *memKV) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}
func (r *memKV) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}
func (r *memKV) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

type staticSigner struct{}

func (staticSigner) GetAccounts(context.Context) ([]model.Account, error) {
	return []model.Account{{Address: owner, Algo: wallet.AlgoSecp256k1}}, nil
}
func (staticSigner) SignDirect(context.Context, string, wallet.SignDoc) ([]byte, error) {
	return make([]byte, 64), nil
}

type staticExt struct{}

func (staticExt) Enable(context.Context, string) error                  { return nil }
func (staticExt) GetOfflineSigner(string) (wallet.OfflineSigner, error) { return staticSigner{}, nil }

func setup(t *testing.T, connect bool) (*Gateway, *session.Manager, *fakeClient) {
	t.Helper()
	cfg := config.Default()
	fc := newFakeClient(cfg)
	mgr := session.NewManager(staticExt{}, cfg, &memKV{m: map[string]string{}},
		session.WithDialer(func(context.Context, config.Chain, wallet.OfflineSigner) (session.Client, error) {
			return fc, nil
		}))
	if connect {
		require.NoError(t, mgr.Connect(context.Background()))
	}
	return NewGateway(mgr, cfg, nil), mgr, fc
}

func TestMintThenQueryByID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)
	cfg := config.Default()

	meta := model.CertificateMetadata{
		Title:       "Intro to Rust",
		Description: "Completed the course",
		Attributes:  []model.Attribute{{TraitType: "Grade", Value: "A"}},
	}
	res, err := g.MintCertificate(ctx, meta)
	require.NoError(t, err)
	require.Equal(t, "ABCDEF", res.TxHash)

	require.Len(t, fc.execs, 1)
	call := fc.execs[0]
	require.Equal(t, owner, call.Sender)
	require.Equal(t, cfg.Contracts.Tokens.Address, call.Contract)
	require.JSONEq(t, `{"mint":{"owner":"andr1abc","token_uri":null,"extension":{
		"title":"Intro to Rust","description":"Completed the course",
		"attributes":[{"trait_type":"Grade","value":"A"}]}}}`, string(call.Msg))
	require.Equal(t, chain.Fee{Amount: []chain.Coin{{Denom: "uandr", Amount: "5000"}}, Gas: 200000}, call.Fee)
	require.Empty(t, call.Memo)

	cert, err := g.QueryCertificateByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "1", cert.TokenID)
	require.Equal(t, "Intro to Rust", cert.Extension.Title)
	v, ok := cert.Attribute("Grade")
	require.True(t, ok)
	require.Equal(t, "A", v)

	require.Equal(t, Status{}, g.Status())
}

func TestMint_NilAttributesEncodeAsEmptyList(t *testing.T) {
	t.Parallel()
	g, _, fc := setup(t, true)

	_, err := g.MintCertificate(context.Background(), model.CertificateMetadata{Title: "T", Description: "D"})
	require.NoError(t, err)
	require.Len(t, fc.execs, 1)
	require.JSONEq(t, `{"mint":{"owner":"andr1abc","token_uri":null,"extension":{
		"title":"T","description":"D","attributes":[]}}}`, string(fc.execs[0].Msg))
}

func TestCreateCampaign_FieldsUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)

	_, err := g.CreateCampaign(ctx, model.Campaign{
		Price: "10", MinTokensSold: "5", MaxAmountPerWallet: "2",
		StartTime: 1700000000, EndTime: 1700100000, Recipient: owner,
	})
	require.NoError(t, err)

	require.Len(t, fc.execs, 1)
	call := fc.execs[0]
	require.Equal(t, config.Default().Contracts.Crowdfund.Address, call.Contract)
	require.Equal(t, StartSaleMemo, call.Memo)
	require.NotNil(t, call.Funds)
	require.Empty(t, call.Funds)
	require.JSONEq(t, `{"start_sale":{"start_time":1700000000,"end_time":1700100000,"price":"10",
		"min_tokens_sold":"5","max_amount_per_wallet":"2","recipient":"andr1abc"}}`, string(call.Msg))
}

func TestCreateCampaign_DefaultRecipient(t *testing.T) {
	t.Parallel()
	g, _, fc := setup(t, true)

	_, err := g.CreateCampaign(context.Background(), model.Campaign{Price: "1", MinTokensSold: "1", MaxAmountPerWallet: "1", EndTime: 2})
	require.NoError(t, err)
	var m startSaleMsg
	require.NoError(t, json.Unmarshal(fc.execs[0].Msg, &m))
	require.Equal(t, owner, m.StartSale.Recipient)
}

func TestPreconditions_NoNetworkWithoutSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, false)

	res, err := g.MintCertificate(ctx, model.CertificateMetadata{Title: "x"})
	require.Nil(t, res)
	require.ErrorIs(t, err, errs.ErrNotConnected)
	require.Equal(t, "not connected: Wallet not connected", g.Status().Err)

	res, err = g.CreateCampaign(ctx, model.Campaign{})
	require.Nil(t, res)
	require.ErrorIs(t, err, errs.ErrNotConnected)
	require.NotEmpty(t, g.Status().Err)
	require.False(t, g.Status().Loading)

	certs, err := g.QueryCertificates(ctx, owner)
	require.ErrorIs(t, err, errs.ErrNotConnected)
	require.Empty(t, certs)
	require.Contains(t, g.Status().Err, "Client not initialized")

	cert, err := g.QueryCertificateByID(ctx, "1")
	require.Nil(t, cert)
	require.ErrorIs(t, err, errs.ErrNotConnected)

	sales, err := g.QueryCampaigns(ctx)
	require.ErrorIs(t, err, errs.ErrNotConnected)
	require.NotNil(t, sales)

	_, err = g.TransferCertificate(ctx, "andr1xyz", "1")
	require.ErrorIs(t, err, errs.ErrNotConnected)

	require.Empty(t, fc.execs)
	require.Zero(t, fc.queries)
}

func TestQueryCertificates_DropsFailedLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)

	for _, title := range []string{"A", "B", "C", "D"} {
		_, err := g.MintCertificate(ctx, model.CertificateMetadata{Title: title, Description: title})
		require.NoError(t, err)
	}
	fc.failIDs["2"] = true
	fc.tokens = []string{"1", "2", "3", "99", "4"}

	certs, err := g.QueryCertificates(ctx, owner)
	require.NoError(t, err)
	require.LessOrEqual(t, len(certs), len(fc.tokens))

	var ids, titles []string
	for _, c := range certs {
		ids = append(ids, c.TokenID)
		titles = append(titles, c.Extension.Title)
	}
	require.Equal(t, []string{"1", "3", "4"}, ids)
	require.Equal(t, []string{"A", "C", "D"}, titles)

	st := g.Status()
	require.False(t, st.Loading)
	require.NotEmpty(t, st.Err, "a failed lookup still records its error")
}

func TestQueryCertificates_ListFailure(t *testing.T) {
	t.Parallel()
	g, _, fc := setup(t, true)
	fc.block = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	certs, err := g.QueryCertificates(ctx, owner)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, certs)
	require.Empty(t, certs)
	require.Equal(t, context.Canceled.Error(), g.Status().Err)
}

func TestQueryCampaigns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)

	sales, err := g.QueryCampaigns(ctx)
	require.NoError(t, err)
	require.NotNil(t, sales)
	require.Empty(t, sales)

	fc.sales = json.RawMessage(`[{"price":"10"},{"price":"20"}]`)
	sales, err = g.QueryCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.JSONEq(t, `{"price":"20"}`, string(sales[1]))
}

func TestExecuteFailure_RecordsStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)
	fc.execErr = errors.Join(errs.ErrContractRejected, errors.New("insufficient funds"))

	res, err := g.MintCertificate(ctx, model.CertificateMetadata{Title: "x"})
	require.Nil(t, res)
	require.ErrorIs(t, err, errs.ErrContractRejected)
	st := g.Status()
	require.False(t, st.Loading)
	require.Contains(t, st.Err, "insufficient funds")

	// the next call clears the previous error
	fc.execErr = nil
	_, err = g.CreateCampaign(ctx, model.Campaign{Price: "1"})
	require.NoError(t, err)
	require.Equal(t, Status{}, g.Status())
}

func TestTransferCertificate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _, fc := setup(t, true)

	_, err := g.TransferCertificate(ctx, "", "1")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.Empty(t, fc.execs)

	_, err = g.TransferCertificate(ctx, "andr1xyz", "7")
	require.NoError(t, err)
	require.JSONEq(t, `{"transfer_nft":{"recipient":"andr1xyz","token_id":"7"}}`, string(fc.execs[0].Msg))
}

func TestDisconnectDuringQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, mgr, fc := setup(t, true)
	_, err := g.MintCertificate(ctx, model.CertificateMetadata{Title: "A"})
	require.NoError(t, err)

	fc.mu.Lock()
	fc.block = make(chan struct{})
	release := fc.block
	fc.mu.Unlock()

	type result struct {
		certs []model.Certificate
		err   error
	}
	done := make(chan result, 1)
	go func() {
		certs, err := g.QueryCertificates(ctx, owner)
		done <- result{certs, err}
	}()

	require.Eventually(t, func() bool { return g.Status().Loading }, timeout, tick)
	require.NoError(t, mgr.Disconnect(ctx))
	require.False(t, mgr.IsConnected())
	close(release)

	r := <-done
	require.NoError(t, r.err)
	require.Len(t, r.certs, 1)
	require.False(t, g.Status().Loading)
	require.False(t, mgr.IsConnected())
}
