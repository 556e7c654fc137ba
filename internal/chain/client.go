// Package chain is a CosmWasm client over a node's REST (LCD) endpoint:
// read-only smart queries plus signed execute messages.
package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
)

const (
	defaultPollInterval     = 3 * time.Second
	defaultInclusionTimeout = 60 * time.Second
)

type options struct {
	httpClient       *http.Client
	rpcEndpoint      string
	log              *zap.Logger
	pollInterval     time.Duration
	inclusionTimeout time.Duration
}

// Option configures a client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithRPC routes the chain-id check and broadcasts through a CometBFT RPC
// endpoint. Queries and inclusion polling stay on REST.
func WithRPC(endpoint string) Option { return func(o *options) { o.rpcEndpoint = endpoint } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithPollInterval sets how often an executed tx is looked up until included.
func WithPollInterval(d time.Duration) Option { return func(o *options) { o.pollInterval = d } }

// WithInclusionTimeout bounds the wait for an executed tx to be included.
func WithInclusionTimeout(d time.Duration) Option {
	return func(o *options) { o.inclusionTimeout = d }
}

func buildOptions(opts []Option) options {
	o := options{
		log:              zap.NewNop(),
		pollInterval:     defaultPollInterval,
		inclusionTimeout: defaultInclusionTimeout,
	}
	for _, f := range opts {
		f(&o)
	}
	return o
}

// QueryClient performs read-only queries.
type QueryClient struct {
	http *resty.Client
	log  *zap.Logger
	opts options
}

// Connect returns a query client for the REST endpoint. No request is made.
func Connect(endpoint string, opts ...Option) *QueryClient {
	o := buildOptions(opts)
	var r *resty.Client
	if o.httpClient != nil {
		r = resty.NewWithClient(o.httpClient)
	} else {
		r = resty.New()
	}
	r.SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetHeader("Accept", "application/json")
	return &QueryClient{http: r, log: o.log, opts: o}
}

// apiError is the grpc-gateway error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// do issues a request and decodes a 2xx JSON body into out.
func (c *QueryClient) do(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrTransportFailure, err)
	}
	if resp.IsError() {
		var ae apiError
		if json.Unmarshal(resp.Body(), &ae) == nil && ae.Message != "" {
			if resp.StatusCode() == http.StatusNotFound {
				return fmt.Errorf("%w: %w: %s", errs.ErrContractRejected, errs.ErrNotFound, ae.Message)
			}
			return fmt.Errorf("%w: %s", errs.ErrContractRejected, ae.Message)
		}
		return fmt.Errorf("%w: %s %s: http %d", errs.ErrTransportFailure, method, path, resp.StatusCode())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: malformed response: %w", errs.ErrTransportFailure, err)
	}
	return nil
}

// QueryContractSmart runs a smart query and decodes its data into out.
func (c *QueryClient) QueryContractSmart(ctx context.Context, contract string, query any, out any) error {
	q, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("%w: encode query: %w", errs.ErrInvalidInput, err)
	}
	var wrap struct {
		Data json.RawMessage `json:"data"`
	}
	req := c.http.R().SetContext(ctx).SetPathParams(map[string]string{
		"address": contract,
		"query":   base64.URLEncoding.EncodeToString(q),
	})
	if err := c.do(req, resty.MethodGet, "/cosmwasm/wasm/v1/contract/{address}/smart/{query}", &wrap); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(wrap.Data) == 0 {
		return fmt.Errorf("%w: empty query data", errs.ErrTransportFailure)
	}
	if err := json.Unmarshal(wrap.Data, out); err != nil {
		return fmt.Errorf("%w: malformed query data: %w", errs.ErrTransportFailure, err)
	}
	return nil
}

// Account returns the account number and sequence of addr.
func (c *QueryClient) Account(ctx context.Context, addr string) (number, sequence uint64, err error) {
	var resp struct {
		Account struct {
			AccountNumber string `json:"account_number"`
			Sequence      string `json:"sequence"`
		} `json:"account"`
	}
	req := c.http.R().SetContext(ctx).SetPathParam("address", addr)
	if err := c.do(req, resty.MethodGet, "/cosmos/auth/v1beta1/accounts/{address}", &resp); err != nil {
		return 0, 0, err
	}
	if number, err = parseUint(resp.Account.AccountNumber); err != nil {
		return 0, 0, fmt.Errorf("%w: account_number: %w", errs.ErrTransportFailure, err)
	}
	if sequence, err = parseUint(resp.Account.Sequence); err != nil {
		return 0, 0, fmt.Errorf("%w: sequence: %w", errs.ErrTransportFailure, err)
	}
	return number, sequence, nil
}

// NodeNetwork returns the chain id the node reports.
func (c *QueryClient) NodeNetwork(ctx context.Context) (string, error) {
	var resp struct {
		DefaultNodeInfo struct {
			Network string `json:"network"`
		} `json:"default_node_info"`
	}
	if err := c.do(c.http.R().SetContext(ctx), resty.MethodGet, "/cosmos/base/tendermint/v1beta1/node_info", &resp); err != nil {
		return "", err
	}
	return resp.DefaultNodeInfo.Network, nil
}

// txResponse is cosmos.base.abci.v1beta1.TxResponse as rendered by the gateway.
type txResponse struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	RawLog    string `json:"raw_log"`
	GasWanted string `json:"gas_wanted"`
	GasUsed   string `json:"gas_used"`
}

func (t txResponse) result() *model.BroadcastResult {
	h, _ := strconv.ParseInt(t.Height, 10, 64)
	gw, _ := strconv.ParseInt(t.GasWanted, 10, 64)
	gu, _ := strconv.ParseInt(t.GasUsed, 10, 64)
	return &model.BroadcastResult{
		TxHash: t.TxHash, Height: h, Code: t.Code, RawLog: t.RawLog, GasWanted: gw, GasUsed: gu,
	}
}

// GetTx looks up a transaction by hash. found is false while it is not yet included.
func (c *QueryClient) GetTx(ctx context.Context, hash string) (res *model.BroadcastResult, found bool, err error) {
	var resp struct {
		TxResponse txResponse `json:"tx_response"`
	}
	req := c.http.R().SetContext(ctx).SetPathParam("hash", hash)
	if err := c.do(req, resty.MethodGet, "/cosmos/tx/v1beta1/txs/{hash}", &resp); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return resp.TxResponse.result(), true, nil
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
