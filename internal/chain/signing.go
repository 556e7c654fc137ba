package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/wallet"
)

// SigningClient adds signed execute messages to QueryClient.
type SigningClient struct {
	*QueryClient
	chainID string
	signer  wallet.OfflineSigner
	// rpc is set when WithRPC names a CometBFT endpoint.
	rpc *rpchttp.HTTP
}

// ConnectWithSigner binds signer to the REST endpoint. It checks once that the
// node serves chainID; a mismatch would make every signature invalid.
func ConnectWithSigner(ctx context.Context, endpoint, chainID string, signer wallet.OfflineSigner, opts ...Option) (*SigningClient, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signer", errs.ErrInvalidInput)
	}
	c := &SigningClient{QueryClient: Connect(endpoint, opts...), chainID: chainID, signer: signer}
	if c.opts.rpcEndpoint != "" {
		rpc, err := dialRPC(c.opts.rpcEndpoint, c.opts.httpClient)
		if err != nil {
			return nil, err
		}
		c.rpc = rpc
	}
	network, err := c.network(ctx)
	if err != nil {
		return nil, err
	}
	if network != chainID {
		return nil, fmt.Errorf("%w: node serves %q, want %q", errs.ErrTransportFailure, network, chainID)
	}
	return c, nil
}

// ChainID returns the chain the client signs for.
func (c *SigningClient) ChainID() string { return c.chainID }

// Execute signs and broadcasts a MsgExecuteContract and waits for inclusion.
func (c *SigningClient) Execute(
	ctx context.Context, sender, contract string, msg any, fee Fee, memo string, funds []Coin,
) (*model.BroadcastResult, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: encode msg: %w", errs.ErrInvalidInput, err)
	}

	pub, err := c.pubKeyOf(ctx, sender)
	if err != nil {
		return nil, err
	}
	accNum, seq, err := c.Account(ctx, sender)
	if err != nil {
		return nil, err
	}

	utx, err := buildExecuteTx(sender, contract, raw, funds, memo, pub, seq, fee)
	if err != nil {
		return nil, err
	}
	sig, err := c.signer.SignDirect(ctx, sender, wallet.SignDoc{
		BodyBytes:     utx.body,
		AuthInfoBytes: utx.authInfo,
		ChainID:       c.chainID,
		AccountNumber: accNum,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %w", errs.ErrUnauthorized, err)
	}
	txBytes, err := encodeTxRaw(utx, sig)
	if err != nil {
		return nil, err
	}

	res, err := c.broadcast(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	c.log.Debug("tx broadcast", zap.String("hash", res.TxHash), zap.String("contract", contract))
	return c.waitForTx(ctx, res.TxHash)
}

func (c *SigningClient) pubKeyOf(ctx context.Context, sender string) ([]byte, error) {
	accs, err := c.signer.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrExtensionUnavailable, err)
	}
	for _, a := range accs {
		if a.Address == sender {
			return a.PubKey, nil
		}
	}
	return nil, fmt.Errorf("%w: signer has no account %q", errs.ErrUnauthorized, sender)
}

func (c *SigningClient) network(ctx context.Context) (string, error) {
	if c.rpc != nil {
		return c.rpcNetwork(ctx)
	}
	return c.NodeNetwork(ctx)
}

func (c *SigningClient) broadcast(ctx context.Context, tx []byte) (*model.BroadcastResult, error) {
	if c.rpc != nil {
		return c.rpcBroadcast(ctx, tx)
	}
	var resp struct {
		TxResponse txResponse `json:"tx_response"`
	}
	req := c.http.R().SetContext(ctx).SetBody(map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(tx),
		"mode":     "BROADCAST_MODE_SYNC",
	})
	if err := c.do(req, resty.MethodPost, "/cosmos/tx/v1beta1/txs", &resp); err != nil {
		return nil, err
	}
	res := resp.TxResponse.result()
	if res.Code != 0 {
		return nil, fmt.Errorf("%w: broadcasting tx %s failed with code %d; log: %s",
			errs.ErrContractRejected, res.TxHash, res.Code, res.RawLog)
	}
	return res, nil
}

// waitForTx polls for the tx until it is included or the inclusion timeout passes.
func (c *SigningClient) waitForTx(parent context.Context, hash string) (*model.BroadcastResult, error) {
	ctx, cancel := context.WithTimeout(parent, c.opts.inclusionTimeout)
	defer cancel()

	t := time.NewTicker(c.opts.pollInterval)
	defer t.Stop()
	for {
		res, found, err := c.GetTx(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if found {
			if res.Code != 0 {
				return nil, fmt.Errorf("%w: tx %s failed with code %d; log: %s",
					errs.ErrContractRejected, hash, res.Code, res.RawLog)
			}
			return res, nil
		}
		select {
		case <-ctx.Done():
			if perr := parent.Err(); perr != nil {
				return nil, fmt.Errorf("%w: waiting for tx %s: %w", errs.ErrTransportFailure, hash, perr)
			}
			return nil, fmt.Errorf("%w: tx %s was submitted but not included within %s",
				errs.ErrTransportFailure, hash, c.opts.inclusionTimeout)
		case <-t.C:
		}
	}
}
