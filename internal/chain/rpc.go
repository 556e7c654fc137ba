package chain

import (
	"context"
	"fmt"
	"net/http"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
)

func dialRPC(endpoint string, hc *http.Client) (*rpchttp.HTTP, error) {
	var (
		c   *rpchttp.HTTP
		err error
	)
	if hc != nil {
		c, err = rpchttp.NewWithClient(endpoint, "/websocket", hc)
	} else {
		c, err = rpchttp.New(endpoint, "/websocket")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: rpc %s: %w", errs.ErrTransportFailure, endpoint, err)
	}
	return c, nil
}

func (c *SigningClient) rpcNetwork(ctx context.Context) (string, error) {
	st, err := c.rpc.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: rpc status: %w", errs.ErrTransportFailure, err)
	}
	return st.NodeInfo.Network, nil
}

func (c *SigningClient) rpcBroadcast(ctx context.Context, tx []byte) (*model.BroadcastResult, error) {
	res, err := c.rpc.BroadcastTxSync(ctx, cmttypes.Tx(tx))
	if err != nil {
		return nil, fmt.Errorf("%w: broadcast_tx_sync: %w", errs.ErrTransportFailure, err)
	}
	out := &model.BroadcastResult{TxHash: res.Hash.String(), Code: res.Code, RawLog: res.Log}
	if res.Code != 0 {
		return nil, fmt.Errorf("%w: broadcasting tx %s failed with code %d; log: %s",
			errs.ErrContractRejected, out.TxHash, res.Code, res.Log)
	}
	return out, nil
}
