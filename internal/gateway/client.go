package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethervault/ethervault/internal/log"
	"github.com/ethervault/ethervault/pkg/types"
)

// Client is a JSON-RPC 2.0 HTTP client implementing ChainGateway.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client targeting the given node endpoint URL.
func NewClient(endpoint string) *Client {
	return NewClientWithTimeout(endpoint, 10*time.Second)
}

// NewClientWithTimeout creates a client with a custom HTTP timeout.
func NewClientWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call invokes a JSON-RPC method and unmarshals the result into the
// provided pointer. Transport failures become *NetworkError, node
// failures *LedgerError.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	if params == nil {
		req.Params = []interface{}{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return &NetworkError{Op: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: method, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method, Err: fmt.Errorf("read response: %w", err)}
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return &NetworkError{Op: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	if rpcResp.Error != nil {
		return &LedgerError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return &NetworkError{Op: method, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

// NextNonce returns the account's next unused sequence number,
// including transactions still pending on the node.
func (c *Client) NextNonce(ctx context.Context, account types.Address) (uint64, error) {
	var out string
	if err := c.call(ctx, "eth_getTransactionCount", []interface{}{account.String(), "pending"}, &out); err != nil {
		return 0, err
	}
	n, err := decodeUint64(out)
	if err != nil {
		return 0, &NetworkError{Op: "eth_getTransactionCount", Err: err}
	}
	return n, nil
}

// FeePrice returns the node's current fee price estimate in minor units.
func (c *Client) FeePrice(ctx context.Context) (*big.Int, error) {
	var out string
	if err := c.call(ctx, "eth_gasPrice", nil, &out); err != nil {
		return nil, err
	}
	v, err := decodeBig(out)
	if err != nil {
		return nil, &NetworkError{Op: "eth_gasPrice", Err: err}
	}
	return v, nil
}

// callParams is the object form several read methods take.
type callParams struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

// EstimateFeeLimit asks the node for the fee limit a transaction would need.
func (c *Client) EstimateFeeLimit(ctx context.Context, from, to types.Address, value *big.Int, data []byte) (uint64, error) {
	params := callParams{
		From: from.String(),
		To:   to.String(),
	}
	if value != nil && value.Sign() > 0 {
		params.Value = encodeBig(value)
	}
	if len(data) > 0 {
		params.Data = encodeBytes(data)
	}
	var out string
	if err := c.call(ctx, "eth_estimateGas", []interface{}{params}, &out); err != nil {
		return 0, err
	}
	n, err := decodeUint64(out)
	if err != nil {
		return 0, &NetworkError{Op: "eth_estimateGas", Err: err}
	}
	return n, nil
}

// Submit broadcasts a signed raw transaction and returns its id.
func (c *Client) Submit(ctx context.Context, rawTx []byte) (types.Hash, error) {
	var out string
	if err := c.call(ctx, "eth_sendRawTransaction", []interface{}{encodeBytes(rawTx)}, &out); err != nil {
		return types.Hash{}, err
	}
	h, err := types.ParseHash(out)
	if err != nil {
		return types.Hash{}, &NetworkError{Op: "eth_sendRawTransaction", Err: err}
	}
	log.Gateway.Debug().Stringer("tx", h).Msg("submitted raw transaction")
	return h, nil
}

// rpcReceipt is the node's receipt wire shape.
type rpcReceipt struct {
	TransactionHash  string          `json:"transactionHash"`
	Status           string          `json:"status"`
	BlockNumber      string          `json:"blockNumber"`
	TransactionIndex string          `json:"transactionIndex"`
	GasUsed          string          `json:"gasUsed"`
	Logs             json.RawMessage `json:"logs"`
}

// Receipt fetches the receipt for a transaction. (nil, nil) when the
// node has none, i.e. the transaction is not yet mined.
func (c *Client) Receipt(ctx context.Context, txID types.Hash) (*Receipt, error) {
	var out *rpcReceipt
	if err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txID.String()}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	block, err := decodeUint64(out.BlockNumber)
	if err != nil {
		return nil, &NetworkError{Op: "eth_getTransactionReceipt", Err: err}
	}
	index, err := decodeUint64(out.TransactionIndex)
	if err != nil {
		return nil, &NetworkError{Op: "eth_getTransactionReceipt", Err: err}
	}
	gasUsed, err := decodeUint64(out.GasUsed)
	if err != nil {
		return nil, &NetworkError{Op: "eth_getTransactionReceipt", Err: err}
	}

	return &Receipt{
		TxHash:      txID,
		OK:          out.Status == "0x1",
		BlockNumber: block,
		Index:       uint32(index),
		FeeUsed:     gasUsed,
		Logs:        out.Logs,
	}, nil
}

// rpcTransaction is the node's transaction-by-hash wire shape.
type rpcTransaction struct {
	Hash        string  `json:"hash"`
	BlockNumber *string `json:"blockNumber"`
}

// Lookup fetches the node's view of a transaction by id. (nil, nil)
// when the node has never seen it (not mined and not in the mempool).
func (c *Client) Lookup(ctx context.Context, txID types.Hash) (*TxSummary, error) {
	var out *rpcTransaction
	if err := c.call(ctx, "eth_getTransactionByHash", []interface{}{txID.String()}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	summary := &TxSummary{TxHash: txID}
	if out.BlockNumber != nil && *out.BlockNumber != "" {
		block, err := decodeUint64(*out.BlockNumber)
		if err != nil {
			return nil, &NetworkError{Op: "eth_getTransactionByHash", Err: err}
		}
		summary.BlockNumber = &block
	}
	return summary, nil
}

// Balance returns the account balance in minor units.
func (c *Client) Balance(ctx context.Context, account types.Address) (*big.Int, error) {
	var out string
	if err := c.call(ctx, "eth_getBalance", []interface{}{account.String(), "latest"}, &out); err != nil {
		return nil, err
	}
	v, err := decodeBig(out)
	if err != nil {
		return nil, &NetworkError{Op: "eth_getBalance", Err: err}
	}
	return v, nil
}

// CallContract executes a read-only contract call against latest state.
func (c *Client) CallContract(ctx context.Context, from, to types.Address, data []byte) ([]byte, error) {
	params := callParams{
		From: from.String(),
		To:   to.String(),
		Data: encodeBytes(data),
	}
	var out string
	if err := c.call(ctx, "eth_call", []interface{}{params, "latest"}, &out); err != nil {
		return nil, err
	}
	b, err := decodeBytes(out)
	if err != nil {
		return nil, &NetworkError{Op: "eth_call", Err: err}
	}
	return b, nil
}

var _ ChainGateway = (*Client)(nil)
