package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// statusOK is the success sentinel used by Etherscan-compatible APIs.
const statusOK = "1"

// Fixed paging defaults for list queries.
const (
	defaultPage       = 1
	defaultOffset     = 10
	defaultStartBlock = 0
	defaultEndBlock   = 99999999
	defaultSort       = "desc"
)

// Client queries an Etherscan-compatible block explorer JSON API. Each lookup
// performs exactly one GET: no retries, no caching. Failures are reported as
// descriptive result strings so the agent can relay them to the user.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs an explorer client for the given API endpoint. The API
// key may be empty; rate-limited anonymous access still works on testnets.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL:     strings.TrimRight(strings.TrimSpace(apiURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{},
	}
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// TransferQuery carries the optional filters for token transfer lookups.
// Unset fields are omitted from the outbound query string.
type TransferQuery struct {
	Address         string
	ContractAddress string
}

// NativeBalance looks up the native balance of an address in the smallest
// unit. The returned string is either the formatted balance or an error
// description; the error return is reserved for programming mistakes.
func (c *Client) NativeBalance(ctx context.Context, address string) string {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")
	params.Set("apikey", c.apiKey)

	resp, errText := c.get(ctx, params)
	if errText != "" {
		return fmt.Sprintf("Error fetching balance: %s", errText)
	}
	if resp.Status != statusOK {
		return fmt.Sprintf("Error fetching balance: %s", describeFailure(resp))
	}

	var balance string
	if err := json.Unmarshal(resp.Result, &balance); err != nil {
		balance = string(resp.Result)
	}
	return fmt.Sprintf("Balance for %s: %s wei", address, balance)
}

// TokenTransfers looks up ERC-20 transfer events. Optional address and
// contract filters are included only when supplied; paging, block range, and
// sort order always use the fixed defaults. On success the raw result array
// is serialized back to text.
func (c *Client) TokenTransfers(ctx context.Context, query TransferQuery) string {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokentx")
	if addr := strings.TrimSpace(query.Address); addr != "" {
		params.Set("address", addr)
	}
	if contract := strings.TrimSpace(query.ContractAddress); contract != "" {
		params.Set("contractaddress", contract)
	}
	applyPagingDefaults(params)
	params.Set("apikey", c.apiKey)

	resp, errText := c.get(ctx, params)
	if errText != "" {
		return fmt.Sprintf("Error fetching token transfers: %s", errText)
	}
	if resp.Status != statusOK {
		return fmt.Sprintf("Error fetching token transfers: %s", describeFailure(resp))
	}
	return string(resp.Result)
}

// Transactions lists the latest normal transactions for an address, using the
// same fixed paging defaults as TokenTransfers.
func (c *Client) Transactions(ctx context.Context, address string) string {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	applyPagingDefaults(params)
	params.Set("apikey", c.apiKey)

	resp, errText := c.get(ctx, params)
	if errText != "" {
		return fmt.Sprintf("Error fetching transactions: %s", errText)
	}
	if resp.Status != statusOK {
		return fmt.Sprintf("Error fetching transactions: %s", describeFailure(resp))
	}
	return string(resp.Result)
}

func applyPagingDefaults(params url.Values) {
	params.Set("page", strconv.Itoa(defaultPage))
	params.Set("offset", strconv.Itoa(defaultOffset))
	params.Set("startblock", strconv.Itoa(defaultStartBlock))
	params.Set("endblock", strconv.Itoa(defaultEndBlock))
	params.Set("sort", defaultSort)
}

// get performs the single outbound request. It returns either a decoded
// response or a non-empty failure description.
func (c *Client) get(ctx context.Context, params url.Values) (apiResponse, string) {
	endpoint := c.apiURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apiResponse{}, err.Error()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apiResponse{}, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return apiResponse{}, fmt.Sprintf("malformed response: %v", err)
	}
	return decoded, ""
}

func describeFailure(resp apiResponse) string {
	message := strings.TrimSpace(resp.Message)
	var detail string
	if err := json.Unmarshal(resp.Result, &detail); err == nil && strings.TrimSpace(detail) != "" {
		if message == "" {
			return detail
		}
		return fmt.Sprintf("%s (%s)", message, detail)
	}
	if message == "" {
		return "explorer reported failure"
	}
	return message
}
