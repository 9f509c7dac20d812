// Package api implements the outbound request/response client of the
// exchange: snapshot fetches, order submission, and user session endpoints.
//
// Every numeric field on the wire is a decimal string and is parsed through
// decimal.NewFromString, never through native floating point, so values
// survive the round trip to the exchange's accounting without precision
// loss.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// defaultRequestTimeout bounds every request issued by the client.
const defaultRequestTimeout = 10 * time.Second

// Error is a failed exchange response. Detail carries the human-readable
// message the exchange returns in its error body, when present.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
}

// Client talks to the exchange's REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

// NewClient returns a client rooted at baseURL, e.g. "https://exchange.test/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: defaultRequestTimeout},
		validate: validator.New(),
	}
}

// currencyResponse mirrors one entry of GET /currencies/.
type currencyResponse struct {
	ID                      string `json:"id" validate:"required"`
	Name                    string `json:"name" validate:"required"`
	Decimals                int32  `json:"decimals" validate:"gte=0"`
	Confirmations           int    `json:"confirmations" validate:"gte=0"`
	MinimumDepositAmount    string `json:"minimum_deposit_amount" validate:"required,numeric"`
	MinimumWithdrawalAmount string `json:"minimum_withdrawal_amount" validate:"required,numeric"`
	WithdrawalFee           string `json:"withdrawal_fee" validate:"required,numeric"`
}

// Currencies fetches the full currency listing.
func (c *Client) Currencies(ctx context.Context) (model.CurrencyMap, error) {
	var payload []currencyResponse
	if err := c.get(ctx, "/currencies/", nil, &payload); err != nil {
		return nil, err
	}

	currencies := make(model.CurrencyMap, len(payload))
	for _, entry := range payload {
		if err := c.validate.Struct(&entry); err != nil {
			return nil, fmt.Errorf("invalid currency payload: %w", err)
		}

		minDeposit, err := decimal.NewFromString(entry.MinimumDepositAmount)
		if err != nil {
			return nil, fmt.Errorf("currency %s: invalid minimum deposit amount: %w", entry.ID, err)
		}
		minWithdrawal, err := decimal.NewFromString(entry.MinimumWithdrawalAmount)
		if err != nil {
			return nil, fmt.Errorf("currency %s: invalid minimum withdrawal amount: %w", entry.ID, err)
		}
		withdrawalFee, err := decimal.NewFromString(entry.WithdrawalFee)
		if err != nil {
			return nil, fmt.Errorf("currency %s: invalid withdrawal fee: %w", entry.ID, err)
		}

		currencies[entry.ID] = model.Currency{
			ID:                      entry.ID,
			Name:                    entry.Name,
			Decimals:                entry.Decimals,
			Confirmations:           entry.Confirmations,
			MinimumDepositAmount:    minDeposit,
			MinimumWithdrawalAmount: minWithdrawal,
			WithdrawalFee:           withdrawalFee,
		}
	}
	return currencies, nil
}

// candleResponse mirrors one entry of GET /candles/{pair}/{unitType}/{unit}/.
type candleResponse struct {
	Timestamp   int64  `json:"timestamp" validate:"required,gt=0"`
	Open        string `json:"open" validate:"required,numeric"`
	High        string `json:"high" validate:"required,numeric"`
	Low         string `json:"low" validate:"required,numeric"`
	Close       string `json:"close" validate:"required,numeric"`
	Volume      string `json:"volume" validate:"required,numeric"`
	QuoteVolume string `json:"quoteVolume" validate:"required,numeric"`
	UnitType    string `json:"unitType" validate:"required"`
	Unit        int    `json:"unit" validate:"required,gt=0"`
}

// CandlesOptions selects the candle range to fetch. Offset and Count are
// optional; zero values are omitted from the query.
type CandlesOptions struct {
	Pair     string
	UnitType model.CandleUnitType
	Unit     int
	Offset   int
	Count    int
}

// Candles fetches a candle snapshot, newest-first as served by the exchange.
func (c *Client) Candles(ctx context.Context, opts CandlesOptions) ([]model.Candle, error) {
	query := url.Values{}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Count > 0 {
		query.Set("count", strconv.Itoa(opts.Count))
	}

	path := fmt.Sprintf("/candles/%s/%s/%d/", opts.Pair, opts.UnitType, opts.Unit)
	var payload []candleResponse
	if err := c.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}

	candleList := make([]model.Candle, 0, len(payload))
	for _, entry := range payload {
		if err := c.validate.Struct(&entry); err != nil {
			return nil, fmt.Errorf("invalid candle payload: %w", err)
		}

		candle, err := entry.toModel()
		if err != nil {
			return nil, err
		}
		candleList = append(candleList, candle)
	}
	return candleList, nil
}

func (r candleResponse) toModel() (model.Candle, error) {
	candle := model.Candle{
		Timestamp: r.Timestamp,
		UnitType:  model.CandleUnitType(r.UnitType),
		Unit:      r.Unit,
	}

	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"open", r.Open, &candle.Open},
		{"high", r.High, &candle.High},
		{"low", r.Low, &candle.Low},
		{"close", r.Close, &candle.Close},
		{"volume", r.Volume, &candle.Volume},
		{"quoteVolume", r.QuoteVolume, &candle.QuoteVolume},
	}
	for _, field := range fields {
		value, err := decimal.NewFromString(field.value)
		if err != nil {
			return model.Candle{}, fmt.Errorf("candle at %d: invalid %s: %w", r.Timestamp, field.name, err)
		}
		*field.dst = value
	}
	return candle, nil
}

// orderRequest is the body of POST /orders/.
type orderRequest struct {
	Pair   string `json:"pair"`
	Side   string `json:"side"`
	Price  string `json:"price"`
	Volume string `json:"volume"`
}

// CreateOrder submits an order. Price legality against the market's tick
// size must be validated by the caller before this point.
func (c *Client) CreateOrder(ctx context.Context, order model.Order) error {
	body := orderRequest{
		Pair:   order.Pair,
		Side:   string(order.Side),
		Price:  order.Price.String(),
		Volume: order.Volume.String(),
	}
	return c.do(ctx, http.MethodPost, "/orders/", body, nil)
}

// CancelOrders cancels the user's open orders on a market.
func (c *Client) CancelOrders(ctx context.Context, pair string) error {
	return c.do(ctx, http.MethodDelete, "/orders/", map[string]string{"pair": pair}, nil)
}

// userResponse mirrors the user object of the /users/ endpoints.
type userResponse struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	return c.userRequest(ctx, http.MethodGet, "/users/me/", nil)
}

// Login authenticates and returns the logged-in user.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.userRequest(ctx, http.MethodPost, "/users/login/", body)
}

// Logout ends the authenticated session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/users/logout/", nil, nil)
}

// Register creates an account and returns the new user.
func (c *Client) Register(ctx context.Context, email, password string) (*model.User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.userRequest(ctx, http.MethodPost, "/users/", body)
}

func (c *Client) userRequest(ctx context.Context, method, path string, body any) (*model.User, error) {
	var payload userResponse
	if err := c.do(ctx, method, path, body, &payload); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("invalid user payload: %w", err)
	}
	return &model.User{ID: payload.ID, Email: payload.Email}, nil
}

// get issues a GET request with an optional query string.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues a request and decodes the response into out when non-nil.
// Non-2xx responses become *Error with the exchange's detail message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			apiErr.Detail = detail.Detail
		}
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("api request failed")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
