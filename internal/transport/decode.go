package transport

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
	"github.com/hanc1208/iu-exchange-frontend/internal/store"
)

// envelope is the discriminated wrapper of every inbound push frame.
type envelope struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// balancePayload is one per-currency entry of a balance push.
type balancePayload struct {
	Currency       string `json:"currency" validate:"required"`
	Amount         string `json:"amount" validate:"required,numeric"`
	LockedAmount   string `json:"locked_amount" validate:"required,numeric"`
	DepositAddress string `json:"deposit_address"`
}

// marketPayload is one entry of a market push. Full snapshots carry every
// field; lightweight ticker ticks on the same channel carry only the pair
// and price.
type marketPayload struct {
	Pair               string `json:"pair" validate:"required"`
	CurrentPrice       string `json:"currentPrice" validate:"required,numeric"`
	MakerFee           string `json:"makerFee" validate:"omitempty,numeric"`
	TakerFee           string `json:"takerFee" validate:"omitempty,numeric"`
	MinimumOrderAmount string `json:"minimumOrderAmount" validate:"omitempty,numeric"`
	DayVolume          string `json:"dayVolume" validate:"omitempty,numeric"`
}

// full reports whether the payload carries complete market economics.
func (p marketPayload) full() bool {
	return p.MakerFee != "" && p.TakerFee != "" && p.MinimumOrderAmount != "" && p.DayVolume != ""
}

// orderBookPayload is the full level set of an order-book push. Levels are
// [price, volume] decimal-string pairs.
type orderBookPayload struct {
	Buy  [][2]string `json:"buy"`
	Sell [][2]string `json:"sell"`
}

// tradePayload is one executed trade of a trade push.
type tradePayload struct {
	ID        string `json:"id" validate:"required"`
	CreatedAt string `json:"created_at" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=buy sell"`
	Price     string `json:"price" validate:"required,numeric"`
	Volume    string `json:"volume" validate:"required,numeric"`
}

// decodeFrame translates one inbound frame into store events.
//
// The envelope's type discriminates exhaustively: balance, market, order,
// and trade frames map to their event variants; unknown types are ignored
// and yield no events. Any decoding or validation failure is returned so
// the read loop can drop the frame.
func (m *Manager) decodeFrame(raw []byte) ([]store.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	if err := m.validate.Struct(&env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case "balance":
		return m.decodeBalances(env.Data)
	case "market":
		return m.decodeMarkets(env.Data)
	case "order":
		return m.decodeOrderBook(env.Data)
	case "trade":
		return m.decodeTrades(env.Data)
	default:
		log.Debug().Str("type", env.Type).Msg("ignoring unknown push frame type")
		return nil, nil
	}
}

func (m *Manager) decodeBalances(data json.RawMessage) ([]store.Event, error) {
	var payload map[string]balancePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid balance payload: %w", err)
	}

	balances := make(model.BalanceMap, len(payload))
	for currency, entry := range payload {
		if err := m.validate.Struct(&entry); err != nil {
			return nil, fmt.Errorf("invalid balance for %s: %w", currency, err)
		}

		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid balance amount for %s: %w", currency, err)
		}
		locked, err := decimal.NewFromString(entry.LockedAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid locked amount for %s: %w", currency, err)
		}

		balances[currency] = model.Balance{
			Currency:       entry.Currency,
			Amount:         amount,
			LockedAmount:   locked,
			DepositAddress: entry.DepositAddress,
		}
	}

	return []store.Event{store.UpdateBalances{Balances: balances}}, nil
}

// decodeMarkets splits a market frame into its two explicit variants: full
// entries replace markets wholesale, price-only ticker entries patch the
// current price and nothing else.
func (m *Manager) decodeMarkets(data json.RawMessage) ([]store.Event, error) {
	var payload []marketPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid market payload: %w", err)
	}

	full := model.MarketMap{}
	prices := map[string]decimal.Decimal{}

	for _, entry := range payload {
		if err := m.validate.Struct(&entry); err != nil {
			return nil, fmt.Errorf("invalid market entry: %w", err)
		}

		base, quote, err := model.SplitPair(entry.Pair)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(entry.CurrentPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", entry.Pair, err)
		}

		if !entry.full() {
			prices[entry.Pair] = price
			continue
		}

		makerFee, err := decimal.NewFromString(entry.MakerFee)
		if err != nil {
			return nil, fmt.Errorf("invalid maker fee for %s: %w", entry.Pair, err)
		}
		takerFee, err := decimal.NewFromString(entry.TakerFee)
		if err != nil {
			return nil, fmt.Errorf("invalid taker fee for %s: %w", entry.Pair, err)
		}
		minimumOrderAmount, err := decimal.NewFromString(entry.MinimumOrderAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum order amount for %s: %w", entry.Pair, err)
		}
		dayVolume, err := decimal.NewFromString(entry.DayVolume)
		if err != nil {
			return nil, fmt.Errorf("invalid day volume for %s: %w", entry.Pair, err)
		}

		full[entry.Pair] = model.Market{
			BaseCurrency:       base,
			QuoteCurrency:      quote,
			CurrentPrice:       price,
			MakerFee:           makerFee,
			TakerFee:           takerFee,
			MinimumOrderAmount: minimumOrderAmount,
			DayVolume:          dayVolume,
		}
	}

	var events []store.Event
	if len(full) > 0 {
		events = append(events, store.MergeMarkets{Markets: full})
	}
	if len(prices) > 0 {
		events = append(events, store.UpdateMarketPrices{Prices: prices})
	}
	return events, nil
}

func (m *Manager) decodeOrderBook(data json.RawMessage) ([]store.Event, error) {
	var payload orderBookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid order payload: %w", err)
	}

	levels := make([]model.OrderBookLevel, 0, len(payload.Buy)+len(payload.Sell))
	appendSide := func(side model.OrderSide, entries [][2]string) error {
		for _, entry := range entries {
			price, err := decimal.NewFromString(entry[0])
			if err != nil {
				return fmt.Errorf("invalid %s level price: %w", side, err)
			}
			volume, err := decimal.NewFromString(entry[1])
			if err != nil {
				return fmt.Errorf("invalid %s level volume: %w", side, err)
			}
			levels = append(levels, model.OrderBookLevel{Side: side, Price: price, Volume: volume})
		}
		return nil
	}

	if err := appendSide(model.Buy, payload.Buy); err != nil {
		return nil, err
	}
	if err := appendSide(model.Sell, payload.Sell); err != nil {
		return nil, err
	}

	return []store.Event{store.SetOrderBook{Levels: levels}}, nil
}

func (m *Manager) decodeTrades(data json.RawMessage) ([]store.Event, error) {
	var payload []tradePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid trade payload: %w", err)
	}

	trades := make([]model.Trade, 0, len(payload))
	for _, entry := range payload {
		if err := m.validate.Struct(&entry); err != nil {
			return nil, fmt.Errorf("invalid trade entry: %w", err)
		}

		createdAt, err := time.Parse(time.RFC3339, entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid trade timestamp %q: %w", entry.CreatedAt, err)
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid trade price: %w", err)
		}
		volume, err := decimal.NewFromString(entry.Volume)
		if err != nil {
			return nil, fmt.Errorf("invalid trade volume: %w", err)
		}

		trades = append(trades, model.Trade{
			ID:        entry.ID,
			CreatedAt: createdAt,
			Side:      model.OrderSide(entry.Side),
			Price:     price,
			Volume:    volume,
		})
	}

	return []store.Event{store.PushTrades{Trades: trades}}, nil
}
