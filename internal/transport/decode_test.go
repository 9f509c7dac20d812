package transport

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
	"github.com/hanc1208/iu-exchange-frontend/internal/store"
)

func newTestManager() *Manager {
	return NewManager("ws://exchange.test/subscribe/", func(store.Event) {})
}

func Test_DecodeFrame_Balance(t *testing.T) {
	m := newTestManager()

	events, err := m.decodeFrame([]byte(`{
		"type": "balance",
		"data": {
			"BTC": {
				"currency": "BTC",
				"amount": "1.5",
				"locked_amount": "0.5",
				"deposit_address": "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
			}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	update, ok := events[0].(store.UpdateBalances)
	require.True(t, ok, "balance frames merge, never replace")

	balance := update.Balances["BTC"]
	assert.True(t, balance.Amount.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, balance.LockedAmount.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", balance.DepositAddress)
}

func Test_DecodeFrame_MarketPartition(t *testing.T) {
	m := newTestManager()

	// One full snapshot entry and one price-only ticker entry in the same
	// frame split into their two event variants.
	events, err := m.decodeFrame([]byte(`{
		"type": "market",
		"data": [
			{
				"pair": "BTC/KRW",
				"currentPrice": "50000000",
				"makerFee": "0.001",
				"takerFee": "0.002",
				"minimumOrderAmount": "500",
				"dayVolume": "1000"
			},
			{
				"pair": "ETH/KRW",
				"currentPrice": "3000000"
			}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)

	merge, ok := events[0].(store.MergeMarkets)
	require.True(t, ok)
	require.Contains(t, merge.Markets, "BTC/KRW")
	market := merge.Markets["BTC/KRW"]
	assert.Equal(t, "BTC", market.BaseCurrency)
	assert.Equal(t, "KRW", market.QuoteCurrency)
	assert.True(t, market.MakerFee.Equal(decimal.RequireFromString("0.001")))

	prices, ok := events[1].(store.UpdateMarketPrices)
	require.True(t, ok)
	require.Contains(t, prices.Prices, "ETH/KRW")
	assert.True(t, prices.Prices["ETH/KRW"].Equal(decimal.NewFromInt(3000000)))
}

func Test_DecodeFrame_MarketPriceOnlyFrame(t *testing.T) {
	m := newTestManager()

	events, err := m.decodeFrame([]byte(`{
		"type": "market",
		"data": [{"pair": "BTC/KRW", "currentPrice": "51000000"}]
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, ok := events[0].(store.UpdateMarketPrices)
	assert.True(t, ok)
}

func Test_DecodeFrame_OrderBook(t *testing.T) {
	m := newTestManager()

	events, err := m.decodeFrame([]byte(`{
		"type": "order",
		"data": {
			"buy": [["49990000", "0.5"], ["49980000", "1.2"]],
			"sell": [["50010000", "0.3"]]
		}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	book, ok := events[0].(store.SetOrderBook)
	require.True(t, ok)
	require.Len(t, book.Levels, 3)

	assert.Equal(t, model.Buy, book.Levels[0].Side)
	assert.True(t, book.Levels[0].Price.Equal(decimal.NewFromInt(49990000)))
	assert.Equal(t, model.Sell, book.Levels[2].Side)
	assert.True(t, book.Levels[2].Volume.Equal(decimal.RequireFromString("0.3")))
}

func Test_DecodeFrame_Trades(t *testing.T) {
	m := newTestManager()

	events, err := m.decodeFrame([]byte(`{
		"type": "trade",
		"data": [{
			"id": "t1",
			"created_at": "2024-05-01T12:00:17Z",
			"side": "sell",
			"price": "50000000",
			"volume": "0.25"
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	push, ok := events[0].(store.PushTrades)
	require.True(t, ok)
	require.Len(t, push.Trades, 1)

	trade := push.Trades[0]
	assert.Equal(t, "t1", trade.ID)
	assert.Equal(t, model.Sell, trade.Side)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 17, 0, time.UTC), trade.CreatedAt.UTC())
	assert.True(t, trade.Volume.Equal(decimal.RequireFromString("0.25")))
}

func Test_DecodeFrame_UnknownTypeIgnored(t *testing.T) {
	m := newTestManager()

	events, err := m.decodeFrame([]byte(`{"type": "announcement", "data": {"text": "maintenance"}}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func Test_DecodeFrame_Malformed(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name string
		raw  string
	}{
		{"Not JSON", `{{{`},
		{"Missing type", `{"data": {}}`},
		{"Missing data", `{"type": "balance"}`},
		{"Bad balance amount", `{"type": "balance", "data": {"BTC": {"currency": "BTC", "amount": "abc", "locked_amount": "0"}}}`},
		{"Market without price", `{"type": "market", "data": [{"pair": "BTC/KRW"}]}`},
		{"Market with bad pair", `{"type": "market", "data": [{"pair": "BTCKRW", "currentPrice": "1"}]}`},
		{"Trade with bad side", `{"type": "trade", "data": [{"id": "t1", "created_at": "2024-05-01T12:00:00Z", "side": "hold", "price": "1", "volume": "1"}]}`},
		{"Trade with bad timestamp", `{"type": "trade", "data": [{"id": "t1", "created_at": "yesterday", "side": "buy", "price": "1", "volume": "1"}]}`},
		{"Order book with bad level", `{"type": "order", "data": {"buy": [["x", "1"]], "sell": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := m.decodeFrame([]byte(tt.raw))
			assert.Error(t, err)
			assert.Empty(t, events)
		})
	}
}
