package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

var testBucketBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testBalance(currency, amount string) model.Balance {
	return model.Balance{
		Currency: currency,
		Amount:   decimal.RequireFromString(amount),
	}
}

func testMarket(pair, price string) model.Market {
	base, quote, _ := model.SplitPair(pair)
	return model.Market{
		BaseCurrency:       base,
		QuoteCurrency:      quote,
		CurrentPrice:       decimal.RequireFromString(price),
		MakerFee:           decimal.RequireFromString("0.001"),
		TakerFee:           decimal.RequireFromString("0.002"),
		MinimumOrderAmount: decimal.NewFromInt(500),
		DayVolume:          decimal.NewFromInt(1000),
	}
}

func testTrade(id string, at time.Time, price, volume string) model.Trade {
	return model.Trade{
		ID:        id,
		CreatedAt: at,
		Side:      model.Buy,
		Price:     decimal.RequireFromString(price),
		Volume:    decimal.RequireFromString(volume),
	}
}

func Test_Apply_BalanceEvents(t *testing.T) {
	state := DefaultState()
	state = Apply(state, SetBalances{Balances: model.BalanceMap{
		"BTC": testBalance("BTC", "1"),
		"ETH": testBalance("ETH", "10"),
	}})

	t.Run("Push merge leaves untouched currencies unchanged", func(t *testing.T) {
		next := Apply(state, UpdateBalances{Balances: model.BalanceMap{
			"BTC": testBalance("BTC", "2"),
		}})

		assert.True(t, next.Balances["BTC"].Amount.Equal(decimal.NewFromInt(2)))
		assert.True(t, next.Balances["ETH"].Amount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("Push merge adds unseen currencies", func(t *testing.T) {
		next := Apply(state, UpdateBalances{Balances: model.BalanceMap{
			"XRP": testBalance("XRP", "500"),
		}})

		assert.Len(t, next.Balances, 3)
	})

	t.Run("Snapshot replaces wholesale", func(t *testing.T) {
		next := Apply(state, SetBalances{Balances: model.BalanceMap{
			"XRP": testBalance("XRP", "500"),
		}})

		assert.Len(t, next.Balances, 1)
		_, hasBTC := next.Balances["BTC"]
		assert.False(t, hasBTC)
	})

	t.Run("Merge never mutates the previous state", func(t *testing.T) {
		_ = Apply(state, UpdateBalances{Balances: model.BalanceMap{
			"BTC": testBalance("BTC", "99"),
		}})

		assert.True(t, state.Balances["BTC"].Amount.Equal(decimal.NewFromInt(1)))
	})
}

func Test_Apply_MarketEvents(t *testing.T) {
	state := DefaultState()
	state = Apply(state, SetMarkets{Markets: model.MarketMap{
		"BTC/KRW": testMarket("BTC/KRW", "50000000"),
	}})

	t.Run("Price-only update preserves economics", func(t *testing.T) {
		next := Apply(state, UpdateMarketPrices{Prices: map[string]decimal.Decimal{
			"BTC/KRW": decimal.NewFromInt(51000000),
		}})

		market := next.Markets["BTC/KRW"]
		assert.True(t, market.CurrentPrice.Equal(decimal.NewFromInt(51000000)))
		assert.True(t, market.MakerFee.Equal(decimal.RequireFromString("0.001")))
		assert.True(t, market.DayVolume.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("Price-only update for an unknown pair is ignored", func(t *testing.T) {
		next := Apply(state, UpdateMarketPrices{Prices: map[string]decimal.Decimal{
			"DOGE/KRW": decimal.NewFromInt(100),
		}})

		_, ok := next.Markets["DOGE/KRW"]
		assert.False(t, ok)
	})

	t.Run("Full push entry replaces its market and keeps the rest", func(t *testing.T) {
		next := Apply(state, MergeMarkets{Markets: model.MarketMap{
			"ETH/KRW": testMarket("ETH/KRW", "3000000"),
		}})

		assert.Len(t, next.Markets, 2)
		assert.True(t, next.Markets["BTC/KRW"].CurrentPrice.Equal(decimal.NewFromInt(50000000)))
	})

	t.Run("Price update never mutates the previous state", func(t *testing.T) {
		_ = Apply(state, UpdateMarketPrices{Prices: map[string]decimal.Decimal{
			"BTC/KRW": decimal.NewFromInt(1),
		}})

		assert.True(t, state.Markets["BTC/KRW"].CurrentPrice.Equal(decimal.NewFromInt(50000000)))
	})
}

func Test_Apply_PushTrades(t *testing.T) {
	t.Run("Ring never exceeds its bound in one event", func(t *testing.T) {
		state := DefaultState()

		trades := make([]model.Trade, 0, 30)
		for i := 0; i < 30; i++ {
			trades = append(trades, testTrade(
				fmt.Sprintf("t%d", i),
				testBucketBase.Add(time.Duration(i)*time.Second),
				"100", "1",
			))
		}

		next := Apply(state, PushTrades{Trades: trades})

		require.Len(t, next.Trades, tradeRingSize)
		// The newest trades survive, oldest are evicted first.
		assert.Equal(t, "t29", next.Trades[len(next.Trades)-1].ID)
		assert.Equal(t, "t16", next.Trades[0].ID)
	})

	t.Run("Ring bound holds across successive events", func(t *testing.T) {
		state := DefaultState()
		for i := 0; i < 20; i++ {
			state = Apply(state, PushTrades{Trades: []model.Trade{
				testTrade(fmt.Sprintf("t%d", i), testBucketBase.Add(time.Duration(i)*time.Second), "100", "1"),
			}})
			assert.LessOrEqual(t, len(state.Trades), tradeRingSize)
		}
	})

	t.Run("Trades fold into the candle list", func(t *testing.T) {
		state := DefaultState()
		next := Apply(state, PushTrades{Trades: []model.Trade{
			testTrade("t1", testBucketBase.Add(5*time.Second), "100", "1"),
			testTrade("t2", testBucketBase.Add(70*time.Second), "110", "2"),
		}})

		require.Len(t, next.Candles, 2)
		assert.True(t, next.Candles[0].Open.Equal(decimal.NewFromInt(110)))
		assert.True(t, next.Candles[1].Close.Equal(decimal.NewFromInt(100)))
	})
}

func Test_Apply_CandleEvents(t *testing.T) {
	makeCandle := func(bucket int64) model.Candle {
		price := decimal.NewFromInt(100)
		return model.Candle{
			Timestamp: bucket, Open: price, High: price, Low: price, Close: price,
			UnitType: model.MinutesUnit, Unit: 1,
		}
	}

	t.Run("Snapshot replaces the list", func(t *testing.T) {
		state := DefaultState()
		state.Candles = []model.Candle{makeCandle(60000)}

		next := Apply(state, SetCandles{Candles: []model.Candle{makeCandle(120000)}})

		require.Len(t, next.Candles, 1)
		assert.Equal(t, int64(120000), next.Candles[0].Timestamp)
	})

	t.Run("Pagination merge re-sorts descending", func(t *testing.T) {
		state := DefaultState()
		state.Candles = []model.Candle{makeCandle(300000), makeCandle(240000)}

		next := Apply(state, SetCandles{
			Candles: []model.Candle{makeCandle(180000), makeCandle(120000)},
			Merge:   true,
		})

		require.Len(t, next.Candles, 4)
		for i := 1; i < len(next.Candles); i++ {
			assert.Greater(t, next.Candles[i-1].Timestamp, next.Candles[i].Timestamp)
		}
	})

	t.Run("Pagination merge drops duplicate buckets", func(t *testing.T) {
		state := DefaultState()
		state.Candles = []model.Candle{makeCandle(240000)}

		next := Apply(state, SetCandles{
			Candles: []model.Candle{makeCandle(240000), makeCandle(180000)},
			Merge:   true,
		})

		assert.Len(t, next.Candles, 2)
	})

	t.Run("Stale generation is discarded", func(t *testing.T) {
		state := DefaultState()
		state = Apply(state, SetMarketPair{Pair: "BTC/KRW"})
		staleGeneration := state.Generation
		state = Apply(state, SetMarketPair{Pair: "ETH/KRW"})

		next := Apply(state, SetCandles{
			Candles:    []model.Candle{makeCandle(60000)},
			Generation: staleGeneration,
		})

		assert.Empty(t, next.Candles)
	})

	t.Run("Unit change is recorded", func(t *testing.T) {
		state := DefaultState()
		next := Apply(state, SetCandleUnit{UnitType: model.MinutesUnit, Unit: 30})
		assert.Equal(t, 30, next.Unit)
	})
}

func Test_Apply_MarketPairSwitch(t *testing.T) {
	state := DefaultState()
	state = Apply(state, SetMarketPair{Pair: "BTC/KRW"})
	state = Apply(state, SetOrderBook{Levels: []model.OrderBookLevel{
		{Side: model.Buy, Price: decimal.NewFromInt(100), Volume: decimal.NewFromInt(1)},
	}})
	state = Apply(state, PushTrades{Trades: []model.Trade{
		testTrade("t1", testBucketBase, "100", "1"),
	}})

	require.NotEmpty(t, state.Orders)
	require.NotEmpty(t, state.Trades)
	require.NotEmpty(t, state.Candles)
	previousGeneration := state.Generation

	next := Apply(state, SetMarketPair{Pair: "ETH/KRW"})

	// Pair-scoped collections reset; warm collections survive.
	assert.Equal(t, "ETH/KRW", next.MarketPair)
	assert.Empty(t, next.Orders)
	assert.Empty(t, next.Trades)
	assert.Empty(t, next.Candles)
	assert.Equal(t, previousGeneration+1, next.Generation)
}

func Test_Apply_SessionEvents(t *testing.T) {
	state := DefaultState()

	session := &stubSession{}
	state = Apply(state, SessionOpened{Session: session})
	assert.NotNil(t, state.Session)

	state = Apply(state, SessionClosed{})
	assert.Nil(t, state.Session)
}

func Test_Apply_SetMe(t *testing.T) {
	state := DefaultState()

	me := &model.User{ID: "u1", Email: "trader@example.com"}
	state = Apply(state, SetMe{Me: me})
	require.NotNil(t, state.Me)
	assert.Equal(t, "u1", state.Me.ID)

	state = Apply(state, SetMe{Me: nil})
	assert.Nil(t, state.Me)
}

// stubSession satisfies Session for state transition tests.
type stubSession struct {
	subscribed []string
}

func (s *stubSession) SubscribeMarket(pair string) error {
	s.subscribed = append(s.subscribed, pair)
	return nil
}
