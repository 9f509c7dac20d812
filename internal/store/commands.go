package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hanc1208/iu-exchange-frontend/internal/api"
	"github.com/hanc1208/iu-exchange-frontend/internal/model"
	"github.com/hanc1208/iu-exchange-frontend/internal/numeric"
)

// APIClient is the outbound request/response collaborator the commands
// fetch through. Implemented by api.Client.
type APIClient interface {
	Currencies(ctx context.Context) (model.CurrencyMap, error)
	Candles(ctx context.Context, opts api.CandlesOptions) ([]model.Candle, error)
	CreateOrder(ctx context.Context, order model.Order) error
	CancelOrders(ctx context.Context, pair string) error
	Me(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, email, password string) (*model.User, error)
}

// SessionController is the transport-facing surface the commands drive:
// sending subscription frames and forcing a clean reconnect when the
// authenticated user changes.
type SessionController interface {
	SubscribeMarket(pair string) error
	Reconnect(ctx context.Context) error
}

// Commands wraps the asynchronous side-effecting operations of the client.
//
// Each command performs its fetch (or transport send) and resolves by
// dispatching a discrete event; the state itself is only ever touched by
// Apply on the dispatcher's goroutine.
type Commands struct {
	api     APIClient
	d       *Dispatcher
	session SessionController
}

// NewCommands wires the command layer. session may be nil in tests that
// exercise fetch commands only.
func NewCommands(client APIClient, d *Dispatcher, session SessionController) *Commands {
	return &Commands{api: client, d: d, session: session}
}

// FetchCurrencies loads the currency listing and installs it wholesale.
func (c *Commands) FetchCurrencies(ctx context.Context) error {
	currencies, err := c.api.Currencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch currencies: %w", err)
	}
	c.d.Dispatch(SetCurrencies{Currencies: currencies})
	return nil
}

// FetchCandlesOptions selects which candles to fetch. Zero-valued fields
// default to the store's active pair and candle unit.
type FetchCandlesOptions struct {
	Pair     string
	UnitType model.CandleUnitType
	Unit     int
	Offset   int
	Count    int
}

// FetchCandles loads a candle snapshot and installs it. A positive Offset
// marks a pagination fetch: the result is merged into the existing list
// instead of replacing it. The store generation observed here rides along
// on the event, so a response that outlives a market-pair switch is
// discarded rather than applied to the wrong pair.
func (c *Commands) FetchCandles(ctx context.Context, opts FetchCandlesOptions) error {
	state := c.d.State()
	if opts.Pair == "" {
		opts.Pair = state.MarketPair
	}
	if opts.UnitType == "" {
		opts.UnitType = state.UnitType
	}
	if opts.Unit == 0 {
		opts.Unit = state.Unit
	}

	candleList, err := c.api.Candles(ctx, api.CandlesOptions{
		Pair:     opts.Pair,
		UnitType: opts.UnitType,
		Unit:     opts.Unit,
		Offset:   opts.Offset,
		Count:    opts.Count,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch candles for %s: %w", opts.Pair, err)
	}

	c.d.Dispatch(SetCandles{
		Candles:    candleList,
		Merge:      opts.Offset > 0,
		Generation: state.Generation,
	})
	return nil
}

// SetCandleUnit switches the active candle bucket and refetches candles for
// the watched pair at the new width.
func (c *Commands) SetCandleUnit(ctx context.Context, unitType model.CandleUnitType, unit int) error {
	c.d.DispatchSync(SetCandleUnit{UnitType: unitType, Unit: unit})
	return c.FetchCandles(ctx, FetchCandlesOptions{UnitType: unitType, Unit: unit})
}

// SubscribeMarket switches the watched market pair: pair-scoped collections
// are reset, a subscribe frame goes out over the live session, and a fresh
// candle snapshot is fetched.
//
// Re-subscription after a reconnect goes through here as well; the session
// manager itself holds no subscription state.
func (c *Commands) SubscribeMarket(ctx context.Context, pair string) error {
	if _, _, err := model.SplitPair(pair); err != nil {
		return err
	}

	c.d.DispatchSync(SetMarketPair{Pair: pair})

	state := c.d.State()
	if state.Session != nil {
		if err := state.Session.SubscribeMarket(pair); err != nil {
			log.Warn().Err(err).Str("pair", pair).Msg("failed to send subscribe frame")
		}
	}

	return c.FetchCandles(ctx, FetchCandlesOptions{Pair: pair})
}

// Resubscribe re-sends the subscription for the currently watched pair.
// Called by the composition root when the session reference transitions
// from nil to non-nil after a reconnect.
func (c *Commands) Resubscribe(ctx context.Context) error {
	state := c.d.State()
	if state.MarketPair == "" {
		return nil
	}
	return c.SubscribeMarket(ctx, state.MarketPair)
}

// SubmitOrder validates the order price against the market's tick size and
// submits it. An illegal price never reaches the transport boundary.
func (c *Commands) SubmitOrder(ctx context.Context, order model.Order) error {
	state := c.d.State()
	market, ok := state.Markets[order.Pair]
	if !ok {
		return fmt.Errorf("unknown market %s", order.Pair)
	}

	if err := numeric.ValidateOrderPrice(market, order.Price); err != nil {
		return err
	}
	if order.Volume.Mul(order.Price).LessThan(market.MinimumOrderAmount) {
		return fmt.Errorf("order amount below market minimum %s", market.MinimumOrderAmount)
	}

	if err := c.api.CreateOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to submit order: %w", err)
	}
	return nil
}

// CancelOrders cancels the user's open orders on a market.
func (c *Commands) CancelOrders(ctx context.Context, pair string) error {
	if err := c.api.CancelOrders(ctx, pair); err != nil {
		return fmt.Errorf("failed to cancel orders: %w", err)
	}
	return nil
}

// FetchMe loads the authenticated user, when any.
func (c *Commands) FetchMe(ctx context.Context) error {
	me, err := c.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch current user: %w", err)
	}
	return c.setMe(ctx, me)
}

// Login authenticates and installs the resulting user.
func (c *Commands) Login(ctx context.Context, email, password string) error {
	me, err := c.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return c.setMe(ctx, me)
}

// Logout ends the session and clears the user.
func (c *Commands) Logout(ctx context.Context) error {
	if err := c.api.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return c.setMe(ctx, nil)
}

// Register creates an account and installs the resulting user.
func (c *Commands) Register(ctx context.Context, email, password string) error {
	me, err := c.api.Register(ctx, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return c.setMe(ctx, me)
}

// setMe records the user change. Logging out clears balances, and any
// change of identity forces a clean reconnect so the push channel carries
// the right account's balance stream.
func (c *Commands) setMe(ctx context.Context, me *model.User) error {
	state := c.d.State()

	if me == nil {
		c.d.Dispatch(SetBalances{Balances: model.BalanceMap{}})
	}
	c.d.DispatchSync(SetMe{Me: me})

	if c.session != nil && !sameUser(state.Me, me) {
		if err := c.session.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect push session: %w", err)
		}
	}
	return nil
}

func sameUser(a, b *model.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
