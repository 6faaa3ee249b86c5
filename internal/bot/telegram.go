package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"coinpricebot/internal/domain"
	"coinpricebot/internal/format"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"
)

type QuoteService interface {
	GetPriceQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetBalance(ctx context.Context, symbol, address string) (*domain.BalanceResult, error)
}

type Registry interface {
	Resolve(symbol string) (domain.CurrencyDescriptor, error)
	Symbols() []string
	Upsert(d domain.CurrencyDescriptor) error
	Remove(symbol string) (bool, error)
}

// Responder builds the reply for each bot command. It is separate from
// the telebot wiring so command handling can be tested without a live
// bot connection.
type Responder struct {
	quotes   QuoteService
	registry Registry
	adminID  int64
	version  string
}

func NewResponder(quotes QuoteService, registry Registry, adminID int64, version string) *Responder {
	return &Responder{quotes: quotes, registry: registry, adminID: adminID, version: version}
}

func StartTelegramBot(token string, r *Responder) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/help", func(c tele.Context) error {
		return c.Send(r.Help())
	})

	b.Handle("/price", func(c tele.Context) error {
		return c.Send(r.Price(context.Background(), c.Args()))
	})

	b.Handle("/balance", func(c tele.Context) error {
		return c.Send(r.Balance(context.Background(), c.Args()))
	})

	b.Handle("/removecurrency", func(c tele.Context) error {
		if s := c.Sender(); s == nil || s.ID != r.adminID {
			return nil
		}
		return c.Send(r.RemoveCurrency(c.Args()))
	})

	b.Handle("/updatecurrency", func(c tele.Context) error {
		if s := c.Sender(); s == nil || s.ID != r.adminID {
			return nil
		}
		return c.Send(r.UpdateCurrency(c.Args()))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func (r *Responder) Help() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coin Price Bot (Version: %s)", r.version)
	b.WriteString("\n/price <symbol> - Returns the current pricing information")
	b.WriteString("\n/balance <symbol> <address> - Returns the current token balance for a specific address")
	if symbols := r.registry.Symbols(); len(symbols) > 0 {
		fmt.Fprintf(&b, "\nSupported: %s", strings.Join(symbols, ", "))
	}
	return b.String()
}

func (r *Responder) Price(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Incorrect syntax. Usage: /price <symbol>"
	}
	symbol := strings.ToUpper(args[0])
	d, err := r.registry.Resolve(symbol)
	if err != nil {
		return r.unknownCurrency(symbol)
	}
	q, err := r.quotes.GetPriceQuote(ctx, symbol)
	if err != nil {
		log.Printf("price lookup for %s failed: %v", symbol, err)
		return "Something went wrong."
	}
	return format.RenderQuote(q, d.DisplayMode)
}

func (r *Responder) Balance(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Incorrect syntax. Usage: /balance <symbol> <address>"
	}
	symbol := strings.ToUpper(args[0])
	if _, err := r.registry.Resolve(symbol); err != nil {
		return r.unknownCurrency(symbol)
	}
	res, err := r.quotes.GetBalance(ctx, symbol, args[1])
	if err != nil {
		log.Printf("balance lookup for %s failed: %v", symbol, err)
		return "Something went wrong. Is the address correct?"
	}
	return format.RenderBalance(res)
}

func (r *Responder) RemoveCurrency(args []string) string {
	if len(args) != 1 {
		return "Incorrect syntax. Usage: /removecurrency <symbol>"
	}
	symbol := strings.ToUpper(args[0])
	removed, err := r.registry.Remove(symbol)
	if err != nil {
		log.Printf("removing %s failed: %v", symbol, err)
		return "Something went wrong."
	}
	if !removed {
		return fmt.Sprintf("%s hasn't been removed as it wasn't even present.", symbol)
	}
	return fmt.Sprintf("%s has been removed.", symbol)
}

const updateCurrencyUsage = "Incorrect syntax. Usage: /updatecurrency <symbol> <id> <contract_address> <burn_address> <decimals> <use_big_numbers> [<supply>]"

func (r *Responder) UpdateCurrency(args []string) string {
	if len(args) < 6 || len(args) > 7 {
		return updateCurrencyUsage
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return updateCurrencyUsage
	}
	decimals, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil {
		return updateCurrencyUsage
	}

	d := domain.CurrencyDescriptor{
		Symbol:          strings.ToUpper(args[0]),
		ProviderID:      id,
		ContractAddress: args[2],
		Decimals:        decimals,
	}
	if args[3] != "null" {
		burn := args[3]
		d.BurnAddress = &burn
	}
	if args[5] == "true" {
		d.DisplayMode = domain.DisplayBigNumber
	}
	if len(args) == 7 {
		supply, err := decimal.NewFromString(args[6])
		if err != nil {
			return updateCurrencyUsage
		}
		d.FixedSupply = &supply
	}

	if err := r.registry.Upsert(d); err != nil {
		log.Printf("updating %s failed: %v", d.Symbol, err)
		return "Something went wrong."
	}
	return fmt.Sprintf("%s has been updated.", d.Symbol)
}

func (r *Responder) unknownCurrency(symbol string) string {
	return fmt.Sprintf("Unknown currency: %s\nSupported: %s", symbol, strings.Join(r.registry.Symbols(), ", "))
}
