package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"futures-testnet-bot/internal/config"
	"futures-testnet-bot/internal/core"
	"futures-testnet-bot/internal/exchange"
	"futures-testnet-bot/internal/filters"
	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/metrics"
	"futures-testnet-bot/internal/model"
	"futures-testnet-bot/internal/order"
	"futures-testnet-bot/internal/repository"
	"futures-testnet-bot/internal/service"
)

const usage = `Binance Futures Testnet Order Bot

Usage:
  bot account                                   show USDT futures balance
  bot price      --symbol BTCUSDT              show current market price
  bot filters    --symbol BTCUSDT              show (and refresh) symbol filters
  bot check      <order flags>                  validate an order without submitting
  bot market     --symbol S --side BUY --quantity Q [--reduce-only]
  bot limit      --symbol S --side SELL --quantity Q --price P [--tif GTC] [--reduce-only]
  bot stop-limit --symbol S --side SELL --quantity Q --price P --stop-price SP [--tif GTC] [--reduce-only]
  bot cancel     --symbol S --order-id ID
  bot cancel-all --symbol S                     cancel every open order on a symbol
  bot status     --symbol S --order-id ID       look up one order
  bot orders     [--symbol S]                   list open orders
  bot watch                                     follow prices and order updates
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFile)
	logger.Info("Starting futures testnet bot", "command", os.Args[1], "testnet", cfg.Testnet)

	gateway := exchange.NewBinance(cfg.BinanceAPIKey, cfg.BinanceSecretKey, cfg.Testnet)
	cache := filters.NewCache(gateway)
	storage := repository.NewStorage()
	journal := repository.NewOrderJournal(storage, cfg.OrdersFile)
	if err := journal.Load(); err != nil {
		logger.Error("Failed to load order journal", "error", err)
		fmt.Fprintf(os.Stderr, "Error: failed to load order journal: %v\n", err)
		os.Exit(1)
	}
	telegram := service.NewTelegramService(cfg)
	tracker := metrics.NewTracker(cfg)
	desk := core.NewDesk(cfg, cache, gateway, journal, telegram, tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "account", "balance":
		err = runAccount(ctx, desk)
	case "price":
		err = runPrice(ctx, desk, args)
	case "filters":
		err = runFilters(ctx, desk, args)
	case "check":
		err = runOrder(ctx, desk, args, true)
	case "market", "limit", "stop-limit":
		err = runOrder(ctx, desk, append([]string{"--type", cmd}, args...), false)
	case "cancel":
		err = runCancel(ctx, desk, args)
	case "cancel-all":
		err = runCancelAll(ctx, desk, args)
	case "status":
		err = runStatus(ctx, desk, args)
	case "orders":
		err = runOpenOrders(ctx, desk, args)
	case "watch":
		err = runWatch(ctx, desk, gateway, cfg)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		if rej, ok := order.AsRejection(err); ok {
			fmt.Fprintf(os.Stderr, "Rejected [%s]: %s\n", rej.Code, rej.Message)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAccount(ctx context.Context, desk *core.Desk) error {
	bal, err := desk.Balance(ctx, "USDT")
	if err != nil {
		return err
	}
	fmt.Println("=== Account Balance ===")
	fmt.Printf("USDT Available: %s\n", bal.Available)
	fmt.Printf("USDT Total:     %s\n", bal.Total)
	return nil
}

func runPrice(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("price", flag.ExitOnError)
	symbol := fs.String("symbol", desk.Cfg.Symbol, "trading symbol")
	_ = fs.Parse(args)

	price, err := desk.MarketPrice(ctx, *symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", *symbol, price)
	return nil
}

func runFilters(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("filters", flag.ExitOnError)
	symbol := fs.String("symbol", desk.Cfg.Symbol, "trading symbol")
	_ = fs.Parse(args)

	f, err := desk.RefreshFilters(ctx, *symbol)
	if err != nil {
		return err
	}
	fmt.Printf("=== Filters for %s (%s) ===\n", f.Symbol, f.Status)
	fmt.Printf("Tick size:    %s\n", f.TickSize)
	fmt.Printf("Step size:    %s\n", f.StepSize)
	fmt.Printf("Price range:  [%s, %s]\n", f.MinPrice, f.MaxPrice)
	fmt.Printf("Qty range:    [%s, %s]\n", f.MinQty, f.MaxQty)
	fmt.Printf("Min notional: %s\n", f.MinNotional)
	fmt.Printf("Price band:   x%s .. x%s of market\n", f.MultiplierDown, f.MultiplierUp)
	return nil
}

func orderFlags(fs *flag.FlagSet, defaults *config.Config) *order.RawOrderArgs {
	args := &order.RawOrderArgs{}
	fs.StringVar(&args.Symbol, "symbol", defaults.Symbol, "trading symbol")
	fs.StringVar(&args.Side, "side", "", "BUY or SELL")
	fs.StringVar(&args.Type, "type", "", "MARKET, LIMIT or STOP_LIMIT")
	fs.StringVar(&args.Quantity, "quantity", "", "order quantity")
	fs.StringVar(&args.Price, "price", "", "limit price")
	fs.StringVar(&args.StopPrice, "stop-price", "", "stop trigger price")
	fs.StringVar(&args.TimeInForce, "tif", defaults.TimeInForce, "time in force (GTC, IOC, FOK)")
	fs.BoolVar(&args.ReduceOnly, "reduce-only", false, "only reduce an existing position")
	return args
}

func runOrder(ctx context.Context, desk *core.Desk, args []string, dryRun bool) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	raw := orderFlags(fs, desk.Cfg)
	_ = fs.Parse(args)

	if dryRun {
		normalized, err := desk.Validate(ctx, *raw)
		if err != nil {
			return err
		}
		fmt.Println("Order is valid:")
		printNormalized(normalized)
		return nil
	}

	ack, err := desk.PlaceOrder(ctx, *raw)
	if err != nil {
		return err
	}
	fmt.Println("Order placed successfully:")
	fmt.Printf("Symbol:   %s\n", ack.Symbol)
	fmt.Printf("Order ID: %d\n", ack.OrderID)
	fmt.Printf("Status:   %s\n", ack.Status)
	return nil
}

func printNormalized(o model.NormalizedOrder) {
	fmt.Printf("Symbol:   %s\n", o.Symbol)
	fmt.Printf("Side:     %s\n", o.Side)
	fmt.Printf("Type:     %s\n", o.Type)
	fmt.Printf("Quantity: %s\n", o.Quantity)
	if o.Type != model.TypeMarket {
		fmt.Printf("Price:    %s\n", o.Price)
	}
	if o.Type == model.TypeStopLimit {
		fmt.Printf("Stop:     %s\n", o.StopPrice)
	}
	if o.ReduceOnly {
		fmt.Println("Reduce-only: yes")
	}
}

func runCancel(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	symbol := fs.String("symbol", desk.Cfg.Symbol, "trading symbol")
	orderID := fs.Int64("order-id", 0, "exchange order ID")
	_ = fs.Parse(args)

	if *orderID <= 0 {
		return fmt.Errorf("--order-id is required")
	}
	if err := desk.CancelOrder(ctx, *symbol, *orderID); err != nil {
		return err
	}
	fmt.Printf("Order %d canceled on %s\n", *orderID, *symbol)
	return nil
}

func runCancelAll(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("cancel-all", flag.ExitOnError)
	symbol := fs.String("symbol", desk.Cfg.Symbol, "trading symbol")
	_ = fs.Parse(args)

	if err := desk.CancelAllOrders(ctx, *symbol); err != nil {
		return err
	}
	fmt.Printf("All open orders canceled on %s\n", *symbol)
	return nil
}

func runStatus(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	symbol := fs.String("symbol", desk.Cfg.Symbol, "trading symbol")
	orderID := fs.Int64("order-id", 0, "exchange order ID")
	_ = fs.Parse(args)

	if *orderID <= 0 {
		return fmt.Errorf("--order-id is required")
	}
	o, err := desk.OrderStatus(ctx, *symbol, *orderID)
	if err != nil {
		return err
	}
	fmt.Printf("=== Order %d on %s ===\n", o.OrderID, o.Symbol)
	fmt.Printf("Status:   %s\n", o.Status)
	fmt.Printf("Side:     %s (%s)\n", o.Side, o.Type)
	fmt.Printf("Quantity: %s (executed %s)\n", o.Quantity, o.ExecutedQty)
	if !o.Price.IsZero() {
		fmt.Printf("Price:    %s\n", o.Price)
	}
	if !o.StopPrice.IsZero() {
		fmt.Printf("Stop:     %s\n", o.StopPrice)
	}
	return nil
}

func runOpenOrders(ctx context.Context, desk *core.Desk, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	symbol := fs.String("symbol", "", "trading symbol (all symbols when empty)")
	_ = fs.Parse(args)

	orders, err := desk.OpenOrders(ctx, *symbol)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No open orders")
		return nil
	}
	fmt.Printf("%-12s %-10s %-5s %-12s %-14s %-14s %s\n",
		"ORDER ID", "SYMBOL", "SIDE", "TYPE", "PRICE", "QTY", "STATUS")
	for _, o := range orders {
		fmt.Printf("%-12d %-10s %-5s %-12s %-14s %-14s %s\n",
			o.OrderID, o.Symbol, o.Side, o.Type, o.Price, o.Quantity, o.Status)
	}
	return nil
}

func runWatch(ctx context.Context, desk *core.Desk, gateway *exchange.Binance, cfg *config.Config) error {
	// Catch up on anything that happened while we were offline before
	// trusting the live stream.
	if err := desk.SyncJournal(ctx); err != nil {
		logger.Warn("Initial journal sync failed", "error", err)
	}

	marketData := service.NewMarketDataService()
	stream := service.NewStreamService(gateway, cfg.Testnet)
	balanceRepo := repository.NewBalanceRepository()

	bot := core.NewBot(desk, marketData, stream, balanceRepo)
	fmt.Printf("Watching %s (Ctrl-C to stop, logs in %s)\n", cfg.Symbol, cfg.LogFile)
	bot.Run(ctx)
	return nil
}
