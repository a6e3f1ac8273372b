package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/broker/sim"
	"github.com/rustyeddy/brokerd/config"
	"github.com/rustyeddy/brokerd/engine"
	"github.com/rustyeddy/brokerd/journal"
	"github.com/rustyeddy/brokerd/market"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay historical tick data through the execution engine",
	Long: `Replay tick data from a CSV file (time,symbol,bid,ask) through a
simulated venue and the execution engine, optionally opening a market
position on the first tick.

Examples:
  brokerd replay --ticks data/eurusd.csv
  brokerd replay --ticks data/eurusd.csv --symbol EURUSD --units 10 --stop-loss 0.0010`,
	RunE: runReplay,
}

var (
	replayConfigPath string
	replayTicksPath  string
	replaySymbol     string
	replayUnits      float64
	replayStopLoss   float64
	replayTakeProfit float64
	replayCloseEnd   bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "f", "", "path to config file")
	replayCmd.Flags().StringVarP(&replayTicksPath, "ticks", "t", "", "CSV file of ticks (time,symbol,bid,ask)")
	replayCmd.Flags().StringVar(&replaySymbol, "symbol", "", "open a market order on this symbol after the first tick")
	replayCmd.Flags().Float64Var(&replayUnits, "units", 0, "order quantity, negative for sell")
	replayCmd.Flags().Float64Var(&replayStopLoss, "stop-loss", 0, "stop-loss offset from fill price")
	replayCmd.Flags().Float64Var(&replayTakeProfit, "take-profit", 0, "take-profit offset from fill price")
	replayCmd.Flags().BoolVar(&replayCloseEnd, "close-end", true, "close all open positions at end")

	_ = replayCmd.MarkFlagRequired("ticks")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := newLogger()

	cfg := config.Default()
	if replayConfigPath != "" {
		loaded, err := config.LoadFromFile(replayConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	recorder := journal.NewRecorder(j)
	recorder.OnError = func(err error) { log.Error("journal", "err", err) }

	securities := cfg.SecuritySet()
	ticks := market.NewTickStore()
	venue := sim.New(ticks, securities)

	account := broker.AccountInfo{
		ID:           cfg.Account.ID,
		Currency:     cfg.Account.Currency,
		Balance:      decimal.NewFromFloat(cfg.Account.Balance),
		BrokerName:   cfg.Account.Broker,
		DatafeedName: cfg.Account.Datafeed,
	}

	eng := engine.New(account, securities, venue, broker.Multi(recorder, &logEvents{log: log}),
		engine.WithTickStore(ticks),
		engine.WithWorkers(cfg.Engine.Workers),
	)
	venue.Connect(eng)

	if err := eng.Login(ctx, broker.Credentials{
		Account:  cfg.Account.ID,
		User:     os.Getenv("BROKERD_USER"),
		Password: os.Getenv("BROKERD_PASSWORD"),
	}); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}

	if err := feedTicks(eng, replayTicksPath, log); err != nil {
		return err
	}

	if replayCloseEnd {
		eng.CloseAllPositions()
	}
	// drain in-flight ticks before the final report
	time.Sleep(100 * time.Millisecond)
	if err := eng.Stop(ctx); err != nil {
		return err
	}

	acct := eng.Account()
	fmt.Printf("account %s: balance=%s margin=%s profit=%s equity=%s\n",
		acct.ID, acct.Balance, acct.Margin, acct.Profit, acct.Equity)
	return nil
}

func feedTicks(eng *engine.Engine, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ticks: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	first := true
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read ticks: %w", err)
		}
		line++
		if len(rec) < 4 || rec[0] == "time" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			log.Error("bad tick time", "line", line, "err", err)
			continue
		}
		bid, err := decimal.NewFromString(rec[2])
		if err != nil {
			log.Error("bad bid", "line", line, "err", err)
			continue
		}
		ask, err := decimal.NewFromString(rec[3])
		if err != nil {
			log.Error("bad ask", "line", line, "err", err)
			continue
		}
		eng.OnNewTick(rec[1], bid, ask, ts)

		if first {
			first = false
			// give the workers a moment so the opening order fills off a
			// cached price
			time.Sleep(50 * time.Millisecond)
			placeOpeningOrder(eng)
		}
	}
	return nil
}

func placeOpeningOrder(eng *engine.Engine) {
	if replaySymbol == "" || replayUnits == 0 {
		return
	}
	side := broker.SideBuy
	units := replayUnits
	if units < 0 {
		side = broker.SideSell
		units = -units
	}
	eng.PlaceOrder(broker.Order{
		Symbol:     replaySymbol,
		Side:       side,
		Kind:       broker.KindMarket,
		Quantity:   decimal.NewFromFloat(units),
		ServerSide: replayStopLoss > 0 || replayTakeProfit > 0,
		StopLoss:   decimal.NewFromFloat(replayStopLoss),
		TakeProfit: decimal.NewFromFloat(replayTakeProfit),
	})
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.NewCSV(cfg.OrdersFile, cfg.EquityFile)
	}
}
