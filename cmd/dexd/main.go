package main

import (
	"log"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haejoon/godex/params"
	"github.com/haejoon/godex/pkg/api"
	"github.com/haejoon/godex/pkg/core"
	"github.com/haejoon/godex/pkg/core/events"
	"github.com/haejoon/godex/pkg/core/exchange"
	"github.com/haejoon/godex/pkg/core/token"
	"github.com/haejoon/godex/pkg/storage"
	"github.com/haejoon/godex/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Audit pipeline: durable journal + in-memory log for the read side +
	// hub for WebSocket subscribers.
	journal, err := storage.OpenJournal(cfg.Node.DBPath)
	if err != nil {
		sugar.Fatalw("open_journal", "path", cfg.Node.DBPath, "err", err)
	}
	defer journal.Close()

	auditLog := events.NewLog()
	hub := events.NewHub(256)
	defer hub.Close()

	rec := events.Tee{journal, auditLog, hub}

	supply := core.Tokens(cfg.Token.Supply)
	tok, err := token.New(
		common.HexToAddress(cfg.Token.Address),
		cfg.Token.Name,
		cfg.Token.Symbol,
		supply,
		common.HexToAddress(cfg.Token.Deployer),
		rec,
	)
	if err != nil {
		sugar.Fatalw("token_ledger", "err", err)
	}

	x, err := exchange.New(exchange.Config{
		Address:    common.HexToAddress(cfg.Exchange.Address),
		FeeAccount: common.HexToAddress(cfg.Exchange.FeeAccount),
		FeePercent: cfg.Exchange.FeePercent,
		Clock:      util.RealClock{},
		Recorder:   rec,
		Logger:     logger,
	})
	if err != nil {
		sugar.Fatalw("exchange", "err", err)
	}
	if err := x.RegisterToken(tok); err != nil {
		sugar.Fatalw("register_token", "err", err)
	}

	// Rebuild ledger, book and read-side history from the journal before
	// accepting calls. Apply mutates state without re-recording, so the
	// journal is not re-appended during recovery.
	if err := journal.Replay(func(e events.Event) error {
		auditLog.Record(e)
		if err := tok.Apply(e); err != nil {
			return err
		}
		return x.Apply(e)
	}); err != nil {
		sugar.Fatalw("replay_journal", "err", err)
	}
	sugar.Infow("journal_replayed", "events", auditLog.Len())

	sugar.Infow("node_ready",
		"token", tok.Address().Hex(),
		"symbol", tok.Symbol(),
		"fee_account", x.FeeAccount().Hex(),
		"fee_percent", x.FeePercent(),
	)

	server := api.NewServer(x, tok, auditLog, hub, logger)
	if err := server.Start(cfg.Node.ListenAddr); err != nil {
		sugar.Fatalw("api_server", "err", err)
	}
}
