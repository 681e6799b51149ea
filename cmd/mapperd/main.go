// Package main provides the mapper daemon: it connects to a MUD,
// negotiates MSDP, and keeps a persistent room map current as the
// player moves.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mudtools/msdpmap/internal/config"
	"github.com/mudtools/msdpmap/internal/mapper/engine"
	"github.com/mudtools/msdpmap/internal/observability"
	"github.com/mudtools/msdpmap/internal/scripting"
	"github.com/mudtools/msdpmap/internal/server"
	"github.com/mudtools/msdpmap/internal/store"
	"github.com/mudtools/msdpmap/internal/telnet"
)

// reportedVariables are requested from the server once MSDP is up.
var reportedVariables = []string{"ROOM", "POSITION", "ENVIRONMENT"}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/mapperd.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Open the map store and seed the engine with whatever previous
	// sessions learned.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("opening map store", zap.Error(err))
	}
	seed, err := st.LoadGraph()
	if err != nil {
		logger.Fatal("loading persisted map", zap.Error(err))
	}
	logger.Info("map store opened",
		zap.String("path", cfg.Store.Path),
		zap.Int("rooms", seed.RoomCount()),
	)

	dialStart := time.Now()
	client, err := telnet.Dial(cfg.Game.Addr(), cfg.Game.ReadTimeout, cfg.Game.WriteTimeout)
	if err != nil {
		logger.Fatal("connecting to game", zap.Error(err))
	}
	logger.Info("connected",
		zap.String("addr", cfg.Game.Addr()),
		zap.Duration("elapsed", time.Since(dialStart)),
	)

	eng, err := engine.New(engine.Config{
		Logger:           logger,
		Session:          client,
		SpeedwalkTimeout: cfg.Mapper.SpeedwalkTimeout,
		InitialGraph:     seed,
	})
	if err != nil {
		logger.Fatal("creating mapper engine", zap.Error(err))
	}

	// Wire lifecycle. The store is registered first so its final save
	// runs last, after the session loop has stopped touching the graph.
	lifecycle := server.NewLifecycle(logger)

	storeDone := make(chan struct{})
	lifecycle.Add("store", &server.FuncService{
		StartFn: func() error {
			<-storeDone
			return nil
		},
		StopFn: func() {
			if err := st.SaveGraph(eng.Graph()); err != nil {
				logger.Error("final map save failed", zap.Error(err))
			}
			if err := st.Close(); err != nil {
				logger.Error("closing map store", zap.Error(err))
			}
			close(storeDone)
		},
	})

	if cfg.Scripting.Enabled {
		hooks := scripting.NewHooks(logger)
		if err := hooks.LoadDir(cfg.Scripting.Dir); err != nil {
			logger.Fatal("loading hook scripts", zap.Error(err))
		}
		notifs := make(chan engine.Notification, 256)
		eng.Subscribe(notifs)
		lifecycle.Add("hooks", &server.FuncService{
			StartFn: func() error {
				for n := range notifs {
					hooks.Dispatch(n)
				}
				hooks.Close()
				return nil
			},
			StopFn: func() {
				// Unsubscribe guarantees no further engine sends on
				// notifs, so closing it here is safe and ends the
				// dispatch loop.
				eng.Unsubscribe(notifs)
				close(notifs)
			},
		})
	}

	lifecycle.Add("session", &server.FuncService{
		StartFn: func() error {
			return runSession(client, eng, st, cfg.Mapper.SaveInterval, logger)
		},
		StopFn: func() {
			eng.CancelSpeedwalk()
			_ = client.Close()
		},
	})

	logger.Info("mapper initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("mapper error", zap.Error(err))
	}
}

// runSession drives the game connection: it requests MSDP reporting
// once the option is negotiated, routes variable updates into the
// engine, and periodically flushes the graph to the store. Running the
// flush here keeps all graph access on the session goroutine.
func runSession(client *telnet.Client, eng *engine.Engine, st *store.Store, saveInterval time.Duration, logger *zap.Logger) error {
	reported := false
	lastSave := time.Now()

	for {
		msg, err := client.ReadMessage()
		if err != nil {
			return err
		}

		if !reported && client.MSDPEnabled() {
			for _, name := range reportedVariables {
				if err := client.SendMSDP("REPORT", name); err != nil {
					return err
				}
			}
			logger.Info("msdp reporting requested", zap.Strings("variables", reportedVariables))
			reported = true
		}

		switch msg.Kind {
		case telnet.KindMSDP:
			for _, pair := range msg.Pairs {
				eng.HandleVariable(pair.Name, pair.Value)
			}
		case telnet.KindLine:
			logger.Debug("game text", zap.String("line", msg.Line))
		}

		if saveInterval > 0 && time.Since(lastSave) >= saveInterval {
			if err := st.SaveGraph(eng.Graph()); err != nil {
				logger.Warn("periodic map save failed", zap.Error(err))
			} else {
				lastSave = time.Now()
			}
		}
	}
}
