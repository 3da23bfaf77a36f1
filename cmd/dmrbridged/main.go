package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/dbehnke/dmrcore/pkg/bridge"
	"github.com/dbehnke/dmrcore/pkg/config"
	"github.com/dbehnke/dmrcore/pkg/dmr"
	"github.com/dbehnke/dmrcore/pkg/homebrew"
	"github.com/dbehnke/dmrcore/pkg/logger"
	"github.com/dbehnke/dmrcore/pkg/metrics"
	"github.com/dbehnke/dmrcore/pkg/mmdvm"
	"github.com/dbehnke/dmrcore/pkg/reactor"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dmrbridged %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validate {
		if err := config.Validate(&cfg); err != nil {
			log.Error("configuration is invalid", logger.Error(err))
			os.Exit(1)
		}
		log.Info("configuration is valid")
		os.Exit(0)
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("starting dmrbridged",
		logger.String("version", version),
		logger.String("name", cfg.Name))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := reactor.New(log.WithComponent("reactor"))
	loop.RegisterSignal(syscall.SIGINT, func(os.Signal) { cancel() })
	loop.RegisterSignal(syscall.SIGTERM, func(os.Signal) { cancel() })

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	core := bridge.NewCore(repeaterColorCode(cfg), log.WithComponent("bridge"))
	core.SetPolicy(bridge.NewRulePolicy(cfg.Bridges))
	if collector != nil {
		core.SetMetrics(collector)
	}
	core.RegisterCleanup(loop)

	for name, hbCfg := range cfg.Homebrews {
		if !hbCfg.Enabled {
			log.Info("homebrew transport disabled, skipping", logger.String("transport", name))
			continue
		}
		if hbCfg.Mode != config.HomebrewModePeer && hbCfg.Mode != config.HomebrewModeOpenBridge {
			log.Warn("homebrew mode not yet implemented, skipping",
				logger.String("transport", name), logger.String("mode", string(hbCfg.Mode)))
			continue
		}

		client := homebrew.NewClient(hbCfg.RadioID, hbCfg, log.WithComponent("homebrew."+name))
		if err := client.Dial(); err != nil {
			log.Error("failed to dial homebrew master",
				logger.String("transport", name), logger.Error(err))
			os.Exit(1)
		}
		if collector != nil {
			client.SetMetrics(collector)
		}
		client.OnPacket(func(p *dmr.ParsedPacket) { core.Ingress(client, p) })
		if err := client.Register(loop); err != nil {
			log.Error("failed to register homebrew transport",
				logger.String("transport", name), logger.Error(err))
			os.Exit(1)
		}
		core.RegisterTransport(client)
		log.Info("homebrew transport started",
			logger.String("transport", name),
			logger.String("mode", string(hbCfg.Mode)),
			logger.String("master", fmt.Sprintf("%s:%d", hbCfg.MasterAddr, hbCfg.MasterPort)))
	}

	for name, mmCfg := range cfg.MMDVMs {
		if !mmCfg.Enabled {
			log.Info("mmdvm transport disabled, skipping", logger.String("transport", name))
			continue
		}

		modem, err := mmdvm.Open(mmCfg, log.WithComponent("mmdvm."+name))
		if err != nil {
			log.Error("failed to open mmdvm modem",
				logger.String("transport", name), logger.Error(err))
			os.Exit(1)
		}
		if collector != nil {
			modem.SetMetrics(collector)
		}
		modem.OnPacket(func(p *dmr.ParsedPacket) { core.Ingress(modem, p) })
		modem.Register(loop)
		core.RegisterTransport(modem)
		log.Info("mmdvm transport started",
			logger.String("transport", name), logger.String("port", mmCfg.Port))
	}

	log.Info("dmrbridged running")
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Error("reactor loop exited with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("dmrbridged stopped")
}

// repeaterColorCode picks the color code Core stamps into restored
// headers. Every configured transport carries its own ColorCode (a
// repeater can in principle straddle mismatched color codes on each
// leg), but Core re-stamps with a single value per spec 4.8c, so the
// first enabled transport found wins; a deployment bridging
// mismatched color codes needs one dmrbridged process per color code.
func repeaterColorCode(cfg config.RepeaterConfig) uint8 {
	for _, h := range cfg.Homebrews {
		if h.Enabled {
			return h.ColorCode
		}
	}
	for _, m := range cfg.MMDVMs {
		if m.Enabled {
			return m.ColorCode
		}
	}
	return 1
}
