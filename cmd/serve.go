package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/config"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/logging"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/notify"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/providers"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/redact"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resume"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/transports"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/transports/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview websocket server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)
	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcriber, err := providers.NewTranscriber(cfg.Vendors.STT.Provider, cfg.Vendors.STT.Settings, logger)
	if err != nil {
		return fmt.Errorf("build stt provider: %w", err)
	}
	synthesizer, err := providers.NewSynthesizer(cfg.Vendors.TTS.Provider, cfg.Vendors.TTS.Settings, logger)
	if err != nil {
		return fmt.Errorf("build tts provider: %w", err)
	}
	brain, err := providers.NewReasoner(ctx, cfg.Vendors.LLM.Provider, cfg.Vendors.LLM.Settings, logger)
	if err != nil {
		return fmt.Errorf("build llm provider: %w", err)
	}

	var sinks []session.ReportSink
	if cfg.Report.Webhook.Endpoint != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Report.Webhook, logger))
	}
	if cfg.Report.SMS.To != "" {
		sinks = append(sinks, notify.NewSMS(cfg.Report.SMS, logger))
	}
	var sink session.ReportSink
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = notify.NewMulti(sinks...)
	}

	var extractor resume.Extractor
	if cfg.Resume.Endpoint != "" {
		extractor = resume.NewClient(cfg.Resume, logger)
	}

	sessCfg := cfg.Interview.SessionConfig()
	factory := func(id string, conn session.Conn) interface {
		Run(ctx context.Context) error
	} {
		return session.New(id, conn, transcriber, synthesizer, brain, sink, sessCfg, logger)
	}

	var server transports.Transport = ws.NewServer(cfg.Transport, factory, extractor, logger)
	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("server_ready",
		slog.String("transport", server.Name()),
		slog.String("addr", server.Addr()),
		slog.String("environment", cfg.Environment))

	<-ctx.Done()
	logger.Info("shutting_down")
	return server.Stop()
}
