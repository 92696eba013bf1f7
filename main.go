package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"weekly_report_bot/config"
	"weekly_report_bot/delivery"
	"weekly_report_bot/generator"
	"weekly_report_bot/scheduler"
	"weekly_report_bot/server"
	"weekly_report_bot/workflow"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start web server with the scheduler")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	once := flag.Bool("once", false, "generate and deliver one report, then exit")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	logger := buildLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reporter, err := generator.NewReporter(llm, generator.ReportSpec{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	sink, err := delivery.NewSink(cfg.WebhookURL, nil, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// One-shot CLI mode bypasses the state machine, like a manual run.
	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := reporter.Generate(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := sink.Deliver(ctx, report); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Info("report delivered")
		return
	}

	if !*serve {
		fmt.Fprintln(os.Stderr, "either --serve or --once is required")
		os.Exit(1)
	}

	credential := ""
	if cfg.LLM != nil {
		credential = cfg.LLM.APIKey
	}
	machine := workflow.NewMachine(reporter, sink, credential, cfg.RequireApproval, logger)

	window, err := buildWindow(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	poller := scheduler.NewPoller(window, machine, cfg.AutoTrigger, logger)
	go poller.Run(context.Background())

	srv, err := server.New(machine, poller, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	listen := cfg.ServerAddr
	if *addr != "" {
		listen = *addr
	}
	if listen == "" {
		listen = ":8080"
	}
	logger.Info("starting web server", zap.String("addr", listen),
		zap.String("window", fmt.Sprintf("%s %02d:%02d", window.Weekday, window.Hour, window.Minute)))
	if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return logger
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" || cfg.LLM.Provider == "mock" {
		return generator.MockLLM{}, nil
	}
	// A missing api_key is not a startup error; the workflow reports
	// it per run and recovers.
	if cfg.LLM.APIKey == "" {
		return generator.MockLLM{}, nil
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func buildWindow(cfg config.Config) (scheduler.Window, error) {
	window := scheduler.Window{Weekday: time.Friday, Hour: 16, Minute: 30}
	if cfg.Trigger == nil {
		return window, nil
	}
	weekday, err := config.ParseWeekday(cfg.Trigger.Weekday)
	if err != nil {
		return scheduler.Window{}, err
	}
	window.Weekday = weekday
	window.Hour = cfg.Trigger.Hour
	window.Minute = cfg.Trigger.Minute
	return window, nil
}
