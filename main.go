package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/walkermail/src/config"
	"github.com/username/walkermail/src/database"
	"github.com/username/walkermail/src/handlers"
	"github.com/username/walkermail/src/logger"
	"github.com/username/walkermail/src/parsers"
	"github.com/username/walkermail/src/processors"
	"github.com/username/walkermail/src/services"
)

const usageText = `usage: walkermail <command> [flags]

commands:
  download   fetch order mails from the IMAP server into the archive
  parse      parse archived mails into the orders file
  output     render the orders file (json, titles or markdown)
  serve      serve the orders file over HTTP
  clean      remove the mail archive and/or the orders file
`

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "download":
		err = runDownload(os.Args[2:])
	case "parse":
		err = runParse(os.Args[2:])
	case "output":
		err = runOutput(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "clean":
		err = runClean(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}
	if err != nil {
		logger.L.Error("command failed", "command", os.Args[1], "error", err)
		stdlog.Fatalf("%s: %v", os.Args[1], err)
	}
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	database.InitDB(config.Cfg.DatabasePath)
	defer database.DB.Close()

	svc := services.NewDownloadService(config.Cfg, logger.L)
	return svc.Download(context.Background())
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	ordersPath := fs.String("o", config.Cfg.OrdersPath, "orders file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database.InitDB(config.Cfg.DatabasePath)
	defer database.DB.Close()

	mailService := services.NewMailService(logger.L)
	orderService := services.NewOrderService(parsers.NewOrderParser(logger.L), logger.L)

	mails, err := mailService.LoadMails(context.Background())
	if err != nil {
		return err
	}
	logger.L.Info("mails loaded", "count", len(mails))

	orders := orderService.ParseOrders(mails)
	return orderService.SaveOrders(*ordersPath, orders)
}

func runOutput(args []string) error {
	fs := flag.NewFlagSet("output", flag.ExitOnError)
	format := fs.String("format", "json", "output format: json, titles or markdown")
	outPath := fs.String("o", "", "write to file instead of stdout")
	since := fs.String("since", "", "keep orders on or after this date (2006-01-02)")
	until := fs.String("until", "", "keep orders before this date (2006-01-02)")
	normalize := fs.Bool("normalize", config.Cfg.NormalizeTitles, "canonicalize book titles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := services.OutputOptions{
		Since:           config.Cfg.OutputSince,
		Until:           config.Cfg.OutputUntil,
		NormalizeTitles: *normalize,
	}
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			return fmt.Errorf("parsing -since: %w", err)
		}
		opts.Since = t
	}
	if *until != "" {
		t, err := time.Parse("2006-01-02", *until)
		if err != nil {
			return fmt.Errorf("parsing -until: %w", err)
		}
		opts.Until = t
	}

	orderService := services.NewOrderService(parsers.NewOrderParser(logger.L), logger.L)
	outputService := services.NewOutputService(processors.NewTitleNormalizer(), processors.NewReportProcessor(), logger.L)

	orders, err := orderService.LoadOrders(config.Cfg.OrdersPath)
	if err != nil {
		return err
	}
	orders = outputService.Prepare(orders, opts)

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return outputService.Render(w, orders, *format)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", config.Cfg.Port, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	orderService := services.NewOrderService(parsers.NewOrderParser(logger.L), logger.L)
	outputService := services.NewOutputService(processors.NewTitleNormalizer(), processors.NewReportProcessor(), logger.L)

	logger.L.Info("Initializing orders cache...")
	ordersCache := cache.New(5*time.Minute, 10*time.Minute)

	orderHandler := handlers.NewOrderHandler(orderService, outputService, config.Cfg.OrdersPath, ordersCache)
	router := handlers.NewRouter(orderHandler)

	serverAddr := ":" + *port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	logger.L.Info("Server stopped gracefully.")
	return nil
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	target := fs.String("target", "all", "what to remove: all, mail or orders")
	if err := fs.Parse(args); err != nil {
		return err
	}

	removeFile := func(path string) error {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		if err == nil {
			logger.L.Info("removed", "path", path)
		}
		return nil
	}

	switch *target {
	case "all":
		if err := removeFile(config.Cfg.DatabasePath); err != nil {
			return err
		}
		return removeFile(config.Cfg.OrdersPath)
	case "mail":
		return removeFile(config.Cfg.DatabasePath)
	case "orders":
		return removeFile(config.Cfg.OrdersPath)
	default:
		return fmt.Errorf("unknown clean target: %s", *target)
	}
}
