package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/KocBilge/barcode/infrastructure/config"
	"github.com/KocBilge/barcode/infrastructure/scanclient"
)

func main() {
	sectionFlag := flag.String("section", "", "section scans are filed under (default SCAN_SECTION)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	section := cfg.Scanner.Section
	if *sectionFlag != "" {
		section = *sectionFlag
	}

	client := scanclient.New(cfg.Client.BaseURL, cfg.Scanner.Key, cfg.Client.Timeout)
	sub := scanclient.NewSubmitter(client, logResult)
	if cfg.Scanner.DedupWindow > 0 {
		sub.Window = cfg.Scanner.DedupWindow
	}
	if cfg.Client.Timeout > 0 {
		sub.Timeout = cfg.Client.Timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("reading scans from stdin", slog.String("server", cfg.Client.BaseURL), slog.String("section", section))
	if err := readScans(ctx, os.Stdin, sub, section); err != nil {
		slog.Error("read scans failed", slog.Any("err", err))
	}
	sub.Wait()
}

type acceptor interface {
	Accept(code, section string) bool
}

// readScans feeds one code per input line to sub until EOF or ctx is done.
// A keyboard-wedge scanner types the code followed by Enter.
func readScans(ctx context.Context, r io.Reader, sub acceptor, section string) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			code := strings.TrimSpace(line)
			if code == "" {
				continue
			}
			if !sub.Accept(code, section) {
				slog.Debug("duplicate scan suppressed", slog.String("code", code))
			}
		}
	}
}

func logResult(res scanclient.Result) {
	if res.Err != nil {
		slog.Warn("scan not delivered", slog.String("code", res.Code), slog.String("section", res.Section), slog.Any("err", res.Err))
		return
	}
	slog.Info("scan delivered", slog.String("code", res.Code), slog.String("section", res.Section), slog.String("reply", res.Status))
}
