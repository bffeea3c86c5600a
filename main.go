package main

import (
	"flag"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/config"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/kev"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/ledger"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/notify"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/reconcile"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/utils"
)

var (
	configPath = flag.String("config", "kev-notify.json", "match config file (JSON or YAML)")
	ledgerPath = flag.String("ledger", filepath.Join(utils.CacheDir(), "notified.json"), "notification ledger file")
	feedURL    = flag.String("url", "", "override the KEV catalog URL")
	dryRun     = flag.Bool("dry-run", false, "print the batch without sending email or saving the ledger")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	now := time.Now().UTC()

	cfg := config.Load(*configPath)
	if len(cfg.VendorTerms) == 0 {
		log.Print("no vendor terms configured, nothing will be in scope")
	}

	store := ledger.NewStore(*ledgerPath)
	led, err := store.Load()
	if err != nil {
		// Worst case is one duplicate notification, which beats silently
		// never notifying.
		log.Printf("unable to load ledger, starting empty: %s", err)
		led = ledger.New()
	}

	fetcher := kev.NewFetcher()
	if *feedURL != "" {
		fetcher = kev.NewFetcher(kev.WithURL(*feedURL))
	}
	records, err := fetcher.Fetch()
	if err != nil {
		// Nothing to reconcile safely; the persisted ledger stays untouched.
		return xerrors.Errorf("failed to fetch the KEV catalog: %w", err)
	}

	toNotify, changed := reconcile.Reconcile(records, cfg, led, now)
	log.Printf("%d entries to notify, ledger has %d identities", len(toNotify), led.Len())

	if *dryRun {
		if len(toNotify) > 0 {
			log.Print("dry run, not sending:\n" + notify.RenderBody(toNotify))
		}
		return nil
	}

	// The ledger is persisted before the email goes out: a lost notification
	// is an operator follow-up, a re-sent batch is a notification storm.
	if changed {
		if err := store.Save(led); err != nil {
			return xerrors.Errorf("failed to save ledger: %w", err)
		}
	}

	if len(toNotify) == 0 {
		return nil
	}

	mailer, err := mailerFromEnv()
	if err != nil {
		return err
	}
	if err := mailer.Send(toNotify); err != nil {
		return xerrors.Errorf("notification failed, the ledger already marks these entries sent, re-send manually: %w", err)
	}

	log.Printf("notified about %d entries", len(toNotify))
	return nil
}

func mailerFromEnv() (*notify.Mailer, error) {
	host := utils.LookupEnv("KEV_SMTP_HOST", "")
	if host == "" {
		return nil, xerrors.New("KEV_SMTP_HOST must be set")
	}
	port, err := strconv.Atoi(utils.LookupEnv("KEV_SMTP_PORT", "587"))
	if err != nil {
		return nil, xerrors.Errorf("invalid KEV_SMTP_PORT: %w", err)
	}

	var to []string
	for _, addr := range strings.Split(utils.LookupEnv("KEV_MAIL_TO", ""), ",") {
		if addr = utils.TrimSpaceNewline(addr); addr != "" {
			to = append(to, addr)
		}
	}

	return notify.NewMailer(host, port,
		notify.WithAuth(utils.LookupEnv("KEV_SMTP_USERNAME", ""), utils.LookupEnv("KEV_SMTP_PASSWORD", "")),
		notify.WithFrom(utils.LookupEnv("KEV_MAIL_FROM", "")),
		notify.WithTo(to),
	), nil
}
