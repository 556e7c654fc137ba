// Command educert issues certificates and runs crowdfund campaigns from the terminal.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/migrate"
	"github.com/and161185/educert/internal/repository/backend"
	grpcserver "github.com/and161185/educert/internal/server/grpc"
	"github.com/and161185/educert/internal/wallet"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `educert CLI
Usage:
  educert [-chain file.yaml] [-store file|postgres|redis] [-addr HOST:PORT] <cmd> [args]

Wallet:
  keys-add                                      generate a key (-key name, -pass)
  keys-import -hex <private key>
  keys-show
  connect | disconnect | status

Certificates:
  issue  -student <addr> -title <t> -desc <d> -course <id> -grade <g> [-date YYYY-MM-DD] [-image url]
  certs  [-owner <addr>]
  cert   -id <token id>
  transfer -to <addr> -id <token id>

Campaigns:
  campaign  -price <p> -min <n> -max <n> -end <time> [-recipient <addr>]
  campaigns

Daemon:
  token -jwt-key <k> -role institution|student [-ttl 24h] [-save]
  store-migrate | store-reset                   (postgres store)
  version
`)
	os.Exit(2)
}

type globals struct {
	chainFile string
	store     string
	dsn       string
	redisAddr string
	redisPass string
	addr      string
	caPath    string
	insecure  bool
	keyDir    string
	keyName   string
	pass      string
	verbose   bool
	timeout   time.Duration
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// main parses global flags and dispatches subcommands.
func main() {
	var g globals
	flag.StringVar(&g.chainFile, "chain", "", "chain config YAML (default: galileo-4)")
	flag.StringVar(&g.store, "store", backend.File, "session store: file, postgres or redis")
	flag.StringVar(&g.dsn, "dsn", "", "PostgreSQL DSN for -store postgres")
	flag.StringVar(&g.redisAddr, "redis", "localhost:6379", "Redis address for -store redis")
	flag.StringVar(&g.redisPass, "redis-pass", "", "Redis password")
	flag.StringVar(&g.addr, "addr", "", "daemon address; empty runs in-process")
	flag.StringVar(&g.caPath, "cacert", "", "daemon CA cert (PEM)")
	flag.BoolVar(&g.insecure, "insecure", false, "skip daemon cert verify (dev)")
	flag.StringVar(&g.keyDir, "keydir", keyDir(), "wallet key directory")
	flag.StringVar(&g.keyName, "key", "default", "wallet key name")
	flag.StringVar(&g.pass, "pass", "", "wallet passphrase (or "+passphraseEnv+")")
	flag.BoolVar(&g.verbose, "v", false, "verbose logging")
	flag.DurationVar(&g.timeout, "timeout", 2*time.Minute, "overall command timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	name, args := flag.Arg(0), flag.Args()[1:]

	log := newLogger(g.verbose)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(g.chainFile)
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	switch name {
	case "version":
		fmt.Printf("educert %s (%s)\n", version, buildDate)
	case "keys-add", "keys-import", "keys-show":
		if err := runKeys(name, args, g, cfg, os.Stdout); err != nil {
			fail(err)
		}
	case "token":
		if err := runToken(args, os.Stdout); err != nil {
			fail(err)
		}
	case "store-migrate":
		if err := migrate.Up(ctx, g.dsn); err != nil {
			fail(err)
		}
		fmt.Println("ok")
	case "store-reset":
		if err := migrate.Reset(ctx, g.dsn); err != nil {
			fail(err)
		}
		fmt.Println("ok")
	default:
		cmd, ok := commands[name]
		if !ok {
			usage()
		}
		a, closeFn, err := openAPI(ctx, name, g, cfg, log)
		if err != nil {
			fail(err)
		}
		err = cmd(ctx, a, args, os.Stdout)
		closeFn()
		if err != nil {
			fail(err)
		}
	}
}

// openAPI returns the daemon client when -addr is set, otherwise an in-process
// api whose session is restored from the store.
func openAPI(ctx context.Context, cmd string, g globals, cfg config.Chain, log *zap.Logger) (api, func(), error) {
	if g.addr != "" {
		cc, cl, err := dial(g.addr, g.caPath, g.insecure)
		if err != nil {
			return nil, nil, err
		}
		return cl, func() { _ = cc.Close() }, nil
	}

	store, closeStore, err := backend.Open(ctx, backend.Options{
		Kind:      g.store,
		Path:      sessionPath(),
		DSN:       g.dsn,
		Migrate:   true,
		RedisAddr: g.redisAddr,
		RedisPass: g.redisPass,
		Namespace: "cli",
	})
	if err != nil {
		return nil, nil, err
	}
	ext := extension(g.keyDir, g.keyName, cfg.Bech32.AccAddr, passphraseSource(g.pass))
	l := newLocalAPI(ext, cfg, store, log)
	if cmd != "connect" && cmd != "disconnect" {
		if s, ok := l.mgr.Restore(ctx); ok {
			log.Debug("session restored", zap.String("address", s.Address))
		}
	}
	return l, closeStore, nil
}

func runKeys(name string, args []string, g globals, cfg config.Chain, out io.Writer) error {
	prefix := cfg.Bech32.AccAddr
	switch name {
	case "keys-show":
		acc, err := wallet.ReadAccount(g.keyDir, g.keyName)
		if err != nil {
			return err
		}
		printJSON(out, acc)
		return nil
	case "keys-add":
		pass, err := passphraseSource(g.pass)()
		if err != nil {
			return err
		}
		acc, err := wallet.GenerateKey(g.keyDir, g.keyName, prefix, pass)
		if err != nil {
			return err
		}
		printJSON(out, acc)
		return nil
	}

	fs := newFlags("keys-import")
	hexKey := fs.String("hex", "", "secp256k1 private key (hex)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	priv, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(*hexKey), "0x"))
	if err != nil {
		return fmt.Errorf("%w: private key must be hex", errs.ErrInvalidInput)
	}
	pass, err := passphraseSource(g.pass)()
	if err != nil {
		return err
	}
	acc, err := wallet.ImportKey(g.keyDir, g.keyName, prefix, priv, pass)
	if err != nil {
		return err
	}
	printJSON(out, acc)
	return nil
}

func runToken(args []string, out io.Writer) error {
	fs := newFlags("token")
	key := fs.String("jwt-key", os.Getenv("EDUCERT_JWT_KEY"), "daemon HS256 key")
	role := fs.String("role", string(grpcserver.RoleInstitution), "institution or student")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	save := fs.Bool("save", false, "store the token for -addr calls")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *key == "" {
		return fmt.Errorf("%w: need -jwt-key", errUsage)
	}
	r, err := grpcserver.ParseRole(*role)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	tok, exp, err := grpcserver.IssueToken([]byte(*key), r, *ttl)
	if err != nil {
		return err
	}
	if *save {
		if err := saveToken(tok, string(r), exp); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, tok)
	return nil
}

// describe renders err for the terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, errs.ErrExtensionUnavailable):
		return "Please install the wallet extension: run `educert keys-add` first.\n" + err.Error()
	case errors.Is(err, errs.ErrNotConnected):
		return err.Error() + " (run `educert connect`)"
	case errors.Is(err, errUsage):
		return err.Error() + " (see `educert -h`)"
	}
	return err.Error()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, describe(err))
	os.Exit(1)
}
