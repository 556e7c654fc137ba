package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/and161185/educert/internal/convert"
)

// command runs against an api and writes results to out.
type command func(ctx context.Context, a api, args []string, out io.Writer) error

var commands = map[string]command{
	"connect":    cmdConnect,
	"disconnect": cmdDisconnect,
	"status":     cmdStatus,
	"issue":      cmdIssue,
	"certs":      cmdCerts,
	"cert":       cmdCert,
	"transfer":   cmdTransfer,
	"campaign":   cmdCampaign,
	"campaigns":  cmdCampaigns,
}

// now is replaced in tests.
var now = time.Now

var errUsage = errors.New("usage")

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func cmdConnect(ctx context.Context, a api, _ []string, out io.Writer) error {
	addr, err := a.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "connected %s\n", addr)
	return nil
}

func cmdDisconnect(ctx context.Context, a api, _ []string, out io.Writer) error {
	if err := a.Disconnect(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "disconnected")
	return nil
}

func cmdStatus(ctx context.Context, a api, _ []string, out io.Writer) error {
	st, err := a.Status(ctx)
	if err != nil {
		return err
	}
	printJSON(out, st)
	return nil
}

func cmdIssue(ctx context.Context, a api, args []string, out io.Writer) error {
	fs := newFlags("issue")
	var f convert.CertificateForm
	fs.StringVar(&f.StudentAddress, "student", "", "student wallet address")
	fs.StringVar(&f.Title, "title", "", "certificate title")
	fs.StringVar(&f.Description, "desc", "", "description")
	fs.StringVar(&f.ImageURL, "image", "", "image URL")
	fs.StringVar(&f.IssueDate, "date", "", "issue date YYYY-MM-DD (default today)")
	fs.StringVar(&f.CourseID, "course", "", "course ID")
	fs.StringVar(&f.Grade, "grade", "", "grade")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	meta, err := f.ToMetadata(now())
	if err != nil {
		return err
	}
	res, err := a.MintCertificate(ctx, meta)
	if err != nil {
		return err
	}
	printJSON(out, res)
	return nil
}

func cmdCerts(ctx context.Context, a api, args []string, out io.Writer) error {
	fs := newFlags("certs")
	owner := fs.String("owner", "", "owner address (default: connected address)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *owner == "" {
		st, err := a.Status(ctx)
		if err != nil {
			return err
		}
		*owner = st.Address
	}
	certs, err := a.QueryCertificates(ctx, *owner)
	if err != nil {
		return err
	}
	printJSON(out, certs)
	return nil
}

func cmdCert(ctx context.Context, a api, args []string, out io.Writer) error {
	fs := newFlags("cert")
	id := fs.String("id", "", "token id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *id == "" {
		return fmt.Errorf("%w: need -id", errUsage)
	}
	cert, err := a.QueryCertificate(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(out, cert)
	return nil
}

func cmdTransfer(ctx context.Context, a api, args []string, out io.Writer) error {
	fs := newFlags("transfer")
	to := fs.String("to", "", "recipient address")
	id := fs.String("id", "", "token id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	res, err := a.TransferCertificate(ctx, *to, *id)
	if err != nil {
		return err
	}
	printJSON(out, res)
	return nil
}

func cmdCampaign(ctx context.Context, a api, args []string, out io.Writer) error {
	fs := newFlags("campaign")
	var f convert.CampaignForm
	fs.StringVar(&f.Price, "price", "", "token price")
	fs.StringVar(&f.MinTokensSold, "min", "", "minimum tokens sold")
	fs.StringVar(&f.MaxAmountPerWallet, "max", "", "maximum amount per wallet")
	fs.StringVar(&f.Recipient, "recipient", "", "recipient (default: connected address)")
	end := fs.String("end", "", "end time: RFC3339, YYYY-MM-DDTHH:MM or unix seconds")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	t, err := convert.ParseEndTime(*end)
	if err != nil {
		return err
	}
	f.EndTime = t

	c, err := f.ToCampaign(now())
	if err != nil {
		return err
	}
	res, err := a.CreateCampaign(ctx, c)
	if err != nil {
		return err
	}
	printJSON(out, res)
	return nil
}

func cmdCampaigns(ctx context.Context, a api, _ []string, out io.Writer) error {
	sales, err := a.QueryCampaigns(ctx)
	if err != nil {
		return err
	}
	printJSON(out, sales)
	return nil
}
