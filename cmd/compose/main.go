// Command compose builds one campaign from flags and files and submits it
// to the sending service, using the same pipeline as the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/email-shooter/internal/composer"
	"github.com/ignite/email-shooter/internal/config"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/pkg/logger"
	"github.com/ignite/email-shooter/internal/sender"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

type options struct {
	configPath     string
	subject        string
	body           string
	bodyFile       string
	to             string
	recipientsFile string
	attachment     string
	dryRun         bool
	timeout        time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "config/config.yaml", "Path to config file")
	flag.StringVar(&o.subject, "subject", "", "Campaign subject")
	flag.StringVar(&o.body, "body", "", "HTML body")
	flag.StringVar(&o.bodyFile, "body-file", "", "Read the HTML body from a file")
	flag.StringVar(&o.to, "to", "", "Recipients separated by commas, semicolons or newlines")
	flag.StringVar(&o.recipientsFile, "recipients-file", "", "CSV or XLSX file of recipients")
	flag.StringVar(&o.attachment, "attachment", "", "PDF to attach")
	flag.BoolVar(&o.dryRun, "dry-run", false, "Validate and print the recipient count without sending")
	flag.DurationVar(&o.timeout, "timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if err := run(o); err != nil {
		msg := err.Error()
		if campaign.Code(err) != "internal" {
			msg = campaign.UserMessage(err)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}

func run(o options) error {
	cfg, err := config.LoadFromEnv(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	var sub composer.Submitter = campaign.NewService(sender.NewClient(cfg.Sender))
	if o.dryRun {
		sub = dryRun{}
	}
	c := composer.NewController("cli", sub, composer.Limits{
		MaxFileBytes:       cfg.Composer.MaxFileBytes,
		MaxAttachmentBytes: cfg.Composer.MaxAttachmentBytes,
	})

	if err := build(ctx, c, o); err != nil {
		return err
	}

	v := c.View()
	fmt.Printf("Recipients: %d unique\n", v.UniqueRecipients)
	for _, tok := range v.InvalidTokens {
		fmt.Fprintf(os.Stderr, "  not an email address: %q\n", tok)
	}

	s, err := c.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(s.Message)
	return nil
}

// build replays the flags as composer events.
func build(ctx context.Context, c *composer.Controller, o options) error {
	body := o.body
	if o.bodyFile != "" {
		data, err := os.ReadFile(o.bodyFile)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = string(data)
	}
	c.SetSubject(o.subject)
	c.SetBody(body)
	c.SetRecipientText(o.to)

	if o.recipientsFile != "" {
		data, err := os.ReadFile(o.recipientsFile)
		if err != nil {
			return fmt.Errorf("read recipients file: %w", err)
		}
		tag, err := c.SelectFile(filepath.Base(o.recipientsFile), "", data)
		if err != nil {
			return err
		}
		if err := c.AwaitFile(ctx, tag); err != nil {
			return err
		}
	}

	if o.attachment != "" {
		data, err := os.ReadFile(o.attachment)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		// The sniffed type stands in for the type a browser would declare.
		if err := c.SelectAttachment(filepath.Base(o.attachment), http.DetectContentType(data), data); err != nil {
			return err
		}
	}
	return nil
}

// dryRun accepts every draft that passes the gate without sending it.
type dryRun struct{}

func (dryRun) Submit(_ context.Context, draftID string, d *domain.CampaignDraft) (*domain.Submission, error) {
	return &domain.Submission{
		DraftID:        draftID,
		Subject:        d.Subject,
		RecipientCount: d.Recipients.Len(),
		Status:         domain.SubmissionAccepted,
		Message:        fmt.Sprintf("Dry run: %d recipients validated, nothing sent.", d.Recipients.Len()),
		SubmittedAt:    time.Now().UTC(),
	}, nil
}
