package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/spendsync/pkg/markup"
)

func markupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markup",
		Short: "Convert chat markup read from stdin",
		Long: `Convert chat markup read from stdin and write the result to stdout.

Examples:
  echo '*bold*' | spendsync markup html
  echo '<strong>bold</strong>' | spendsync markup markdown
  echo '<p>hi</p>' | spendsync markup text`,
	}

	var (
		reports  map[string]string
		accounts map[string]string
	)
	extras := func() *markup.Extras {
		if len(reports) == 0 && len(accounts) == 0 {
			return nil
		}
		return &markup.Extras{ReportIDToName: reports, AccountIDToName: accounts}
	}

	convert := func(use, short string, fn func(p *markup.Parser, in string) (string, error)) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				out, err := fn(markup.NewParser(), string(in))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			},
		}
		return c
	}

	cmd.AddCommand(
		convert("html", "Markdown to HTML", func(p *markup.Parser, in string) (string, error) {
			return p.MarkdownToHTML(in)
		}),
		convert("markdown", "HTML to markdown", func(p *markup.Parser, in string) (string, error) {
			return p.HTMLToMarkdown(in, extras()), nil
		}),
		convert("text", "HTML to plain text", func(p *markup.Parser, in string) (string, error) {
			return p.HTMLToText(in, extras()), nil
		}),
	)
	cmd.PersistentFlags().StringToStringVar(&reports, "report", nil, "Report names, e.g. --report 42=#admins")
	cmd.PersistentFlags().StringToStringVar(&accounts, "account", nil, "Account logins, e.g. --account 7=jo@example.com")
	return cmd
}
