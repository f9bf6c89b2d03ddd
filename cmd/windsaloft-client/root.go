package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const cellWidth = 6

type options struct {
	addr    string
	region  string
	low     string
	high    string
	time    string
	date    string
	fcst    string
	timeout time.Duration
}

type forecastResponse struct {
	Labels []string   `json:"labels"`
	Data   [][]string `json:"data"`
	Error  string     `json:"error"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "windsaloft-client",
		Short: "Query a windsaloft-server and print the table",
		Long: `Sends one winds aloft request and prints the table with each cell
padded to six characters and separated by tabs.

flight time and flight date must be given together or not at all.`,
		Example: `  windsaloft-client
  windsaloft-client --region sfo --low 18000 --high 30000 --time 2200 --date 2024-02-14`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "http://127.0.0.1:8080", "server base URL")
	f.StringVar(&opts.region, "region", "", "forecast region (default all)")
	f.StringVar(&opts.low, "low", "", "lowest altitude in feet")
	f.StringVar(&opts.high, "high", "", "highest altitude in feet")
	f.StringVar(&opts.time, "time", "", "flight time, HHMM UTC")
	f.StringVar(&opts.date, "date", "", "flight date, YYYY-MM-DD")
	f.StringVar(&opts.fcst, "fcst", "", "forecast horizon (06, 12 or 24), overrides flight time")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	cmd.MarkFlagsRequiredTogether("time", "date")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	reqURL, err := requestURL(opts)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body forecastResponse
	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return printTable(out, body.Labels, body.Data)
	case http.StatusBadRequest:
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode error response: %w", err)
		}
		_, err := fmt.Fprintln(out, body.Error)
		return err
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func requestURL(opts *options) (string, error) {
	base, err := url.Parse(strings.TrimRight(opts.addr, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", errors.New("--addr must be an absolute URL such as http://127.0.0.1:8080")
	}
	base.Path += "/get_windsaloft"

	q := url.Values{}
	for key, v := range map[string]string{
		"region":        opts.region,
		"low_altitude":  opts.low,
		"high_altitude": opts.high,
		"flight_time":   opts.time,
		"flight_date":   opts.date,
		"fcst":          opts.fcst,
	} {
		if v != "" {
			q.Set(key, v)
		}
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// printTable writes one line per row, each cell left aligned to cellWidth and
// followed by a tab.
func printTable(w io.Writer, labels []string, rows [][]string) error {
	var b strings.Builder
	writeLine(&b, labels)
	for _, row := range rows {
		writeLine(&b, row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, cells []string) {
	for _, c := range cells {
		fmt.Fprintf(b, "%-*s\t", cellWidth, c)
	}
	b.WriteByte('\n')
}
