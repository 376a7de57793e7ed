package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jk/internal/fetch"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Method  string
	Headers []string // "Name: value"
	Data    string
	JSON    bool // encode Data as a JSON value
	Include bool // print the status line and headers
	Fail    bool // exit 1 on HTTP status >= 400
}

// FetchResult is the JSON payload of the fetch command.
type FetchResult struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Send an HTTP request",
		Long: `Send an HTTP request and print the response body.

--data is sent as is. With --json it is parsed as a JSON value and sent
re-encoded, with Content-Type: application/json unless a --header sets one.

Examples:
  jk fetch https://example.com/items
  jk fetch -X POST --json -d '{"name":"alice"}' https://example.com/items
  jk fetch -X DELETE -H "Authorization: Bearer t" https://example.com/items/7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "request body")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "send --data as a JSON value")
	cmd.Flags().BoolVarP(&opts.Include, "include", "i", false, "print the status line and response headers")
	cmd.Flags().BoolVarP(&opts.Fail, "fail", "f", false, "exit 1 when the status is 400 or above")

	return cmd
}

func runFetch(opts *FetchOptions, target string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	req, err := buildFetchRequest(opts, cmd.Flags().Changed("data"))
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidFlags, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid request", err)
	}

	client, err := fetch.New(fetch.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "creating client", err)
	}
	defer client.CloseIdleConnections()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := client.Do(ctx, target, req)
	if err != nil {
		_ = formatter.Error(ErrCodeRequestFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = formatter.Error(ErrCodeRequestFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "reading response", err)
	}

	if formatter.JSON() {
		if err := formatter.Success(FetchResult{
			Status:  resp.StatusCode,
			Headers: resp.Header,
			Body:    string(body),
		}); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		if opts.Include {
			fmt.Fprintf(w, "%s %s\n", resp.Proto, resp.Status)
			if err := resp.Header.Write(w); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
	}

	if opts.Fail && resp.StatusCode >= http.StatusBadRequest {
		return NewExitError(ExitFailure, fmt.Sprintf("server returned %s", resp.Status))
	}
	return nil
}

// buildFetchRequest turns the flags into a fetch.Request.
func buildFetchRequest(opts *FetchOptions, hasData bool) (fetch.Request, error) {
	req := fetch.Request{Method: opts.Method, Headers: http.Header{}}

	for _, h := range opts.Headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fetch.Request{}, fmt.Errorf("invalid header %q: want \"Name: value\"", h)
		}
		req.Headers.Add(name, strings.TrimSpace(value))
	}

	switch {
	case opts.JSON:
		if !hasData {
			return fetch.Request{}, fmt.Errorf("--json requires --data")
		}
		var v any
		dec := json.NewDecoder(strings.NewReader(opts.Data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fetch.Request{}, fmt.Errorf("--data is not valid JSON: %w", err)
		}
		if v == nil {
			// A JSON null would otherwise mean "no body".
			req.Body = json.RawMessage("null")
		} else {
			req.Body = v
		}
	case hasData:
		req.Body = opts.Data
	}
	return req, nil
}
