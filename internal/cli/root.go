package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kbukum/apicall"
	"github.com/kbukum/apicall/config"
	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/version"
)

type flags struct {
	headers    []string
	jsonBody   string
	data       string
	form       []string
	query      []string
	backend    string
	configFile string
	timeout    time.Duration
	follow     bool
	progress   bool
	jq         string
	include    bool
	noColor    bool
	auth       string
	bearer     string
}

// Execute runs the command with args and returns the process exit code.
func Execute(args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return exitCode(err)
}

// NewRootCommand builds the apicall command tree.
func NewRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "apicall [METHOD] URL",
		Short: "Send an HTTP request and print the response",
		Long: `apicall sends one HTTP request through the server or browser backend
and prints the status line, headers and body.

The method defaults to GET, or POST when a body is given.`,
		Example: `  apicall https://httpbin.org/get -q page=2
  apicall POST https://httpbin.org/post --json '{"name":"ada"}'
  apicall PUT https://httpbin.org/put -F title=report -F doc=@report.pdf --progress
  apicall https://httpbin.org/json --jq slideshow.title`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), f, args)
		},
	}
	cmd.SetContext(context.Background())

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "request header `Name: value` (repeatable)")
	fl.StringVar(&f.jsonBody, "json", "", "JSON request body, inline or @file")
	fl.StringVarP(&f.data, "data", "d", "", "raw request body, inline or @file")
	fl.StringArrayVarP(&f.form, "form", "F", nil, "multipart field `name=value` or name=@file (repeatable)")
	fl.StringArrayVarP(&f.query, "query", "q", nil, "query parameter `key=value` (repeatable)")
	fl.StringVar(&f.backend, "backend", "", "transport backend: server or browser")
	fl.StringVarP(&f.configFile, "config", "c", "", "config file (default: apicall.yml lookup)")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort the call after this duration")
	fl.BoolVarP(&f.follow, "follow", "L", false, "follow redirects")
	fl.BoolVar(&f.progress, "progress", false, "print transfer progress")
	fl.StringVar(&f.jq, "jq", "", "print only the value at this JSON path")
	fl.BoolVarP(&f.include, "include", "i", false, "print response headers")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fl.StringVarP(&f.auth, "auth", "a", "", "basic auth credentials `user:password`")
	fl.StringVar(&f.bearer, "bearer", "", "bearer token")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func run(ctx context.Context, out, errOut io.Writer, f *flags, args []string) error {
	method, url, err := splitTarget(args)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	noColor := f.noColor || !isTerminal(out)
	p := newPrinter(out, errOut, noColor)
	p.headers = f.include
	p.query = f.jq

	cfg, err := loadConfig(f)
	if err != nil {
		p.failure(err)
		return withExit(ExitConfigError, err)
	}
	client, err := apicall.New(cfg)
	if err != nil {
		p.failure(err)
		return withExit(ExitConfigError, err)
	}

	opts, err := buildOptions(f, method)
	if err != nil {
		p.failure(err)
		return withExit(ExitUsageError, err)
	}
	if f.progress {
		opts.UploadProgress = p.progress()
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, callErr := client.Call(ctx, url, opts)
	if resp == nil {
		p.failure(callErr)
		return callErr
	}

	if err := p.response(resp); err != nil {
		p.failure(err)
		return withExit(ExitParseError, err)
	}
	p.summary(client.Backend().Name(), resp, time.Since(start))

	switch {
	case callErr != nil:
		return callErr
	case !resp.OK:
		return withExit(ExitHTTPError, errors.Status(resp.StatusCode, resp.StatusMessage))
	}
	return nil
}

func loadConfig(f *flags) (apicall.Config, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	cfg, err := apicall.LoadConfig(opts...)
	if err != nil {
		return cfg, err
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.follow {
		cfg.FollowRedirects = true
	}
	switch {
	case f.auth != "" && f.bearer != "":
		return cfg, fmt.Errorf("--auth and --bearer are mutually exclusive")
	case f.auth != "":
		user, pass, _ := strings.Cut(f.auth, ":")
		cfg.Auth = httpclient.BasicAuth(user, pass)
	case f.bearer != "":
		cfg.Auth = httpclient.BearerAuth(f.bearer)
	}
	if !hasHeader(cfg.Headers, "User-Agent") {
		cfg.Headers["User-Agent"] = version.UserAgent()
	}
	return cfg, nil
}

func buildOptions(f *flags, method httpclient.Method) (*apicall.Options, error) {
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return nil, err
	}
	params, err := parseQuery(f.query)
	if err != nil {
		return nil, err
	}
	opts := &apicall.Options{
		Method:          method,
		Headers:         headers,
		URLSearchParams: params,
	}

	bodies := 0
	for _, set := range []bool{f.jsonBody != "", f.data != "", len(f.form) > 0} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		return nil, fmt.Errorf("--json, --data and --form are mutually exclusive")
	}

	switch {
	case f.jsonBody != "":
		if opts.JSONBody, err = parseJSON(f.jsonBody); err != nil {
			return nil, err
		}
	case f.data != "":
		data, err := readArg(f.data)
		if err != nil {
			return nil, err
		}
		opts.RegularBody = data
	case len(f.form) > 0:
		if opts.RegularBody, err = parseForm(f.form); err != nil {
			return nil, err
		}
	}
	if opts.Method == "" && bodies > 0 {
		opts.Method = httpclient.MethodPost
	}
	return opts, nil
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
