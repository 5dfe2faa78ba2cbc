package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	"github.com/abdul-hamid-achik/connect/packages/core/env"
	"github.com/abdul-hamid-achik/connect/packages/export/metrics"
	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
	"github.com/abdul-hamid-achik/connect/packages/output"
	"github.com/abdul-hamid-achik/connect/packages/schema"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// variablePrefix marks environment variables usable as {{name}} placeholders,
// e.g. CONNECT_VAR_USER_ID becomes {{USER_ID}}.
const variablePrefix = "CONNECT_VAR_"

type requestFlags struct {
	origin     string
	domain     string
	configPath string
	envFile    string
	headers    []string
	params     []string
	data       string

	messageKey  string
	credentials string
	cache       string
	redirect    string
	integrity   string

	timeout      string
	maxRedirects int
	insecure     bool
	proxy        string
	requestID    string

	asJSON     bool
	query      string
	schemaPath string
	noColor    bool
	verbose    bool
	metrics    bool
}

func newRequestCmd(verb connecthttp.Verb) *cobra.Command {
	f := &requestFlags{}
	name := strings.ToLower(string(verb))

	paramsHelp := "Query parameters are sent in the URL."
	if verb.HasBody() {
		paramsHelp = `Parameters form the request body, encoded by the Content-Type header:
JSON, multipart/form-data (the default) or application/x-www-form-urlencoded.
key=@path uploads a file in a multipart body.`
	}

	requestCmd := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request", verb),
		Long: fmt.Sprintf(`Send a %s request to <path>, resolved against the configured origin and domain.

%s

Examples:
  connect %s users --origin https://api.example.com -p id=5
  connect %s users -H "Accept: application/json" --query "0.name"
  connect %s "users/{{USER_ID}}" --env-file .env.local --json`, verb, paramsHelp, name, name, name),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, verb, args[0], f)
		},
	}

	flags := requestCmd.Flags()

	// Target flags
	flags.StringVar(&f.origin, "origin", getEnvString("CONNECT_ORIGIN", ""), "Origin requests are resolved against (env: CONNECT_ORIGIN)")
	flags.StringVar(&f.domain, "domain", getEnvString("CONNECT_DOMAIN", ""), "Path segment between origin and path (env: CONNECT_DOMAIN)")
	flags.StringVar(&f.configPath, "config", getEnvString("CONNECT_CONFIG", ""), "Path to config file (env: CONNECT_CONFIG)")
	flags.StringVar(&f.envFile, "env-file", getEnvString("CONNECT_ENV_FILE", ""), "Path to .env file for variable interpolation (env: CONNECT_ENV_FILE)")

	// Request flags
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `Request header "Key: Value" (repeatable)`)
	flags.StringArrayVarP(&f.params, "param", "p", nil, "Parameter key=value (repeatable)")
	if verb.HasBody() {
		flags.StringVarP(&f.data, "data", "d", "", "JSON object of body parameters; sets Content-Type to application/json unless a header is given")
	}
	flags.StringVar(&f.messageKey, "message-key", getEnvString("CONNECT_MESSAGE_KEY", ""), "JSON path of the message in error bodies (env: CONNECT_MESSAGE_KEY)")
	flags.StringVar(&f.credentials, "credentials", getEnvString("CONNECT_CREDENTIALS", ""), "Credentials mode: omit, same-origin, include (env: CONNECT_CREDENTIALS)")
	flags.StringVar(&f.cache, "cache", getEnvString("CONNECT_CACHE", ""), "Cache mode: default, no-store, reload, no-cache, force-cache, only-if-cached (env: CONNECT_CACHE)")
	flags.StringVar(&f.redirect, "redirect", getEnvString("CONNECT_REDIRECT", ""), "Redirect mode: follow, error, manual (env: CONNECT_REDIRECT)")
	flags.StringVar(&f.integrity, "integrity", "", `Subresource integrity metadata, e.g. "sha256-<base64>"`)

	// Network flags
	flags.StringVar(&f.timeout, "timeout", getEnvString("CONNECT_TIMEOUT", "30s"), "Request timeout (e.g., 30s, 1m) (env: CONNECT_TIMEOUT)")
	flags.IntVar(&f.maxRedirects, "max-redirects", getEnvInt("CONNECT_MAX_REDIRECTS", connecthttp.DefaultMaxRedirects), "Maximum redirects to follow (env: CONNECT_MAX_REDIRECTS)")
	flags.BoolVarP(&f.insecure, "insecure", "k", getEnvBool("CONNECT_INSECURE", false), "Disable SSL certificate validation (env: CONNECT_INSECURE)")
	flags.StringVar(&f.proxy, "proxy", getEnvString("CONNECT_PROXY", ""), "Proxy URL for HTTP requests (env: CONNECT_PROXY)")
	flags.StringVar(&f.requestID, "request-id", getEnvString("CONNECT_REQUEST_ID", ""), "Header to set to a fresh UUID, e.g. X-Request-ID (env: CONNECT_REQUEST_ID)")

	// Output flags
	flags.BoolVar(&f.asJSON, "json", getEnvBool("CONNECT_JSON", false), "Write the outcome as a JSON document (env: CONNECT_JSON)")
	flags.StringVarP(&f.query, "query", "q", "", "gjson path selecting part of a JSON response")
	flags.StringVar(&f.schemaPath, "schema", "", "JSON Schema file the response body must satisfy")
	flags.BoolVar(&f.noColor, "no-color", getEnvBool("CONNECT_NO_COLOR", false), "Disable colored output (env: CONNECT_NO_COLOR)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Show status line, headers and debug logs on stderr")
	flags.BoolVar(&f.metrics, "metrics", false, "Print Prometheus metrics for the call to stderr")

	return requestCmd
}

func runRequest(cmd *cobra.Command, verb connecthttp.Verb, path string, f *requestFlags) error {
	formatter := f.formatter(cmd)
	logger := newLogger(cmd.ErrOrStderr(), f.verbose)

	fail := func(code int, err error) error {
		_ = formatter.FormatError(err)
		return withExitCode(code, err)
	}

	resolver := env.NewResolver()
	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	})
	resolver.SetVariables(env.LoadSystemEnv(variablePrefix))

	if f.envFile != "" {
		vars, err := env.LoadAndExportDotEnv(f.envFile)
		if err != nil {
			return fail(ExitConfigError, err)
		}
		for k, v := range vars {
			resolver.SetVariable(k, v)
		}
	}

	fileLayer, err := config.LoadLayer(f.configPath)
	if err != nil {
		return fail(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	config.SetDefaults(fileLayer)

	instance, err := f.layer(resolver)
	if err != nil {
		return fail(ExitUsageError, err)
	}

	params, err := f.parameters(verb, resolver)
	if err != nil {
		return fail(ExitUsageError, err)
	}

	timeout, err := time.ParseDuration(f.timeout)
	if err != nil {
		return fail(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", f.timeout, err))
	}

	opts := []connecthttp.Option{
		connecthttp.WithLayer(instance),
		connecthttp.WithTransport(connecthttp.NewNetTransport(
			connecthttp.WithTimeout(timeout),
			connecthttp.WithMaxRedirects(f.maxRedirects),
			connecthttp.WithValidateSSL(!f.insecure),
			connecthttp.WithProxy(f.proxy),
		)),
		connecthttp.WithLogger(logger),
	}
	if f.requestID != "" {
		opts = append(opts, connecthttp.WithRequestID(f.requestID))
	}
	if f.metrics {
		collector := metrics.NewCollector("")
		opts = append(opts, connecthttp.WithObserver(collector))
		defer func() {
			if err := collector.WriteText(cmd.ErrOrStderr()); err != nil {
				logger.Warn("writing metrics", "error", err)
			}
		}()
	}

	client := connecthttp.New(resolver.Resolve(f.domain), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := client.Do(ctx, verb, resolver.Resolve(path), params)
	if err != nil {
		return fail(exitCodeFor(err), err)
	}

	if f.schemaPath != "" {
		if err := schema.ValidateFile(f.schemaPath, result.Value); err != nil {
			code := ExitStatusFailure
			if !errors.Is(err, schema.ErrInvalid) {
				code = ExitConfigError
			}
			return fail(code, err)
		}
	}

	if f.query != "" {
		result, err = selectQuery(result, f.query)
		if err != nil {
			return fail(ExitStatusFailure, err)
		}
	}

	if err := formatter.FormatResult(result); err != nil {
		return withExitCode(ExitStatusFailure, err)
	}
	return nil
}

func (f *requestFlags) formatter(cmd *cobra.Command) output.Formatter {
	if f.asJSON {
		return output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout()))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithErrWriter(cmd.ErrOrStderr()),
		output.WithVerbose(f.verbose),
		output.WithNoColor(f.noColor),
	)
}

// layer builds the instance layer from the command-line flags.
func (f *requestFlags) layer(resolver *env.Resolver) (config.Layer, error) {
	headers, err := parseHeaders(f.headers, resolver)
	if err != nil {
		return config.Layer{}, err
	}

	layer := config.Layer{
		Origin:      resolver.Resolve(f.origin),
		Headers:     headers,
		MessageKey:  f.messageKey,
		Credentials: config.Credentials(f.credentials),
		Cache:       config.CacheMode(f.cache),
		Redirect:    config.RedirectMode(f.redirect),
		Integrity:   f.integrity,
	}

	if f.data != "" && layer.Header("Content-Type") == "" {
		if layer.Headers == nil {
			layer.Headers = make(map[string]string)
		}
		layer.Headers["Content-Type"] = connecthttp.ContentTypeJSON
	}
	return layer, nil
}

func parseHeaders(raw []string, resolver *env.Resolver) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (use \"Key: Value\")", h)
		}
		headers[key] = resolver.Resolve(strings.TrimSpace(value))
	}
	return config.MergeHeaders(headers, nil), nil
}

// parameters collects --data and -p values; -p wins on duplicate keys.
func (f *requestFlags) parameters(verb connecthttp.Verb, resolver *env.Resolver) (connecthttp.Params, error) {
	params := connecthttp.Params{}

	if f.data != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(resolver.Resolve(f.data))))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return nil, fmt.Errorf("invalid --data: must be a JSON object: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("invalid --data: unexpected content after the JSON object")
		}
	}

	for _, p := range f.params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (use key=value)", p)
		}
		value = resolver.Resolve(value)

		if verb.HasBody() && strings.HasPrefix(value, "@") && len(value) > 1 {
			params[key] = &connecthttp.File{Path: value[1:]}
			continue
		}
		params[key] = value
	}
	return params, nil
}

// selectQuery narrows a JSON result to the value at a gjson path.
func selectQuery(result *connecthttp.Result, path string) (*connecthttp.Result, error) {
	if !result.IsJSON() {
		return nil, fmt.Errorf("--query needs a JSON response, got %q", result.ContentType)
	}

	r := gjson.GetBytes(result.Raw, path)
	if !r.Exists() {
		return nil, fmt.Errorf("query %q matched nothing", path)
	}

	selected := *result
	selected.Raw = []byte(r.Raw)
	selected.Value = r.Value()
	return &selected, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
