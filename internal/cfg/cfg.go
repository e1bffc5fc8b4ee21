package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/keithlinneman/yummigo-web/internal/log"
)

const EnvPrefix = "YUMMIGO_"

type App struct {
	ConfigFile string

	LogJSON         bool
	LogLevel        string
	StacktraceLevel string
	ErrorLinks      int

	HTTPPort  int
	AdminPort int

	EnablePprof     bool
	EnablePyroscope bool
	EnableTracing   bool
	PyroServer      string
	PyroTenantID    string
	OTLPEndpoint    string
	TraceSample     float64

	ContentFile          string
	ContentS3Bucket      string
	ContentS3Key         string
	EnableContentUpdates bool
	ContentPollInterval  time.Duration

	ImagesDir       string
	ImagesS3Bucket  string
	ImagesS3Prefix  string
	ImagesPublicURL string

	AdminPassword         string
	AdminAPIKey           string
	AdminPasswordSSMParam string
	AdminAPIKeySSMParam   string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Register binds all config fields to the given FlagSet with defaults inline
func Register(fs *flag.FlagSet, c *App) {
	fs.StringVar(&c.ConfigFile, "config", "", "optional YAML file of flag-name: value pairs")

	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.IntVar(&c.ErrorLinks, "error-links", 5, "wrap call sites logged per error (0 disables, max 64)")

	fs.IntVar(&c.HTTPPort, "http-port", 8080, "site listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "ops listen TCP port for metrics, health and pprof (1..65535)")

	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "Enable pprof profiling (on admin port only)")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "Enable OTLP tracing and push to otlp-endpoint")
	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "Enable pushing Pyroscope data to server set in -pyro-server")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url to push to")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "tenant (x-scope-orgid) to use for pyro-server")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP endpoint to push to (gRPC) (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")

	fs.StringVar(&c.ContentFile, "content-file", "data/content.json", "local content document, used when S3 is unset or unavailable")
	fs.StringVar(&c.ContentS3Bucket, "content-s3-bucket", "", "s3 bucket holding the content document (empty: local file only)")
	fs.StringVar(&c.ContentS3Key, "content-s3-key", "content/content.json", "s3 key of the content document")
	fs.BoolVar(&c.EnableContentUpdates, "enable-content-updates", true, "poll the content store for saves made by other instances")
	fs.DurationVar(&c.ContentPollInterval, "content-poll-interval", 30*time.Second, "content store poll interval")

	fs.StringVar(&c.ImagesDir, "images-dir", "data/images", "local image directory, one subdirectory per bucket")
	fs.StringVar(&c.ImagesS3Bucket, "images-s3-bucket", "", "s3 bucket for uploaded images (empty: local directory)")
	fs.StringVar(&c.ImagesS3Prefix, "images-s3-prefix", "images", "key prefix for uploaded images")
	fs.StringVar(&c.ImagesPublicURL, "images-public-url", "", "public base URL images are served from (empty: this server)")

	fs.StringVar(&c.AdminPassword, "admin-password", "", "admin panel password")
	fs.StringVar(&c.AdminAPIKey, "admin-api-key", "", "API key required on admin writes (x-admin-key)")
	fs.StringVar(&c.AdminPasswordSSMParam, "admin-password-ssm-param", "", "SSM SecureString holding the admin password")
	fs.StringVar(&c.AdminAPIKeySSMParam, "admin-api-key-ssm-param", "", "SSM SecureString holding the admin API key")

	fs.Float64Var(&c.RateLimitRPS, "rate-limit-rps", 20, "per-client request rate on the site port (0 disables)")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 40, "per-client burst on the site port")
}

// envKey maps flag "foo-bar" to PREFIX_FOO_BAR.
func envKey(prefix, name string) string {
	return prefix + strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}

// FillFromEnv sets any flag not explicitly passed on the CLI from
// environment variables. Flag "foo-bar" maps to PREFIX_FOO_BAR.
// Precedence: cli flag > env var > config file > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := envKey(prefix, f.Name)
		envVal, envSet := os.LookupEnv(key)
		if !envSet {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			_ = fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// Validate checks that config values are within expected ranges and formats.
// Returns an error describing all invalid fields, or nil if all valid.
func Validate(c App) error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err))
		}
	}
	if c.ErrorLinks < 0 || c.ErrorLinks > 64 {
		errs = append(errs, fmt.Errorf("ERROR_LINKS must be 0..64 (got %d)", c.ErrorLinks))
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}
	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if !isURL(c.PyroServer) {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, fmt.Errorf("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}
	// grpc exporter wants host:port, no scheme
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	if c.ContentFile == "" && c.ContentS3Bucket == "" {
		errs = append(errs, fmt.Errorf("CONTENT_FILE or CONTENT_S3_BUCKET is required"))
	}
	if c.ContentS3Bucket != "" && c.ContentS3Key == "" {
		errs = append(errs, fmt.Errorf("CONTENT_S3_KEY is required with CONTENT_S3_BUCKET"))
	}
	if c.EnableContentUpdates && c.ContentPollInterval < time.Second {
		errs = append(errs, fmt.Errorf("CONTENT_POLL_INTERVAL must be at least 1s (got %s)", c.ContentPollInterval))
	}

	if c.ImagesS3Bucket == "" && c.ImagesDir == "" {
		errs = append(errs, fmt.Errorf("IMAGES_DIR or IMAGES_S3_BUCKET is required"))
	}
	if c.ImagesS3Bucket != "" && c.ImagesPublicURL == "" {
		errs = append(errs, fmt.Errorf("IMAGES_PUBLIC_URL is required with IMAGES_S3_BUCKET"))
	}
	if c.ImagesPublicURL != "" && !isURL(c.ImagesPublicURL) {
		errs = append(errs, fmt.Errorf("IMAGES_PUBLIC_URL must be a URL (got %q)", c.ImagesPublicURL))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be >= 0 (got %g)", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be >= 1 when rate limiting is on (got %d)", c.RateLimitBurst))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
