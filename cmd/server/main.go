package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/yummigo-web/internal/adminapi"
	"github.com/keithlinneman/yummigo-web/internal/auth"
	"github.com/keithlinneman/yummigo-web/internal/cfg"
	"github.com/keithlinneman/yummigo-web/internal/content"
	"github.com/keithlinneman/yummigo-web/internal/health"
	"github.com/keithlinneman/yummigo-web/internal/httpmw"
	"github.com/keithlinneman/yummigo-web/internal/httpserver"
	"github.com/keithlinneman/yummigo-web/internal/images"
	"github.com/keithlinneman/yummigo-web/internal/log"
	"github.com/keithlinneman/yummigo-web/internal/metrics"
	"github.com/keithlinneman/yummigo-web/internal/opshttp"
	"github.com/keithlinneman/yummigo-web/internal/otelx"
	"github.com/keithlinneman/yummigo-web/internal/prof"
	"github.com/keithlinneman/yummigo-web/internal/ratelimit"
	"github.com/keithlinneman/yummigo-web/internal/sitehandler"
	v "github.com/keithlinneman/yummigo-web/internal/version"
	"github.com/keithlinneman/yummigo-web/internal/webassets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s %s (commit=%s, commit_date=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.App, vi.Version, vi.Commit, vi.CommitDate, vi.BuildDate, vi.GoVersion,
			vi.Modified != nil && *vi.Modified,
		)
		os.Exit(0)
	}

	stderrf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}

	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, stderrf)
	// the file only fills flags that neither the CLI nor the env set
	if conf.ConfigFile != "" {
		if err := cfg.FillFromFile(flag.CommandLine, conf.ConfigFile, cfg.EnvPrefix); err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v\n", conf.LogLevel, err)
		os.Exit(1)
	}
	stackLvl, err := log.ParseLevel(conf.StacktraceLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid stacktrace level %s: %v\n", conf.StacktraceLevel, err)
		os.Exit(1)
	}
	lg, err := log.New(log.Options{
		App:             vi.App,
		Version:         vi.Version,
		Commit:          vi.Commit,
		Level:           lvl,
		StacktraceLevel: stackLvl,
		JSON:            conf.LogJSON,
		ErrorLinks:      conf.ErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"config_file", conf.ConfigFile,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"enable_content_updates", conf.EnableContentUpdates,
		"content_file", conf.ContentFile,
		"content_s3_bucket", conf.ContentS3Bucket,
		"content_s3_key", conf.ContentS3Key,
		"images_dir", conf.ImagesDir,
		"images_s3_bucket", conf.ImagesS3Bucket,
		"images_public_url", conf.ImagesPublicURL,
		"rate_limit_rps", conf.RateLimitRPS,
	)

	m := metrics.New()
	m.SetBuildInfo(vi)

	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       vi.App,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":     vi.App,
			"version": vi.Version,
			"commit":  vi.Commit,
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	m.SetProfilingActive(conf.EnablePyroscope && err == nil)
	defer func() { stopProf() }()

	// the collector runs on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:  conf.EnableTracing,
		Endpoint: conf.OTLPEndpoint,
		Insecure: true,
		Sample:   conf.TraceSample,
		Service:  vi.App,
		Version:  vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	secrets := auth.Secrets{
		Password:      conf.AdminPassword,
		APIKey:        conf.AdminAPIKey,
		PasswordParam: conf.AdminPasswordSSMParam,
		APIKeyParam:   conf.AdminAPIKeySSMParam,
	}

	// AWS is only touched when something is configured to live there
	var s3Client *s3.Client
	var ssmClient *ssm.Client
	if conf.ContentS3Bucket != "" || conf.ImagesS3Bucket != "" || secrets.NeedsSSM() {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			L.Error(ctx, err, "failed to load AWS config")
			os.Exit(1)
		}
		s3Client = s3.NewFromConfig(awsCfg)
		ssmClient = ssm.NewFromConfig(awsCfg)
	}

	password, apiKey := secrets.Password, secrets.APIKey
	if secrets.NeedsSSM() {
		password, apiKey, err = auth.Resolve(ctx, ssmClient, secrets)
		if err != nil {
			L.Error(ctx, err, "failed to resolve admin credentials from SSM")
			os.Exit(1)
		}
	}
	gate := auth.NewGate(password, apiKey, m)
	if !gate.Configured() {
		L.Warn(ctx, "admin credentials not configured, admin API will refuse logins and writes")
	}

	// content document: S3 first when configured, local file otherwise
	var store content.Store = content.NewFileStore(conf.ContentFile)
	if conf.ContentS3Bucket != "" {
		s3Store := content.NewS3Store(s3Client, conf.ContentS3Bucket, conf.ContentS3Key)
		if conf.ContentFile != "" {
			store = content.NewFallbackStore(s3Store, store)
		} else {
			store = s3Store
		}
	}

	contentSvc := content.NewService(content.ServiceOptions{
		Store:   store,
		Manager: content.NewManager(),
		Logger:  L.With("component", "content"),
		Metrics: m,
		Seed:    webassets.SeedContent(),
	})
	if err := contentSvc.Load(ctx); err != nil {
		// readiness stays red until a poll succeeds
		L.Error(ctx, err, "initial content load failed")
	}
	contentMgr := contentSvc.Manager()

	if conf.EnableContentUpdates {
		watcher := content.NewWatcher(&content.WatcherOptions{
			Logger:       L.With("component", "content-watcher"),
			Source:       contentSvc,
			PollInterval: conf.ContentPollInterval,
			Metrics:      m,
		})
		go func() { _ = watcher.Run(ctx) }()
	}

	var imgStore images.Store
	imageSource := "disk"
	if conf.ImagesS3Bucket != "" {
		imgStore = images.NewS3Store(images.S3Options{
			Client:        s3Client,
			Bucket:        conf.ImagesS3Bucket,
			Prefix:        conf.ImagesS3Prefix,
			PublicBaseURL: conf.ImagesPublicURL,
		})
		imageSource = "s3"
	} else {
		imgStore = images.NewDiskStore(conf.ImagesDir, conf.ImagesPublicURL)
	}
	imageSvc := images.NewService(imgStore, L.With("component", "images"), m)

	loginLimiter := ratelimit.NewLogin(ctx,
		ratelimit.WithOnDenied(func(ip string) {
			m.IncRateLimitDenied("login")
		}),
		ratelimit.WithOnFirstDenied(func(ip string) {
			L.Warn(ctx, "login rate limit triggered", "ip", ip)
		}),
		ratelimit.WithOnCapacity(func() {
			m.IncRateLimitCapacity()
		}),
	)

	localHero, err := fs.Sub(webassets.SiteFS(), adminapi.DefaultBucket)
	if err != nil {
		L.Error(ctx, err, "failed to open bundled hero slides")
		os.Exit(1)
	}

	api := adminapi.New(adminapi.Options{
		Logger:       L.With("component", "adminapi"),
		Content:      contentSvc,
		Images:       imageSvc,
		Gate:         gate,
		LoginLimiter: loginLimiter.Middleware,
		ImageBaseURL: conf.ImagesPublicURL,
		ImageSource:  imageSource,
		LocalHero:    localHero,
	})

	siteOpts := &sitehandler.Options{
		Logger:     L,
		Content:    contentMgr,
		SiteFS:     webassets.SiteFS(),
		FallbackFS: webassets.FallbackFS(),
	}
	if conf.ImagesS3Bucket == "" {
		siteOpts.ImagesFS = os.DirFS(conf.ImagesDir)
	}
	siteHandler, err := sitehandler.New(siteOpts)
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}

	var gateDrain health.ShutdownGate

	readiness := health.All(
		gateDrain.Probe(),
		health.CheckFunc(func(ctx context.Context) error {
			return contentMgr.ReadyErr()
		}),
	)

	var rateLimitMW func(next http.Handler) http.Handler
	if conf.RateLimitRPS > 0 {
		limiter := ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
			ratelimit.WithOnDenied(func(ip string) {
				m.IncRateLimitDenied("site")
			}),
			// logged once per visitor until its bucket is evicted
			ratelimit.WithOnFirstDenied(func(ip string) {
				L.Warn(ctx, "rate limit triggered", "ip", ip)
			}),
			ratelimit.WithOnCapacity(func() {
				m.IncRateLimitCapacity()
				L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
			}),
		)
		rateLimitMW = limiter.Middleware
	}

	siteHTTPStop, err := httpserver.Start(ctx, httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  rateLimitMW,
		Security:     httpmw.SecurityOptions{ImageOrigins: imageOrigins(conf.ImagesPublicURL)},
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		APIRoutes:    api.RegisterRoutes,
		SiteHandler:  siteHandler,
		ContentInfo:  contentMgr,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// ops listener: metrics, health, version and pprof. It refuses public
	// peers and forwarded requests in case it is ever exposed.
	opsHTTPStop, err := opshttp.Start(ctx, L, &opshttp.Options{
		Port:        conf.AdminPort,
		Metrics:     m.Handler(),
		EnablePprof: conf.EnablePprof,
		Health:      health.Fixed(true, ""),
		Readiness:   readiness,
		Version:     vi,
		OnPanic:     m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		// systemd kills us after its start timeout if this mattered
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	<-ctx.Done()
	stop()

	L.Info(context.Background(), "shutdown signal received")

	// fail readiness so the load balancer drains us
	gateDrain.Set("draining")
	L.Info(context.Background(), "sleeping 60s for in-flight requests and load balancer health checks to drain")
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(60 * time.Second):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}
	stopProf()

	L.Info(context.Background(), "shutdown complete")
	os.Exit(0)
}

// imageOrigins returns the scheme://host of the public image URL for the
// CSP img-src list.
func imageOrigins(publicURL string) []string {
	if publicURL == "" {
		return nil
	}
	u, err := url.Parse(publicURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		_ = conn.Close()
		return fmt.Errorf("systemd notify failed: write failed: %w", err)
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("systemd notify failed: close failed: %w", err)
	}
	return nil
}
