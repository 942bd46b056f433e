package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/jonas-koeritz/mailview"
	"github.com/spf13/viper"
)

type contextKey string

var log = mailview.Log

func main() {
	err := readInConfig()
	if err != nil {
		log.Infof("no config file, using defaults (%s)", err)
	}
	mailview.ConfigureLogging(viper.GetString("LogLevel"), viper.GetString("LogFormat"))

	backend, err := newBackend()
	if err != nil {
		log.WithError(err).Fatal("could not set up storage backend")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	servicesWaitGroup := &sync.WaitGroup{}
	ctx, shutdown := context.WithCancel(context.Background())
	serviceContext := context.WithValue(ctx, contextKey("wg"), servicesWaitGroup)

	servicesWaitGroup.Add(3)
	go smtpServer(serviceContext, backend)
	go mailboxCleanup(serviceContext, backend)
	go webServer(serviceContext, backend)

	<-sigs
	log.Info("received signal, shutting down")
	shutdown()
	log.Info("waiting for services")
	servicesWaitGroup.Wait()

	if closer, ok := backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("closing storage backend failed")
		}
	}
}

func newBackend() (mailview.Backend, error) {
	acceptedDomains := viper.GetStringSlice("AcceptedDomains")
	acceptSubdomains := viper.GetBool("AcceptSubdomains")

	switch strings.ToLower(viper.GetString("Backend")) {
	case "redis":
		backend := mailview.NewRedisBackend(
			viper.GetString("RedisAddress"),
			viper.GetString("RedisPassword"),
			viper.GetInt("RedisDB"),
			acceptedDomains,
			acceptSubdomains,
			viper.GetInt("RetentionHours"),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			return nil, err
		}
		log.WithField("address", viper.GetString("RedisAddress")).Info("using redis backend")
		return backend, nil
	default:
		log.Info("using in-memory backend")
		return &mailview.InMemoryBackend{
			MaxStoredMessage: viper.GetInt("MaxStoredMessages"),
			AcceptedDomains:  acceptedDomains,
			AcceptSubdomains: acceptSubdomains,
		}, nil
	}
}

func smtpServer(ctx context.Context, backend mailview.Backend) {
	defer ctx.Value(contextKey("wg")).(*sync.WaitGroup).Done()

	s := smtp.NewServer(backend)
	s.Addr = viper.GetString("SMTPListenAddress")
	s.Domain = viper.GetString("Domain")
	s.ReadTimeout = time.Duration(viper.GetInt("SMTPTimeout")) * time.Second
	s.WriteTimeout = time.Duration(viper.GetInt("SMTPTimeout")) * time.Second
	s.MaxMessageBytes = viper.GetInt("MaximumMessageSize")
	s.MaxRecipients = viper.GetInt("MaxRecipients")

	// no authentication required to deliver email
	s.AuthDisabled = true
	s.AllowInsecureAuth = false

	log.WithField("address", s.Addr).Info("starting SMTP server")
	go func() {
		if err := s.ListenAndServe(); err != nil {
			log.WithError(err).Error("SMTP server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down SMTP server")
	s.Close()
}

func mailboxCleanup(ctx context.Context, backend mailview.Backend) {
	defer ctx.Value(contextKey("wg")).(*sync.WaitGroup).Done()

	cleanupInterval := time.NewTicker(cleanupPeriod(viper.GetInt("CleanupPeriod")))
	defer cleanupInterval.Stop()
	retentionHours := viper.GetInt("RetentionHours")
	log.Info("starting periodic cleanup task")
	for {
		select {
		case <-cleanupInterval.C:
			deadline := time.Now().Add(time.Duration(-retentionHours) * time.Hour)
			log.WithField("deadline", deadline).Info("deleting expired messages")
			backend.Cleanup(deadline)
		case <-ctx.Done():
			log.Info("shutting down cleanup task")
			return
		}
	}
}

// cleanupPeriod converts the configured minutes into a ticker interval of
// at least one minute.
func cleanupPeriod(minutes int) time.Duration {
	if minutes < 1 {
		log.WithField("CleanupPeriod", minutes).Warn("cleanup period below one minute, using 1")
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

func webServer(ctx context.Context, backend mailview.Backend) {
	defer ctx.Value(contextKey("wg")).(*sync.WaitGroup).Done()

	handler := newWebHandler(backend, webSettings{
		Domain:         viper.GetString("Domain"),
		RetentionHours: viper.GetInt("RetentionHours"),
		RandomAlias:    aliasPlaceholderGenerator(viper.GetBool("RandomAliasPlaceholder")),
	})

	httpListenAddress := viper.GetString("HTTPListenAddress")

	log.WithField("address", httpListenAddress).Info("starting web interface")
	httpServer := &http.Server{Addr: httpListenAddress, Handler: handler}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("web interface stopped")
		}
	}()
	<-ctx.Done()
	log.Info("shutting down web interface")
	httpServer.Shutdown(context.Background())
}

func readInConfig() error {
	viper.SetConfigName("mailview.conf")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/mailview")
	viper.AddConfigPath("$HOME/.mailview")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("mailview")
	viper.AutomaticEnv()

	viper.SetDefault("SMTPListenAddress", ":25")
	viper.SetDefault("HTTPListenAddress", ":80")
	viper.SetDefault("Domain", "localhost")
	viper.SetDefault("MaxStoredMessages", 100000)
	viper.SetDefault("CleanupPeriod", 5)
	viper.SetDefault("RetentionHours", 4)
	viper.SetDefault("MaximumMessageSize", 5*1024*1024)
	viper.SetDefault("SMTPTimeout", 60)
	viper.SetDefault("MaxRecipients", 10)
	viper.SetDefault("RandomAliasPlaceholder", false)
	viper.SetDefault("AcceptedDomains", []string{})
	viper.SetDefault("AcceptSubdomains", false)
	viper.SetDefault("Backend", "memory")
	viper.SetDefault("RedisAddress", "localhost:6379")
	viper.SetDefault("RedisPassword", "")
	viper.SetDefault("RedisDB", 0)
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("LogFormat", "text")

	return viper.ReadInConfig()
}
