package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-tenant-guard/auth"
	"github.com/jrsteele09/go-tenant-guard/internal/config"
	"github.com/jrsteele09/go-tenant-guard/internal/metrics"
	organizationrepofake "github.com/jrsteele09/go-tenant-guard/organizations/repofake"
	"github.com/jrsteele09/go-tenant-guard/records"
	recordrepofake "github.com/jrsteele09/go-tenant-guard/records/repofake"
	"github.com/jrsteele09/go-tenant-guard/server"
	"github.com/jrsteele09/go-tenant-guard/store/postgres"
	"github.com/jrsteele09/go-tenant-guard/token"
	"github.com/jrsteele09/go-tenant-guard/token/refresh"
	"github.com/jrsteele09/go-tenant-guard/token/refresh/redisstore"
	refreshrepofake "github.com/jrsteele09/go-tenant-guard/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-tenant-guard/users/repofake"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config.Load")
	}
	configureLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return errors.Wrap(err, "metrics.Register")
	}

	ctx := context.Background()
	policy := refresh.NewPolicy(c)
	st, err := openStores(ctx, c, policy)
	if err != nil {
		return err
	}
	defer st.close()

	tokens, err := token.New(token.NewHMACSigner(c.GetSigningSecret()), c.GetAccessTokenExpiry(),
		token.WithIssuer(c.GetIssuer()),
	)
	if err != nil {
		return errors.Wrap(err, "token.New")
	}
	service, err := auth.NewService(st.repos, tokens)
	if err != nil {
		return errors.Wrap(err, "auth.NewService")
	}
	if email := c.GetOperatorEmail(); email != "" {
		password, err := service.InitialiseSystem(ctx, email)
		if err != nil {
			return errors.Wrap(err, "InitialiseSystem")
		}
		if password != "" {
			fmt.Printf("Platform operator: %s\nPassword: %s\nSAVE THIS PASSWORD - it will not be displayed again!\n\n", email, password)
		}
	}

	handler, err := server.New(c, service, st.records, server.WithHealthCheck(st.health))
	if err != nil {
		return errors.Wrap(err, "server.New")
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

type stores struct {
	repos   auth.Repos
	records records.Repo
	health  func(*http.Request) error
	closers []func() error
}

func (s *stores) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Err(err).Msg("closing store")
		}
	}
}

// openStores uses Postgres when DATABASE_URL is set and the in-memory stores otherwise.
// REDIS_URL moves refresh credentials to redis in either case.
func openStores(ctx context.Context, c config.Config, policy refresh.Policy) (*stores, error) {
	st := &stores{}
	var checks []func(context.Context) error

	if dsn := c.GetDatabaseURL(); dsn != "" {
		db, err := postgres.Open(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "postgres.Open")
		}
		st.closers = append(st.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			st.close()
			return nil, errors.Wrap(err, "postgres.Migrate")
		}
		st.repos = auth.Repos{
			Users:         postgres.NewUserStore(db),
			Organizations: postgres.NewOrganizationStore(db),
			Refresh:       postgres.NewRefreshStore(db, policy),
			Provisioner:   postgres.NewProvisionStore(db),
		}
		st.records = postgres.NewRecordStore(db)
		checks = append(checks, db.PingContext)
		log.Info().Msg("using postgres stores")
	} else {
		st.repos = auth.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			Organizations: organizationrepofake.NewFakeOrganizationRepo(),
			Refresh:       refreshrepofake.NewFakeRefreshStore(policy),
		}
		st.records = recordrepofake.NewFakeRecordRepo()
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores")
	}

	if url := c.GetRedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			st.close()
			return nil, errors.Wrap(err, "redis.ParseURL")
		}
		client := redis.NewClient(opts)
		st.closers = append(st.closers, client.Close)
		st.repos.Refresh = redisstore.New(client, policy)
		checks = append(checks, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info().Msg("using redis refresh store")
	}

	st.health = func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return st, nil
}

func configureLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
