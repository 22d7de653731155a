package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moonworks/beacon/internal/assets"
	"github.com/moonworks/beacon/internal/auth"
	"github.com/moonworks/beacon/internal/config"
	"github.com/moonworks/beacon/internal/database"
	"github.com/moonworks/beacon/internal/logging"
	"github.com/moonworks/beacon/internal/server"
	"github.com/moonworks/beacon/internal/store"
	"github.com/moonworks/beacon/internal/transcode"
	"github.com/moonworks/beacon/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "beacon-api",
		Short: "Beacon asset pipeline backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newMintTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("content-store-root", defaults.GetString("content_store.root"), "Content store root directory")
	cmd.PersistentFlags().String("vanilla-manifest", defaults.GetString("vanilla.manifest_path"), "Path to the vanilla hash manifest")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("session.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "content_store.root", "content-store-root")
	bindFlag(cmd, "vanilla.manifest_path", "vanilla-manifest")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// newMintTokenCommand mints a session token for operational testing against
// a running instance.
func newMintTokenCommand() *cobra.Command {
	var subject string
	var platform string
	cmd := &cobra.Command{
		Use:   "mint-token",
		Short: "Mint a session token for the given subject",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			issuer := newSessionIssuer(appConfig)
			token, expiresIn, err := issuer.IssueSessionToken(cmd.Context(), subject, platform)
			if err != nil {
				return err
			}
			fmt.Printf("%s\nexpires_in=%d\n", token, expiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Login subject to embed in the token")
	cmd.Flags().StringVar(&platform, "platform", "mainline", "Platform claim (mainline, vita, psp, web)")
	cobra.CheckErr(cmd.MarkFlagRequired("subject"))
	return cmd
}

func newSessionIssuer(appConfig config.AppConfig) *auth.SessionIssuer {
	return auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSigningKey),
		Issuer:        "beacon-auth",
		Audience:      "beacon-api",
		TokenTTL:      time.Duration(appConfig.TokenTTLMinutes) * time.Minute,
	})
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var oracle *assets.VanillaOracle
	if appConfig.VanillaManifestPath != "" {
		oracle, err = assets.LoadVanillaManifest(appConfig.VanillaManifestPath)
		if err != nil {
			return err
		}
		logger.Info("vanilla manifest loaded",
			zap.String("path", appConfig.VanillaManifestPath),
			zap.Int("entries", oracle.Len()))
	} else {
		logger.Warn("no vanilla manifest configured; modded demotion disabled")
	}

	contentStore, err := store.NewFileStore(appConfig.ContentStoreRoot, logger)
	if err != nil {
		return err
	}

	catalog, err := assets.NewCatalog(assets.CatalogConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	transcoder, err := transcode.NewTranscoder(transcode.TranscoderConfig{
		Store:   contentStore,
		Catalog: catalog,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	uploaderService, err := users.NewService(users.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenValidator: newSessionIssuer(appConfig),
		Uploaders:      uploaderService,
		Catalog:        catalog,
		Classifier:     assets.NewClassifier(oracle),
		Transcoder:     transcoder,
		Store:          contentStore,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
