package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miladsoleymani/natsflow/client"
)

var (
	flagURL      string
	flagUsername string
	flagPassword string
	flagToken    string
	flagCreds    string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "natsflow",
	Short: "natsflow runs NATS messaging tasks: consume, produce, request, and kv",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(flagLogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", getEnv("NATS_URL", "nats://localhost:4222"), "NATS server URL")
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", os.Getenv("NATS_USERNAME"), "plaintext authentication username")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", os.Getenv("NATS_PASSWORD"), "plaintext authentication password")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("NATS_TOKEN"), "token authentication")
	rootCmd.PersistentFlags().StringVar(&flagCreds, "creds", os.Getenv("NATS_CREDS"), "path to a credentials file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level")
}

func initConfig() {
	// A missing .env file is fine; flags and the process env still apply.
	if err := godotenv.Load(); err == nil {
		logrus.Debug("loaded configuration from .env")
	}
}

// connect opens the task's connection from the global flags.
func connect() (*nats.Conn, error) {
	return client.Config{
		URL:       flagURL,
		Username:  flagUsername,
		Password:  flagPassword,
		Token:     flagToken,
		CredsFile: flagCreds,
		Name:      "natsflow",
	}.Connect()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
