package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miladsoleymani/natsflow/kv"
)

var (
	flagBucket        string
	flagBucketDesc    string
	flagHistoryPerKey uint8
	flagValues        string
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Key/Value bucket operations",
}

var kvCreateBucketCmd = &cobra.Command{
	Use:   "create-bucket",
	Short: "Create a Key/Value bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		store, err := kv.New(nc)
		if err != nil {
			return err
		}
		status, err := store.CreateBucket(cmd.Context(), kv.BucketConfig{
			Name:          flagBucket,
			Description:   flagBucketDesc,
			HistoryPerKey: flagHistoryPerKey,
		})
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"bucket":  status.Bucket,
			"history": status.History,
		}).Info("bucket created")
		return nil
	},
}

var kvPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Put JSON-encoded values into a bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		var values map[string]any
		if err := json.Unmarshal([]byte(flagValues), &values); err != nil {
			return fmt.Errorf("invalid --values: %w", err)
		}

		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		store, err := kv.New(nc)
		if err != nil {
			return err
		}
		revisions, err := store.Put(cmd.Context(), flagBucket, values)
		if err != nil {
			return err
		}

		for key, revision := range revisions {
			logrus.WithFields(logrus.Fields{"key": key, "revision": revision}).Info("put")
		}
		return nil
	},
}

var kvGetCmd = &cobra.Command{
	Use:   "get [keys...]",
	Short: "Get values from a bucket",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		store, err := kv.New(nc)
		if err != nil {
			return err
		}
		values, err := store.Get(cmd.Context(), flagBucket, args)
		if err != nil {
			return err
		}

		out, err := json.Marshal(values)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var kvDeleteCmd = &cobra.Command{
	Use:   "delete [keys...]",
	Short: "Delete keys from a bucket",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		store, err := kv.New(nc)
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), flagBucket, args...); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{"bucket": flagBucket, "keys": args}).Info("deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvCreateBucketCmd, kvPutCmd, kvGetCmd, kvDeleteCmd)

	kvCmd.PersistentFlags().StringVar(&flagBucket, "bucket", "", "bucket name")
	kvCmd.MarkPersistentFlagRequired("bucket")

	kvCreateBucketCmd.Flags().StringVar(&flagBucketDesc, "description", "", "bucket description")
	kvCreateBucketCmd.Flags().Uint8Var(&flagHistoryPerKey, "history-per-key", 1, "revisions retained per key")

	kvPutCmd.Flags().StringVar(&flagValues, "values", "", "JSON map of key/value pairs")
	kvPutCmd.MarkFlagRequired("values")
}
