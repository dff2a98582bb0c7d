package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miladsoleymani/natsflow/produce"
	"github.com/miladsoleymani/natsflow/storage"
)

var (
	flagProduceSubject string
	flagFrom           string
	flagRequestTimeout time.Duration
)

// parseFrom decodes the --from flag: a storage URI stays a string, a JSON
// document becomes a map or list, and anything else is a raw string payload.
func parseFrom(s string) any {
	store := storage.NewFileStore("")
	if store.Matches(s) {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Publish message-source records to a subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		producer := produce.New(nc, produce.WithReader(storage.NewFileStore("")))
		count, err := producer.Produce(flagProduceSubject, parseFrom(flagFrom))
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"subject":  flagProduceSubject,
			"messages": count,
		}).Info("produce finished")
		return nil
	},
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Send a request to a subject and wait for a reply",
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		producer := produce.New(nc, produce.WithReader(storage.NewFileStore("")))
		reply, err := producer.Request(flagProduceSubject, parseFrom(flagFrom), flagRequestTimeout)
		if err != nil {
			return err
		}
		if reply == nil {
			logrus.WithField("subject", flagProduceSubject).Warn("no reply before timeout")
			return nil
		}

		fmt.Println(string(reply.Data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(produceCmd, requestCmd)

	for _, cmd := range []*cobra.Command{produceCmd, requestCmd} {
		cmd.Flags().StringVar(&flagProduceSubject, "subject", "", "subject to send to")
		cmd.Flags().StringVar(&flagFrom, "from", "", "message source: storage URI, JSON map, JSON list, or raw string")
		cmd.MarkFlagRequired("subject")
		cmd.MarkFlagRequired("from")
	}
	requestCmd.Flags().DurationVar(&flagRequestTimeout, "timeout", 5*time.Second, "how long to wait for a reply")
}
