package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miladsoleymani/natsflow/consume"
	"github.com/miladsoleymani/natsflow/core"
	"github.com/miladsoleymani/natsflow/storage"
)

var (
	flagSubject       string
	flagDurable       string
	flagSince         string
	flagDeliverPolicy string
	flagBatchSize     int
	flagPollTimeout   time.Duration
	flagMaxRecords    int
	flagMaxDuration   time.Duration
	flagOutputDir     string
	flagRealtime      bool
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Pull messages from a JetStream subject into a record file",
	RunE: func(cmd *cobra.Command, args []string) error {
		nc, err := connect()
		if err != nil {
			return err
		}
		defer nc.Close()

		opts := []consume.Option{
			consume.WithBatchSize(flagBatchSize),
			consume.WithPollTimeout(flagPollTimeout),
		}
		policy, err := parseDeliverPolicy(flagDeliverPolicy)
		if err != nil {
			return err
		}
		opts = append(opts, consume.WithDeliverPolicy(policy))
		if flagDurable != "" {
			opts = append(opts, consume.WithDurable(flagDurable))
		}
		if flagSince != "" {
			since, err := time.Parse(time.RFC3339, flagSince)
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			opts = append(opts, consume.WithSince(since), consume.WithDeliverPolicy(jetstream.DeliverByStartTimePolicy))
		}
		if cmd.Flags().Changed("max-records") {
			opts = append(opts, consume.WithMaxRecords(flagMaxRecords))
		}
		if flagMaxDuration > 0 {
			opts = append(opts, consume.WithMaxDuration(flagMaxDuration))
		}

		consumer, err := consume.New(nc, flagSubject, opts...)
		if err != nil {
			return err
		}

		log := logrus.WithFields(logrus.Fields{
			"run":     uuid.NewString(),
			"subject": flagSubject,
		})

		if flagRealtime {
			listener := consume.NewListener(consumer, func(m core.Message) error {
				log.WithFields(logrus.Fields{
					"data":      string(m.Data),
					"timestamp": m.Timestamp,
				}).Info("message")
				return nil
			})
			go func() {
				<-cmd.Context().Done()
				listener.Kill()
			}()
			return listener.Listen(cmd.Context())
		}

		store := storage.NewFileStore(flagOutputDir)
		writer, err := store.Create()
		if err != nil {
			return err
		}

		result, err := consumer.Run(cmd.Context(), consume.SinkFunc(func(m core.Message) error {
			return writer.Write(m)
		}))
		if err != nil {
			return err
		}

		uri, err := writer.Close()
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"messages": result.MessagesCount,
			"uri":      uri,
		}).Info("consume finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)

	consumeCmd.Flags().StringVar(&flagSubject, "subject", "", "subject to subscribe to")
	consumeCmd.Flags().StringVar(&flagDurable, "durable", "", "durable consumer name")
	consumeCmd.Flags().StringVar(&flagSince, "since", "", "minimum message timestamp (RFC 3339); implies the by-start-time deliver policy")
	consumeCmd.Flags().StringVar(&flagDeliverPolicy, "deliver-policy", "all", "all, last, new, by-start-sequence, by-start-time, or last-per-subject")
	consumeCmd.Flags().IntVar(&flagBatchSize, "batch-size", 10, "messages requested per pull")
	consumeCmd.Flags().DurationVar(&flagPollTimeout, "poll-timeout", 2*time.Second, "max wait per pull")
	consumeCmd.Flags().IntVar(&flagMaxRecords, "max-records", 0, "stop after this many messages")
	consumeCmd.Flags().DurationVar(&flagMaxDuration, "max-duration", 0, "stop after this wall-clock duration")
	consumeCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "directory for the record file (default: system temp)")
	consumeCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "stream messages continuously instead of a bounded run")
	consumeCmd.MarkFlagRequired("subject")
}

func parseDeliverPolicy(s string) (jetstream.DeliverPolicy, error) {
	switch strings.ToLower(s) {
	case "all", "":
		return jetstream.DeliverAllPolicy, nil
	case "last":
		return jetstream.DeliverLastPolicy, nil
	case "new":
		return jetstream.DeliverNewPolicy, nil
	case "by-start-sequence":
		return jetstream.DeliverByStartSequencePolicy, nil
	case "by-start-time":
		return jetstream.DeliverByStartTimePolicy, nil
	case "last-per-subject":
		return jetstream.DeliverLastPerSubjectPolicy, nil
	default:
		return 0, fmt.Errorf("unknown deliver policy %q", s)
	}
}
