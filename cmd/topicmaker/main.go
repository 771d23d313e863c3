package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	deletePolicy = "delete"
	// Payment events are kept for a week.
	retentionMs = int64(7 * 24 * time.Hour / time.Millisecond)
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	partitions := pflag.Int32("partitions", 3, "partitions per topic")
	replicationFactor := pflag.Int16("replication-factor", 3, "")
	minISR := pflag.Int("min-insync-replicas", 2, "")
	_ = pflag.String("config", "", "config file")

	cfg := config.Load()
	pflag.Parse()

	cl := createClient(cfg)
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	err := makeTopics(
		sigCtx, cl,
		topicSpec{
			partitions:        *partitions,
			replicationFactor: *replicationFactor,
			config:            topicConfig(deletePolicy, *minISR),
		},
		cfg.Broker.Topics.Payments,
	)
	if err != nil {
		printFail(err)
		return
	}
}

type topicSpec struct {
	partitions        int32
	replicationFactor int16
	config            map[string]*string
}

func topicConfig(cleanupPolicy string, minISR int) map[string]*string {
	isr := strconv.Itoa(minISR)
	retention := strconv.FormatInt(retentionMs, 10)
	return map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &isr,
		"retention.ms":        &retention,
	}
}

func createClient(cfg config.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	if t := cfg.Broker.TLS; t.Enabled {
		tlsCfg, err := adapter.MakeTLSConfig(t.CAFile, t.CertFile, t.KeyFile)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, ts topicSpec, topics ...string,
) error {
	responses, err := cl.CreateTopics(
		ctx,
		ts.partitions,
		ts.replicationFactor,
		ts.config,
		topics...,
	)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, fmt.Errorf("topic %q: %w", res.Topic, err))
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- %q

`,
		cfg.Broker.Topics.Payments,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
