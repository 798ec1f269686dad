package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/model"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Watch for task changes",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		statuses, _ := cmd.Flags().GetStringSlice("status")
		story, _ := cmd.Flags().GetString("story")

		req := &client.ListTasksRequest{
			Status:  statuses,
			StoryID: story,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := make(map[string]time.Time)

		if err := queryAndPrint(ctx, req, seen); err != nil {
			return err
		}
		if once {
			return nil
		}

		// Event-driven when NATS is reachable, polling otherwise.
		natsURL := os.Getenv("TASKGRAPH_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, natsURL, req, seen)
		}
		return watchPoll(ctx, interval, req, seen)
	},
}

// watchNATS subscribes to server events and re-queries on changes with debounce.
func watchNATS(ctx context.Context, natsURL string, req *client.ListTasksRequest, seen map[string]time.Time) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicWildcard)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			// Resource and conflict events never touch task rows, so they
			// cannot change the watched list.
			if msg.Topic == events.TopicResourcesSaved || msg.Topic == events.TopicConflictDetected {
				continue
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0) // immediate re-query
		case <-debounce.C:
			if err := queryAndPrint(ctx, req, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll polls for changes at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, req *client.ListTasksRequest, seen map[string]time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrint(ctx, req, seen); err != nil {
			return err
		}
	}
}

// queryAndPrint calls ListTasks, diffs against the seen map, and prints any changes.
func queryAndPrint(ctx context.Context, req *client.ListTasksRequest, seen map[string]time.Time) error {
	resp, err := tgClient.ListTasks(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listing tasks: %w", err)
	}

	changed := diffTasks(resp.Tasks, seen)
	if len(changed) > 0 {
		if jsonOutput {
			printJSON(changed)
		} else {
			printTaskListTable(changed, resp.Total)
		}
	}
	return nil
}

// diffTasks compares tasks against the seen map and returns those that are new
// or have a different updated_at timestamp. It updates seen in place.
func diffTasks(tasks []*model.Task, seen map[string]time.Time) []*model.Task {
	var changed []*model.Task
	for _, t := range tasks {
		prev, ok := seen[t.ID]
		if !ok || !t.UpdatedAt.Equal(prev) {
			changed = append(changed, t)
		}
		seen[t.ID] = t.UpdatedAt
	}
	return changed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval")
	watchCmd.Flags().Bool("once", false, "exit after first query")
	watchCmd.Flags().StringSliceP("status", "s", nil, "filter by status (repeatable)")
	watchCmd.Flags().String("story", "", "filter by parent story id")
}
