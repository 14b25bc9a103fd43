package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/urfave/cli/v3"
)

// QueueStatus prints a point-in-time health snapshot of the verification queue.
func (r *Runner) QueueStatus(ctx context.Context, cmd *cli.Command) error {
	if r.queue == nil {
		return fmt.Errorf("%w: verification queue not initialized", shared.ErrServiceUnavailable)
	}

	snapshot := r.queue.Status()

	if cmd.Bool("json") {
		return r.writeJSON(snapshot, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Verification Queue")
	r.writePlain("Running:      %d\n", snapshot.Running)
	r.writePlain("Waiting:      %d\n", snapshot.Waiting)
	r.writePlain("Avg latency:  %v\n", snapshot.AvgLatency)
	r.writePlain("Under stress: %v\n", snapshot.UnderStress)
	r.writePlain("Processed:    %d\n", snapshot.Processed)
	r.writePlain("Failed:       %d\n", snapshot.Failed)
	r.writePlain("Score:        %d/100\n", snapshot.Score)

	return nil
}
