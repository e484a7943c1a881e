package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/savemo/identity/jobs"
	_ "github.com/savemo/identity/testing"
)

func newTestCLI(t *testing.T) *JobsCLI {
	t.Helper()
	mr := miniredis.RunT(t)
	cli, err := NewJobsCLI(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestTriggerEnqueuesSupportedJobs(t *testing.T) {
	cli := newTestCLI(t)
	ctx := context.Background()

	for _, name := range []string{jobs.TaskAssignmentsPrune, jobs.TaskLoginEventsPrune} {
		info, err := cli.Trigger(ctx, name)
		require.NoError(t, err, name)
		require.Equal(t, name, info.Type)
		require.Equal(t, jobs.QueueDefault, info.Queue)
	}

	stats, err := cli.InspectQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, jobs.QueueDefault, stats.Queue)
	require.Equal(t, 2, stats.Pending)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	cli := newTestCLI(t)

	_, err := cli.Trigger(context.Background(), "mail:send")
	require.Error(t, err)
}

func TestUnconfiguredCLIFailsClosed(t *testing.T) {
	var cli *JobsCLI

	_, err := cli.Trigger(context.Background(), jobs.TaskAssignmentsPrune)
	require.Error(t, err)

	_, err = cli.InspectQueue(context.Background())
	require.Error(t, err)

	_, err = cli.ListScheduled(context.Background(), 5)
	require.Error(t, err)
}
