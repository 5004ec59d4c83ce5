package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trungams/simple-cloud/worker"
)

var workerListen string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the sample web server that reports hostname and address",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().StringVar(&workerListen, "listen", ":80", "listen address")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		cancel()
	}()
	return worker.NewServer(workerListen).Run(ctx)
}
