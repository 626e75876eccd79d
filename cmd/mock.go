package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apiauto/internal/testing/mock"
	"apiauto/pkg/logging"

	"github.com/spf13/cobra"
)

var mockPort int

var mockCmd = &cobra.Command{
	Use:   "mock <config.yaml>",
	Short: "Serve a mock API defined in a YAML file",
	Long: `Starts an HTTP server answering with the canned responses of a mock API
configuration file, so scenarios can be developed before the real API exists.

The file lists routes, each with a method, a path and one or more responses.
Path segments like {id} capture parameters, and a response can carry a
condition on path, query or body values. The first matching response wins.

  routes:
    - method: GET
      path: /api/users/{id}
      responses:
        - condition: {id: "0"}
          status: 404
          body: {error: not found}
        - body: {id: "{{ id }}", name: Alice}

The server runs until interrupted. Without --port a free port is chosen.`,
	Args: cobra.ExactArgs(1),
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().IntVarP(&mockPort, "port", "p", 0, "Port to listen on (0 picks a free port)")
}

func runMock(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	server, err := mock.NewHTTPServerFromConfig(args[0])
	if err != nil {
		return err
	}

	if mockPort > 0 {
		err = server.StartOnPort(ctx, mockPort)
	} else {
		_, err = server.Start(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to start mock API: %w", err)
	}

	routes := server.API().Routes()
	logging.Debug("Mock", "Serving %d routes from %s", len(routes), args[0])

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock API listening on %s\n", server.Endpoint())
	for _, route := range routes {
		fmt.Fprintf(out, "  %s\n", route)
	}

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("mock API failed: %w", err)
	}
	return nil
}
