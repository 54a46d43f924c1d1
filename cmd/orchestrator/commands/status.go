package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/orchestrator/statusapi"
)

var (
	statusAddr    string
	statusJSON    bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show component status from a running orchestrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()

		view, err := fetchStatus(ctx, http.DefaultClient, statusAddr)
		if err != nil {
			return err
		}
		if statusJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		return printStatus(cmd.OutOrStdout(), view)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "127.0.0.1:8081", "Status API address")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status document")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "Request timeout")
}

func fetchStatus(ctx context.Context, client *http.Client, addr string) (*statusapi.StatusView, error) {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+statusapi.PathStatus, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status API answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data statusapi.StatusView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &envelope.Data, nil
}

func printStatus(w io.Writer, view *statusapi.StatusView) error {
	ready := "not ready"
	if view.Ready {
		ready = "ready"
	}
	fmt.Fprintf(w, "%s %s (%s)\n\n", view.Service, view.Version, ready)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tOPTIONAL\tRESTARTS\tUPTIME\tERROR")
	for _, c := range view.Components {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d/%d\t%s\t%s\n",
			c.Name, c.State, c.Optional, c.RestartCount, c.MaxRestarts, dashIfEmpty(c.Uptime), dashIfEmpty(c.ErrorMessage))
	}
	return tw.Flush()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
