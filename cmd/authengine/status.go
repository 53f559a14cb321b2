// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/auth"
)

// statusTimeout bounds the whole status query.
const statusTimeout = 2 * time.Second

// ServerStatus holds the status information for a running server.
type ServerStatus struct {
	Addr          string `json:"addr"`
	Running       bool   `json:"running"`
	Version       string `json:"version,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	Store         string `json:"store,omitempty"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	addr       string
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running authengine server",
		Long: `Query the /status endpoint of a running server. The address defaults to
http.addr from the configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.addr == "" {
				loaded, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg.addr = loaded.HTTP.Addr
			}
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().StringVar(&cfg.addr, "addr", "", "server address (default: http.addr)")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, statusTimeout)
	defer cancel()

	status := queryServerStatus(ctx, &http.Client{Timeout: statusTimeout}, cfg.addr)

	var output string
	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		output = string(data)
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

// queryServerStatus asks the server at addr for its status. Failures are
// reported in the Error field.
func queryServerStatus(ctx context.Context, client *http.Client, addr string) ServerStatus {
	status := ServerStatus{Addr: addr}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		status.Error = fmt.Sprintf("invalid address: %v", err)
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	var env api.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		status.Error = fmt.Sprintf("failed to decode status response: %v", err)
		return status
	}
	if env.Kind() != auth.KindNone {
		status.Error = fmt.Sprintf("server reported %s: %s", env.Title, env.Detail)
		return status
	}

	var body api.StatusResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		status.Error = fmt.Sprintf("failed to decode status data: %v", err)
		return status
	}

	status.Running = body.Running
	status.Version = body.Version
	status.UptimeSeconds = body.UptimeSeconds
	status.Store = body.Store
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServerStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ADDRESS\tSTATUS\tVERSION\tSTORE\tUPTIME")
	_, _ = fmt.Fprintln(w, "-------\t------\t-------\t-----\t------")

	if status.Running {
		_, _ = fmt.Fprintf(w, "%s\trunning\t%s\t%s\t%s\n",
			status.Addr, status.Version, status.Store, formatUptime(status.UptimeSeconds))
	} else {
		reason := "not running"
		if status.Error != "" {
			reason = status.Error
		}
		_, _ = fmt.Fprintf(w, "%s\tstopped\t-\t-\t%s\n", status.Addr, reason)
	}

	_ = w.Flush()
	return buf.String()
}

// formatUptime formats seconds into a human-readable duration.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
