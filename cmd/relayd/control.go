package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Force an immediate full refresh of the static relay list",
	RunE:  controlPost("/admin/reload"),
}

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Force a light rescan of both relay lists",
	RunE:  controlPost("/admin/rescan"),
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild-mounts",
	Short: "Force both a full refresh and a rescan",
	RunE:  controlPost("/admin/rebuild"),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the running supervisor's status",
	RunE:  runStatus,
}

var controlClient = &http.Client{Timeout: 10 * time.Second}

func controlPost(path string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp, err := controlClient.Post(adminAddr+path, "application/json", nil)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned %s: %s", path, resp.Status, string(body))
		}
		fmt.Println(string(body))
		return nil
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := controlClient.Get(adminAddr + "/admin/status")
	if err != nil {
		return fmt.Errorf("requesting status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status returned %s: %s", resp.Status, string(body))
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}

	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
	return nil
}
