package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage connection requests",
	Long:  "Commands for listing and responding to pending connection requests",
}

var listPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending connection requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPendingConnections()
	},
}

var acceptConnectionCmd = &cobra.Command{
	Use:   "accept <connection-id>",
	Short: "Accept a connection request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToConnection(args[0], "accepted")
	},
}

var rejectConnectionCmd = &cobra.Command{
	Use:   "reject <connection-id>",
	Short: "Reject a connection request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToConnection(args[0], "rejected")
	},
}

var listConnectionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List your accepted connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listConnections()
	},
}

func init() {
	connectionsCmd.AddCommand(listPendingCmd)
	connectionsCmd.AddCommand(acceptConnectionCmd)
	connectionsCmd.AddCommand(rejectConnectionCmd)
	connectionsCmd.AddCommand(listConnectionsCmd)
}

type connectionEntry struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Requester struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"requester"`
	Recipient struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"recipient"`
}

func listPendingConnections() error {
	body, err := apiRequest("GET", "/api/v1/connections/pending", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Connections []connectionEntry `json:"connections"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Connections) == 0 {
		fmt.Println("No pending connection requests")
		return nil
	}

	fmt.Printf("\n🤝 Pending requests (%d)\n", len(resp.Connections))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	for _, conn := range resp.Connections {
		fmt.Printf("%s  @%s (%s)\n", conn.ID, conn.Requester.Username, conn.Requester.DisplayName)
	}
	fmt.Printf("\nAccept with: lineup connections accept <connection-id>\n\n")
	return nil
}

func respondToConnection(id, status string) error {
	body, err := apiRequest("PUT", "/api/v1/connections/"+id, map[string]string{"status": status})
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else if status == "accepted" {
		fmt.Println("✓ Connection accepted")
	} else {
		fmt.Println("✓ Connection rejected")
	}
	return nil
}

func listConnections() error {
	body, err := apiRequest("GET", "/api/v1/connections", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Connections []connectionEntry `json:"connections"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Connections) == 0 {
		fmt.Println("No connections yet")
		return nil
	}

	fmt.Printf("\n🎸 Connections (%d)\n", len(resp.Connections))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	for _, conn := range resp.Connections {
		fmt.Printf("@%s (%s) ↔ @%s (%s)\n",
			conn.Requester.Username, conn.Requester.DisplayName,
			conn.Recipient.Username, conn.Recipient.DisplayName)
	}
	fmt.Printf("\n")
	return nil
}
