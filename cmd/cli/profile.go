package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
	Long:  "Commands for viewing and updating your musician profile",
}

var getProfileCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getProfile()
	},
}

var (
	updateBio         string
	updateLocation    string
	updateInstruments string
	updateGenres      string
)

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update one or more profile fields. Only flags you pass are changed:
  lineup profile update --bio "Touring bassist" --location "Portland, OR"
  lineup profile update --instruments bass,synths --genres "indie rock,electronic"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile()
	},
}

func init() {
	updateProfileCmd.Flags().StringVar(&updateBio, "bio", "", "Profile bio")
	updateProfileCmd.Flags().StringVar(&updateLocation, "location", "", "City, Country")
	updateProfileCmd.Flags().StringVar(&updateInstruments, "instruments", "", "Comma-separated instruments")
	updateProfileCmd.Flags().StringVar(&updateGenres, "genres", "", "Comma-separated genres")

	profileCmd.AddCommand(getProfileCmd)
	profileCmd.AddCommand(updateProfileCmd)
}

func getProfile() error {
	body, err := apiRequest("GET", "/api/v1/users/me", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		User struct {
			Username        string   `json:"username"`
			DisplayName     string   `json:"display_name"`
			Bio             string   `json:"bio"`
			Location        string   `json:"location"`
			Instruments     []string `json:"instruments"`
			Genres          []string `json:"genres"`
			ConnectionCount int      `json:"connection_count"`
			PostCount       int      `json:"post_count"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	u := resp.User
	fmt.Printf("\n📋 Profile\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Username: %s\n", u.Username)
	fmt.Printf("Display Name: %s\n", u.DisplayName)
	if u.Bio != "" {
		fmt.Printf("Bio: %s\n", u.Bio)
	}
	if u.Location != "" {
		fmt.Printf("Location: %s\n", u.Location)
	}
	if len(u.Instruments) > 0 {
		fmt.Printf("Instruments: %s\n", strings.Join(u.Instruments, ", "))
	}
	if len(u.Genres) > 0 {
		fmt.Printf("Genres: %s\n", strings.Join(u.Genres, ", "))
	}
	fmt.Printf("Connections: %d   Posts: %d\n\n", u.ConnectionCount, u.PostCount)

	return nil
}

func updateProfile() error {
	payload := map[string]interface{}{}
	if updateBio != "" {
		payload["bio"] = updateBio
	}
	if updateLocation != "" {
		payload["location"] = updateLocation
	}
	if updateInstruments != "" {
		payload["instruments"] = splitList(updateInstruments)
	}
	if updateGenres != "" {
		payload["genres"] = splitList(updateGenres)
	}
	if len(payload) == 0 {
		return fmt.Errorf("nothing to update, pass at least one flag")
	}

	body, err := apiRequest("PUT", "/api/v1/users/me", payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else {
		fmt.Println("✓ Profile updated")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
