package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shahrs5/supernetwork/internal/config"
)

func tokenFlag(cmd *cobra.Command) string {
	token, _ := cmd.Flags().GetString("token")
	return token
}

// --- accounts ---

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the local server",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required")
		}

		client, err := newAPIClient("", false)
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/auth/signup", map[string]string{
			"email":    email,
			"password": password,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Account created for %s", result["email"])
		fmt.Println(result["token"])
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required")
		}

		client, err := newAPIClient("", false)
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/auth/login", map[string]string{
			"email":    email,
			"password": password,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Logged in as %s", email)
		fmt.Println(result["token"])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password")
	}
}

// --- onboarding ---

var onboardCmd = &cobra.Command{
	Use:   "onboard <resume-file>",
	Short: "Upload a resume and build your profile",
	Long: `Upload a resume and build your profile.

The file is sent to the server, its text is extracted, and the model
fills in a structured profile. PDF and plain text are supported.

Examples:
  supernet onboard resume.pdf --token $TOKEN
  supernet onboard resume.txt --answer working_style="deep focus" --answer goal="find a cofounder"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		answers, _ := cmd.Flags().GetStringArray("answer")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		mimeType := "text/plain"
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			mimeType = "application/pdf"
		}

		quiz := make(map[string]string)
		for _, a := range answers {
			k, v, ok := strings.Cut(a, "=")
			if !ok {
				return fmt.Errorf("invalid --answer %q: expected key=value", a)
			}
			quiz[k] = v
		}

		client, err := newAPIClient(tokenFlag(cmd), true)
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/onboarding/resume", map[string]any{
			"content":      base64.StdEncoding.EncodeToString(data),
			"mime_type":    mimeType,
			"quiz_answers": quiz,
		})
		if err != nil {
			return err
		}

		// The server returns an unsaved draft. Show it, then accept it
		// as the profile; edits go through the API afterwards.
		var draft map[string]any
		if err := decodeJSON(resp, &draft); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(draft); err != nil {
			return err
		}

		saveResp, err := client.put(cmd.Context(), "/profile", draft)
		if err != nil {
			return err
		}
		var saved any
		if err := decodeJSON(saveResp, &saved); err != nil {
			return err
		}

		printSuccess("Profile saved")
		return nil
	},
}

func init() {
	onboardCmd.Flags().StringArray("answer", nil, "quiz answer as key=value (repeatable)")
	onboardCmd.Flags().String("token", "", "session token")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient(tokenFlag(cmd), true)
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var p any
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// --- matches ---

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List your matches, best first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient(tokenFlag(cmd), true)
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/matches?limit=%d", limit))
		if err != nil {
			return err
		}

		var results []struct {
			UserID      string `json:"user_id"`
			Name        string `json:"name"`
			Headline    string `json:"headline"`
			Score       int    `json:"score"`
			Explanation string `json:"explanation"`
		}
		if err := decodeJSON(resp, &results); err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matches yet.")
			return nil
		}

		for _, r := range results {
			header := fmt.Sprintf("%s (%d)", r.Name, r.Score)
			fmt.Printf("\n%s  %s\n", colorize(colorBold, header), colorize(colorCyan, r.UserID))
			if r.Headline != "" {
				fmt.Printf("  %s\n", r.Headline)
			}
			fmt.Printf("  %s\n", r.Explanation)
		}
		return nil
	},
}

func init() {
	matchesCmd.Flags().Int("limit", 20, "maximum number of matches")
	matchesCmd.Flags().String("token", "", "session token")
	profileCmd.Flags().String("token", "", "session token")
}

// --- messaging ---

var threadsCmd = &cobra.Command{
	Use:   "threads [thread-id]",
	Short: "List conversations, or show one thread's messages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient(tokenFlag(cmd), true)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			resp, err := client.get(cmd.Context(), "/threads/"+args[0]+"/messages")
			if err != nil {
				return err
			}
			var msgs []struct {
				SenderID  string `json:"sender_id"`
				Body      string `json:"body"`
				CreatedAt string `json:"created_at"`
			}
			if err := decodeJSON(resp, &msgs); err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("%s  %s\n  %s\n", colorize(colorCyan, m.SenderID[:8]), m.CreatedAt, m.Body)
			}
			return nil
		}

		resp, err := client.get(cmd.Context(), "/threads")
		if err != nil {
			return err
		}
		var threads []struct {
			ID           string `json:"id"`
			OtherUserID  string `json:"other_user_id"`
			MessageCount int    `json:"message_count"`
			Latest       struct {
				Body string `json:"body"`
			} `json:"latest"`
		}
		if err := decodeJSON(resp, &threads); err != nil {
			return err
		}

		if len(threads) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}
		for _, th := range threads {
			preview := th.Latest.Body
			if len(preview) > 60 {
				preview = preview[:60] + "..."
			}
			fmt.Printf("%s  with %s  (%d messages)\n  %s\n",
				colorize(colorBold, th.ID),
				colorize(colorCyan, th.OtherUserID[:8]),
				th.MessageCount,
				preview,
			)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <user-id> <message>",
	Short: "Send a message to another user",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient := args[0]
		body := strings.Join(args[1:], " ")

		client, err := newAPIClient(tokenFlag(cmd), true)
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/messages", map[string]string{
			"recipient_id": recipient,
			"body":         body,
		})
		if err != nil {
			return err
		}

		var result map[string]any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Sent to thread %v", result["thread_id"])
		return nil
	},
}

func init() {
	threadsCmd.Flags().String("token", "", "session token")
	sendCmd.Flags().String("token", "", "session token")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
