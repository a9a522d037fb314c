package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	baseURL string
	timeout time.Duration
)

// Swappable for tests.
var bcryptGenerate = bcrypt.GenerateFromPassword

func main() {
	rootCmd := &cobra.Command{
		Use:   "crediledger-cli",
		Short: "CrediLedger CLI tool",
		Long:  `A command line interface for interacting with the CrediLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CrediLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(creditCmd())
	rootCmd.AddCommand(paymentCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func creditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Credit operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Get a credit by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/credits/" + args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schedule [id]",
		Short: "Show a credit's amortization table",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/credits/" + args[0] + "/installments")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "formalize [id]",
		Short: "Formalize a credit and generate its schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/credits/"+args[0]+"/formalize", nil)
		},
	})

	return cmd
}

func paymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment operations",
	}

	var amount string
	previewCmd := &cobra.Command{
		Use:   "preview [credit-id]",
		Short: "Preview how a payment would split",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/payments/preview", map[string]any{
				"credit_id": args[0],
				"amount":    amount,
			})
		},
	}
	previewCmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	cmd.AddCommand(previewCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Get a payment by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/payments/" + args[0])
		},
	})

	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Payroll batch operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Get a batch upload by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/batches/" + args[0])
		},
	})

	var reason, actor string
	voidCmd := &cobra.Command{
		Use:   "void [id]",
		Short: "Void a processed batch, reversing all its payments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/batches/"+args[0]+"/void", map[string]any{
				"reason": reason,
				"actor":  actor,
			})
		},
	}
	voidCmd.Flags().StringVar(&reason, "reason", "", "Void reason (required)")
	voidCmd.Flags().StringVar(&actor, "actor", "", "Acting user")
	cmd.AddCommand(voidCmd)

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	})

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func checkConsistency() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 500))
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func post(path string, payload map[string]any) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", body)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 500))
		os.Exit(1)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		fmt.Println(string(body))
		return
	}
	printJSON(decoded)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
