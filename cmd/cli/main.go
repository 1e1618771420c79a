package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/app"
	"github.com/alpiant/pos-kasir/internal/command"
	"github.com/alpiant/pos-kasir/internal/config"
	"github.com/alpiant/pos-kasir/internal/logging"
	"github.com/alpiant/pos-kasir/internal/tui"
)

const (
	defaultServerURL = "http://localhost:12212"
)

func main() {
	serverURL := pflag.StringP("server", "s", defaultServerURL, "Server URL")
	local := pflag.BoolP("local", "l", false, "Run the command in-process instead of on the server")
	configPath := pflag.StringP("config", "c", "", "Config YAML for --local and pick")
	pflag.Usage = printUsage
	// Flags end at the command name so "labels --compose" reaches the command.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	args := pflag.Args()

	if args[0] == "pick" {
		if err := runPicker(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(args) >= 2 && (args[0] == "labels" || (args[0] == "print" && args[1] == "labels")) {
		rewritten, cleanup, err := composeArgs(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating composed labels: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		args = rewritten
	}

	cmd := joinCommand(args)

	var result *CommandResult
	if *local {
		result = executeLocal(*configPath, cmd)
	} else {
		result = executeCommand(*serverURL, cmd)
	}

	if result.Success {
		printSuccess(result)
		return
	}
	printError(result)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `POS Kasir printer CLI

Usage:
  pos-cli [flags] <command>

Flags:
  -s, --server <url>    Server URL (default: %s)
  -l, --local           Run the command in-process using the local settings
  -c, --config <path>   Config YAML (with --local and pick)

Commands:
  pick
    Open the interactive printer picker

  detect
    Scan for printers

  port get | port set <path>
    Show or store the printer destination

  test
    Print the connection test page

  receipt <file.json|url>
    Print a receipt document

  labels <file.json|url>
    Print barcode labels

  labels --compose name:<text> price:<n> barcode:<code> [qty:<n>] ...
    Compose labels from arguments; each name: starts a new label

  job list | job status <id> | job clear
    Inspect the job history

  help
    Show the command reference

Examples:
  pos-cli port set network:192.168.1.100:9100
  pos-cli test
  pos-cli receipt ./struk.json
  pos-cli labels --compose name:"Kopi Bubuk" price:25000 barcode:8991234567891 qty:2
  pos-cli --local detect

`, defaultServerURL)
}

// joinCommand rebuilds a command line, quoting arguments that contain spaces
// so the executor sees them as one token.
func joinCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// CommandResult mirrors the /command response. Data collects every field
// beyond the four fixed ones.
type CommandResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Kind    string                 `json:"kind,omitempty"`
	Data    map[string]interface{} `json:"-"`
}

func executeCommand(serverURL, cmd string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	jsonData, err := json.Marshal(map[string]string{"command": cmd})
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to connect to server: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	result, err := decodeResult(body)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return result
}

func decodeResult(body []byte) (*CommandResult, error) {
	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, err
	}
	for _, k := range []string{"success", "message", "error", "kind"} {
		delete(all, k)
	}
	result.Data = all
	return &result, nil
}

func executeLocal(configPath, cmd string) *CommandResult {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	logger := logging.Must("warn", cfg.Log.Format)
	defer logger.Sync()

	stack, err := app.New(cfg, logger)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	defer stack.Close()

	res := command.NewExecutor(stack.Jobs, stack.Settings).Execute(context.Background(), cmd)

	// Round-trip through JSON so local and remote results print the same.
	out, err := json.Marshal(flatten(res))
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	result, err := decodeResult(out)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	return result
}

func flatten(res *command.Result) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range res.Data {
		out[k] = v
	}
	out["success"] = res.Success
	out["message"] = res.Message
	out["error"] = res.Error
	out["kind"] = res.Kind
	return out
}

func runPicker(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; log lines would tear it.
	stack, err := app.New(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer stack.Close()

	return tui.NewApp(stack.Jobs, stack.Settings).Run()
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if jobs, ok := result.Data["jobs"].([]interface{}); ok {
		for _, j := range jobs {
			if job, ok := j.(map[string]interface{}); ok {
				fmt.Printf("  %v  %-7v %-9v %v\n", job["id"], job["type"], job["status"], job["destination"])
			}
		}
	}

	if id, ok := result.Data["id"].(string); ok {
		fmt.Printf("Job ID: %s\n", id)
	}
}

func printError(result *CommandResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	} else if result.Message != "" {
		fmt.Fprintf(os.Stderr, "%s\n", result.Message)
	}
}
