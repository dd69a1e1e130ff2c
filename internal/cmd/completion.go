package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var shells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   "completion [shell]",
	Short: "Generate shell completions",
	Long: `Generate a shell completion script for recruiter.

Bash:
  source <(recruiter completion bash)

Zsh:
  recruiter completion zsh > "${fpath[1]}/_recruiter"

Fish:
  recruiter completion fish | source

PowerShell:
  recruiter completion powershell | Out-String | Invoke-Expression

Or let 'recruiter completion install <shell>' pick a location.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             shells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return genCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
	},
}

var completionInstallCmd = &cobra.Command{
	Use:       "install [shell]",
	Short:     "Install shell completions",
	ValidArgs: shells,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := installCompletion(cmd.Root(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completion script installed to: %s\n", path)
		if args[0] == "zsh" {
			fmt.Fprintf(cmd.OutOrStdout(), "Add to ~/.zshrc:\n  fpath=(%s $fpath)\n  autoload -Uz compinit && compinit\n", filepath.Dir(path))
		} else if args[0] != "fish" {
			fmt.Fprintf(cmd.OutOrStdout(), "Load it from your shell profile:\n  source %s\n", path)
		}
		return nil
	},
}

func init() {
	completionCmd.AddCommand(completionInstallCmd)
	rootCmd.AddCommand(completionCmd)
}

func genCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletion(w)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell: %s", shell)
}

// completionPaths lists candidate install locations, preferred first.
// The last entry is created when none of the directories exist.
func completionPaths(shell string) []string {
	home, _ := os.UserHomeDir()
	switch shell {
	case "bash":
		return []string{
			filepath.Join(home, ".local/share/bash-completion/completions/recruiter"),
			filepath.Join(home, ".bash_completion.d/recruiter"),
		}
	case "zsh":
		return []string{
			"/usr/local/share/zsh/site-functions/_recruiter",
			filepath.Join(home, ".zsh/completions/_recruiter"),
		}
	case "fish":
		return []string{filepath.Join(home, ".config/fish/completions/recruiter.fish")}
	case "powershell":
		return []string{
			filepath.Join(home, "Documents", "PowerShell", "recruiter.ps1"),
			filepath.Join(home, ".config/powershell/recruiter.ps1"),
		}
	}
	return nil
}

func installCompletion(root *cobra.Command, shell string) (string, error) {
	var content bytes.Buffer
	if err := genCompletion(root, shell, &content); err != nil {
		return "", err
	}

	candidates := completionPaths(shell)
	path, ok := lo.Find(candidates, func(p string) bool {
		_, err := os.Stat(filepath.Dir(p))
		return err == nil
	})
	if !ok {
		path = candidates[len(candidates)-1]
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create completion directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write completion file: %w", err)
	}
	return path, nil
}
