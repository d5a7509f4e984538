package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simheat/pkg/colormap"
	"github.com/matzehuels/simheat/pkg/heatmap"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for simheat.

Bash:
  $ source <(simheat completion bash)

Zsh:
  $ simheat completion zsh > "${fpath[1]}/_simheat"

Fish:
  $ simheat completion fish > ~/.config/fish/completions/simheat.fish

PowerShell:
  PS> simheat completion powershell | Out-String | Invoke-Expression

Colour map, backend, method and format flags complete their values.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// registerValueCompletions adds value completion to the named flags that
// exist on cmd.
func registerValueCompletions(cmd *cobra.Command) {
	backends := make([]string, 0, len(heatmap.Backends()))
	for _, b := range heatmap.Backends() {
		backends = append(backends, string(b))
	}
	values := map[string]func() []string{
		"cmap":    colormap.Names,
		"backend": func() []string { return backends },
		"method":  func() []string { return []string{"complete", "single", "average"} },
		"format":  heatmap.Formats,
	}
	for name, list := range values {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, func(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
			// Comma-separated format lists complete the last element.
			head, last := "", prefix
			if i := strings.LastIndex(prefix, ","); i >= 0 {
				head, last = prefix[:i+1], prefix[i+1:]
			}
			var out []string
			for _, v := range list() {
				if strings.HasPrefix(v, last) {
					out = append(out, head+v)
				}
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		})
	}
}
