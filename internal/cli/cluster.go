package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/matrix"
	"github.com/matzehuels/simheat/pkg/render/tree"
)

// Dendrogram export formats.
const (
	treeOrder  = "order"
	treeNewick = "newick"
	treeDOT    = "dot"
	treeSVG    = "svg"
	treePNG    = "png"
)

var treeFormats = []string{treeOrder, treeNewick, treeDOT, treeSVG, treePNG}

type clusterOpts struct {
	method  string
	format  string
	output  string
	columns bool
	labels  string
}

// clusterCommand creates the cluster command, which exports the clustering
// of a matrix without drawing the heatmap.
func (c *CLI) clusterCommand() *cobra.Command {
	var opts clusterOpts

	cmd := &cobra.Command{
		Use:   "cluster MATRIX",
		Short: "Print the leaf order or export the dendrogram of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCluster(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.method, "method", "", "linkage method: complete (default), single, average")
	cmd.Flags().StringVarP(&opts.format, "format", "f", treeOrder, "output: "+strings.Join(treeFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.columns, "columns", false, "cluster columns instead of rows")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "id<TAB>label file for dot, svg and png leaves")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(treeFormats, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("method", cobra.FixedCompletions([]string{"complete", "single", "average"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runCluster(stdout io.Writer, input string, opts clusterOpts) error {
	method, err := cluster.ParseMethod(firstNonEmpty(opts.method, c.Config.Render.Method))
	if err != nil {
		return err
	}
	m, err := matrix.ReadFile(input)
	if err != nil {
		return err
	}

	var t *cluster.Tree
	if opts.columns {
		t, err = cluster.Cluster(m.Data.T(), method)
	} else {
		t, err = cluster.Cluster(m.Data, method)
	}
	if err != nil {
		return err
	}

	labels := c.Config.Labels
	if opts.labels != "" {
		if labels, err = matrix.ReadMappingFile(opts.labels); err != nil {
			return err
		}
	}

	out, err := exportTree(t, m.IDs, labels, opts.format)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", opts.output)
	}
	c.Logger.Info("Wrote dendrogram", "path", opts.output, "format", opts.format)
	return nil
}

func exportTree(t *cluster.Tree, ids []string, labels map[string]string, format string) ([]byte, error) {
	switch format {
	case treeOrder:
		var b strings.Builder
		for _, leaf := range t.Leaves {
			b.WriteString(ids[leaf])
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	case treeNewick:
		nw, err := cluster.Newick(t, ids)
		if err != nil {
			return nil, err
		}
		return []byte(nw + "\n"), nil
	}

	dot, err := tree.ToDOT(t, ids, tree.Options{Labels: labels, ShowDistances: true})
	if err != nil {
		return nil, err
	}
	switch format {
	case treeDOT:
		return []byte(dot), nil
	case treeSVG:
		return tree.RenderSVG(dot)
	case treePNG:
		return tree.RenderPNG(dot)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(treeFormats, ", "))
}
