// Package pkg provides the core libraries for simheat similarity heatmaps.
//
// # Overview
//
// simheat turns a square similarity matrix (for example average nucleotide
// identity between genomes) into a clustered heatmap: rows and columns are
// ordered by hierarchical clustering, dendrograms are drawn beside the
// heatmap and optional class strips mark groups of ids.
//
// # Architecture
//
// The typical data flow:
//
//	TSV matrix + label/class mappings
//	         ↓
//	    [matrix] package (parse and validate)
//	         ↓
//	    [cluster] package (linkage + dendrogram leaf order)
//	         ↓
//	    [heatmap] package (clustermap or grid layout)
//	         ↓
//	    PNG/SVG/PDF/JPEG/TIFF/EPS output
//
// # Quick Start
//
//	m, _ := matrix.ReadFile("ani.tab")
//	fig, _ := heatmap.RenderClustermap(heatmap.Input{
//	    Matrix: m,
//	    Title:  "ANI",
//	}, "ani.png")
//	fmt.Println(fig.RowOrder())
//
// # Main Packages
//
// [matrix] - Square labelled matrices, the TSV reader and id mappings.
//
// [cluster] - Pairwise distances, single/complete/average linkage, leaf
// order and Newick export.
//
// [colormap] - Named colour maps: the species-boundary maps, cubehelix
// palettes and the gonum brewer and moreland maps.
//
// [heatmap] - The clustermap and grid layouts drawn with gonum/plot.
//
// [render/tree] - Graphviz export of dendrograms.
//
// ## Infrastructure
//
// [pipeline] - load → cluster → render with cached linkages and artifacts,
// shared by the CLI and the HTTP server.
//
// [cache] - File, Redis, MongoDB and null caches with content-addressed
// keys.
//
// [observability] - Hooks around pipeline stages, cache traffic and HTTP
// requests.
//
// [errors] - Coded errors shared by every entry point.
//
// [matrix]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/matrix
// [cluster]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/cluster
// [colormap]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/colormap
// [heatmap]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/heatmap
// [render/tree]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/render/tree
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/simheat/pkg/errors
package pkg
