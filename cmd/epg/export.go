package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/episodegraph/internal/config"
	"github.com/matsen/episodegraph/internal/export"
	"github.com/matsen/episodegraph/internal/graph"
	"github.com/matsen/episodegraph/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportDOTOutput   string
	exportDOTName     string
	exportDOTSameSite bool
	exportDOTRender   string

	exportNotesDir      string
	exportNotesSameSite bool
)

func init() {
	exportDOTCmd.Flags().StringVarP(&exportDOTOutput, "output", "o", "", "DOT output path, '-' for stdout (default from graph_file)")
	exportDOTCmd.Flags().StringVar(&exportDOTName, "name", export.DefaultGraphName, "digraph identifier")
	exportDOTCmd.Flags().BoolVar(&exportDOTSameSite, "same-site", false, "Only keep links to pages on site_url (default from same_site_only)")
	exportDOTCmd.Flags().StringVar(&exportDOTRender, "render", "", "Also render with Graphviz: svg, png, pdf, ... (default from render_format)")

	exportNotesCmd.Flags().StringVarP(&exportNotesDir, "dir", "d", "", "Notes directory (default from notes_dir)")
	exportNotesCmd.Flags().BoolVar(&exportNotesSameSite, "same-site", false, "Only list mentions of pages on site_url")

	exportCmd.AddCommand(exportDOTCmd)
	exportCmd.AddCommand(exportNotesCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the episode graph",
	Long: `Export the episode graph as Graphviz DOT or as cross-linked Markdown notes.

Examples:
  epg export dot
  epg export dot --same-site=false --render svg
  epg export dot -o - | dot -Tpng > graph.png
  epg export notes --dir ~/vault/episodes`,
}

var exportDOTCmd = &cobra.Command{
	Use:   "dot",
	Short: "Write the reference graph as a Graphviz digraph",
	Args:  cobra.NoArgs,
	RunE:  runExportDOT,
}

var exportNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Write one Markdown note per episode with [[wiki-link]] mentions",
	Args:  cobra.NoArgs,
	RunE:  runExportNotes,
}

// ExportDOTResult is the response for export dot.
type ExportDOTResult struct {
	Path     string `json:"path"`
	Vertices int    `json:"vertices"`
	Edges    int    `json:"edges"`
	Rendered string `json:"rendered,omitempty"`
}

// ExportNotesResult is the response for export notes.
type ExportNotesResult struct {
	Dir        string             `json:"dir"`
	Notes      int                `json:"notes"`
	Collisions []export.Collision `json:"collisions"`
}

func runExportDOT(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	episodes := mustReadEpisodes(repoRoot)

	sameSite := sameSiteFlag(cmd.Flags().Changed("same-site"), exportDOTSameSite, cfg)
	g := buildGraph(episodes, cfg, sameSite)
	opts := export.DOTOptions{Name: exportDOTName}

	// Stdout is the document itself, so no JSON summary.
	if exportDOTOutput == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := export.WriteDOT(w, g, opts); err != nil {
			exitWithError(ExitError, "writing DOT: %v", err)
		}
		if err := w.Flush(); err != nil {
			exitWithError(ExitError, "writing DOT: %v", err)
		}
		return nil
	}

	out := exportDOTOutput
	if out == "" {
		out = cfg.GraphFile
	}
	if out == "" {
		out = config.DefaultGraphFile
	}
	out = config.ResolvePath(repoRoot, out)

	if err := writeDOTFile(out, g, opts); err != nil {
		exitWithError(ExitError, "writing DOT: %v", err)
	}
	logger.Info("graph exported", zap.String("path", out))

	result := ExportDOTResult{Path: out, Vertices: g.Len(), Edges: g.EdgeCount()}

	format := exportDOTRender
	if format == "" {
		format = cfg.RenderFormat
	}
	if format != "" {
		if err := config.ValidateRenderFormat(format); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		rendered := render.OutputPath(out, format)
		if err := render.NewRunner("").Render(context.Background(), out, format, rendered); err != nil {
			exitWithError(ExitError, "rendering graph: %v", err)
		}
		result.Rendered = rendered
	}

	if humanOutput {
		fmt.Printf("Wrote %s (%d vertices, %d edges)\n", result.Path, result.Vertices, result.Edges)
		if result.Rendered != "" {
			fmt.Printf("Rendered %s\n", result.Rendered)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

func writeDOTFile(path string, g *graph.Graph, opts export.DOTOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := export.WriteDOT(w, g, opts); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runExportNotes(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	episodes := mustReadEpisodes(repoRoot)

	if exportNotesSameSite {
		if err := config.ValidateSiteURL(cfg.SiteURL); err != nil {
			exitWithError(ExitConfigError, "same-site filtering needs site_url: %v", err)
		}
		episodes = filterEpisodeLinks(episodes, graph.SameHost(cfg.SiteURL))
	}

	dir := exportNotesDir
	if dir == "" {
		dir = cfg.NotesDir
	}
	if dir == "" {
		dir = config.DefaultNotesDir
	}
	dir = config.ResolvePath(repoRoot, dir)

	set := export.BuildNotes(episodes, logger.Named("notes"))
	if err := export.WriteNotes(dir, set); err != nil {
		exitWithError(ExitError, "writing notes: %v", err)
	}

	result := ExportNotesResult{Dir: dir, Notes: len(set.Notes), Collisions: set.Collisions}
	if result.Collisions == nil {
		result.Collisions = []export.Collision{}
	}

	if humanOutput {
		fmt.Printf("Wrote %d notes to %s\n", result.Notes, result.Dir)
		for _, c := range result.Collisions {
			fmt.Printf("  [WARN] %s: episode %d kept, episode %d written as %s\n", c.Filename, c.KeptID, c.RenamedID, c.RenamedTo)
		}
	} else {
		outputJSON(result)
	}
	return nil
}
