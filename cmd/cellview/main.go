// Command cellview loads a CIF file, builds its unit cell and draws a
// supercell of it, optionally cataloguing the structure and serving an
// interactive viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/crystalview/internal/catalog"
	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/config"
	"github.com/banshee-data/crystalview/internal/draw"
	"github.com/banshee-data/crystalview/internal/fsutil"
	"github.com/banshee-data/crystalview/internal/monitoring"
	"github.com/banshee-data/crystalview/internal/security"
	"github.com/banshee-data/crystalview/internal/version"
	"github.com/banshee-data/crystalview/internal/viewer"
)

var (
	cifPath     = flag.String("cif", "testdata/nacl.cif", "CIF file path or http(s) URL")
	configPath  = flag.String("config", "", "View config JSON (defaults built in)")
	supercell   = flag.String("supercell", "", "Supercell repeats, e.g. 3,3,1 (overrides config)")
	outPath     = flag.String("out", "", "Write the figure here (.png, .svg, .pdf or .html)")
	serve       = flag.String("serve", "", "Serve the viewer on this address, e.g. :8090")
	catalogPath = flag.String("catalog", "", "SQLite catalogue; the structure is saved to it")
	list        = flag.Bool("list", false, "List catalogued structures and exit")
	verbose     = flag.Bool("v", false, "Verbose logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		log.Fatalf("cellview: %v", err)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	var cat *catalog.Catalog
	if *catalogPath != "" {
		var err error
		if cat, err = catalog.Open(*catalogPath); err != nil {
			return err
		}
		defer cat.Close()
	}
	if *list {
		if cat == nil {
			return fmt.Errorf("-list requires -catalog")
		}
		return listCatalog(ctx, stdout, cat)
	}

	if *outPath != "" {
		if err := security.ValidateOutputPath(*outPath); err != nil {
			return err
		}
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := loadStructure(ctx, *cifPath, cfg)
	if err != nil {
		return err
	}
	c, err := cell.Build(s, cfg.BuildOptions()...)
	if err != nil {
		return err
	}
	printSummary(stdout, viewer.Summarize(s, c))

	if cat != nil {
		id, err := cat.Save(ctx, s, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "catalogued as %s\n", id)
	}

	if *outPath != "" {
		sc, err := cell.NewSuperCell(c, cfg.GetSupercell())
		if err != nil {
			return err
		}
		fig := draw.MakeFigure(cfg.FigureOptions(sc.String()))
		draw.DrawSupercell(fig, fig.Style(), sc)
		if err := fig.Save(fsutil.OSFileSystem{}, *outPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *outPath)
	}

	if *serve != "" {
		return viewer.NewServer(viewer.Config{
			Address:   *serve,
			Structure: s,
			Cell:      c,
			View:      cfg,
			Catalog:   cat,
		}).Start(ctx)
	}
	return nil
}

// loadConfig reads -config when given and applies -supercell on top.
func loadConfig() (*config.ViewConfig, error) {
	cfg := config.DefaultViewConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadViewConfig(*configPath); err != nil {
			return nil, err
		}
	}
	if *supercell != "" {
		n, err := config.ParseSupercell(*supercell)
		if err != nil {
			return nil, err
		}
		cfg.Supercell = &n
	}
	return cfg, nil
}

func loadStructure(ctx context.Context, path string, cfg *config.ViewConfig) (*cif.Structure, error) {
	if cif.IsURL(path) {
		client := &http.Client{Timeout: 30 * time.Second}
		return cif.Fetch(ctx, client, path, cfg.LoadOptions())
	}
	return cif.LoadWithOptions(path, cfg.LoadOptions())
}

func printSummary(w io.Writer, sum viewer.CellSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "name\t%s\n", sum.Name)
	if sum.SpaceGroup != "" {
		fmt.Fprintf(tw, "space group\t%s\n", sum.SpaceGroup)
	}
	p := sum.Cell
	fmt.Fprintf(tw, "cell\ta=%.4f b=%.4f c=%.4f alpha=%.2f beta=%.2f gamma=%.2f\n", p.A, p.B, p.C, p.Alpha, p.Beta, p.Gamma)
	fmt.Fprintf(tw, "volume\t%.3f\n", sum.Volume)
	fmt.Fprintf(tw, "formula\t%s\n", sum.Formula)
	fmt.Fprintf(tw, "atoms\t%d\n", sum.Atoms)
	fmt.Fprintf(tw, "bonds\t%d\n", sum.Bonds)

	formulas := make([]string, 0, len(sum.Molecules))
	for f := range sum.Molecules {
		formulas = append(formulas, f)
	}
	sort.Strings(formulas)
	for _, f := range formulas {
		fmt.Fprintf(tw, "molecule\t%d x %s\n", sum.Molecules[f], f)
	}
	tw.Flush()
}

func listCatalog(ctx context.Context, w io.Writer, cat *catalog.Catalog) error {
	rows, err := cat.List(ctx, 0)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMULA\tATOMS\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Formula, r.AtomCount, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
