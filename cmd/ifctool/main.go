// Command ifctool is the CLI for the web-ifc loader. It loads STEP and
// ifcXML models, prints index information, exports IFC text, writes
// compressed dump artifacts, queries entities, maintains the model
// catalog, and serves the HTTP API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/vegarringdal/web-ifc/core/catalog"
	"github.com/vegarringdal/web-ifc/core/dump"
	"github.com/vegarringdal/web-ifc/core/ifcxml"
	"github.com/vegarringdal/web-ifc/core/loader"
	"github.com/vegarringdal/web-ifc/core/schema"
	"github.com/vegarringdal/web-ifc/internal/api"
	"github.com/vegarringdal/web-ifc/internal/logging"
	"github.com/vegarringdal/web-ifc/internal/query"
)

const version = "0.1.0"

// CLI defines the command-line interface for ifctool.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"json,text" help:"Log output format"`

	Load    LoadCmd      `cmd:"" help:"Load a model and print statistics"`
	Info    InfoCmd      `cmd:"" help:"Show header records and type histogram"`
	Export  ExportCmd    `cmd:"" help:"Reverse-serialize a model to IFC text"`
	Dump    DumpCmd      `cmd:"" help:"Write a compressed dump artifact"`
	Query   QueryCmd     `cmd:"" help:"Select entities with a filter expression"`
	Catalog CatalogGroup `cmd:"" help:"Model catalog operations"`
	Serve   ServeCmd     `cmd:"" help:"Start the HTTP API server"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// loadModel reads a model file (STEP, or ifcXML by extension) and runs
// the loader over it.
func loadModel(path string) (*loader.Loader, []byte, time.Duration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xml" || ext == ".ifcxml" {
		converted, err := ifcxml.ToSTEP(content)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to convert ifcXML: %w", err)
		}
		content = converted
	}

	start := time.Now()
	l := loader.NewLoader(loader.DefaultSettings())
	if err := l.LoadFile(content); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l, content, time.Since(start), nil
}

// LoadCmd loads a model and prints statistics.
type LoadCmd struct {
	Path string `arg:"" help:"Model file (.ifc, .xml)" type:"existingfile"`
}

func (c *LoadCmd) Run() error {
	l, content, elapsed, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	sha, _ := dump.HashContent(content)
	fmt.Printf("loaded %s\n", c.Path)
	fmt.Printf("  lines:          %d\n", l.GetNumLines())
	fmt.Printf("  header records: %d\n", len(l.GetHeaderLines()))
	fmt.Printf("  length scale:   %g\n", l.GetLinearScalingFactor())
	fmt.Printf("  tape bytes:     %d\n", l.GetTape().GetTotalSize())
	fmt.Printf("  sha256:         %s\n", sha)
	fmt.Printf("  load time:      %s\n", elapsed)
	return nil
}

// InfoCmd shows header records and the entity-type histogram.
type InfoCmd struct {
	Path string `arg:"" help:"Model file" type:"existingfile"`
	Top  int    `default:"15" help:"How many types to list"`
}

func (c *InfoCmd) Run() error {
	l, _, _, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	headers, err := l.ExportHeaderLines()
	if err != nil {
		return err
	}
	fmt.Println("header:")
	for _, header := range headers {
		fmt.Printf("  %s\n", header)
	}

	type typeCount struct {
		name  string
		count int
	}
	var counts []typeCount
	for code, lineIDs := range l.GetMetaData().IfcTypeToLineID {
		counts = append(counts, typeCount{schema.NameOf(code), len(lineIDs)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})

	fmt.Println("types:")
	for i, tc := range counts {
		if i >= c.Top {
			fmt.Printf("  ... and %d more\n", len(counts)-c.Top)
			break
		}
		fmt.Printf("  %-40s %d\n", tc.name, tc.count)
	}
	return nil
}

// ExportCmd reverse-serializes a model to IFC text.
type ExportCmd struct {
	Path string `arg:"" help:"Model file" type:"existingfile"`
	Out  string `required:"" help:"Output .ifc path" type:"path"`
}

func (c *ExportCmd) Run() error {
	l, _, _, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	out, err := l.DumpAsIFC()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	if err := os.WriteFile(c.Out, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Out, err)
	}
	logging.ExportEvent("ifc", c.Out, int64(len(out)))
	fmt.Printf("wrote %s (%d bytes, %d lines)\n", c.Out, len(out), l.GetNumLines())
	return nil
}

// DumpCmd writes a compressed dump artifact with a hash manifest.
type DumpCmd struct {
	Path        string `arg:"" help:"Model file" type:"existingfile"`
	Out         string `required:"" help:"Output artifact path" type:"path"`
	Format      string `default:"ifc" enum:"ifc,tape" help:"Payload format"`
	Compression string `default:"xz" enum:"xz,gzip" help:"Compression algorithm"`
}

func (c *DumpCmd) Run() error {
	l, _, _, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	var payload []byte
	format := dump.Format(c.Format)
	switch format {
	case dump.FormatIFC:
		payload, err = l.DumpAsIFC()
		if err != nil {
			return fmt.Errorf("failed to serialize: %w", err)
		}
	case dump.FormatTape:
		tp := l.GetTape()
		payload, err = tp.Bytes(0, tp.GetTotalSize())
		if err != nil {
			return fmt.Errorf("failed to read tape: %w", err)
		}
	}

	manifest, err := dump.Write(c.Out, payload, format, l.GetNumLines(),
		&dump.Options{Compression: dump.CompressionType(c.Compression)})
	if err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	fmt.Printf("wrote %s (%s, %s, %d payload bytes)\n", c.Out, manifest.Format, manifest.Compression, manifest.SizeBytes)
	fmt.Printf("  sha256: %s\n", manifest.SHA256)
	fmt.Printf("  blake3: %s\n", manifest.BLAKE3)
	return nil
}

// QueryCmd selects entities with a filter expression.
type QueryCmd struct {
	Path   string `arg:"" help:"Model file" type:"existingfile"`
	Filter string `arg:"" help:"Filter expression, e.g. 'type = IFCWALL && id > 100'"`
}

func (c *QueryCmd) Run() error {
	filter, err := query.Compile(c.Filter)
	if err != nil {
		return err
	}

	l, _, _, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	for _, expressID := range filter.Apply(l) {
		lineID, ok := l.ExpressIDToLineID(expressID)
		if !ok {
			continue
		}
		line, err := l.GetLine(lineID)
		if err != nil {
			return err
		}
		fmt.Printf("#%d\t%s\n", expressID, schema.NameOf(line.IfcType))
	}
	return nil
}

// CatalogGroup contains model catalog operations.
type CatalogGroup struct {
	Add  CatalogAddCmd  `cmd:"" help:"Load a model and record it in the catalog"`
	List CatalogListCmd `cmd:"" help:"List catalogued models"`
	Rm   CatalogRmCmd   `cmd:"" help:"Remove a catalog entry by content hash"`

	DB string `name:"db" default:"ifc-catalog.db" help:"Catalog database path" type:"path"`
}

// CatalogAddCmd loads a model and records it in the catalog.
type CatalogAddCmd struct {
	Path string `arg:"" help:"Model file" type:"existingfile"`
}

func (c *CatalogAddCmd) Run(group *CatalogGroup) error {
	l, content, elapsed, err := loadModel(c.Path)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(group.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	sha, b3 := dump.HashContent(content)
	entry := &catalog.Entry{
		Path:                c.Path,
		SHA256:              sha,
		BLAKE3:              b3,
		Schema:              headerSchema(l),
		NumLines:            l.GetNumLines(),
		LinearScalingFactor: l.GetLinearScalingFactor(),
		LoadMillis:          elapsed.Milliseconds(),
	}
	if _, err := cat.Add(entry); err != nil {
		return err
	}
	fmt.Printf("catalogued %s\n", entry)
	return nil
}

// headerSchema extracts the schema id from the FILE_SCHEMA header record.
func headerSchema(l *loader.Loader) string {
	schemaCode := schema.CodeOf("FILE_SCHEMA")
	for _, line := range l.GetHeaderLines() {
		if line.IfcType != schemaCode {
			continue
		}
		if err := l.MoveToArgumentOffset(line, 0); err != nil {
			return ""
		}
		offsets, err := l.GetSetArgument()
		if err != nil || len(offsets) == 0 {
			return ""
		}
		if err := l.MoveTo(offsets[0]); err != nil {
			return ""
		}
		name, err := l.GetStringArgument()
		if err != nil {
			return ""
		}
		return name
	}
	return ""
}

// CatalogListCmd lists catalogued models.
type CatalogListCmd struct{}

func (c *CatalogListCmd) Run(group *CatalogGroup) error {
	cat, err := catalog.Open(group.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s  %s  %d lines  scale %g  %s\n",
			entry.SHA256[:12], entry.Schema, entry.NumLines, entry.LinearScalingFactor, entry.Path)
	}
	return nil
}

// CatalogRmCmd removes a catalog entry.
type CatalogRmCmd struct {
	Hash string `arg:"" help:"Content hash (sha256) of the entry to remove"`
}

func (c *CatalogRmCmd) Run(group *CatalogGroup) error {
	cat, err := catalog.Open(group.DB)
	if err != nil {
		return err
	}
	defer cat.Close()
	if err := cat.Remove(c.Hash); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", c.Hash)
	return nil
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct {
	Host    string `default:"" help:"Listen address"`
	Port    int    `default:"8123" help:"Listen port"`
	Catalog string `name:"catalog" help:"Catalog database path (enables /api/catalog)" type:"path"`
}

func (c *ServeCmd) Run() error {
	cfg := api.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.CatalogPath = c.Catalog
	return api.Start(cfg)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("ifctool %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ifctool"),
		kong.Description("IFC (ISO-10303-21) model loader and toolkit"),
		kong.UsageOnError(),
	)

	initLogging()

	if err := ctx.Run(&CLI.Catalog); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// initLogging applies the global logging flags.
func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}
