package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/macropower/draftkit/pkg/automation"
	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/wildcard"
)

// DefaultStyle is the name of the catalog and border style in [Default].
const DefaultStyle = "default"

var (
	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnknownKey indicates [Config.Set] was given a key that does not exist.
	ErrUnknownKey = errors.New("unknown key")
)

// Config is the complete draftkit configuration.
type Config struct {
	PaperSizes    map[string]string       `json:"paper_sizes,omitempty" jsonschema:"description=Paper size name to the plot device's canonical media name."`
	CatalogStyles map[string]CatalogStyle `json:"catalog_styles,omitempty" jsonschema:"description=Catalog styles by name."`
	BorderStyles  map[string]BorderStyle  `json:"border_styles,omitempty" jsonschema:"description=Border styles by name."`
	Project       Project                 `json:"project" jsonschema:"description=The project being drafted."`
	System        System                  `json:"system" jsonschema:"description=Connection to the drafting application."`
	Plot          Plot                    `json:"plot" jsonschema:"description=Title block updates and plotting."`
	Catalog       Catalog                 `json:"catalog" jsonschema:"description=Catalog generation."`
	Border        Border                  `json:"border" jsonschema:"description=Border insertion."`
	Layers        Layers                  `json:"layers" jsonschema:"description=Layer freeze and lineweight rules."`
}

// System configures how draftkit reaches the drafting application.
type System struct {
	ProgID        string   `json:"prog_id,omitempty" jsonschema:"description=Automation ProgID. Derived from acad_version when empty."`
	TempPath      string   `json:"temp_path,omitempty" jsonschema:"description=Directory for materialized templates. Defaults to the OS temp directory."`
	TemplateDB    string   `json:"template_db" jsonschema:"description=Path of the template database."`
	AcadVersion   int      `json:"acad_version" jsonschema:"description=Major version of the drafting application."`
	RetryAttempts int      `json:"retry_attempts" jsonschema:"description=Attempts per remote call, including the first."`
	RetryDelay    Duration `json:"retry_delay" jsonschema:"description=Fixed delay between attempts."`
	Visible       bool     `json:"visible" jsonschema:"description=Show the application window."`
}

// Project identifies the project and its data.
type Project struct {
	Name      string `json:"name,omitempty" jsonschema:"description=Project name."`
	Path      string `json:"project_path,omitempty" jsonschema:"description=Root for relative drawing paths."`
	ExcelFile string `json:"excel_file,omitempty" jsonschema:"description=Drawing list workbook."`
}

// Plot configures title block updates and plotting.
type Plot struct {
	AttributeMap  map[string]string `json:"attribute_map,omitempty" jsonschema:"description=Title block tag to column overrides. An empty column unmaps the tag."`
	Device        string            `json:"plot_device" jsonschema:"description=Plot device configuration."`
	StyleSheet    string            `json:"plot_style" jsonschema:"description=Plot style table."`
	PrintPath     string            `json:"print_path" jsonschema:"description=Output directory for plots."`
	NamedTemplate string            `json:"named_template" jsonschema:"description=Plot file name with <column> placeholders."`
	Enabled       bool              `json:"enabled" jsonschema:"description=Plot each layout after updating it."`
	Close         bool              `json:"close" jsonschema:"description=Close each drawing when finished."`
}

// Catalog configures catalog generation.
type Catalog struct {
	LayoutReplace map[string]string `json:"layout_replace,omitempty" jsonschema:"description=Substrings replaced in sheet names to form layout names."`
	AttributeMap  map[string]string `json:"attribute_map,omitempty" jsonschema:"description=Cell tag to column overrides. An empty column unmaps the tag."`
	TargetFile    string            `json:"target_file,omitempty" jsonschema:"description=Catalog drawing. Created when missing."`
	ExcelFile     string            `json:"excel_file,omitempty" jsonschema:"description=Catalog workbook. Defaults to the project workbook."`
	Style         string            `json:"style" jsonschema:"description=Catalog style name."`
	Prefix        string            `json:"prefix,omitempty" jsonschema:"description=Prepended to each layout name."`
	Suffix        string            `json:"suffix,omitempty" jsonschema:"description=Appended to each layout name."`
	Update        bool              `json:"update" jsonschema:"description=Keep existing catalog layouts instead of rebuilding them."`
	Close         bool              `json:"close" jsonschema:"description=Close the catalog drawing when finished."`
}

// Border configures border insertion.
type Border struct {
	ExcelFile  string `json:"excel_file,omitempty" jsonschema:"description=Border workbook with file, layout and border_style columns."`
	TargetPath string `json:"target_path,omitempty" jsonschema:"description=Root for relative drawing paths."`
	Close      bool   `json:"close" jsonschema:"description=Close each drawing when finished."`
}

// CatalogStyle names the blocks of a catalog template.
type CatalogStyle struct {
	Name           string `json:"-"`
	Size           string `json:"size" jsonschema:"description=Paper size name."`
	TableBlockName string `json:"table_block_name" jsonschema:"description=Block in the template holding the cells. Exploded onto each new layout."`
	CellBlockName  string `json:"cell_block_name" jsonschema:"description=Block of one catalog cell."`
}

// BorderStyle names the blocks of a border template.
type BorderStyle struct {
	Name               string `json:"-"`
	Size               string `json:"size" jsonschema:"description=Paper size name."`
	BorderBlockName    string `json:"border_block_name" jsonschema:"description=Block of older borders removed before the template is inserted."`
	SignatureBlockName string `json:"signature_block_name" jsonschema:"description=Title block with the attributes to fill."`
}

// Layers holds the layer rules.
type Layers struct {
	Freeze     FreezeRule     `json:"freeze"`
	Lineweight LineweightRule `json:"lineweight"`
	Close      bool           `json:"close" jsonschema:"description=Close each drawing when finished."`
}

// FreezeRule selects layers to freeze by full name.
type FreezeRule struct {
	Include  string `json:"include,omitempty" jsonschema:"description=Layers to freeze."`
	Exclude  string `json:"exclude,omitempty" jsonschema:"description=Layers never frozen."`
	Unfreeze bool   `json:"unfreeze" jsonschema:"description=Thaw frozen layers that are not selected."`
}

// LineweightRule assigns lineweights by the last segment of the layer name.
// Heavy is checked first, then middle, then thin.
type LineweightRule struct {
	Heavy         string `json:"heavy,omitempty"`
	HeavyExclude  string `json:"heavy_exclude,omitempty"`
	Middle        string `json:"middle,omitempty"`
	MiddleExclude string `json:"middle_exclude,omitempty"`
	Thin          string `json:"thin,omitempty"`
	ThinExclude   string `json:"thin_exclude,omitempty"`
	HeavyWeight   int    `json:"heavy_weight" jsonschema:"description=Lineweight in hundredths of a millimetre."`
	MiddleWeight  int    `json:"middle_weight"`
	ThinWeight    int    `json:"thin_weight"`
	ResetOthers   bool   `json:"reset_others" jsonschema:"description=Set unselected layers to the default lineweight."`
}

// Default returns a working configuration.
func Default() *Config {
	return &Config{
		System: System{
			AcadVersion:   24,
			TemplateDB:    "templates.db",
			RetryDelay:    Duration(automation.DefaultRetryDelay),
			RetryAttempts: automation.DefaultRetryAttempts,
			Visible:       true,
		},
		Plot: Plot{
			Device:        "DWG To PDF.pc3",
			StyleSheet:    "monochrome.ctb",
			PrintPath:     "print",
			NamedTemplate: "<dwg_no>_<name>_<sub_project>.pdf",
			Enabled:       true,
			Close:         true,
		},
		Catalog: Catalog{
			Style:  DefaultStyle,
			Update: true,
		},
		Layers: Layers{
			Lineweight: LineweightRule{
				Heavy:         "wall|column",
				Middle:        "window|door_fire|roof|curtwall",
				MiddleExclude: "pub_hatch",
				Thin:          "*",
				HeavyWeight:   30,
				MiddleWeight:  15,
				ThinWeight:    5,
				ResetOthers:   true,
			},
		},
		PaperSizes: map[string]string{
			"A0": "ISO full bleed A0 (841.00 x 1189.00 MM)",
			"A1": "ISO full bleed A1 (841.00 x 594.00 MM)",
			"A2": "ISO full bleed A2 (594.00 x 420.00 MM)",
			"A3": "ISO full bleed A3 (420.00 x 297.00 MM)",
		},
		CatalogStyles: map[string]CatalogStyle{
			DefaultStyle: {Size: "A1", TableBlockName: "table", CellBlockName: "cell"},
		},
		BorderStyles: map[string]BorderStyle{
			DefaultStyle: {Size: "A1", BorderBlockName: "border", SignatureBlockName: "signature"},
		},
	}
}

// ProgIDOrDefault returns the automation ProgID of the drafting application.
func (s System) ProgIDOrDefault() string {
	if s.ProgID != "" {
		return s.ProgID
	}

	return fmt.Sprintf("AutoCAD.Application.%d", s.AcadVersion)
}

// RetryPolicy returns the retry policy for remote calls.
func (s System) RetryPolicy() (automation.RetryPolicy, error) {
	p, err := automation.NewRetryPolicy(time.Duration(s.RetryDelay), s.RetryAttempts)
	if err != nil {
		return automation.RetryPolicy{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return p, nil
}

// CatalogStyle returns the named catalog style. An empty name selects
// [Catalog.Style].
func (c *Config) CatalogStyle(name string) (CatalogStyle, error) {
	if name == "" {
		name = c.Catalog.Style
	}

	s, ok := c.CatalogStyles[name]
	if !ok {
		return CatalogStyle{}, fmt.Errorf("%w: catalog style %q", drafterrors.ErrStyleNotFound, name)
	}

	s.Name = name

	return s, nil
}

// BorderStyle returns the named border style. A style without a signature
// block name uses "signature".
func (c *Config) BorderStyle(name string) (BorderStyle, error) {
	s, ok := c.BorderStyles[name]
	if !ok {
		return BorderStyle{}, fmt.Errorf("%w: border style %q", drafterrors.ErrStyleNotFound, name)
	}

	s.Name = name
	if s.SignatureBlockName == "" {
		s.SignatureBlockName = "signature"
	}

	return s, nil
}

// PaperSize returns the canonical media name for a paper size name.
func (c *Config) PaperSize(size string) (string, error) {
	media, ok := c.PaperSizes[size]
	if !ok {
		return "", fmt.Errorf("%w: paper size %q", drafterrors.ErrNotFound, size)
	}

	return media, nil
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var merr error

	if _, err := c.System.RetryPolicy(); err != nil {
		merr = multierror.Append(merr, err)
	}

	if c.Plot.Enabled && c.Plot.PrintPath == "" {
		merr = multierror.Append(merr, errors.New("plot.print_path: required when plotting is enabled"))
	}

	if _, err := c.CatalogStyle(""); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("catalog.style: %w", err))
	}

	for _, name := range slices.Sorted(maps.Keys(c.CatalogStyles)) {
		s := c.CatalogStyles[name]
		if s.CellBlockName == "" {
			merr = multierror.Append(merr, fmt.Errorf("catalog_styles.%s.cell_block_name: required", name))
		}
		if s.TableBlockName == "" {
			merr = multierror.Append(merr, fmt.Errorf("catalog_styles.%s.table_block_name: required", name))
		}
		if _, err := c.PaperSize(s.Size); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("catalog_styles.%s.size: %w", name, err))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.BorderStyles)) {
		if _, err := c.PaperSize(c.BorderStyles[name].Size); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("border_styles.%s.size: %w", name, err))
		}
	}

	patterns := []struct{ key, value string }{
		{"layers.freeze.include", c.Layers.Freeze.Include},
		{"layers.freeze.exclude", c.Layers.Freeze.Exclude},
		{"layers.lineweight.heavy", c.Layers.Lineweight.Heavy},
		{"layers.lineweight.heavy_exclude", c.Layers.Lineweight.HeavyExclude},
		{"layers.lineweight.middle", c.Layers.Lineweight.Middle},
		{"layers.lineweight.middle_exclude", c.Layers.Lineweight.MiddleExclude},
		{"layers.lineweight.thin", c.Layers.Lineweight.Thin},
		{"layers.lineweight.thin_exclude", c.Layers.Lineweight.ThinExclude},
	}
	for _, p := range patterns {
		if _, err := wildcard.Compile(p.value); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", p.key, err))
		}
	}

	weights := []struct {
		key   string
		value int
	}{
		{"layers.lineweight.heavy_weight", c.Layers.Lineweight.HeavyWeight},
		{"layers.lineweight.middle_weight", c.Layers.Lineweight.MiddleWeight},
		{"layers.lineweight.thin_weight", c.Layers.Lineweight.ThinWeight},
	}
	for _, w := range weights {
		if !ValidLineweight(w.value) {
			merr = multierror.Append(merr, fmt.Errorf("%s: %d is not a standard lineweight", w.key, w.value))
		}
	}

	if merr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, merr)
	}

	return nil
}

// Lineweights are the lineweights accepted by the drafting application, in
// hundredths of a millimetre. Negative values are ByLayer (-1), ByBlock (-2)
// and Default (-3).
var Lineweights = []int{
	-3, -2, -1, 0, 5, 9, 13, 15, 18, 20, 25, 30, 35, 40, 50, 53,
	60, 70, 80, 90, 100, 106, 120, 140, 158, 200, 211,
}

// ValidLineweight reports whether w is one of [Lineweights].
func ValidLineweight(w int) bool {
	return slices.Contains(Lineweights, w)
}
