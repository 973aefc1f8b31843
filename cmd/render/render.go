// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

// Package render is a subcommand of the root command. It renders folded
// stack samples from files or stdin as an SVG flame graph.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"inferno/internal/app"
	"inferno/internal/flamegraph"
	"inferno/internal/flamegraph/color"
	"inferno/internal/flamegraph/merge"
	"inferno/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const cmdName = "render"

var examples = []string{
	fmt.Sprintf("  Render a flame graph:               $ %s %s stacks.folded > flame.svg", app.Name, cmdName),
	fmt.Sprintf("  Render from stdin:                  $ %s %s < stacks.folded > flame.svg", app.Name, cmdName),
	fmt.Sprintf("  Render a memory profile:            $ %s %s --colors mem --count-name bytes heap.folded > heap.svg", app.Name, cmdName),
	fmt.Sprintf("  Render a differential flame graph:  $ %s %s --normalize diff.folded > diff.svg", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " [flags] [file ...]",
	Aliases:       []string{"flamegraph"},
	Short:         "Render folded stacks as an SVG flame graph",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
}

var (
	flagOptionsFile      string
	flagOutput           string
	flagTitle            string
	flagSubtitle         string
	flagNotes            string
	flagColors           string
	flagBgColors         string
	flagHash             bool
	flagDeterministic    bool
	flagPaletteFile      string
	flagNameAttrFile     string
	flagInverted         bool
	flagReverse          bool
	flagFlameChart       bool
	flagNoSort           bool
	flagPrettyXML        bool
	flagImageWidth       int
	flagFrameHeight      int
	flagMinWidth         float64
	flagFontType         string
	flagFontSize         int
	flagFontWidth        float64
	flagTruncateText     string
	flagCountName        string
	flagNameType         string
	flagUIColor          string
	flagSearchColor      string
	flagStrokeColor      string
	flagFactor           float64
	flagNegate           bool
	flagBase             []string
	flagIncludeChildren  bool
	flagWidthSource      string
	flagDetailedTooltips bool
	flagNormalize        bool
)

const (
	flagOptionsFileName      = "options"
	flagTitleName            = "title"
	flagSubtitleName         = "subtitle"
	flagNotesName            = "notes"
	flagColorsName           = "colors"
	flagBgColorsName         = "bgcolors"
	flagHashName             = "hash"
	flagDeterministicName    = "deterministic"
	flagPaletteFileName      = "palette-file"
	flagNameAttrFileName     = "nameattr"
	flagInvertedName         = "inverted"
	flagReverseName          = "reverse"
	flagFlameChartName       = "flamechart"
	flagNoSortName           = "no-sort"
	flagPrettyXMLName        = "pretty-xml"
	flagImageWidthName       = "width"
	flagFrameHeightName      = "frame-height"
	flagMinWidthName         = "min-width"
	flagFontTypeName         = "font-type"
	flagFontSizeName         = "font-size"
	flagFontWidthName        = "font-width"
	flagTruncateTextName     = "truncate-text"
	flagCountNameName        = "count-name"
	flagNameTypeName         = "name-type"
	flagUIColorName          = "ui-color"
	flagSearchColorName      = "search-color"
	flagStrokeColorName      = "stroke-color"
	flagFactorName           = "factor"
	flagNegateName           = "negate"
	flagBaseName             = "base"
	flagIncludeChildrenName  = "include-children"
	flagWidthSourceName      = "frame-width-source"
	flagDetailedTooltipsName = "detailed-tooltips"
	flagNormalizeName        = "normalize"
)

var truncateTextOptions = []string{"left", "right"}

func init() {
	Cmd.Flags().StringVar(&flagOptionsFile, flagOptionsFileName, "", "")
	Cmd.Flags().StringVarP(&flagOutput, app.FlagOutputName, "o", "", "")
	Cmd.Flags().StringVar(&flagTitle, flagTitleName, flamegraph.DefaultTitle, "")
	Cmd.Flags().StringVar(&flagSubtitle, flagSubtitleName, "", "")
	Cmd.Flags().StringVar(&flagNotes, flagNotesName, "", "")
	Cmd.Flags().StringVar(&flagColors, flagColorsName, flamegraph.DefaultColors, "")
	Cmd.Flags().StringVar(&flagBgColors, flagBgColorsName, "", "")
	Cmd.Flags().BoolVar(&flagHash, flagHashName, false, "")
	Cmd.Flags().BoolVar(&flagDeterministic, flagDeterministicName, false, "")
	Cmd.Flags().StringVar(&flagPaletteFile, flagPaletteFileName, "", "")
	Cmd.Flags().StringVar(&flagNameAttrFile, flagNameAttrFileName, "", "")
	Cmd.Flags().BoolVar(&flagInverted, flagInvertedName, false, "")
	Cmd.Flags().BoolVar(&flagReverse, flagReverseName, false, "")
	Cmd.Flags().BoolVar(&flagFlameChart, flagFlameChartName, false, "")
	Cmd.Flags().BoolVar(&flagNoSort, flagNoSortName, false, "")
	Cmd.Flags().BoolVar(&flagPrettyXML, flagPrettyXMLName, false, "")
	Cmd.Flags().IntVar(&flagImageWidth, flagImageWidthName, 0, "")
	Cmd.Flags().IntVar(&flagFrameHeight, flagFrameHeightName, flamegraph.DefaultFrameHeight, "")
	Cmd.Flags().Float64Var(&flagMinWidth, flagMinWidthName, flamegraph.DefaultMinWidth, "")
	Cmd.Flags().StringVar(&flagFontType, flagFontTypeName, flamegraph.DefaultFontType, "")
	Cmd.Flags().IntVar(&flagFontSize, flagFontSizeName, flamegraph.DefaultFontSize, "")
	Cmd.Flags().Float64Var(&flagFontWidth, flagFontWidthName, flamegraph.DefaultFontWidth, "")
	Cmd.Flags().StringVar(&flagTruncateText, flagTruncateTextName, "left", "")
	Cmd.Flags().StringVar(&flagCountName, flagCountNameName, flamegraph.DefaultCountName, "")
	Cmd.Flags().StringVar(&flagNameType, flagNameTypeName, flamegraph.DefaultNameType, "")
	Cmd.Flags().StringVar(&flagUIColor, flagUIColorName, flamegraph.DefaultUIColor, "")
	Cmd.Flags().StringVar(&flagSearchColor, flagSearchColorName, flamegraph.DefaultSearchColor, "")
	Cmd.Flags().StringVar(&flagStrokeColor, flagStrokeColorName, "", "")
	Cmd.Flags().Float64Var(&flagFactor, flagFactorName, flamegraph.DefaultFactor, "")
	Cmd.Flags().BoolVar(&flagNegate, flagNegateName, false, "")
	Cmd.Flags().StringSliceVar(&flagBase, flagBaseName, nil, "")
	Cmd.Flags().BoolVar(&flagIncludeChildren, flagIncludeChildrenName, false, "")
	Cmd.Flags().StringVar(&flagWidthSource, flagWidthSourceName, merge.WidthAfter.String(), "")
	Cmd.Flags().BoolVar(&flagDetailedTooltips, flagDetailedTooltipsName, false, "")
	Cmd.Flags().BoolVar(&flagNormalize, flagNormalizeName, false, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags] [file ...]\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Parent().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		cmd.Printf("  --%-20s %s\n", pf.Name, pf.Usage)
	})
	return nil
}

func getFlagGroups() []app.FlagGroup {
	var groups []app.FlagGroup
	groups = append(groups, app.FlagGroup{
		GroupName: "General Options",
		Flags: []app.Flag{
			{Name: app.FlagOutputName, Help: "write the SVG to the given file instead of stdout"},
			{Name: flagOptionsFileName, Help: "YAML file with render options; explicit flags override it"},
			{Name: flagTitleName, Help: "change the title text"},
			{Name: flagSubtitleName, Help: "second line of title text"},
			{Name: flagNotesName, Help: "add notes comment in SVG"},
			{Name: flagCountNameName, Help: "count type label, e.g. samples or bytes"},
			{Name: flagNameTypeName, Help: "name type label, e.g. Function:"},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Layout Options",
		Flags: []app.Flag{
			{Name: flagImageWidthName, Help: "width of the image in pixels; 0 selects a fluid width"},
			{Name: flagFrameHeightName, Help: "height of each frame in pixels"},
			{Name: flagMinWidthName, Help: "omit frames narrower than this percent of the total"},
			{Name: flagFontTypeName, Help: "font type for the labels"},
			{Name: flagFontSizeName, Help: "font size for the labels"},
			{Name: flagFontWidthName, Help: "font character width, as a fraction of the font size"},
			{Name: flagTruncateTextName, Help: fmt.Sprintf("end of long labels to keep: %s", strings.Join(truncateTextOptions, ", "))},
			{Name: flagInvertedName, Help: "icicle graph: stacks grow top-down"},
			{Name: flagPrettyXMLName, Help: "pretty print the SVG with indentation"},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Color Options",
		Flags: []app.Flag{
			{Name: flagColorsName, Help: fmt.Sprintf("color palette, one of: %s", strings.Join(color.PaletteNames(), ", "))},
			{Name: flagBgColorsName, Help: "background gradient: yellow, blue, green or grey"},
			{Name: flagHashName, Help: "colors are keyed by function name hash"},
			{Name: flagDeterministicName, Help: "colors are a pure function of the name, no weighting"},
			{Name: flagPaletteFileName, Help: "keep palette colors consistent across runs in this map file"},
			{Name: flagUIColorName, Help: "color of UI text such as the search button"},
			{Name: flagSearchColorName, Help: "color of search matches"},
			{Name: flagStrokeColorName, Help: "outline color for frames; none by default"},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Stack Options",
		Flags: []app.Flag{
			{Name: flagReverseName, Help: "generate a stack-reversed flame graph"},
			{Name: flagFlameChartName, Help: "produce a flame chart: sort by time, do not merge stacks"},
			{Name: flagNoSortName, Help: "skip sorting of pre-sorted input"},
			{Name: flagBaseName, Help: "comma separated base symbols: truncate each stack at its right-most occurrence; not applied with reverse, flamechart or no-sort"},
			{Name: flagFactorName, Help: "factor to scale sample counts by"},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Differential Options",
		Flags: []app.Flag{
			{Name: flagNegateName, Help: "switch differential hues: show before minus after"},
			{Name: flagIncludeChildrenName, Help: "differential coloring includes the sum of each frame's children"},
			{Name: flagWidthSourceName, Help: fmt.Sprintf("source of frame widths, one of: %s", strings.Join(merge.WidthSourceNames(), ", "))},
			{Name: flagDetailedTooltipsName, Help: "multi-line tooltips with before, after and change per frame"},
			{Name: flagNormalizeName, Help: "compare by percent of each dataset's total rather than absolute counts"},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Advanced Options",
		Flags: []app.Flag{
			{Name: flagNameAttrFileName, Help: "file with per-function SVG attributes, e.g. hyperlinks"},
		},
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if _, err := color.ParsePalette(flagColors); err != nil {
		return err
	}
	if flagBgColors != "" {
		if _, err := color.ParseBackgroundColor(flagBgColors); err != nil {
			return err
		}
	}
	if !util.StringInList(flagTruncateText, truncateTextOptions) {
		return fmt.Errorf("truncate-text options are: %s", strings.Join(truncateTextOptions, ", "))
	}
	if _, ok := merge.ParseWidthSource(flagWidthSource); !ok {
		return fmt.Errorf("frame-width-source options are: %s", strings.Join(merge.WidthSourceNames(), ", "))
	}
	if flagFrameHeight <= 0 {
		return fmt.Errorf("frame height must be 1 or greater")
	}
	if flagFontSize <= 0 {
		return fmt.Errorf("font size must be 1 or greater")
	}
	if flagFontWidth <= 0 {
		return fmt.Errorf("font width must be greater than 0")
	}
	if flagMinWidth < 0 {
		return fmt.Errorf("min width must be 0 or greater")
	}
	if flagFactor <= 0 {
		return fmt.Errorf("factor must be greater than 0")
	}
	if flagImageWidth < 0 {
		return fmt.Errorf("width must be 0 or greater")
	}
	for _, path := range []string{flagOptionsFile, flagNameAttrFile} {
		if path == "" {
			continue
		}
		exists, err := util.FileExists(util.ExpandUser(path))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("file %s does not exist", path)
		}
	}
	for _, path := range args {
		if path == "-" {
			continue
		}
		exists, err := util.FileExists(util.ExpandUser(path))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("input file %s does not exist", path)
		}
	}
	return nil
}

// buildOptions assembles render options from the optional YAML file and the
// explicitly set flags, flags taking precedence.
func buildOptions(cmd *cobra.Command) (*flamegraph.Options, error) {
	var opt *flamegraph.Options
	var err error
	if flagOptionsFile != "" {
		opt, err = flamegraph.LoadOptions(util.ExpandUser(flagOptionsFile))
		if err != nil {
			return nil, err
		}
	} else {
		opt = flamegraph.DefaultOptions()
	}
	changed := cmd.Flags().Changed
	if changed(flagTitleName) {
		opt.Title = flagTitle
	}
	if changed(flagSubtitleName) {
		opt.Subtitle = flagSubtitle
	}
	if changed(flagNotesName) {
		opt.Notes = flagNotes
	}
	if changed(flagColorsName) {
		if opt.Colors, err = color.ParsePalette(flagColors); err != nil {
			return nil, err
		}
	}
	if changed(flagBgColorsName) {
		bg, err := color.ParseBackgroundColor(flagBgColors)
		if err != nil {
			return nil, err
		}
		opt.BgColors = &bg
	}
	if changed(flagHashName) {
		opt.Hash = flagHash
	}
	if changed(flagDeterministicName) {
		opt.Deterministic = flagDeterministic
	}
	if changed(flagInvertedName) && flagInverted {
		opt.Direction = flamegraph.DirectionInverted
	}
	if changed(flagReverseName) {
		opt.ReverseStackOrder = flagReverse
	}
	if changed(flagFlameChartName) {
		opt.FlameChart = flagFlameChart
	}
	if changed(flagNoSortName) {
		opt.NoSort = flagNoSort
	}
	if changed(flagPrettyXMLName) {
		opt.PrettyXML = flagPrettyXML
	}
	if changed(flagImageWidthName) {
		opt.ImageWidth = flagImageWidth
	}
	if changed(flagFrameHeightName) {
		opt.FrameHeight = flagFrameHeight
	}
	if changed(flagMinWidthName) {
		opt.MinWidth = flagMinWidth
	}
	if changed(flagFontTypeName) {
		opt.FontType = flagFontType
	}
	if changed(flagFontSizeName) {
		opt.FontSize = flagFontSize
	}
	if changed(flagFontWidthName) {
		opt.FontWidth = flagFontWidth
	}
	if changed(flagTruncateTextName) && flagTruncateText == "right" {
		opt.TextTruncateDirection = flamegraph.TruncateRight
	}
	if changed(flagCountNameName) {
		opt.CountName = flagCountName
	}
	if changed(flagNameTypeName) {
		opt.NameType = flagNameType
	}
	if changed(flagUIColorName) {
		opt.UIColor = flagUIColor
	}
	if changed(flagSearchColorName) {
		opt.SearchColor = flagSearchColor
	}
	if changed(flagStrokeColorName) {
		opt.StrokeColor = flagStrokeColor
	}
	if changed(flagFactorName) {
		opt.Factor = flagFactor
	}
	if changed(flagNegateName) {
		opt.NegateDifferentials = flagNegate
	}
	if changed(flagBaseName) {
		for _, symbol := range flagBase {
			opt.Base = util.UniqueAppend(opt.Base, symbol)
		}
	}
	if changed(flagIncludeChildrenName) {
		opt.IncludeChildren = flagIncludeChildren
	}
	if changed(flagWidthSourceName) {
		opt.FrameWidthSource, _ = merge.ParseWidthSource(flagWidthSource)
	}
	if changed(flagDetailedTooltipsName) {
		opt.DetailedTooltips = flagDetailedTooltips
	}
	if changed(flagNormalizeName) {
		opt.Normalize = flagNormalize
	}
	if opt.FlameChart && !changed(flagTitleName) && opt.Title == flamegraph.DefaultTitle {
		opt.Title = flamegraph.DefaultChartTitle
	}
	return opt, nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	opt, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if flagNameAttrFile != "" {
		f, err := os.Open(util.ExpandUser(flagNameAttrFile))
		if err != nil {
			return err
		}
		attrs, err := flamegraph.ParseFrameAttrs(f)
		f.Close()
		if err != nil {
			return err
		}
		opt.FuncFrameAttrs = attrs
	}
	if flagPaletteFile != "" {
		path, err := util.AbsPath(flagPaletteFile)
		if err != nil {
			return err
		}
		paletteMap, err := color.LoadPaletteMap(path)
		if err != nil {
			return err
		}
		opt.PaletteMap = paletteMap
		defer func() {
			if err := paletteMap.Save(path); err != nil {
				slog.Error("failed to save palette map", slog.String("error", err.Error()))
			}
		}()
	}

	out := os.Stdout
	if flagOutput != "" {
		path, err := util.AbsPath(flagOutput)
		if err != nil {
			return err
		}
		out, err = os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
	} else if term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("refusing to write the SVG to a terminal; redirect stdout or use --%s", app.FlagOutputName)
	}
	return flamegraph.FromFiles(opt, args, out)
}
