package main

import (
	"fmt"
	"github.com/dzfranklin/gtfsfilter"
	"github.com/dzfranklin/gtfsfilter/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
)

/* Example usage:
    gtfsfilter filter GTFS-IN/feed.zip --agency DTA
    gtfsfilter filter GTFS-IN/feed.zip --route-file routes.csv -o subset.zip
    gtfsfilter filter --config job.yml
    gtfsfilter import feed.zip
    gtfsfilter export feed.db
*/

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var quiet bool

	root := &cobra.Command{
		Use:           "gtfsfilter",
		Short:         "Extract a self-contained subset of a GTFS feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if quiet {
				level = slog.LevelWarn
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	root.AddCommand(newFilterCmd(), newImportCmd(), newExportCmd(), newValidateCmd())
	return root
}

type filterFlags struct {
	agency     string
	routes     []string
	routeFile  string
	configPath string
	output     string
	extended   bool
}

func (f *filterFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.agency, "agency", "a", "", "Keep the routes of this agency_id")
	flags.StringSliceVarP(&f.routes, "routes", "r", nil, "Keep these route_ids")
	flags.StringVar(&f.routeFile, "route-file", "", "Keep the route_ids listed in this CSV or routes.txt file")
	flags.StringVarP(&f.configPath, "config", "c", "", "Read the job from a YAML file")
	flags.StringVarP(&f.output, "out", "o", "", "Path to write output to (.zip or .db)")
	flags.BoolVar(&f.extended, "extended", false, "Also filter frequencies, fare_rules and route_networks")
}

// job merges the flags over the config file, if any.
func (f *filterFlags) job(flags *pflag.FlagSet, args []string) (*config.Job, error) {
	job := &config.Job{}
	if f.configPath != "" {
		var err error
		if job, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	if len(args) > 0 {
		job.Input = args[0]
	}
	if f.output != "" {
		job.Output = f.output
	}
	if f.agency != "" {
		job.Filter = config.FilterConfig{Kind: string(gtfsfilter.ByAgency), Values: []string{f.agency}}
	} else if len(f.routes) > 0 || f.routeFile != "" {
		job.Filter = config.FilterConfig{Kind: string(gtfsfilter.ByRoute), Values: f.routes, ValuesFile: f.routeFile}
	}
	if flags.Changed("extended") {
		job.Extended = f.extended
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

func newFilterCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "filter [feed]",
		Short: "Keep one agency or a set of routes and everything they reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := f.job(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return runFilter(job)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func runFilter(job *config.Job) error {
	kind, err := gtfsfilter.ParseKind(job.Filter.Kind)
	if err != nil {
		return err
	}

	values := slices.Clone(job.Filter.Values)
	if job.Filter.ValuesFile != "" {
		ids, err := gtfsfilter.LoadIdentifiers(job.Filter.ValuesFile, string(kind)+"_id")
		if err != nil {
			return fmt.Errorf("load identifiers: %w", err)
		}
		slog.Info(fmt.Sprintf("Loaded %d unique identifiers from %s", len(ids), job.Filter.ValuesFile))
		values = append(values, ids...)
	}
	criterion := gtfsfilter.Criterion{Kind: kind, Values: values}

	feed, err := gtfsfilter.Open(job.Input)
	if err != nil {
		return err
	}

	filtered, report, err := gtfsfilter.Filter(feed, criterion, &gtfsfilter.FilterOpts{Extended: job.Extended})
	if err != nil {
		return err
	}
	report.Log(slog.Default())

	outputPath := job.Output
	if outputPath == "" {
		outputPath = defaultFilterOutput(criterion)
	}
	if err := gtfsfilter.Save(filtered, outputPath); err != nil {
		return err
	}

	fmt.Printf("Filtered GTFS has been saved to %s\n", outputPath)
	return nil
}

func newImportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "import <feed.zip>",
		Short: "Store a GTFS feed in a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := gtfsfilter.Open(args[0])
			if err != nil {
				return err
			}
			if err := gtfsfilter.WriteSQLite(feed, outputPathOrDefault(args[0], output, ".zip", ".db")); err != nil {
				return err
			}
			fmt.Println("All done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "Path to write output to")
	return cmd
}

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <feed.db>",
		Short: "Write a feed stored by import back to a GTFS zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := gtfsfilter.ReadSQLite(args[0])
			if err != nil {
				return err
			}
			if err := gtfsfilter.WriteArchive(feed, outputPathOrDefault(args[0], output, ".db", ".zip")); err != nil {
				return err
			}
			fmt.Println("All done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "Path to write output to")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var extended bool
	cmd := &cobra.Command{
		Use:   "validate <feed>",
		Short: "Report foreign ids that do not resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := gtfsfilter.Open(args[0])
			if err != nil {
				return err
			}
			issues := gtfsfilter.Validate(feed, &gtfsfilter.FilterOpts{Extended: extended})
			for _, issue := range issues {
				slog.Warn(issue)
			}
			if len(issues) > 0 {
				return fmt.Errorf("%w: %d unresolved references", gtfsfilter.ErrInvalidInput, len(issues))
			}
			fmt.Println("All done")
			return nil
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "Also check frequencies, fare_rules and route_networks")
	return cmd
}

func defaultFilterOutput(c gtfsfilter.Criterion) string {
	var fragment string
	if c.Kind == gtfsfilter.ByAgency && len(c.Values) > 0 {
		fragment = strings.ReplaceAll(c.Values[0], "/", "_")
	} else {
		ids := slices.DeleteFunc(slices.Clone(c.Values), func(v string) bool { return v == "" })
		slices.Sort(ids)
		fragment = fmt.Sprintf("routes_%d", len(slices.Compact(ids)))
	}
	return "filtered_gtfs_" + fragment + ".zip"
}

func outputPathOrDefault(inputPath string, outputPath string, suffixToTrim string, newSuffix string) string {
	if outputPath != "" {
		return outputPath
	}
	inputPath = path.Clean(inputPath)
	return strings.TrimSuffix(path.Base(inputPath), suffixToTrim) + newSuffix
}
