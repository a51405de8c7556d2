package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alireza-moradi/libfastbit/pkg/config"
	"github.com/alireza-moradi/libfastbit/pkg/errors"
	"github.com/alireza-moradi/libfastbit/pkg/logger"
	"github.com/alireza-moradi/libfastbit/pkg/params"
	"github.com/alireza-moradi/libfastbit/pkg/partition"
	"github.com/alireza-moradi/libfastbit/pkg/table"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var logLevel string
	root := &cobra.Command{
		Use:     "fastbit",
		Short:   "Build column-oriented data partitions from delimited text",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: "console"})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(importCmd(), describeCmd(), metaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindJobFlags registers the import-job flags shared by import and meta.
func bindJobFlags(cmd *cobra.Command, job *config.ImportJob) {
	cmd.Flags().StringVar(&job.Schema, "schema", "", "inline name:type declaration list")
	cmd.Flags().StringVar(&job.SchemaFile, "schema-file", "", "file with name:type declarations")
	cmd.Flags().StringVar(&job.Out, "out", "", "partition directory")
	cmd.Flags().StringVar(&job.Name, "name", "", "partition name (defaults to the directory name)")
	cmd.Flags().StringVar(&job.Description, "desc", "", "partition description")
	cmd.Flags().StringVar(&job.Index, "index", "", "partition-wide index hint")
}

// declare builds a staging table from the job's schema declaration.
func declare(job *config.ImportJob) (*table.Table, error) {
	if job.Index != "" && job.Name != "" {
		// make an explicit --index flag visible as the partition default
		params.Set("ibis."+job.Name+".index", job.Index)
	}
	t := table.New()
	if job.SchemaFile != "" {
		if n := t.ReadNamesAndTypes(job.SchemaFile); n < 0 {
			return nil, fmt.Errorf("reading schema file %s failed with code %d", job.SchemaFile, n)
		}
	} else if n := t.ParseNamesAndTypes(job.Schema); n <= 0 {
		return nil, fmt.Errorf("schema declaration %q produced no columns", job.Schema)
	}
	if t.NumColumns() == 0 {
		return nil, fmt.Errorf("no columns declared")
	}
	return t, nil
}

func importCmd() *cobra.Command {
	job := &config.ImportJob{}
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a delimited text file into a partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				// flags given on the command line take precedence over the file
				var given [][2]string
				for _, name := range []string{"schema", "schema-file", "out", "name", "desc", "index", "csv", "delimiter", "max-rows"} {
					if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
						given = append(given, [2]string{name, f.Value.String()})
					}
				}
				if err := config.Load(cfgFile, job); err != nil {
					return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load job file")
				}
				for _, kv := range given {
					_ = cmd.Flags().Set(kv[0], kv[1])
				}
			}
			if err := job.Validate(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeValidation, "invalid import job")
			}
			t, err := declare(job)
			if err != nil {
				return err
			}
			if code := t.ReadCSV(job.CSV, job.MaxRows, job.Delimiter); code < 0 {
				return errors.New(errors.ErrorTypeData,
					fmt.Sprintf("reading %s failed with code %d", job.CSV, code))
			}
			t.Normalize()
			logger.Info("staged rows",
				zap.Uint32("rows", t.Rows()), zap.Int("columns", t.NumColumns()))
			if code := t.Write(job.Out, job.Name, job.Description, job.Index); code < 0 {
				return errors.New(errors.ErrorTypeFile,
					fmt.Sprintf("writing partition %s failed with code %d", job.Out, code))
			}
			logger.Info("partition written", zap.String("dir", job.Out))
			return logger.Sync()
		},
	}
	bindJobFlags(cmd, job)
	cmd.Flags().StringVar(&job.CSV, "csv", "", "delimited input file")
	cmd.Flags().StringVar(&job.Delimiter, "delimiter", ",", "accepted field separators")
	cmd.Flags().IntVar(&job.MaxRows, "max-rows", 0, "reserve buffer capacity for this many rows")
	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML job file (flags override)")
	return cmd
}

func describeCmd() *cobra.Command {
	var dir string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the metadata of an existing partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := partition.Open(dir)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeFile, "failed to read partition metadata")
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			fmt.Printf("Partition %s (%s)\n", p.Name, p.Desc)
			fmt.Printf("  rows: %d, columns: %d\n", p.NRows, len(p.Columns))
			for _, c := range p.Columns {
				fmt.Printf("  %s: %s", c.Name, c.Type)
				if c.IndexSpec != "" {
					fmt.Printf(" (index = %s)", c.IndexSpec)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "partition directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func metaCmd() *cobra.Command {
	job := &config.ImportJob{}
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Write only the partition metadata file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if job.Out == "" {
				return fmt.Errorf("meta needs an output directory")
			}
			if job.Schema == "" && job.SchemaFile == "" {
				return fmt.Errorf("meta needs a schema or schema-file")
			}
			t, err := declare(job)
			if err != nil {
				return err
			}
			code := t.WriteMetaData(job.Out, job.Name, job.Description, job.Index)
			if code < 0 {
				return fmt.Errorf("writing metadata to %s failed with code %d", job.Out, code)
			}
			if code == 0 {
				logger.Info("metadata file already present, skipped", zap.String("dir", job.Out))
			} else {
				logger.Info("metadata written", zap.String("dir", job.Out), zap.Int("columns", code))
			}
			return logger.Sync()
		},
	}
	bindJobFlags(cmd, job)
	return cmd
}
