package args

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Args represents the main command line arguments
type Args struct {
	DB     string     `json:"db"`
	SubCmd SubCommand `json:"subcmd"`
}

// SubCommand names the chosen subcommand; only its own arguments are set
type SubCommand struct {
	Name           string          `json:"name"`
	CreateArgs     *CreateArgs     `json:"create_args,omitempty"`
	DropArgs       *DropArgs       `json:"drop_args,omitempty"`
	PutMappingArgs *PutMappingArgs `json:"put_mapping_args,omitempty"`
	MappingArgs    *MappingArgs    `json:"mapping_args,omitempty"`
	IndexArgs      *IndexArgs      `json:"index_args,omitempty"`
	SearchArgs     *SearchArgs     `json:"search_args,omitempty"`
	AnalyzeArgs    *AnalyzeArgs    `json:"analyze_args,omitempty"`
}

type CreateArgs struct {
	ConfigPath string `json:"config_path"`
}

type DropArgs struct {
	Name string `json:"name"`
}

// PutMappingArgs points at a file with `analysis` and `mappings` sections
type PutMappingArgs struct {
	Name        string `json:"name"`
	MappingPath string `json:"mapping_path"`
}

type MappingArgs struct {
	Name            string `json:"name"`
	IncludeDefaults bool   `json:"include_defaults"`
	Format          string `json:"format"`
}

// IndexArgs configures one indexing run. An empty Input reads stdin.
type IndexArgs struct {
	Name           string        `json:"name"`
	Input          string        `json:"input"`
	Stream         bool          `json:"stream"`
	CommitInterval time.Duration `json:"commit_interval"`
	BatchSize      int           `json:"batch_size"`
}

// SearchArgs selects documents whose Field holds a value in [Min, Max]
type SearchArgs struct {
	Name  string `json:"name"`
	Field string `json:"field"`
	Min   int32  `json:"min"`
	Max   int32  `json:"max"`
	Limit int    `json:"limit"`
}

type AnalyzeArgs struct {
	Name  string `json:"name"`
	Field string `json:"field"`
	Text  string `json:"text"`
}

// parser collects the result of one command line parse
type parser struct {
	parsed Args
}

// leaf builds a subcommand taking exactly nargs positional arguments;
// choose fills the SubCommand once cobra validated them
func (p *parser) leaf(use, short string, nargs cobra.PositionalArgs, choose func(args []string) SubCommand) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		Run: func(cmd *cobra.Command, args []string) {
			p.parsed.SubCmd = choose(args)
		},
	}
}

func (p *parser) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokensum",
		Short: "Index documents with token sum fields",
		Long:  "Index JSON documents into bluge indexes whose token_sum fields hold the sum of the integer tokens of a text.",
	}

	cmd.PersistentFlags().StringVar(&p.parsed.DB, "db", "",
		"Metadata DB connection url (sqlite:<path> or postgres://...). Can also be provided by a DATABASE_URL env var, but only if this arg is not provided.")

	cmd.AddCommand(
		p.createCmd(),
		p.dropCmd(),
		p.listCmd(),
		p.putMappingCmd(),
		p.mappingCmd(),
		p.indexCmd(),
		p.searchCmd(),
		p.analyzeCmd(),
	)
	return cmd
}

func (p *parser) createCmd() *cobra.Command {
	return p.leaf("create [config_path]", "Create a new index", cobra.ExactArgs(1), func(args []string) SubCommand {
		return SubCommand{Name: "create", CreateArgs: &CreateArgs{ConfigPath: args[0]}}
	})
}

func (p *parser) dropCmd() *cobra.Command {
	return p.leaf("drop [name]", "Drop an index and delete its documents", cobra.ExactArgs(1), func(args []string) SubCommand {
		return SubCommand{Name: "drop", DropArgs: &DropArgs{Name: args[0]}}
	})
}

func (p *parser) listCmd() *cobra.Command {
	return p.leaf("list", "List the names of all indexes", cobra.NoArgs, func(args []string) SubCommand {
		return SubCommand{Name: "list"}
	})
}

func (p *parser) putMappingCmd() *cobra.Command {
	return p.leaf("put-mapping [name] [mapping_path]", "Merge analyzers and field mappings into an index", cobra.ExactArgs(2),
		func(args []string) SubCommand {
			return SubCommand{Name: "put-mapping", PutMappingArgs: &PutMappingArgs{Name: args[0], MappingPath: args[1]}}
		})
}

func (p *parser) mappingCmd() *cobra.Command {
	mappingArgs := &MappingArgs{}
	cmd := p.leaf("mapping [name]", "Print the field mappings of an index", cobra.ExactArgs(1), func(args []string) SubCommand {
		mappingArgs.Name = args[0]
		return SubCommand{Name: "mapping", MappingArgs: mappingArgs}
	})

	cmd.Flags().BoolVar(&mappingArgs.IncludeDefaults, "include-defaults", false,
		"Also print parameters left at their default value.")
	cmd.Flags().StringVarP(&mappingArgs.Format, "format", "f", "json",
		"Output format: 'json' or 'yaml'.")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if mappingArgs.Format != "json" && mappingArgs.Format != "yaml" {
			return fmt.Errorf("format must be 'json' or 'yaml', got '%s'", mappingArgs.Format)
		}
		return nil
	}
	return cmd
}

func (p *parser) indexCmd() *cobra.Command {
	indexArgs := &IndexArgs{}
	cmd := p.leaf("index [name] [input]", "Index documents", cobra.RangeArgs(1, 2), func(args []string) SubCommand {
		indexArgs.Name = args[0]
		if len(args) > 1 {
			indexArgs.Input = args[1]
		}
		return SubCommand{Name: "index", IndexArgs: indexArgs}
	})
	cmd.Long = `Index documents from a JSONL file, a kafka://servers/topic url or
the JSONL objects under an s3://bucket/prefix url.
Read from stdin by not providing any input.`

	cmd.Flags().BoolVarP(&indexArgs.Stream, "stream", "s", false,
		"Keep reading from the source until it closes or the command is interrupted.")
	cmd.Flags().DurationVar(&indexArgs.CommitInterval, "commit-interval", 30*time.Second,
		"How long to collect documents before committing them when streaming. Examples: '5s', '2m10s'.")
	cmd.Flags().IntVar(&indexArgs.BatchSize, "batch-size", 10000,
		"Maximum number of documents per commit.")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if indexArgs.BatchSize <= 0 {
			return fmt.Errorf("batch-size must be positive, got %d", indexArgs.BatchSize)
		}
		if indexArgs.CommitInterval <= 0 {
			return fmt.Errorf("commit-interval must be positive, got %s", indexArgs.CommitInterval)
		}
		return nil
	}
	return cmd
}

func (p *parser) searchCmd() *cobra.Command {
	searchArgs := &SearchArgs{}
	cmd := p.leaf("search [name] [field]", "Search the index", cobra.ExactArgs(2), func(args []string) SubCommand {
		searchArgs.Name = args[0]
		searchArgs.Field = args[1]
		return SubCommand{Name: "search", SearchArgs: searchArgs}
	})
	cmd.Long = "Find documents whose numeric field value is within [min, max]."

	cmd.Flags().Int32Var(&searchArgs.Min, "min", math.MinInt32, "Lowest matching value, inclusive.")
	cmd.Flags().Int32Var(&searchArgs.Max, "max", math.MaxInt32, "Highest matching value, inclusive.")
	cmd.Flags().IntVarP(&searchArgs.Limit, "limit", "l", 10, "Limit to a number of top results.")
	return cmd
}

func (p *parser) analyzeCmd() *cobra.Command {
	return p.leaf("analyze [name] [field] [text]", "Show the tokens and sum a token_sum field computes for a text",
		cobra.ExactArgs(3), func(args []string) SubCommand {
			return SubCommand{Name: "analyze", AnalyzeArgs: &AnalyzeArgs{Name: args[0], Field: args[1], Text: args[2]}}
		})
}

// ParseArgs parses the process command line
func ParseArgs() (*Args, error) {
	return ParseArgsFrom(os.Args[1:])
}

// ParseArgsFrom parses the given command line arguments
func ParseArgsFrom(argv []string) (*Args, error) {
	p := &parser{}
	root := p.rootCmd()
	root.SetArgs(argv)
	root.SilenceUsage = true

	if err := root.Execute(); err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return &p.parsed, nil
}
