package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propsearch/internal/app"
	"propsearch/internal/config"
	"propsearch/internal/logger"
	"propsearch/internal/model"
	"propsearch/internal/service"
	"propsearch/internal/utils"
	"propsearch/internal/vocabulary"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nlq",
		Short:         "Natural-language property query tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd(), newExtractCmd(), newDistanceCmd())
	return root
}

type compileOutput struct {
	Constraints model.Constraints `json:"constraints"`
	Parameters  []any             `json:"parameters"`
}

func newCompileCmd() *cobra.Command {
	var (
		raw       string
		vocabPath string
		filter    string
		priceMin  float64
		priceMax  float64
	)
	cmd := &cobra.Command{
		Use:   "compile [query]",
		Short: "Normalize a raw extraction and print the positional store parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extraction model.RawExtraction
			if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
				return fmt.Errorf("--raw is not a JSON object: %w", err)
			}
			vocab, err := vocabulary.Load(vocabPath)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			overrides := model.Overrides{Filter: filter}
			if cmd.Flags().Changed("price-min") || cmd.Flags().Changed("price-max") {
				overrides.PriceMin, overrides.PriceMax = &priceMin, &priceMax
			}
			return runCompile(cmd.OutOrStdout(), vocab, extraction, query, overrides)
		},
	}
	cmd.Flags().StringVar(&raw, "raw", "{}", "raw extraction as a JSON object")
	cmd.Flags().StringVar(&vocabPath, "vocabulary", "", "vocabulary YAML file (built-in when empty)")
	cmd.Flags().StringVar(&filter, "filter", "", "listing filter override (rent|sale|all)")
	cmd.Flags().Float64Var(&priceMin, "price-min", 0, "price range override lower bound")
	cmd.Flags().Float64Var(&priceMax, "price-max", 0, "price range override upper bound")
	return cmd
}

func runCompile(w io.Writer, vocab *vocabulary.Vocabulary, raw model.RawExtraction, query string, o model.Overrides) error {
	c := service.NewNormalizer(vocab, zap.NewNop()).Normalize(raw, query)
	params := service.Compile(c, o)
	return printJSON(w, compileOutput{Constraints: c, Parameters: params.Args()})
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <query>",
		Short: "Extract and normalize constraints with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			l, err := logger.New("console", cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			vocab, err := app.LoadVocabulary(cfg)
			if err != nil {
				return err
			}
			extractor, err := app.NewExtractor(cmd.Context(), cfg, vocab, l)
			if err != nil {
				return err
			}

			raw, err := extractor.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return runCompile(cmd.OutOrStdout(), vocab, raw, args[0], model.Overrides{})
		},
	}
}

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <lat1> <lon1> <lat2> <lon2>",
		Short: "Great-circle distance in kilometres",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				v[i] = f
			}
			d := utils.Haversine(v[0], v[1], v[2], v[3])
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.3f km\n", d)
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
