package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

//go:embed version.txt
var version string

func init() {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "0.1.0" // fallback
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "openapi-store",
		Short: "Нормализация, overlay и экспорт OpenAPI документов",
		Long: `openapi-store загружает OpenAPI 3.x или Swagger 2.0 документ, приводит его
к OpenAPI 3.1.1, применяет overlay и экспортирует результат в JSON или YAML.
Циклические $ref сохраняются как ссылки.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(verbose))
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")

	cmd.AddCommand(exportCmd(), refsCmd(), versionCmd())
	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func exportCmd() *cobra.Command {
	var (
		inputPath    string
		outputPath   string
		overlays     []string
		validate     bool
		preserveRefs bool
		keepPrivate  bool
		maxFileSize  int64
	)

	cmd := &cobra.Command{
		Use:   "export [input]",
		Short: "Экспортировать нормализованный документ",
		Example: `  openapi-store export -i swagger.yaml -o openapi.json
  openapi-store export -i openapi.yaml -o out.yaml --overlay public.yaml --validate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" && len(args) > 0 {
				inputPath = args[0]
			}
			if inputPath == "" || outputPath == "" {
				return fmt.Errorf("необходимо указать входной и выходной файлы")
			}
			if inputPath == outputPath {
				return fmt.Errorf("входной и выходной файлы не могут быть одинаковыми")
			}

			result, err := newExporter(slog.Default()).Execute(cmd.Context(), inputPath, outputPath, exportConfig{
				Overlays:     overlays,
				Validate:     validate,
				PreserveRefs: preserveRefs,
				KeepPrivate:  keepPrivate,
				MaxFileSize:  maxFileSize,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(overlays) > 0 {
				fmt.Fprintf(out, "🔄 Overlay: применено %d, пропущено %d\n", result.Applied, result.Skipped)
				for _, w := range result.Warnings {
					fmt.Fprintf(out, "  ⚠️  %s\n", w)
				}
			}
			validateMsg := ""
			if validate {
				validateMsg = " и валидирована"
			}
			fmt.Fprintf(out, "✅ OpenAPI спецификация экспортирована%s: %s\n", validateMsg, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Путь или URL входного документа")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Путь к выходному файлу (.json или .yaml)")
	cmd.Flags().StringArrayVar(&overlays, "overlay", nil, "Overlay документ; можно указать несколько раз, применяются по порядку")
	cmd.Flags().BoolVar(&validate, "validate", false, "Валидировать результат после экспорта")
	cmd.Flags().BoolVar(&preserveRefs, "preserve-refs", false, "Сохранять внутренние $ref вместо подстановки")
	cmd.Flags().BoolVar(&keepPrivate, "keep-private", false, "Не удалять поля с префиксом _")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", 0, "Максимальный размер входных файлов в байтах (0 - без ограничения)")
	return cmd
}

func refsCmd() *cobra.Command {
	var (
		inputPath   string
		concurrency int
		lazy        bool
	)

	cmd := &cobra.Command{
		Use:   "refs [input]",
		Short: "Загрузить внешние $ref и показать их статус",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" && len(args) > 0 {
				inputPath = args[0]
			}
			if inputPath == "" {
				return fmt.Errorf("необходимо указать входной файл")
			}

			refs, err := newRefsFetcher(slog.Default()).Execute(cmd.Context(), inputPath, refsConfig{
				ConcurrencyLimit: concurrency,
				Lazy:             lazy,
			})
			if err != nil {
				return err
			}
			report := newReport(cmd.OutOrStdout())
			for _, ref := range refs {
				report.Reference(ref)
			}
			return report.Finish()
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Путь или URL входного документа")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Число одновременных загрузок")
	cmd.Flags().BoolVar(&lazy, "lazy", false, "Только обнаружить ссылки, не загружая их")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "openapi-store version %s\n", version)
		},
	}
}
