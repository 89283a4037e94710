package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytscribe/internal/cache"
	"ytscribe/internal/fingerprint"
	"ytscribe/internal/language"
	"ytscribe/internal/logging"
	"ytscribe/internal/media"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Result cache utilities",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheInvalidateCommand(ctx))

	return cacheCmd
}

func openCacheStore(ctx *commandContext) (*cache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, fmt.Errorf("caching is disabled in %s", ctx.resolvedPath)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	store, err := cache.Open(cfg, logging.NewNop())
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(context.Background())
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}

			rows := [][]string{
				{"Directory", store.Dir()},
				{"Entries", fmt.Sprintf("%d", stats.Entries)},
				{"Size", formatBytes(stats.TotalBytes)},
				{"Budget", formatBytes(stats.MaxBytes)},
				{"TTL", stats.TTL},
				{"Free disk", fmt.Sprintf("%.0f%%", stats.FreeRatio*100)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Cache", "Value"}, rows))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.EntryCount(context.Background())
			if err != nil {
				return err
			}
			if err := store.Clear(context.Background()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached transcript(s)\n", count)
			return nil
		},
	}
}

func newCacheInvalidateCommand(ctx *commandContext) *cobra.Command {
	var model string
	var targetLang string
	var formats []string

	cmd := &cobra.Command{
		Use:   "invalidate <url>",
		Short: "Drop the cached transcript for one URL",
		Long: "Removes the cache entry matching the URL and the given processing\n" +
			"options. The options must match the original run, since they are part\n" +
			"of the cache key.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lang := strings.TrimSpace(targetLang)
			if lang != "" {
				if lang, err = language.Normalize(lang); err != nil {
					return err
				}
			}
			if strings.TrimSpace(model) == "" {
				model = cfg.Whisper.Model
			}

			store, err := openCacheStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			fp := fingerprint.Compute(args[0], media.Options{
				Model:          model,
				TargetLanguage: lang,
				Formats:        formats,
			})
			if err := store.Invalidate(context.Background(), fp); err != nil {
				return fmt.Errorf("invalidate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated cache entry for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Speech model used for the original run")
	cmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language used for the original run")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"srt"}, "Export formats used for the original run")

	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
