package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasehub/internal/app"
	"github.com/matzehuels/releasehub/internal/config"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear cached upstream data",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheGetCommand())
	cmd.AddCommand(c.cacheDeleteCommand())
	cmd.AddCommand(c.cacheInvalidateCommand())

	return cmd
}

// fileCacheDir returns the directory of the file backend.
func (c *CLI) fileCacheDir() (string, error) {
	cfg, err := c.loadConfig(false)
	if err != nil {
		return "", err
	}
	if cfg.Cache.Backend != config.BackendFile {
		return "", apperrors.New(apperrors.ErrCodeUnsupported, "the %s cache backend has no directory", cfg.Cache.Backend)
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return app.CacheDir()
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry of the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %s", plural(count, "cached entry"))
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// clearDir removes every file below dir and the emptied subdirectories.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil // Skip errors, continue walking
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	// Clean up empty subdirectories
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if info.IsDir() {
			os.Remove(path)
		}
		return nil
	})
	return count, nil
}

// cacheGetCommand creates the "cache get" subcommand.
func (c *CLI) cacheGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print a cached entry",
		Example: `  releasehub cache get repo:sveltejs/kit:releases`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			data, ok := a.Cache.GetRaw(cmd.Context(), args[0])
			if !ok {
				return apperrors.New(apperrors.ErrCodeNotFound, "no cached entry for %q", args[0])
			}
			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				out.Reset()
				out.Write(data)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
}

// cacheDeleteCommand creates the "cache delete" subcommand.
func (c *CLI) cacheDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a cached entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Cache.Delete(cmd.Context(), args[0]) {
				printInfo("No entry for %s", args[0])
				return nil
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

// cacheInvalidateCommand creates the "cache invalidate" subcommand.
func (c *CLI) cacheInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <owner/repo>",
		Short: "Drop the cached releases of a repository",
		Long: `Invalidate drops the cached releases of a repository, as a GitHub release
webhook does. The next read fetches them again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := apperrors.ParseRepoRef(args[0])
			if err != nil {
				return err
			}
			a, err := c.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Source.InvalidateReleases(cmd.Context(), owner, repo) {
				printInfo("No cached releases for %s/%s", owner, repo)
				return nil
			}
			printSuccess("Invalidated releases of %s/%s", owner, repo)
			printNextStep("Fetch them again", "releasehub refresh")
			return nil
		},
	}
}
