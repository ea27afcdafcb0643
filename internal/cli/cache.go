package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry response cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached registry responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.loadSettings(absPath("."))
			if err != nil {
				return err
			}
			if s.cfg.Cache.Disabled {
				printInfo(c.Out, "Cache is disabled")
				return nil
			}
			backend, err := c.openCache(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer backend.Close()
			if err := backend.Clear(cmd.Context()); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "clear cache")
			}
			printSuccess(c.Out, "Cache cleared")
			printDetail(c.Out, "%s", cacheLocation(s))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where registry responses are cached",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.loadSettings(absPath("."))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, cacheLocation(s))
			return nil
		},
	}
}

func cacheLocation(s *settings) string {
	switch {
	case s.cfg.Cache.RedisAddr != "":
		return "redis://" + s.cfg.Cache.RedisAddr
	case s.cfg.Cache.Dir != "":
		return s.cfg.Cache.Dir
	}
	return s.env.CacheDir()
}
