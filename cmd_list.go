package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-capture-go/domain/source"
)

var maxWindowsFlag int

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List active displays",
	RunE: func(cmd *cobra.Command, args []string) error {
		mons := source.Monitors()
		if len(mons) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no active displays")
			return nil
		}
		for _, m := range mons {
			b := m.Bounds
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%dx%d\tat %d,%d\n", m.Index, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
		}
		return nil
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List visible top-level windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		list := rt.registry.EnumWindows(maxWindowsFlag)
		if code := rt.registry.LastError(); len(list) == 0 && code != 0 {
			return fmt.Errorf("enumerate windows: %s", rt.registry.ErrorString(code))
		}
		fg, _, _ := source.ForegroundWindow()
		for _, w := range list {
			mark := " "
			if w.Handle == fg {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %#x\t%s\n", mark, uintptr(w.Handle), w.Title)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pixelcap v%s\n", version)
	},
}

func init() {
	windowsCmd.Flags().IntVar(&maxWindowsFlag, "max", 256, "maximum number of windows to list")
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(versionCmd)
}
