package main

import (
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-capture-go/app"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Open a live preview window",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		c, err := app.BuildContainer(rt.cfg, rt.logger, rt.registry, rt.platform)
		if err != nil {
			return err
		}
		if target, label, err := rt.resolveTarget(); err == nil && (rt.cfg.WindowTitle != "" || rt.cfg.Monitor != 0) {
			if err := c.Active.Switch(target); err != nil {
				rt.logger.Warn("preview target unavailable", "target", label, "error", err)
			}
		}
		app.NewPreview("pixelcap preview", c).Run()
		return nil
	},
}

func init() {
	addTargetFlags(previewCmd)
	rootCmd.AddCommand(previewCmd)
}
