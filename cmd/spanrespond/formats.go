package main

import (
	"fmt"
	"github.com/spf13/cobra"
)

func newFormatsCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the mimetypes the content engine can encode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, mimeType := range env.engine.EncodeFormats() {
				decodes := ""
				if env.engine.HandlesDecode(mimeType) {
					decodes = " (decodes)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%v%v\n", mimeType, decodes)
			}
			return nil
		},
	}
}
