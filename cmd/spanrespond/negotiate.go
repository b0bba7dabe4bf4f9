package main

import (
	"fmt"
	"github.com/illuscio-dev/spanrespond-go/dispatch"
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
	"strings"
)

// Payload encoded by negotiate.
type sample struct {
	Message string   `codec:"message" bson:"message" yaml:"message" xml:"message"`
	Formats []string `codec:"formats" bson:"formats" yaml:"formats" xml:"formats>format"`
}

func (value sample) String() string {
	return value.Message
}

// Registers payload under every format in formats, in order.
func registerSample(registry *dispatch.Registry, formats []string, payload sample) {
	for _, format := range formats {
		mimeType := mimetype.FromString(format)
		if mimeType == mimetype.HTML {
			registry.HTML(func() (interface{}, error) {
				return "<p>" + payload.Message + "</p>", nil
			})
			continue
		}
		registry.Register(mimeType, func() (interface{}, error) { return payload, nil })
	}
}

func newNegotiateCommand(env *environment) *cobra.Command {
	var accept string
	var formats []string

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Show which format an Accept header selects",
		Long: `Dispatches an Accept header against the given formats, printing the selected
mimetype followed by a sample payload encoded in it.`,
		Example: "  spanrespond negotiate --accept 'text/html;q=0.5, application/json' " +
			"--format html --format json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acceptSet, refused, err := mimetype.ParseAcceptRefused(accept)
			if err != nil {
				return xerrors.Errorf("invalid accept: %w", err)
			}

			dispatcher := dispatch.New(
				dispatch.WithLogger(env.logger),
				dispatch.WithWildcards(env.config.MatchWildcards),
			)
			payload := sample{Message: "negotiated", Formats: formats}

			registry := dispatch.NewRegistry()
			registerSample(registry, formats, payload)

			result, err := dispatcher.DispatchRefusing(acceptSet, refused, registry)
			if err != nil {
				return err
			}
			if result.Unsupported() {
				return xerrors.Errorf(
					"none of [%v] is in [%v]", result.Requested, strings.Join(formats, ", "),
				)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.MimeType)
			if err := env.engine.Encode(result.MimeType, result.Output, out); err != nil {
				return xerrors.Errorf("error encoding sample: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&accept, "accept", "a", "*/*", "Accept header value")
	cmd.Flags().StringSliceVarP(
		&formats, "format", "f", []string{"json"}, "format to register, in order",
	)

	return cmd
}
