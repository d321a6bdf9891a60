package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/formflow/pkg/authoring"
	"github.com/dukex/formflow/pkg/fields"
	"github.com/dukex/formflow/pkg/steps"
	"github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "formflow",
		Usage:                 "Inspect and convert form template files",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			stepsCommand(),
			checkCommand(),
			convertCommand(),
		},
	}
}

func stepsCommand() *cli.Command {
	return &cli.Command{
		Name:      "steps",
		Usage:     "Print the wizard steps of a template",
		ArgsUsage: "<template.(json|yaml)>",
		Action: func(_ context.Context, command *cli.Command) error {
			template, err := readTemplate(command.Args().First())
			if err != nil {
				return err
			}

			out := command.Root().Writer

			for _, step := range steps.Partition(template.Fields) {
				ids := make([]string, len(step.Fields))
				for i, field := range step.Fields {
					ids[i] = field.ID
				}

				_, err := fmt.Fprintf(out, "%d\t%s\t%d field(s): %v\n", step.Index+1, step.Title, len(step.Fields), ids)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check publish preconditions and print the response schema",
		ArgsUsage: "<template.(json|yaml)>",
		Action: func(_ context.Context, command *cli.Command) error {
			template, err := readTemplate(command.Args().First())
			if err != nil {
				return err
			}

			if err := authoring.Check(template); err != nil {
				return err
			}

			schema, err := json.MarshalIndent(fields.NewRegistry(nil).ResponseSchema(template), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}

			_, err = fmt.Fprintln(command.Root().Writer, string(schema))

			return err
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a template between JSON and YAML",
		ArgsUsage: "<in> <out>",
		Action: func(_ context.Context, command *cli.Command) error {
			if command.Args().Len() != 2 {
				return fmt.Errorf("%w: convert needs <in> and <out>", errMissingArgument)
			}

			template, err := readTemplate(command.Args().Get(0))
			if err != nil {
				return err
			}

			return writeTemplate(command.Args().Get(1), template)
		},
	}
}
