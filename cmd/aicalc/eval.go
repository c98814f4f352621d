package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/aicalc/internal/bootstrap"
	"github.com/at-ishikawa/aicalc/internal/cli"
	"github.com/at-ishikawa/aicalc/internal/config"
	"github.com/at-ishikawa/aicalc/internal/orchestrator"
)

func newEvalCommand() *cobra.Command {
	var forceAI bool
	command := &cobra.Command{
		Use:   "eval <expression...>",
		Short: "Evaluate one expression and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expression := strings.Join(args, " ")
			return runWithComponents(cmd.Context(), func(ctx context.Context, _ *config.Config, components *bootstrap.Components) error {
				outcome, err := components.Calculator.Evaluate(ctx, expression, forceAI)
				if errors.Is(err, orchestrator.ErrEmptyExpression) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("calculator.Evaluate() > %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), outcome.Result.Value)
				return err
			})
		},
	}
	command.Flags().BoolVar(&forceAI, "ai", false, "Ask the AI even if the expression can be evaluated locally")
	return command
}

func newREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive calculator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithComponents(cmd.Context(), func(ctx context.Context, _ *config.Config, components *bootstrap.Components) error {
				repl := cli.NewREPL(components.Calculator, components.Store, cmd.InOrStdin(), cmd.OutOrStdout())
				return repl.Run(ctx)
			})
		},
	}
}
