package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	explainAST bool

	runCmd = &cobra.Command{
		Use:   "run <command text>",
		Short: "run a pipeline command and print the resulting table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(args[0])
		},
	}
)

func init() {
	runCmd.Flags().BoolVar(&explainAST, "explain-ast", false, "pretty-print the parsed AST before executing")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(commandText string) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	if explainAST {
		if err := printAST(commandText); err != nil {
			return err
		}
	}

	t, err := engine.Execute(context.Background(), commandText, nil)
	if err != nil {
		return err
	}

	names := t.ColumnNames()
	fmt.Println(strings.Join(names, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "null"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	return nil
}
