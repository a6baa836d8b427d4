package cmd

import (
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/queryflow/pipeql/parser"
)

var explainCmd = &cobra.Command{
	Use:   "explain <command text>",
	Short: "print the optimized execution plan for a pipeline command as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := buildEngine()
		if err != nil {
			return err
		}
		out, err := engine.Explain(args[0])
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

// printAST renders the parsed *ast.CommandAST via repr.String, the
// vippsas-sqlcode CLI-debugging idiom this pack's other CLI repo uses
// for inspecting a parsed tree during grammar work.
func printAST(commandText string) error {
	cmd, err := parser.Parse(commandText)
	if err != nil {
		return err
	}
	fmt.Println(repr.String(cmd, repr.Indent("  ")))
	return nil
}
