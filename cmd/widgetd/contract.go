package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"widgetd/internal/infra/contract"
)

const defaultContractFile = "contracts/tool_contract.yaml"

func newContractCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Check tool metadata against the contract file",
	}
	cmd.AddCommand(newContractVerifyCmd(opts))
	return cmd
}

func newContractVerifyCmd(opts *cliOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fail when a registered tool disagrees with the contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			oracle, err := contract.Load(file)
			if err != nil {
				return err
			}
			application, err := initApplication(cmd, opts)
			if err != nil {
				return err
			}
			tools, err := application.Catalog().Tools()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			violations := contract.Check(oracle, tools)
			for _, v := range violations {
				fmt.Fprintln(out, v.String())
			}
			if len(violations) > 0 {
				return exitWith(2, fmt.Sprintf("%d contract violation(s)", len(violations)))
			}
			fmt.Fprintf(out, "%d tools satisfy %s\n", len(oracle), file)
			return nil
		},
	}
	addServeFlags(cmd)
	cmd.Flags().StringVar(&file, "file", defaultContractFile, "contract file")
	return cmd
}
