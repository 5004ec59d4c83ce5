package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trungams/simple-cloud/ui"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/wizard"
)

var initOut string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a topology file interactively",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initOut, "out", "o", "cloud.json", "where to write the topology file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOut); err == nil {
		fmt.Printf("%s already exists.\n", initOut)
		fmt.Print("Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg, err := wizard.Run()
	if err != nil {
		return errors.Wrap(err, "wizard failed")
	}

	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, constants.WriteConfigError+"failed to marshal topology")
	}
	if err := os.WriteFile(initOut, append(content, '\n'), 0600); err != nil {
		return errors.Wrap(err, constants.WriteConfigError+"failed to write topology file")
	}

	ui.Success(fmt.Sprintf("Created %s", initOut))
	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("simple-cloud up -f "+initOut))
	fmt.Printf("           %s\n", ui.Hint("or edit "+initOut+" to fine-tune the topology"))
	return nil
}
