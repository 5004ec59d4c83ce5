package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trungams/simple-cloud/compose"
	"github.com/trungams/simple-cloud/ui"
	"github.com/trungams/simple-cloud/utilities/constants"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the topology as a docker-compose manifest",
	Long: `Translate the topology into a docker-compose v3 manifest with one entry
per container, so the same layout can run without this program.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadTopology()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load topology", err.Error(), "pass -f or --subnet"))
		return err
	}

	content, err := compose.Export(cfg)
	if err != nil {
		return err
	}

	if exportOut == "" {
		fmt.Print(string(content))
		return nil
	}
	if err := os.WriteFile(exportOut, content, 0644); err != nil {
		return errors.Wrap(err, constants.ExportComposeError+"failed to write manifest")
	}
	ui.Success(fmt.Sprintf("Created %s", exportOut))
	return nil
}
