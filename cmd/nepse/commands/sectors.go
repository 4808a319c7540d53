package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// sectorsCmd lists the exchange's sector indices.
var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sector indices",
	RunE:  runSectors,
}

func init() {
	rootCmd.AddCommand(sectorsCmd)
}

func runSectors(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	sectors := rt.service.Sectors()

	widths := []int{6, 40}
	fmt.Println()
	printTableHeader([]string{"ID", "Sector"}, widths)
	for _, sector := range sectors {
		printTableRow([]string{strconv.Itoa(sector.ID), sector.Name}, widths)
	}
	fmt.Println()

	return nil
}
