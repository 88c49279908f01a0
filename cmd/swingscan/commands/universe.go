package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swingscan/swingscan/internal/universe"
)

var universeCmd = &cobra.Command{
	Use:   "universe [name]",
	Short: "List the built-in universe lists",
	Long: `Without arguments, lists the available universes. With a name,
prints that universe's symbols.

Examples:
  swingscan universe
  swingscan universe us_liquid_tech`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

func runUniverse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range universe.Names() {
			symbols, err := universe.Get(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-16s %d symbols\n", name, len(symbols))
		}
		return nil
	}

	symbols, err := universe.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(symbols, " "))
	return nil
}
