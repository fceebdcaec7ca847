package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/ka2n/getfavicon/api"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var (
	inspectFileFlag string

	bestLayerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")) // green

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	inspectCmd = &cobra.Command{
		Use:   "inspect [page-url]",
		Short: "List the layers of a page's favicon and the one that would be converted",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspect,
	}
)

func init() {
	inspectCmd.Flags().StringVar(&inspectFileFlag, "file", "", "Inspect a local image instead of a page's favicon")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (inspectFileFlag != "") {
		return failure.New(InvalidArguments,
			failure.Message("Specify either a page URL or --file"))
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	var inspection *api.Inspection
	if inspectFileFlag != "" {
		inspection, err = client.InspectFile(ctx, inspectFileFlag)
		if err != nil {
			return err
		}
	} else {
		fav, iconURL, err := client.Download(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Favicon: %s\n", iconURL)

		inspection, err = client.InspectFavicon(ctx, fav)
		if err != nil {
			return err
		}
	}

	printLayers(out, inspection, isTerminal(out))
	return nil
}

func printLayers(w io.Writer, inspection *api.Inspection, styled bool) {
	for _, layer := range inspection.Layers {
		mark := " "
		if layer.Index == inspection.Best.Index {
			mark = "*"
		}
		line := fmt.Sprintf("%s [%d] %dx%d %d-bit", mark, layer.Index, layer.Width, layer.Height, layer.ColorDepth)

		if styled {
			if mark == "*" {
				line = bestLayerStyle.Render(line)
			} else {
				line = dimStyle.Render(line)
			}
		}
		fmt.Fprintln(w, line)
	}
}
