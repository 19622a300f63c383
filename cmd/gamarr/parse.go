package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/gamarr/pkg/release"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <release-name>...",
	Short: "Parse release names and show what gamarr sees",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(args)
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(parseCmd)
}

type parsedJSON struct {
	Input        string   `json:"input"`
	Title        string   `json:"title"`
	Year         int      `json:"year,omitempty"`
	Quality      string   `json:"quality"`
	Languages    []string `json:"languages,omitempty"`
	ReleaseGroup string   `json:"release_group,omitempty"`
	Edition      string   `json:"edition,omitempty"`
}

func runParse(args []string) error {
	for _, name := range args {
		info := release.ParseTitle(name)

		if parseJSON {
			out := parsedJSON{
				Input:        name,
				Title:        info.Title,
				Year:         info.Year,
				Quality:      info.Quality.String(),
				ReleaseGroup: info.ReleaseGroup,
				Edition:      info.Edition,
			}
			for _, l := range info.Languages {
				out.Languages = append(out.Languages, l.String())
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("%s\n", name)
		fmt.Printf("  title:   %s\n", info.Title)
		if info.Year != 0 {
			fmt.Printf("  year:    %d\n", info.Year)
		}
		fmt.Printf("  quality: %s\n", info.Quality)
		if len(info.Languages) > 0 {
			langs := make([]string, len(info.Languages))
			for i, l := range info.Languages {
				langs[i] = l.String()
			}
			fmt.Printf("  langs:   %s\n", strings.Join(langs, ", "))
		}
		if info.ReleaseGroup != "" {
			fmt.Printf("  group:   %s\n", info.ReleaseGroup)
		}
		if info.Edition != "" {
			fmt.Printf("  edition: %s\n", info.Edition)
		}
	}
	return nil
}
