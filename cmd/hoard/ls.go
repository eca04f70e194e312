package main

import (
	"fmt"

	"hoard-go/internal/app"
	"hoard-go/internal/model"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [REPO]",
	Short: "List assets from the index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				q.Repo = args[0]
			}

			records, err := a.Service().ListAssets(q)
			if err != nil {
				return err
			}
			if tree, _ := cmd.Flags().GetBool("tree"); tree {
				fmt.Print(renderAssetTree(records))
				return nil
			}
			long, _ := cmd.Flags().GetBool("long")
			for _, r := range records {
				if long {
					fmt.Printf("%s\t%s\n", r.URI, r.AssetDir)
				} else {
					fmt.Println(r.URI)
				}
			}
			return nil
		})
	},
}

// queryFromFlags builds an index query from the ls filter flags.
func queryFromFlags(cmd *cobra.Command) (model.Query, error) {
	var q model.Query
	q.PathPrefix, _ = cmd.Flags().GetString("path")
	q.Name, _ = cmd.Flags().GetString("name")
	q.Keywords, _ = cmd.Flags().GetStringSlice("keyword")
	q.KeywordsAll, _ = cmd.Flags().GetBool("all-keywords")
	q.MetadataKeys, _ = cmd.Flags().GetStringSlice("has-key")
	q.MetadataAll, _ = cmd.Flags().GetBool("all-meta")

	filters, _ := cmd.Flags().GetStringArray("meta")
	for _, raw := range filters {
		f, err := parseMetadataFilter(raw)
		if err != nil {
			return model.Query{}, err
		}
		q.Metadata = append(q.Metadata, f)
	}
	return q, nil
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the repository index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild [REPO]",
	Short: "Rebuild the index from the filesystem",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			n, err := a.RebuildIndex(name)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d assets\n", n)
			return nil
		})
	},
}

func init() {
	lsCmd.Flags().String("path", "", "Token path prefix")
	lsCmd.Flags().String("name", "", "Asset name")
	lsCmd.Flags().StringSliceP("keyword", "k", nil, "Keyword to match")
	lsCmd.Flags().Bool("all-keywords", false, "Require every keyword instead of any")
	lsCmd.Flags().StringSlice("has-key", nil, "Metadata key that must be present")
	lsCmd.Flags().StringArray("meta", nil, "Metadata filter KEY OP VALUE, e.g. fps>=24")
	lsCmd.Flags().Bool("all-meta", false, "Require every metadata filter instead of any")
	lsCmd.Flags().Bool("tree", false, "Render the result as a tree")
	lsCmd.Flags().BoolP("long", "l", false, "Show asset directories")

	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(indexCmd)
}
