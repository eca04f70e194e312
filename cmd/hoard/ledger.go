package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hoard-go/internal/app"
	"hoard-go/internal/model"

	"github.com/spf13/cobra"
)

// Ledger commands take --version; without it they act on the asset scope.

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage notes of an asset or version",
}

var notesShowCmd = &cobra.Command{
	Use:   "show URI",
	Short: "Print notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			text, err := a.Service().Notes(u, scope)
			if err != nil {
				return err
			}
			fmt.Print(text)
			if text != "" && !strings.HasSuffix(text, "\n") {
				fmt.Println()
			}
			return nil
		})
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "add URI TEXT",
	Short: "Append to or replace notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			replace, _ := cmd.Flags().GetBool("replace")
			return a.Service().AddNotes(u, scope, args[1], replace)
		})
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete URI",
	Short: "Delete notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			return a.Service().DeleteNotes(u, scope)
		})
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage keywords of an asset or version",
}

var keywordsShowCmd = &cobra.Command{
	Use:   "show URI",
	Short: "Print keywords",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			kws, err := a.Service().Keywords(u, scope)
			if err != nil {
				return err
			}
			for _, kw := range kws {
				fmt.Println(kw)
			}
			return nil
		})
	},
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add URI KEYWORD...",
	Short: "Add keywords",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			return a.Service().AddKeywords(u, scope, args[1:])
		})
	},
}

var keywordsDeleteCmd = &cobra.Command{
	Use:   "delete URI KEYWORD...",
	Short: "Delete keywords",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			return a.Service().DeleteKeywords(u, scope, args[1:])
		})
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Manage metadata of an asset or version",
}

var metaShowCmd = &cobra.Command{
	Use:   "show URI",
	Short: "Print metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			kv, err := a.Service().Metadata(u, scope)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(kv))
			for k := range kv {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s=%s\n", k, kv[k])
			}
			return nil
		})
	},
}

var metaSetCmd = &cobra.Command{
	Use:   "set URI KEY=VALUE...",
	Short: "Set metadata",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			kv, err := parseKeyValues(args[1:])
			if err != nil {
				return err
			}
			return a.Service().AddMetadata(u, scope, kv)
		})
	},
}

var metaDeleteCmd = &cobra.Command{
	Use:   "delete URI KEY...",
	Short: "Delete metadata keys",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, scope, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			return a.Service().DeleteMetadata(u, scope, args[1:])
		})
	},
}

var thumbsCmd = &cobra.Command{
	Use:   "thumbs",
	Short: "Manage thumbnails of a version",
}

var thumbsShowCmd = &cobra.Command{
	Use:   "show URI",
	Short: "List thumbnails and the poster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, v, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			var thumbs []model.Thumbnail
			var poster *model.Thumbnail
			if indexed, _ := cmd.Flags().GetBool("indexed"); indexed {
				thumbs, poster, err = a.Service().IndexedThumbnails(u, v)
			} else {
				thumbs, err = a.Service().Thumbnails(u, v)
				if err == nil {
					poster, err = a.Service().Poster(u, v)
				}
			}
			if err != nil {
				return err
			}
			for _, th := range thumbs {
				mark := ""
				if poster != nil && poster.Frame == th.Frame {
					mark = "\tposter"
				}
				fmt.Printf("%d\t%s%s\n", th.Frame, th.Path, mark)
			}
			return nil
		})
	},
}

var thumbsAddCmd = &cobra.Command{
	Use:   "add URI FILE...",
	Short: "Store thumbnails",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, v, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			files, err := absPaths(args[1:])
			if err != nil {
				return err
			}
			merge, _ := cmd.Flags().GetBool("merge")
			poster, _ := cmd.Flags().GetInt("poster")
			v, err = a.Service().AddThumbnails(u, v, files, merge, poster)
			if err == nil {
				fmt.Printf("Stored %d thumbnails on %s\n", len(files), v)
			}
			return err
		})
	},
}

var thumbsDeleteCmd = &cobra.Command{
	Use:   "delete URI",
	Short: "Delete every thumbnail of a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, v, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			_, err = a.Service().DeleteThumbnails(u, v)
			return err
		})
	},
}

var posterCmd = &cobra.Command{
	Use:   "poster URI FRAME",
	Short: "Select the poster frame of a version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, v, err := ledgerTarget(cmd, a, args[0])
			if err != nil {
				return err
			}
			frame, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: bad frame %q", model.ErrPosterFrameNotFound, args[1])
			}
			_, err = a.Service().SetPoster(u, v, frame)
			return err
		})
	},
}

// ledgerTarget parses the URI argument and the --version scope. For
// thumbnails the asset scope selects the newest sealed version.
func ledgerTarget(cmd *cobra.Command, a *app.HoardApp, raw string) (model.URI, model.VersionID, error) {
	u, err := a.ParseURI(raw)
	if err != nil {
		return model.URI{}, 0, err
	}
	scope, err := scopeFlag(cmd, a, u)
	return u, scope, err
}

func init() {
	for _, c := range []*cobra.Command{
		notesShowCmd, notesAddCmd, notesDeleteCmd,
		keywordsShowCmd, keywordsAddCmd, keywordsDeleteCmd,
		metaShowCmd, metaSetCmd, metaDeleteCmd,
		thumbsShowCmd, thumbsAddCmd, thumbsDeleteCmd, posterCmd,
	} {
		c.Flags().StringP("version", "V", "", "Version or pin to act on")
	}
	notesAddCmd.Flags().Bool("replace", false, "Replace instead of append")
	thumbsAddCmd.Flags().Bool("merge", false, "Keep existing frames and append after them")
	thumbsAddCmd.Flags().Int("poster", 0, "Poster frame, 0 for the first")
	thumbsShowCmd.Flags().Bool("indexed", false, "Read thumbnails from the index")

	notesCmd.AddCommand(notesShowCmd, notesAddCmd, notesDeleteCmd)
	keywordsCmd.AddCommand(keywordsShowCmd, keywordsAddCmd, keywordsDeleteCmd)
	metaCmd.AddCommand(metaShowCmd, metaSetCmd, metaDeleteCmd)
	thumbsCmd.AddCommand(thumbsShowCmd, thumbsAddCmd, thumbsDeleteCmd)

	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(thumbsCmd)
	rootCmd.AddCommand(posterCmd)
}
