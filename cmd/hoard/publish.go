package main

import (
	"fmt"
	"strings"

	"hoard-go/internal/app"
	"hoard-go/internal/hoard"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish URI SOURCE...",
	Short: "Publish files or directories as a new version of an asset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			sources, err := absPaths(args[1:])
			if err != nil {
				return err
			}
			thumbs, _ := cmd.Flags().GetStringSlice("thumbnail")
			if thumbs, err = absPaths(thumbs); err != nil {
				return err
			}
			meta, _ := cmd.Flags().GetStringArray("meta")
			kv, err := parseKeyValues(meta)
			if err != nil {
				return err
			}

			opts := hoard.PublishOptions{Metadata: kv, Thumbnails: thumbs}
			opts.Merge, _ = cmd.Flags().GetBool("merge")
			opts.VerifyCopy, _ = cmd.Flags().GetBool("verify")
			opts.Pins, _ = cmd.Flags().GetStringSlice("pin")
			opts.Notes, _ = cmd.Flags().GetString("notes")
			opts.Keywords, _ = cmd.Flags().GetStringSlice("keyword")
			opts.Poster, _ = cmd.Flags().GetInt("poster")

			res, err := a.Service().Publish(u, sources, opts)
			if res != nil {
				verb := "Published"
				if res.Created {
					verb = "Created"
				}
				fmt.Printf("%s %s %s (%d files, %d carried over)\n",
					verb, res.URI, res.Version, len(res.Manifest.Files), res.CarriedOver)
				if len(res.Pins) > 0 {
					fmt.Printf("Pins: %s\n", strings.Join(res.Pins, ", "))
				}
				if len(res.LockedPins) > 0 {
					fmt.Printf("Locked pins not moved: %s\n", strings.Join(res.LockedPins, ", "))
				}
			}
			return err
		})
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions URI",
	Short: "List the versions of an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			versions, err := a.Service().Versions(u)
			if err != nil {
				return err
			}
			for _, v := range versions {
				state := "sealed"
				if !v.Sealed {
					state = "unsealed"
				}
				fmt.Printf("%s\t%s\t%s\n", v.Version, state, strings.Join(v.Pins, ","))
			}
			return nil
		})
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest URI VERSION",
	Short: "Show the files of a sealed version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			v, err := a.Service().ResolveVersion(u, args[1])
			if err != nil {
				return err
			}
			m, err := a.Service().Manifest(u, v)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s sealed %s hash %s\n", u, m.Version, m.SealedAt.Format("2006-01-02 15:04:05"), m.Hash)
			for _, f := range m.Files {
				carried := ""
				if f.Carried {
					carried = " (carried)"
				}
				fmt.Printf("%s\t%d\t%s%s\n", f.Digest, f.Size, f.Path, carried)
			}
			return nil
		})
	},
}

var collapseCmd = &cobra.Command{
	Use:   "collapse URI",
	Short: "Remove every version but the newest sealed one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			removePins, _ := cmd.Flags().GetBool("remove-pins")
			if err := confirm(cmd, fmt.Sprintf("Collapse %s to its newest version?", u)); err != nil {
				return err
			}

			res, err := a.Service().Collapse(u, removePins)
			if res != nil {
				fmt.Printf("Kept %s, removed %d versions\n", res.Kept, len(res.RemovedVersions))
				if len(res.RemovedPins) > 0 {
					fmt.Printf("Removed pins: %s\n", strings.Join(res.RemovedPins, ", "))
				}
				if len(res.MovedPins) > 0 {
					fmt.Printf("Moved pins: %s\n", strings.Join(res.MovedPins, ", "))
				}
			}
			return err
		})
	},
}

var deleteVersionCmd = &cobra.Command{
	Use:   "delete-version URI VERSION",
	Short: "Delete one unpinned version of an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			v, err := a.Service().ResolveVersion(u, args[1])
			if err != nil {
				return err
			}
			if err := confirm(cmd, fmt.Sprintf("Delete %s of %s?", v, u)); err != nil {
				return err
			}
			if err := a.Service().DeleteVersion(u, v); err != nil {
				return err
			}
			fmt.Printf("Deleted %s of %s\n", v, u)
			return nil
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log URI",
	Short: "Show the history of an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			entries, err := a.Service().AssetLog(u)
			if err != nil {
				return err
			}
			for _, e := range entries {
				ts := "-"
				if !e.Time.IsZero() {
					ts = e.Time.Local().Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%s\t%s\n", ts, e.Message)
			}
			return nil
		})
	},
}

func init() {
	publishCmd.Flags().BoolP("merge", "m", false, "Carry forward files of the prior version")
	publishCmd.Flags().Bool("verify", false, "Re-hash every stored payload")
	publishCmd.Flags().StringSliceP("pin", "p", nil, "Pin to move to the new version")
	publishCmd.Flags().StringP("notes", "n", "", "Notes for the new version")
	publishCmd.Flags().StringSliceP("keyword", "k", nil, "Keyword for the new version")
	publishCmd.Flags().StringArray("meta", nil, "Metadata KEY=VALUE for the new version")
	publishCmd.Flags().StringSliceP("thumbnail", "t", nil, "Thumbnail file for the new version")
	publishCmd.Flags().Int("poster", 0, "Poster frame among the thumbnails")

	collapseCmd.Flags().Bool("remove-pins", false, "Remove pins that point at removed versions")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(collapseCmd)
	rootCmd.AddCommand(deleteVersionCmd)
	rootCmd.AddCommand(logCmd)
}
