package main

import (
	"fmt"

	"hoard-go/internal/app"
	"hoard-go/internal/model"

	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage named pointers to versions",
}

var pinListCmd = &cobra.Command{
	Use:   "list URI",
	Short: "List pins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			pins, err := a.Service().Pins(u)
			if err != nil {
				return err
			}
			for _, p := range pins {
				lock := ""
				if p.Locked {
					lock = "\tlocked"
				}
				fmt.Printf("%s\t%s%s\n", p.Name, p.Version, lock)
			}
			return nil
		})
	},
}

var pinSetCmd = &cobra.Command{
	Use:   "set URI NAME VERSION",
	Short: "Point a pin at a version",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			name := args[1]
			v, err := a.Service().ResolveVersion(u, args[2])
			if err != nil {
				return err
			}
			existing, err := a.Service().Pin(u, name)
			if err != nil {
				return err
			}
			if existing != nil && !existing.Locked && existing.Version != v {
				if err := confirm(cmd, fmt.Sprintf("Move pin %s of %s from %s to %s?", existing.Name, u, existing.Version, v)); err != nil {
					return err
				}
			}

			changed, err := a.Service().SetPin(u, name, v.String())
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("Pin %s set to %s\n", model.NormalizeName(name), v)
			}
			return nil
		})
	},
}

var pinDeleteCmd = &cobra.Command{
	Use:   "delete URI NAME VERSION",
	Short: "Delete a pin that points at VERSION",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			return a.Service().DeletePin(u, args[1], args[2])
		})
	},
}

var pinLockCmd = &cobra.Command{
	Use:   "lock URI NAME",
	Short: "Lock a pin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			return a.Service().LockPin(u, args[1])
		})
	},
}

var pinUnlockCmd = &cobra.Command{
	Use:   "unlock URI NAME",
	Short: "Unlock a pin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			u, err := a.ParseURI(args[0])
			if err != nil {
				return err
			}
			return a.Service().UnlockPin(u, args[1])
		})
	},
}

func init() {
	pinCmd.AddCommand(pinListCmd, pinSetCmd, pinDeleteCmd, pinLockCmd, pinUnlockCmd)
	rootCmd.AddCommand(pinCmd)
}
