package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/profile"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the attached Spectran V6 devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := a.memory(rtsa.MemoryMedium)
			if err != nil {
				return err
			}
			s, err := a.session(mem)
			if err != nil {
				return err
			}
			defer closeSession(s)

			devices, err := s.API.Devices(cmd.Context(), rtsa.SpectranV6, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RTSA API version %#08x\n", s.API.Version())
			fmt.Fprintln(out, "Devices:")
			for _, d := range devices {
				info := d.Info()
				fmt.Fprintf(out, " - Serial Number: %s\n   ready: %t\n   boost: %t\n   superSpeed: %t\n   active: %t\n",
					info.SerialNumber, info.Ready, info.Boost, info.SuperSpeed, info.Active)
			}
			return nil
		},
	}
}

func newProfilesCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "profiles [name...]",
		Short: "List the device profiles",
		Long: `List the built-in device profiles and those read from --profiles.
With --dump the selected profiles are printed in the profile file format, which
is a good starting point for a custom profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := profile.Load(a.v.GetString("profiles"))
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = set.Names()
			}
			var selected []*profile.Profile
			for _, n := range names {
				p, err := set.Get(n)
				if err != nil {
					return err
				}
				selected = append(selected, p)
			}

			out := cmd.OutOrStdout()
			if dump {
				data, err := profile.Marshal(selected)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			for _, p := range selected {
				fmt.Fprintf(out, "%-14s %-14s %s\n", p.Name, p.Mode, p.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the profiles as YAML")
	return cmd
}

func newConfigTreeCmd(a *app) *cobra.Command {
	var (
		mode   string
		health bool
	)
	cmd := &cobra.Command{
		Use:   "configtree",
		Short: "Print the config and health trees of a device",
		Long: `Print every node of the device config tree with its title, unit, options and
current value, followed by the health tree. The device is opened in --mode
unless a --profile is given, whose settings are applied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &profile.Profile{Name: mode, Mode: rtsa.DeviceMode(mode)}
			if a.v.GetString("profile") != "" {
				var err error
				if p, err = a.profile(""); err != nil {
					return err
				}
			} else if !slices.Contains(rtsa.Modes, p.Mode) {
				return fmt.Errorf("unsupported mode %q", mode)
			}
			return a.withDevice(cmd.Context(), p, func(d *rtsa.Device) error {
				out := cmd.OutOrStdout()
				root, err := d.ConfigRoot()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Config %s (%s):\n", d, d.Mode())
				if err := printTree(out, root); err != nil {
					return err
				}
				if !health {
					return nil
				}
				if root, err = d.HealthRoot(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Health:")
				return printTree(out, root)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(rtsa.ModeRaw), "device mode to open")
	cmd.Flags().BoolVar(&health, "health", true, "print the health tree as well")
	return cmd
}

func printTree(out io.Writer, root *rtsa.ConfigNode) error {
	return root.Walk(func(n *rtsa.ConfigNode, info *rtsa.ConfigInfo, depth int) error {
		value, err := n.Value(info)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%s(%s, %s, %s) : %q\n", strings.Repeat(". ", depth), info.Name, info.Title, info.Unit, info.Options, value)
		return nil
	})
}
