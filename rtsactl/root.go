package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/profile"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/session"
)

const envPrefix = "RTSA"

// boundFlags are the persistent flags that can also be set through the
// environment (RTSA_BACKEND, ...) or the config file.
var boundFlags = []string{"backend", "lib", "xml", "memory", "profiles", "profile", "serial", "set"}

type app struct {
	v *viper.Viper
	// open opens the RTSA API. Tests replace it to run on their own
	// simulated backend.
	open func(session.Config) (*session.Session, error)
}

func newApp() *app {
	return &app{
		v:    viper.New(),
		open: session.Open,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rtsactl",
		Short: "Sample programs for the Aaronia RTSA API",
		Long: `rtsactl runs the Aaronia RTSA API sample programs against a Spectran V6.

Every command opens the first device found (or the one selected with --serial),
configures it from a device profile and streams, transmits or polls it.
Use --backend sim to run without hardware.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.readConfig()
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default is ./rtsactl.yaml or $HOME/.config/rtsactl/rtsactl.yaml)")
	f.String("backend", session.BackendSDK, "RTSA backend to use (one of: "+strings.Join(session.Backends, ", ")+")")
	f.String("lib", "", "path of the RTSA API shared library (defaults to the RTSA Suite install location)")
	f.String("xml", "", "directory holding the RTSA API XML device descriptions")
	f.String("memory", "", "RTSA API memory mode (one of: small, medium, large, ludicrous), the profile decides when empty")
	f.String("profiles", "", "YAML file with additional device profiles")
	f.String("profile", "", "device profile to use instead of the command default")
	f.String("serial", "", "serial number of the Spectran to use (defaults to the first one found)")
	f.StringSlice("set", nil, "extra path=value config setting applied after the profile, may be repeated")
	for _, name := range boundFlags {
		a.v.BindPFlag(name, f.Lookup(name))
	}
	a.v.BindPFlag("config", f.Lookup("config"))
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newDevicesCmd(a),
		newProfilesCmd(a),
		newConfigTreeCmd(a),
		newIQReceiverCmd(a),
		newRawIQCmd(a),
		newRawIQ2RXCmd(a),
		newSampleRateCmd(a),
		newRawSpectrumCmd(a),
		newSweepCmd(a),
		newSweepStressCmd(a),
		newGeneratorCmd(a),
		newTransmitterCmd(a),
		newTransceiverCmd(a),
		newGPSTimeCmd(a),
		newTransferRateCmd(a),
	)
	return root
}

func (a *app) readConfig() error {
	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName("rtsactl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.config/rtsactl")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("unable to read config: %w", err)
	}
	glog.V(1).Infof("using config file %s", a.v.ConfigFileUsed())
	return nil
}

// profile returns the profile selected with --profile, or def.
func (a *app) profile(def string) (*profile.Profile, error) {
	set, err := profile.Load(a.v.GetString("profiles"))
	if err != nil {
		return nil, err
	}
	name := a.v.GetString("profile")
	if name == "" {
		name = def
	}
	return set.Get(name)
}

// memory returns the memory mode given with --memory, or def.
func (a *app) memory(def rtsa.MemoryMode) (rtsa.MemoryMode, error) {
	m := a.v.GetString("memory")
	if m == "" {
		return def, nil
	}
	return rtsa.ParseMemoryMode(m)
}

func (a *app) session(mem rtsa.MemoryMode) (*session.Session, error) {
	s, err := a.open(session.Config{
		Backend: a.v.GetString("backend"),
		Library: a.v.GetString("lib"),
		XMLDir:  a.v.GetString("xml"),
		Memory:  mem,
		Serial:  a.v.GetString("serial"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open RTSA API: %w", err)
	}
	return s, nil
}

func closeSession(s *session.Session) {
	if err := s.Close(); err != nil {
		glog.Warningf("error closing RTSA API: %s", err)
	}
}

// withDevice opens the device in the mode of p, configures it from p and the
// --set overrides and runs fn. The device is stopped, disconnected and closed
// once fn returns.
func (a *app) withDevice(ctx context.Context, p *profile.Profile, fn func(d *rtsa.Device) error) error {
	extra, err := parseSettings(a.v.GetStringSlice("set"))
	if err != nil {
		return err
	}
	def, err := p.MemoryMode()
	if err != nil {
		return err
	}
	mem, err := a.memory(def)
	if err != nil {
		return err
	}
	s, err := a.session(mem)
	if err != nil {
		return err
	}
	defer closeSession(s)

	d, err := s.Device(ctx, p.Mode)
	if err != nil {
		return err
	}
	if err := p.Apply(d); err != nil {
		return err
	}
	if err := d.Configure(extra); err != nil {
		return err
	}
	glog.Infof("running profile %q on %s", p.Name, d)
	return fn(d)
}

// runProfile is withDevice for the profile selected with --profile, or def.
func (a *app) runProfile(ctx context.Context, def string, fn func(d *rtsa.Device) error) error {
	p, err := a.profile(def)
	if err != nil {
		return err
	}
	return a.withDevice(ctx, p, fn)
}

// parseSettings parses path=value pairs. Values that parse as numbers are
// set as numbers, everything else as text.
func parseSettings(list []string) ([]rtsa.Setting, error) {
	var settings []rtsa.Setting
	for _, kv := range list {
		path, value, ok := strings.Cut(kv, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("setting %q is not of the form path=value", kv)
		}
		var v any = value
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v = f
		}
		settings = append(settings, rtsa.Setting{Path: path, Value: v})
	}
	return settings, nil
}

// countArg parses the optional packet count argument. def is returned when
// it is missing, 0 means no limit.
func countArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", args[0])
	}
	return n, nil
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
