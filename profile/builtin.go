package profile

import (
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

// Builtin returns the profiles used by the rtsactl commands.
func Builtin() Set {
	profiles := []*Profile{
		{
			Name:        "iqreceiver",
			Description: "64 kHz of IQ around 2.44 GHz",
			Mode:        rtsa.ModeIQReceiver,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/receiverclock", "92MHz"},
				{"main/centerfreq", 2440e6},
				{"main/spanfreq", 64e3},
				{"main/reflevel", -20.0},
			},
		},
		{
			Name:        "rawiq",
			Description: "full rate raw IQ from Rx1",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/outputformat", "iq"},
				{"device/receiverclock", "92MHz"},
				{"main/centerfreq", 2.44e9},
				{"main/decimation", "Full"},
				{"main/reflevel", -10.0},
				{"calibration/rffilter", "Auto Extended"},
				{"calibration/preamp", "Auto"},
			},
		},
		{
			Name:        "rawiq2rx",
			Description: "decimated raw IQ from both receivers",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1+Rx2"},
				{"device/outputformat", "iq"},
				{"device/receiverclock", "92MHz"},
				{"main/decimation", "1 / 64"},
			},
		},
		{
			Name:        "samplerate",
			Description: "decimated raw IQ from Rx1",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/outputformat", "iq"},
				{"device/receiverclock", "92MHz"},
				{"main/decimation", "1 / 64"},
			},
		},
		{
			Name:        "rawspectrum",
			Description: "max hold spectra from the raw FFT",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/outputformat", "spectra"},
				{"device/receiverclock", "92MHz"},
				{"device/fft0/fftmergemode", "max"},
				{"device/fft0/fftaggregate", 100},
			},
		},
		{
			Name:        "sweep",
			Description: "75 MHz to 6 GHz sweep at 1 MHz RBW",
			Mode:        rtsa.ModeSweepSA,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/receiverclock", "245MHz"},
				{"main/startfreq", 75e6},
				{"main/stopfreq", 6000e6},
				{"main/rbwfreq", 1e6},
				{"main/reflevel", -20.0},
			},
		},
		{
			Name:        "sweepstress",
			Description: "receiver setup for repeated sweep reconfiguration",
			Mode:        rtsa.ModeSweepSA,
			Memory:      "large",
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/receiverclock", "245MHz"},
				{"main/reflevel", -20.0},
			},
		},
		{
			Name:        "generator",
			Description: "pattern generator sweeping 2450 to 2460 MHz",
			Mode:        rtsa.ModeRaw,
			Memory:      "large",
			Settings: []Setting{
				{"main/centerfreq", 2440e6},
				{"main/transgain", -30.0},
				{"device/transmittermode", "Pattern Generator"},
				{"device/generator/type", "Sweep"},
				{"device/generator/startfreq", 2450e6},
				{"device/generator/stopfreq", 2460e6},
				{"device/generator/stepfreq", 100.0},
				{"device/generator/duration", 0.01},
				{"device/generator/powerramp", 0.0},
			},
		},
		{
			Name:        "transmitter",
			Description: "50 MHz IQ transmitter at 2.44 GHz",
			Mode:        rtsa.ModeIQTransmitter,
			Settings: []Setting{
				{"main/centerfreq", 2440e6},
				{"main/spanfreq", 50e6},
				{"main/transgain", 0.0},
			},
		},
		{
			Name:        "transceiver",
			Description: "receive 2 MHz at 2.43 GHz and send it back at 2.45 GHz",
			Mode:        rtsa.ModeIQTransceiver,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"main/centerfreq", 2440e6},
				{"main/spanfreq", 50e6},
				{"main/demodcenterfreq", 2430e6},
				{"main/demodspanfreq", 2e6},
				{"main/transgain", 0.0},
			},
		},
		{
			Name:        "gpstime",
			Description: "GPS location and time with GPS disciplined sample clock",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/gpsmode", "Location and Time"},
				{"device/sclksource", "GPS Provider"},
			},
		},
		{
			Name:        "transferrate",
			Description: "full rate IQ at 245 MHz clock",
			Mode:        rtsa.ModeRaw,
			Settings: []Setting{
				{"device/receiverchannel", "Rx1"},
				{"device/outputformat", "iq"},
				{"device/receiverclock", "245MHz"},
			},
		},
	}

	set := Set{}
	for _, p := range profiles {
		set[p.Name] = p
	}
	return set
}
