package sim

import (
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

const (
	receiverChannels = "Rx1;Rx2;Rx12;Rx1+Rx2"
	receiverClocks   = "92MHz;122MHz;184MHz;245MHz"
	decimations      = "Full;1 / 2;1 / 4;1 / 8;1 / 16;1 / 32;1 / 64;1 / 128;1 / 256;1 / 512"
)

var clockRates = map[string]float64{
	"92MHz":  92.16e6,
	"122MHz": 122.88e6,
	"184MHz": 184.32e6,
	"245MHz": 245.76e6,
}

func freq(path, title string, min, max, value float64) entry {
	return entry{path: path, title: title, typ: rtsa.ConfigNumber, min: min, max: max, step: 1, unit: "Hz", value: value}
}

func level(path, title string, min, max, value float64) entry {
	return entry{path: path, title: title, typ: rtsa.ConfigNumber, min: min, max: max, step: 0.5, unit: "dBm", value: value}
}

func enum(path, title, options, value string) entry {
	return entry{path: path, title: title, typ: rtsa.ConfigEnum, options: options, value: value}
}

func receiverEntries(clock string) []entry {
	return []entry{
		enum("device/receiverchannel", "Receiver Channel", receiverChannels, "Rx1"),
		enum("device/receiverclock", "Receiver Clock", receiverClocks, clock),
		enum("device/gpsmode", "GPS Mode", "Disabled;Location;Time;Location and Time", "Disabled"),
		enum("device/sclksource", "Sample Clock Source", "Consumer;Oscillator;GPS;PPS;10MHz;GPS Provider", "Oscillator"),
		enum("calibration/rffilter", "RF Filter", "Auto;Auto Extended;Off", "Auto"),
		enum("calibration/preamp", "Preamplifier", "Auto;Off;Amp;Preamp;Both", "Auto"),
	}
}

// configEntries returns the config tree of a device opened in mode.
func configEntries(mode rtsa.DeviceMode) []entry {
	switch mode {
	case rtsa.ModeRaw:
		return append([]entry{
			freq("main/centerfreq", "Center Frequency", 1e6, 6e9, 2440e6),
			enum("main/decimation", "Decimation", decimations, "Full"),
			level("main/reflevel", "Reference Level", -100, 10, -20),
			level("main/transgain", "Transmitter Gain", -100, 10, -20),
			enum("device/outputformat", "Output Format", "iq;spectra;both", "iq"),
			enum("device/transmittermode", "Transmitter Mode", "Off;Stream;Pattern Generator", "Off"),
			enum("device/generator/type", "Generator Type", "Off;CW;Sweep;Noise;Ramp", "Off"),
			freq("device/generator/startfreq", "Start Frequency", 1e6, 6e9, 2440e6),
			freq("device/generator/stopfreq", "Stop Frequency", 1e6, 6e9, 2440e6),
			freq("device/generator/stepfreq", "Step Frequency", 1, 1e9, 1e6),
			{path: "device/generator/duration", title: "Step Duration", typ: rtsa.ConfigNumber, min: 0, max: 60, step: 0.001, unit: "s", value: 0.1},
			{path: "device/generator/powerramp", title: "Power Ramp", typ: rtsa.ConfigNumber, min: -60, max: 60, step: 0.5, unit: "dB", value: 0.0},
			enum("device/fft0/fftmergemode", "FFT Merge Mode", "avg;sum;min;max", "avg"),
			{path: "device/fft0/fftaggregate", title: "FFT Aggregate", typ: rtsa.ConfigNumber, min: 1, max: 65535, step: 1, value: 1.0},
		}, receiverEntries("92MHz")...)
	case rtsa.ModeIQReceiver:
		return append([]entry{
			freq("main/centerfreq", "Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/spanfreq", "Span", 1e3, 245e6, 1e6),
			level("main/reflevel", "Reference Level", -100, 10, -20),
		}, receiverEntries("92MHz")...)
	case rtsa.ModeSweepSA:
		return append([]entry{
			freq("main/startfreq", "Start Frequency", 1e6, 6e9, 2400e6),
			freq("main/stopfreq", "Stop Frequency", 1e6, 6e9, 2500e6),
			freq("main/rbwfreq", "RBW", 1, 20e6, 100e3),
			level("main/reflevel", "Reference Level", -100, 10, -20),
		}, receiverEntries("245MHz")...)
	case rtsa.ModeIQTransmitter:
		return []entry{
			freq("main/centerfreq", "Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/spanfreq", "Span", 1e3, 245e6, 50e6),
			level("main/transgain", "Transmitter Gain", -100, 10, -20),
			enum("device/sclksource", "Sample Clock Source", "Consumer;Oscillator;GPS;PPS;10MHz;GPS Provider", "Oscillator"),
		}
	case rtsa.ModeIQTransceiver:
		return append([]entry{
			freq("main/centerfreq", "Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/centerfreqrx", "Receiver Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/centerfreqtx", "Transmitter Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/spanfreq", "Span", 1e3, 245e6, 50e6),
			freq("main/demodcenterfreq", "Demodulator Center Frequency", 1e6, 6e9, 2440e6),
			freq("main/demodspanfreq", "Demodulator Span", 1e3, 245e6, 2e6),
			level("main/reflevel", "Reference Level", -100, 10, -20),
			level("main/transgain", "Transmitter Gain", -100, 10, -20),
		}, receiverEntries("92MHz")...)
	}
	return nil
}

// healthEntries returns the health tree of d. Values are computed on read.
func (b *Backend) healthEntries(d *device) []entry {
	return []entry{
		{path: "temperature", title: "Temperature", typ: rtsa.ConfigNumber, min: -50, max: 150, unit: "°C", read: func() float64 { return 42.5 }},
		{path: "gpssats", title: "GPS Satellites", typ: rtsa.ConfigNumber, min: 0, max: 64, read: func() float64 {
			if d.gpsEnabled() {
				return float64(b.GPSSatellites)
			}
			return 0
		}},
		{path: "gpstimevalid", title: "GPS Time Valid", typ: rtsa.ConfigBool, read: func() float64 {
			if d.gpsEnabled() && b.GPSSatellites >= 4 {
				return 1
			}
			return 0
		}},
		{path: "gpstime", title: "GPS Time", typ: rtsa.ConfigNumber, min: 0, max: 1e12, unit: "s", read: func() float64 {
			if !d.gpsEnabled() {
				return 0
			}
			return b.streamTime()
		}},
		{path: "gpstimeoffset", title: "GPS Time Offset", typ: rtsa.ConfigNumber, min: -1e6, max: 1e6, unit: "s", read: func() float64 {
			if !d.gpsEnabled() {
				return 0
			}
			return 2e-7
		}},
		{path: "mainusbbytessecond", title: "Main USB Transfer", typ: rtsa.ConfigNumber, min: 0, max: 1e10, unit: "B/s", read: func() float64 {
			if d.spec.Boost {
				return d.transferRate() * 0.6
			}
			return d.transferRate()
		}},
		{path: "boostusbbytessecond", title: "Boost USB Transfer", typ: rtsa.ConfigNumber, min: 0, max: 1e10, unit: "B/s", read: func() float64 {
			if !d.spec.Boost {
				return 0
			}
			return d.transferRate() * 0.4
		}},
		{path: "rx1iqsamplessecond", title: "Rx1 IQ Samples", typ: rtsa.ConfigNumber, min: 0, max: 1e10, unit: "1/s", read: func() float64 {
			return d.iqRate()
		}},
	}
}
