package export

import (
	"context"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

// sampleCountInfo is how often exporters log their counts.
const sampleCountInfo = 1000

// Exporter consumes samples until the channel is closed.
type Exporter interface {
	Write(context.Context, <-chan sdr.Sample) error
}

type counts struct {
	name    string
	total   int
	success int
	errors  int
}

func (c *counts) add(err error) {
	c.total += 1
	if err != nil {
		c.errors += 1
		glog.Warningf("error storing sample in %s: %s\n", c.name, err)
		return
	}
	c.success += 1
	if c.total%sampleCountInfo == 0 {
		c.log()
	}
}

func (c *counts) log() {
	glog.Infof("%s sample export counts: total=%d success=%d error=%d\n", c.name, c.total, c.success, c.errors)
}
