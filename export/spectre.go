package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/auth"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

const (
	contentType             = "application/json"
	spectreEndpoint         = "spectre/v1/collect"
	defaultSendSampleAmount = 100
	defaultMaxRetries       = 5
	tokenTTL                = 5 * time.Minute
)

// CollectResponse is the answer of the spectre server collect endpoint.
type CollectResponse struct {
	Status      string `json:"status"`
	SampleCount int    `json:"sampleCount"`
}

// SpectreServer POSTs batches of samples to a spectre server. Failed
// requests are retried with exponential backoff.
type SpectreServer struct {
	Server            string
	SendSamplesAmount int
	// Secret signs a bearer token for every request when set. Identifier
	// becomes the token subject.
	Secret     string
	Identifier string
	// MaxRetries is the number of retries per batch, defaults to 5.
	MaxRetries uint64
	Client     *http.Client
	// BackOff overrides the exponential backoff between retries.
	BackOff backoff.BackOff
}

func (s *SpectreServer) Write(ctx context.Context, samples <-chan sdr.Sample) error {
	sendSamplesAmount := defaultSendSampleAmount
	if s.SendSamplesAmount > 0 {
		sendSamplesAmount = s.SendSamplesAmount
	}

	c := &counts{name: "spectre server"}
	var samplesToSend []sdr.Sample
	for sample := range samples {
		samplesToSend = append(samplesToSend, sample)
		if len(samplesToSend) < sendSamplesAmount {
			continue // we haven't collected enough samples to send yet
		}
		s.sendBatch(ctx, c, samplesToSend)
		samplesToSend = nil
	}
	if len(samplesToSend) > 0 {
		s.sendBatch(ctx, c, samplesToSend)
	}
	c.log()

	return nil
}

func (s *SpectreServer) sendBatch(ctx context.Context, c *counts, batch []sdr.Sample) {
	err := s.send(ctx, batch)
	for range batch {
		c.total += 1
		if err != nil {
			c.errors += 1
		} else {
			c.success += 1
		}
	}
	if err != nil {
		glog.Warningf("error submitting %d samples to %s: %s\n", len(batch), s.Server, err)
	}
}

// send POSTs one batch. Transport errors and 5xx answers are retried, other
// failures are not.
func (s *SpectreServer) send(ctx context.Context, batch []sdr.Sample) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("error marshalling samples to JSON: %s", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.Server, "/"), spectreEndpoint)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		if s.Secret != "" {
			token, err := auth.Sign([]byte(s.Secret), s.Identifier, tokenTTL)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("unable to sign token: %s", err))
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading POST body: %s", err)
		}
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server returned %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(respBody))))
		}

		collectResponseBody := CollectResponse{}
		if err := json.Unmarshal(respBody, &collectResponseBody); err != nil {
			glog.Warningf("unable to parse collect response: %s\n", err)
		}
		glog.V(1).Infof("submitted %v samples to server %s", collectResponseBody.SampleCount, s.Server)
		return nil
	}

	b := s.BackOff
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	retries := s.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	notify := func(err error, next time.Duration) {
		glog.Warningf("POST to %s failed, retrying in %s: %s\n", url, next, err)
	}
	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx), notify)
}
