package revocation

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/ocsp"
)

// Func collects revocation data for cert into i. issuer is nil when it is not
// known.
type Func func(cert, issuer *x509.Certificate, i *InfoArchival) error

// Cache interfaces caching for revocation data.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte)
}

// MemoryCache implements a simple thread-safe in-memory cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string][]byte),
	}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.items[key]
	return data, ok
}

func (c *MemoryCache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
}

// Options configures how revocation status is fetched and embedded.
type Options struct {
	EmbedOCSP     bool
	EmbedCRL      bool
	PreferCRL     bool         // If true, try CRL before OCSP.
	StopOnSuccess bool         // If true, stop after successfully embedding one status.
	Cache         Cache        // Optional cache for revocation data.
	Client        *http.Client // Defaults to http.DefaultClient.
}

// New returns a Func that fetches revocation data as configured by opts.
// Certificates without distribution points or OCSP servers are skipped.
func New(opts Options) Func {
	f := &fetcher{opts: opts, client: opts.Client}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	return f.collect
}

// Default fetches both OCSP and CRL data, OCSP first.
func Default(cert, issuer *x509.Certificate, i *InfoArchival) error {
	return New(Options{EmbedOCSP: true, EmbedCRL: true})(cert, issuer, i)
}

type fetcher struct {
	opts   Options
	client *http.Client
}

func (f *fetcher) collect(cert, issuer *x509.Certificate, i *InfoArchival) error {
	sources := []func() (bool, error){
		func() (bool, error) {
			if !f.opts.EmbedOCSP || issuer == nil || len(cert.OCSPServer) == 0 {
				return false, nil
			}
			return true, f.embedOCSP(cert, issuer, i)
		},
		func() (bool, error) {
			if !f.opts.EmbedCRL || len(cert.CRLDistributionPoints) == 0 {
				return false, nil
			}
			return true, f.embedCRL(cert, issuer, i)
		},
	}
	if f.opts.PreferCRL {
		sources[0], sources[1] = sources[1], sources[0]
	}

	var errs []error
	embedded := false
	for _, source := range sources {
		if embedded && f.opts.StopOnSuccess {
			break
		}
		tried, err := source()
		if !tried {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		embedded = true
	}

	// One source is enough when the other failed.
	if embedded {
		return nil
	}
	return errors.Join(errs...)
}

func (f *fetcher) get(url string) ([]byte, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non success response (%d) from %s", resp.StatusCode, url)
	}
	return body, nil
}

func (f *fetcher) embedOCSP(cert, issuer *x509.Certificate, i *InfoArchival) error {
	req, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return err
	}

	ocspUrl := fmt.Sprintf("%s/%s", strings.TrimRight(cert.OCSPServer[0], "/"),
		base64.StdEncoding.EncodeToString(req))

	if f.opts.Cache != nil {
		if data, ok := f.opts.Cache.Get(ocspUrl); ok {
			return i.AddOCSP(data)
		}
	}

	body, err := f.get(ocspUrl)
	if err != nil {
		return err
	}

	// check if we got a valid OCSP response
	ocspResp, err := ocsp.ParseResponseForCert(body, cert, issuer)
	if err != nil {
		return err
	}
	if ocspResp.Status != ocsp.Good {
		return fmt.Errorf("OCSP status is not 'Good': %v", ocspResp.Status)
	}

	if f.opts.Cache != nil {
		f.opts.Cache.Put(ocspUrl, body)
	}

	return i.AddOCSP(body)
}

func (f *fetcher) embedCRL(cert, issuer *x509.Certificate, i *InfoArchival) error {
	crlUrl := cert.CRLDistributionPoints[0]
	if f.opts.Cache != nil {
		if data, ok := f.opts.Cache.Get(crlUrl); ok {
			return i.AddCRL(data)
		}
	}

	body, err := f.get(crlUrl)
	if err != nil {
		return err
	}

	crl, err := x509.ParseRevocationList(body)
	if err != nil {
		return fmt.Errorf("failed to parse CRL: %w", err)
	}

	if issuer != nil {
		if err := crl.CheckSignatureFrom(issuer); err != nil {
			return fmt.Errorf("CRL signature invalid: %w", err)
		}
	}

	for _, revoked := range crl.RevokedCertificateEntries {
		if revoked.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return fmt.Errorf("certificate is revoked in CRL")
		}
	}

	if f.opts.Cache != nil {
		f.opts.Cache.Put(crlUrl, body)
	}

	return i.AddCRL(body)
}
