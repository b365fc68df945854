package webdav

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clem/episcan/internal/util"
)

// propfindBody requests the fixed property set every scan decision relies on.
const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:resourcetype/>
    <d:getcontentlength/>
    <d:getlastmodified/>
    <d:getetag/>
  </d:prop>
</d:propfind>`

// Resource represents one entry of a PROPFIND multistatus response.
type Resource struct {
	Path    string
	IsDir   bool
	Size    int64
	LastMod string
	ETag    string
}

// Fingerprint returns the remote change indicator for the resource:
// the last-modified value when present, otherwise the etag.
func (r *Resource) Fingerprint() string {
	if r.LastMod != "" {
		return r.LastMod
	}
	return r.ETag
}

// Client issues directory-listing requests against a WebDAV endpoint.
type Client struct {
	base       *url.URL
	username   string
	password   string
	httpClient *http.Client
}

// Options holds the connection settings for a Client.
type Options struct {
	BaseURL     string
	Username    string
	Password    string
	Timeout     time.Duration
	InsecureTLS bool
}

// NewClient creates a WebDAV client for the given endpoint.
func NewClient(opts *Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.InsecureTLS {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		base:       base,
		username:   opts.Username,
		password:   opts.Password,
		httpClient: httpClient,
	}, nil
}

// ListDirectory lists path at the given depth and returns the parsed
// resources, including the self-referential entry. On a 404 it runs the
// bounded retry ladder: the same path with the trailing slash toggled, then
// the toggled path at depth 0. Any other failure propagates immediately.
func (c *Client) ListDirectory(ctx context.Context, path string, depth int) ([]Resource, error) {
	type attempt struct {
		path  string
		depth int
	}

	toggled := toggleSlash(path)
	attempts := []attempt{
		{path, depth},
		{toggled, depth},
		{toggled, 0},
	}

	var lastErr error
	for i, a := range attempts {
		body, err := c.propfind(ctx, a.path, a.depth)
		if err == nil {
			return c.parseMultistatus(body)
		}
		lastErr = err
		if !errors.Is(err, util.ErrNotFound) {
			return nil, err
		}
		if i < len(attempts)-1 {
			util.DebugLog("PROPFIND %s (depth %d) not found, trying next ladder rung", a.path, a.depth)
		}
	}

	return nil, fmt.Errorf("%w: PROPFIND ladder exhausted for %s: %v", util.ErrTransport, path, lastErr)
}

// propfind issues a single PROPFIND request and returns the raw body.
func (c *Client) propfind(ctx context.Context, path string, depth int) ([]byte, error) {
	reqURL := c.joinURL(path)
	util.DebugLog("PROPFIND %s (depth %d)", path, depth)

	req, err := http.NewRequestWithContext(ctx, "PROPFIND", reqURL, strings.NewReader(propfindBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrTransport, err)
	}
	req.Header.Set("Depth", strconv.Itoa(depth))
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", util.ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: PROPFIND %s returned status %d", util.ErrTransport, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", util.ErrTransport, err)
	}
	return body, nil
}

// joinURL builds the request URL for a remote path, percent-encoding it so
// Unicode directory names survive the round trip.
func (c *Client) joinURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.base
	u.Path = c.base.Path + path
	return u.String()
}

type multistatus struct {
	Responses []propfindResponse `xml:"response"`
}

type propfindResponse struct {
	Href      string     `xml:"href"`
	Propstats []propstat `xml:"propstat"`
}

type propstat struct {
	Status string       `xml:"status"`
	Prop   propfindProp `xml:"prop"`
}

type propfindProp struct {
	ResourceType  resourceType `xml:"resourcetype"`
	ContentLength string       `xml:"getcontentlength"`
	LastModified  string       `xml:"getlastmodified"`
	ETag          string       `xml:"getetag"`
}

type resourceType struct {
	Collection *struct{} `xml:"collection"`
}

// parseMultistatus turns a PROPFIND body into resources. Entries without an
// href are dropped; a wholly unparsable body is a transport failure.
func (c *Client) parseMultistatus(body []byte) ([]Resource, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformed, err)
	}

	resources := make([]Resource, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		if resp.Href == "" || len(resp.Propstats) == 0 {
			continue
		}
		prop := resp.Propstats[0].Prop

		var size int64
		if prop.ContentLength != "" {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(prop.ContentLength), 10, 64); err == nil {
				size = parsed
			}
		}

		resources = append(resources, Resource{
			Path:    c.hrefToPath(resp.Href),
			IsDir:   prop.ResourceType.Collection != nil,
			Size:    size,
			LastMod: strings.TrimSpace(prop.LastModified),
			ETag:    strings.TrimSpace(prop.ETag),
		})
	}
	return resources, nil
}

// hrefToPath canonicalizes an href to the internal path form: scheme/host and
// the base path prefix stripped, percent-encoding decoded, so remote paths
// compare equal to locally stored keys.
func (c *Client) hrefToPath(href string) string {
	path := href
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		path = u.Path
	} else if decoded, err := url.PathUnescape(href); err == nil {
		path = decoded
	}

	basePath := c.base.Path
	if basePath != "" && strings.HasPrefix(path, basePath) {
		path = path[len(basePath):]
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
	}
	return path
}

func toggleSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return strings.TrimRight(path, "/")
	}
	return path + "/"
}
