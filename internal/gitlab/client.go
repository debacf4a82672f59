// Package gitlab implements the client side of the GitLab v4 HTTP API, scoped
// to what project backup needs: catalog listing, export job scheduling and
// polling, import job scheduling and polling, and authenticated archive
// download.
package gitlab

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/logging"
)

const perPage = 50

// API is the surface the orchestrator depends on. Every method returns either
// a decoded payload or a typed error from the internal/errors taxonomy; there
// are no sentinel return values.
type API interface {
	// ListProjects returns the full catalog of projects visible to the
	// token, in server listing order. The catalog is fetched at most once
	// per client; later calls return the cached listing.
	ListProjects() ([]Project, error)
	// ScheduleExport triggers an asynchronous export job for the project.
	ScheduleExport(projectID int) error
	// PollExport checks the status of the project's export job.
	PollExport(projectID int) (ExportPoll, error)
	// ScheduleImport uploads an archive and triggers an asynchronous import
	// into namespace/leaf, overwriting any existing project at that path.
	ScheduleImport(leaf, namespace, filename string, archive io.Reader) error
	// PollImport checks the status of the import job for the namespaced
	// project path.
	PollImport(projectPath string) (ImportPoll, error)
	// Download streams the archive at the locator into w, returning the
	// number of bytes written.
	Download(locator string, w io.Writer) (int64, error)
}

// Options configures a Client.
type Options struct {
	// Membership restricts the listing to projects the token's user is a
	// member of.
	Membership bool
	// Archived includes archived projects in the listing.
	Archived bool
	// SSLVerify enables TLS certificate verification.
	SSLVerify bool
	// CABundle is an optional path to a PEM trust bundle.
	CABundle string
}

// Client talks to one GitLab server. Not safe for concurrent use: the run
// loop is sequential and the cached catalog is written on first access.
type Client struct {
	apiURL     string
	token      string
	httpc      *http.Client
	log        *logging.Logger
	membership bool
	archived   bool

	catalog       []Project
	catalogLoaded bool
}

var _ API = (*Client)(nil)

// New creates a Client for the server at origin (e.g.
// https://gitlab.example.com). The private token is attached to every
// request.
func New(origin, token string, opts Options, log *logging.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsConfig := &tls.Config{}
	if !opts.SSLVerify {
		tlsConfig.InsecureSkipVerify = true
	}
	if opts.CABundle != "" {
		pem, err := os.ReadFile(opts.CABundle)
		if err != nil {
			return nil, fmt.Errorf("reading ca bundle %s: %w", opts.CABundle, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in ca bundle %s", opts.CABundle)
		}
		tlsConfig.RootCAs = pool
	}
	transport.TLSClientConfig = tlsConfig

	return &Client{
		apiURL:     origin + "/api/v4",
		token:      token,
		httpc:      &http.Client{Transport: transport},
		log:        log,
		membership: opts.Membership,
		archived:   opts.Archived,
	}, nil
}

// do issues one authenticated request against the API and maps
// connection-level failures to TransportError. The caller owns the response
// body.
func (c *Client) do(op, method, rawurl string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, rawurl, body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(op, err)
	}
	return resp, nil
}

// unexpected drains the response body into an UnexpectedStatusError.
func unexpected(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return errors.NewUnexpectedStatusError(op, resp.StatusCode, string(body))
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ListProjects pages through /projects until an empty page, caching the
// result for the remainder of the run.
func (c *Client) ListProjects() ([]Project, error) {
	if c.catalogLoaded {
		return c.catalog, nil
	}

	const op = "list projects"
	query := url.Values{}
	query.Set("simple", "true")
	query.Set("membership", strconv.FormatBool(c.membership))
	query.Set("archived", strconv.FormatBool(c.archived))
	query.Set("per_page", strconv.Itoa(perPage))

	var all []Project
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		resp, err := c.do(op, http.MethodGet, c.apiURL+"/projects?"+query.Encode(), nil, "")
		if err != nil {
			return nil, err
		}
		if !ok(resp) {
			defer resp.Body.Close()
			return nil, unexpected(op, resp)
		}

		var projects []Project
		err = json.NewDecoder(resp.Body).Decode(&projects)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: decoding page %d: %w", op, page, err)
		}
		if len(projects) == 0 {
			break
		}
		all = append(all, projects...)
		c.log.Debug("listed project page", "page", page, "count", len(projects))
	}

	c.catalog = all
	c.catalogLoaded = true
	return all, nil
}

// ScheduleExport triggers an asynchronous export job. A non-2xx response is
// terminal for the project.
func (c *Client) ScheduleExport(projectID int) error {
	const op = "schedule export"
	resp, err := c.do(op, http.MethodPost, fmt.Sprintf("%s/projects/%d/export", c.apiURL, projectID), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !ok(resp) {
		return unexpected(op, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// PollExport checks the export job status. The download locator is populated
// only when the server includes a _links object.
func (c *Client) PollExport(projectID int) (ExportPoll, error) {
	const op = "poll export"
	resp, err := c.do(op, http.MethodGet, fmt.Sprintf("%s/projects/%d/export", c.apiURL, projectID), nil, "")
	if err != nil {
		return ExportPoll{}, err
	}
	defer resp.Body.Close()
	if !ok(resp) {
		return ExportPoll{}, unexpected(op, resp)
	}

	var status exportStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return ExportPoll{}, fmt.Errorf("%s: decoding response: %w", op, err)
	}

	poll := ExportPoll{Status: status.ExportStatus}
	if status.Links != nil && status.Links.APIURL != "" {
		poll.DownloadURL = status.Links.APIURL
	}
	return poll, nil
}

// ScheduleImport uploads the archive as multipart form data together with the
// destination path, namespace, and a fixed overwrite=true: import always
// replaces an existing project at that path.
func (c *Client) ScheduleImport(leaf, namespace, filename string, archive io.Reader) error {
	const op = "schedule import"

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		err := writeImportForm(form, leaf, namespace, filename, archive)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	resp, err := c.do(op, http.MethodPost, c.apiURL+"/projects/import", pr, form.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !ok(resp) {
		return unexpected(op, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func writeImportForm(form *multipart.Writer, leaf, namespace, filename string, archive io.Reader) error {
	if err := form.WriteField("path", leaf); err != nil {
		return err
	}
	if err := form.WriteField("namespace", namespace); err != nil {
		return err
	}
	if err := form.WriteField("overwrite", "true"); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, archive)
	return err
}

// PollImport checks the import job status for a namespaced project path. The
// path is percent-encoded so it travels as a single URL segment: in the
// import direction no prior listing occurred, so there is no numeric ID to
// use instead.
func (c *Client) PollImport(projectPath string) (ImportPoll, error) {
	const op = "poll import"
	resp, err := c.do(op, http.MethodGet, c.apiURL+"/projects/"+url.PathEscape(projectPath)+"/import", nil, "")
	if err != nil {
		return ImportPoll{}, err
	}
	defer resp.Body.Close()
	if !ok(resp) {
		return ImportPoll{}, unexpected(op, resp)
	}

	var status importStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return ImportPoll{}, fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return ImportPoll{Status: status.ImportStatus, Detail: status.ImportError}, nil
}

// Download streams the archive at the locator into w. The locator comes from
// a finished export's _links object and is fetched with the same credentials.
func (c *Client) Download(locator string, w io.Writer) (int64, error) {
	const op = "download archive"
	resp, err := c.do(op, http.MethodGet, locator, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if !ok(resp) {
		return 0, unexpected(op, resp)
	}
	return io.Copy(w, resp.Body)
}
