package http

import (
	"context"
	"io"
	"mime"
	nethttp "net/http"
	"os"
	"path/filepath"
)

// Upload streams the file at filePath as a POST request body through the
// session for baseURL. The file is re-opened on every attempt so retry
// semantics match buffered requests; opts.Body is ignored.
func (c *Client) Upload(ctx context.Context, baseURL, endpoint, filePath string, opts *RequestOptions) (*Response, error) {
	sess, err := c.registry.Get(baseURL)
	if err != nil {
		return nil, err
	}

	eff := Merge(sess.Config(), sess.Headers(), opts)
	target := JoinURL(sess.BaseURL(), endpoint)

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return c.execute(ctx, sess, eff, nethttp.MethodPost, target, payload{
		open: func() (io.Reader, int64, string, error) {
			f, err := os.Open(filePath)
			if err != nil {
				return nil, 0, "", err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, 0, "", err
			}
			return f, info.Size(), contentType, nil
		},
	})
}
