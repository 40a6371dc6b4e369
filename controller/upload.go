package controller

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/dealmate/agent-backend/common/client"
	"github.com/dealmate/agent-backend/common/config"
)

var (
	errMissingContent  = errors.New("missing content")
	errContentTooLarge = errors.New("content exceeds the upload size limit")
)

// badContentError marks user content that can never be processed, as opposed
// to a fetch that failed on the way.
type badContentError struct {
	err error
}

func (e *badContentError) Error() string { return e.err.Error() }
func (e *badContentError) Unwrap() error { return e.err }

func maxUploadBytes() int64 {
	return int64(config.MaxUploadSizeMB) << 20
}

// loadUserContent returns the bytes of an inlined (base64 or data URL) or referenced file.
// The inlined form wins when both are given.
func loadUserContent(ctx context.Context, fileURL, inlined string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inlined) != "":
		return decodeInlined(inlined)
	case strings.TrimSpace(fileURL) != "":
		return fetchUserContent(ctx, strings.TrimSpace(fileURL))
	default:
		return nil, errMissingContent
	}
}

func decodeInlined(inlined string) ([]byte, error) {
	data := strings.TrimSpace(inlined)
	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return nil, &badContentError{errors.New("malformed data URL")}
		}
		data = data[idx+1:]
	}

	if int64(base64.StdEncoding.DecodedLen(len(data))) > maxUploadBytes()+2 {
		return nil, &badContentError{errContentTooLarge}
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &badContentError{errors.Wrap(err, "decode base64 content")}
	}
	if int64(len(raw)) > maxUploadBytes() {
		return nil, &badContentError{errContentTooLarge}
	}
	return raw, nil
}

func fetchUserContent(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &badContentError{errors.Errorf("unsupported file url %q", fileURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request failed")
	}
	resp, err := client.UserContentRequestHTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", u.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}
	if resp.ContentLength > maxUploadBytes() {
		return nil, &badContentError{errContentTooLarge}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes()+1))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", u.Redacted())
	}
	if int64(len(raw)) > maxUploadBytes() {
		return nil, &badContentError{errContentTooLarge}
	}
	return raw, nil
}

// filenameFromURL returns the last path element of fileURL, or fallback.
func filenameFromURL(fileURL, fallback string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return fallback
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}

// uploadErrorStatus maps a loadUserContent failure to an HTTP status.
func uploadErrorStatus(err error) int {
	var bad *badContentError
	switch {
	case errors.As(err, &bad):
		if errors.Is(err, errContentTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
